//go:build mage

// Package main contains Mage build targets for pdf2docx.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "pdf2docx"
	cmdPkg  = "./cmd/pdf2docx"
)

// Default target to run when none is specified.
var Default = Build

func ldflags() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return "-X main.version=" + version
}

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-ldflags", ldflags(), "-o", out, cmdPkg); err != nil {
		return err
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// BuildOCR compiles the CLI with Tesseract OCR support. Tesseract and
// leptonica headers must be installed.
func BuildOCR() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-tags", "ocr", "-ldflags", ldflags(),
		"-o", filepath.Join(binDir, binName+"-ocr"), cmdPkg)
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests with the race detector.
func Test() error {
	mg.Deps(Vet)
	return sh.RunV("go", "test", "-race", "./...")
}

// TestOCR runs the tests including the Tesseract-backed OCR package.
func TestOCR() error {
	return sh.RunV("go", "test", "-tags", "ocr", "./...")
}

// Serve builds and starts the web converter on :8080.
func Serve() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve", "--log-format", "console")
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
