// Command pdf2docx converts PDF documents to Word files, either from the
// command line or through a small web application.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tsawler/pdf2docx/config"
	"github.com/tsawler/pdf2docx/internal/logging"
	"github.com/tsawler/pdf2docx/ocr"
	"github.com/tsawler/pdf2docx/pdfsource"
)

// version is set at build time via ldflags.
var version = "dev"

// app is the state shared by all subcommands once the root command has
// loaded the configuration.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "pdf2docx",
		Short: "Convert PDF documents to editable Word files",
		Long: `pdf2docx turns a PDF into a .docx document: page text becomes paragraphs,
detected tables become Word tables and embedded images are kept.

Use "convert" for single files, "preview" to check a document first and
"serve" for the browser upload and download workflow.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().String("config", "", "config file (default: ./pdf2docx.yaml or ~/.config/pdf2docx/pdf2docx.yaml)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-format", "", "log format: json or console")

	root.AddCommand(
		newServeCmd(a),
		newConvertCmd(a),
		newPreviewCmd(a),
		newVersionCmd(a),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	v, err := config.NewViper(cfgFile)
	if err != nil {
		return err
	}
	if err := v.BindPFlag("log.level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	if err := v.BindPFlag("log.format", cmd.Flags().Lookup("log-format")); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logCfg := cfg.Logging()
	logCfg.Output = a.errOut
	log, err := logging.New(logCfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	if used := v.ConfigFileUsed(); used != "" {
		log.Debug().Str("file", used).Msg("using config file")
	}
	return nil
}

// recognizer returns the OCR engine when the configuration asks for one.
// The returned close function is never nil.
func (a *app) recognizer() (pdfsource.Recognizer, func(), error) {
	if !a.cfg.OCR.Enabled {
		return nil, func() {}, nil
	}
	if !ocr.Enabled() {
		a.log.Warn().Msg("OCR requested but this binary was built without -tags ocr; continuing without it")
		return nil, func() {}, nil
	}
	c, err := ocr.New(a.cfg.OCR.Language)
	if err != nil {
		return nil, func() {}, fmt.Errorf("starting OCR: %w", err)
	}
	return c, func() { c.Close() }, nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
