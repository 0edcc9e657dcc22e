package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsawler/pdf2docx/preview"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		thumbnail string
		chars     int
	)

	cmd := &cobra.Command{
		Use:   "preview <in.pdf>",
		Short: "Show the first page text and optionally save a thumbnail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.preview(cmd.Context(), args[0], thumbnail, chars)
		},
	}
	cmd.Flags().StringVar(&thumbnail, "thumbnail", "", "write a PNG thumbnail of the first page to this file")
	cmd.Flags().IntVar(&chars, "chars", 0, "maximum characters of text to show (default from config)")
	return cmd
}

func (a *app) preview(ctx context.Context, input, thumbnail string, chars int) error {
	if chars <= 0 {
		chars = a.cfg.Preview.SnippetChars
	}

	sp := newSpinner(a.errOut, "Reading "+input)
	sp.start()
	text, textErr := preview.Snippet(ctx, input, chars)

	var thumbErr error
	if thumbnail != "" {
		sp.message("Rendering thumbnail")
		thumbErr = a.writeThumbnail(ctx, input, thumbnail)
	}
	sp.stop()

	if textErr != nil {
		warn(a.errOut, "%s: %v", preview.WarnText, textErr)
	} else {
		fmt.Fprintln(a.out, text)
	}
	if thumbnail != "" {
		if thumbErr != nil {
			warn(a.errOut, "%s: %v", preview.WarnThumbnail, thumbErr)
		} else {
			success(a.errOut, "Thumbnail written to %s", thumbnail)
		}
	}

	if textErr != nil && (thumbnail == "" || thumbErr != nil) {
		return fmt.Errorf("no preview available for %s", input)
	}
	return nil
}

func (a *app) writeThumbnail(ctx context.Context, input, output string) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	png, err := preview.Thumbnail(ctx, data, a.cfg.Preview.ThumbnailWidth, a.cfg.Preview.ThumbnailDPI)
	if err != nil {
		return err
	}
	return os.WriteFile(output, png, 0o644)
}
