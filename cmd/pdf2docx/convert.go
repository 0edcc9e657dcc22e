package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tsawler/pdf2docx"
	"github.com/tsawler/pdf2docx/format"
	"github.com/tsawler/pdf2docx/model"
)

type convertFlags struct {
	output   string
	noImages bool
	noTables bool
	quality  string
	stats    string
	quiet    bool
}

func newConvertCmd(a *app) *cobra.Command {
	var f convertFlags

	cmd := &cobra.Command{
		Use:   "convert <in.pdf>",
		Short: "Convert a PDF file to .docx",
		Long: `Convert reads a PDF and writes a Word document next to it, named
<name>_converted.docx unless -o is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.convert(cmd.Context(), args[0], f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: <name>_converted.docx beside the input)")
	cmd.Flags().BoolVar(&f.noImages, "no-images", false, "leave embedded images out")
	cmd.Flags().BoolVar(&f.noTables, "no-tables", false, "leave detected tables out")
	cmd.Flags().StringVar(&f.quality, "quality", "", "image quality: fast, balanced or high (default from config)")
	cmd.Flags().StringVar(&f.stats, "stats", "text", "statistics format: text, json or yaml")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "no progress bar")
	return cmd
}

func (a *app) convert(ctx context.Context, input string, f convertFlags) error {
	render, err := statsRenderer(f.stats)
	if err != nil {
		return err
	}
	if format.Detect(input) != format.PDF {
		head, _ := readHead(input)
		if format.DetectFromMagic(head) != format.PDF {
			return fmt.Errorf("%s does not look like a PDF", input)
		}
	}

	opts := a.cfg.ConvertOptions()
	opts.IncludeImages = !f.noImages
	opts.IncludeTables = !f.noTables
	if f.quality != "" {
		if opts.Quality, err = model.ParseQuality(f.quality); err != nil {
			return err
		}
	}

	output := f.output
	if output == "" {
		output = filepath.Join(filepath.Dir(input), format.OutputName(input))
	}

	rec, closeOCR, err := a.recognizer()
	if err != nil {
		return err
	}
	defer closeOCR()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Convert.Timeout)
	defer cancel()

	bar := newProgressBar(a.errOut, filepath.Base(input), f.quiet || f.stats != "text")
	c := pdf2docx.Open(input).
		Options(opts).
		ImageWidth(a.cfg.Convert.ImageWidthInches).
		WithLogger(a.log).
		OnProgress(bar.update)
	if rec != nil {
		c = c.WithOCR(rec)
	}

	res, err := c.Convert(ctx)
	bar.finish()
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, res.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	return render(a.out, statsReport{
		Input:   input,
		Output:  output,
		ID:      res.ID,
		Quality: opts.Quality.Slug(),
		Bytes:   len(res.Data),
		Stats:   res.Stats,
	})
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	head := make([]byte, 8)
	n, _ := f.Read(head)
	return head[:n], nil
}
