package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tsawler/pdf2docx/web"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web converter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				a.cfg.Server.Addr = addr
			}

			rec, closeOCR, err := a.recognizer()
			if err != nil {
				return err
			}
			defer closeOCR()

			var opts []web.Option
			if rec != nil {
				opts = append(opts, web.WithRecognizer(rec))
			}
			srv, err := web.NewServer(a.cfg, a.log, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	return cmd
}
