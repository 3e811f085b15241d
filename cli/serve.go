package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/scpi/instrument"
	"github.com/robinvdvleuten/scpi/server"
)

type ServeCmd struct {
	Host string `help:"Host to bind to." default:"127.0.0.1"`
	Port int    `help:"Port to listen on." default:"5025" short:"p"`
}

func (cmd *ServeCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.InstrumentConfig()
	if err != nil {
		return err
	}
	inst := instrument.New(cfg)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCtx, report := startTelemetry(runCtx, ctx, globals, fmt.Sprintf("serve :%d", cmd.Port))
	defer report()

	srv := server.New(inst, cmd.Port)
	srv.Host = cmd.Host

	if cmd.Host != "127.0.0.1" && cmd.Host != "localhost" {
		printInfof(ctx.Stderr, "Warning: the instrument is reachable from other machines on %s", cmd.Host)
	}
	printInfof(ctx.Stderr, "Serving %s on %s", inst.Identity(), pathStyle.Render(srv.Addr()))

	if err := srv.ListenAndServe(runCtx); err != nil {
		return err
	}

	printSuccess(ctx.Stderr, "Server stopped")
	return nil
}
