package system

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/julianstephens/clinicsched/internal/api"
	"github.com/julianstephens/clinicsched/internal/cli"
	"github.com/julianstephens/clinicsched/internal/constants"
)

// ServeCmd exposes the clinic service over HTTP until interrupted.
type ServeCmd struct {
	Addr string `help:"Listen address (overrides config)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	addr := c.Addr
	if addr == "" && ctx.Config != nil {
		addr = ctx.Config.Addr
	}
	if addr == "" {
		addr = constants.DefaultServerAddr
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e := api.NewServer(api.NewHandler(ctx.Service))
	fmt.Printf("Listening on http://%s (Ctrl+C to stop)\n", addr)
	return api.Serve(sigCtx, e, addr)
}
