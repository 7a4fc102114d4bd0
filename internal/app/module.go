package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/hamidmayeli/api-faker/internal/rest"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.rest.enabled") {
		closer, err := rest.New(rest.Dependency{
			Config:    a.config,
			Router:    a.router,
			Goroutine: a.goroutine,
			Context:   a.ctx,
			ID:        a.uuid,
		})
		if err != nil {
			slog.Error("failed to init module rest", "error", err)
			os.Exit(1)
		}
		if closer != nil {
			if a.closerFn == nil {
				a.closerFn = map[string]func(context.Context) error{}
			}
			a.closerFn["Rest"] = closer
		}
	}
}
