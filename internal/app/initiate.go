package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/rs/cors"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgconfig"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkgroutine"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkgrouter"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkguid"
)

func (a *App) initConfig() {
	path := a.opts.ConfigPath
	if path == "" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "path", path, "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	// Command-line flags take precedence over file values.
	if a.opts.Address != "" {
		cfg.Set("server.address.http", a.opts.Address)
	}
	if a.opts.Backend != "" {
		cfg.Set("store.backend", a.opts.Backend)
	}
	if a.opts.StorePath != "" {
		cfg.Set("store.path", a.opts.StorePath)
	}
	if a.opts.Seed != "" {
		cfg.Set("modules.rest.seed", a.opts.Seed)
	}
	if a.opts.IDField != "" {
		cfg.Set("modules.rest.id_field", a.opts.IDField)
	}
	if a.opts.ReadOnly {
		cfg.Set("modules.rest.read_only", true)
	}

	a.config = cfg
}

func (a *App) initLibraries() {
	a.goroutine = pkgroutine.NewManager(100)
	a.uuid = pkguid.NewUUID()
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

//nolint:unparam // is always nil
func (a *App) initClosers() {
	if a.closerFn == nil {
		a.closerFn = map[string]func(context.Context) error{}
	}

	a.closerFn["HTTP Server"] = func(ctx context.Context) error {
		return a.httpServer.Shutdown(ctx)
	}
	a.closerFn["Config"] = func(context.Context) error {
		return a.config.Close()
	}
}
