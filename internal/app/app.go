package app

import (
	"context"
	"net/http"

	"github.com/hamidmayeli/api-faker/internal/pkg/pkgconfig"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkglog"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkgrouter"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkgroutine"
	"github.com/hamidmayeli/api-faker/internal/pkg/pkguid"
)

// Options carries command-line overrides; zero values leave the config
// file untouched.
type Options struct {
	ConfigPath string
	Address    string
	Backend    string
	StorePath  string
	Seed       string
	IDField    string
	ReadOnly   bool
}

type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	opts Options

	// configuration
	config pkgconfig.Config

	// libraries
	uuid      pkguid.StringID
	goroutine *pkgroutine.Manager

	// server
	router     *pkgrouter.Router
	httpServer *http.Server

	closerFn map[string]func(context.Context) error
}

func New(opts Options) *App {
	pkglog.InitLogging()

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
	}

	app.initConfig()
	app.initLibraries()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
