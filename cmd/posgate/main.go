package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	convAccess "github.com/sofmon/posgate/lib/access"
	convCfg "github.com/sofmon/posgate/lib/cfg"
	convCtx "github.com/sofmon/posgate/lib/ctx"
	convGate "github.com/sofmon/posgate/lib/gate"
	convSession "github.com/sofmon/posgate/lib/session"
	convStorage "github.com/sofmon/posgate/lib/storage"
)

const agent convCtx.Agent = "posgate"

func main() {

	configFolder := flag.String("config", convCfg.ConfigLocation(), "folder holding one file per config key")
	logCalls := flag.Bool("log-calls", false, "dump requests and responses answered by the gate")
	flag.Parse()

	err := convCfg.SetConfigLocation(*configFolder)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	parent, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx := convCtx.WrapContext(parent, agent)

	err = run(ctx, *logCalls)
	if err != nil {
		ctx.Logger().Error("posgate stopped", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx convCtx.Context, logCalls bool) (err error) {
	ctx = ctx.WithScope("main.run")
	defer ctx.Exit(&err)

	frontend, err := url.Parse(convCfg.StringOrPanic(convCfg.ConfigKeyFrontendURL))
	if err != nil {
		return
	}

	store, err := convSession.NewStore(ctx)
	if err != nil {
		return
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	backend := convSession.NewClient(convCfg.StringOrPanic(convCfg.ConfigKeyBackendURL), nil)

	accessCfg, err := convAccess.LoadConfig()
	if err != nil {
		return
	}

	table, err := loadTable(ctx)
	if err != nil {
		return
	}

	gate := convGate.New(
		ctx,
		table,
		convAccess.NewArbiter(accessCfg),
		convSession.NewManager(store, backend),
		httputil.NewSingleHostReverseProxy(frontend),
	)

	srv := convGate.NewServer(ctx, convCfg.StringOrDefault(convCfg.ConfigKeyListenAddr, convGate.DefaultListenAddr), gate)
	if logCalls {
		srv.EnableCallsLogging()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if e := srv.Shutdown(convCtx.WrapContext(shutdownCtx, agent)); e != nil {
			ctx.Logger().Warn("shutdown failed", "error", e.Error())
		}
	}()

	ctx.Logger().Info("posgate listening", "frontend", frontend.String(), "routes", table.Len())

	err = srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return
}

// loadTable reads routes.json from the 'routes_bucket' storage when one is
// configured, and from the 'routes' config key otherwise.
func loadTable(ctx convCtx.Context) (convAccess.Table, error) {

	if _, err := convCfg.String(convCfg.ConfigKeyRoutesBucket); err != nil {
		return convAccess.LoadTableFromConfig(ctx)
	}

	s, err := convStorage.New(ctx)
	if err != nil {
		return convAccess.Table{}, err
	}

	ctx.Logger().Info("loading routes from storage", "provider", s.Provider().Name())

	return convAccess.LoadTable(ctx, s, convAccess.RoutesObject)
}
