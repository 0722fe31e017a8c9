package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/awmpietro/policy-blocks/internal/app"
	"github.com/awmpietro/policy-blocks/internal/config"
	"github.com/awmpietro/policy-blocks/internal/policy"
	"github.com/awmpietro/policy-blocks/internal/policy/cache"
	"github.com/awmpietro/policy-blocks/internal/render"
	"github.com/awmpietro/policy-blocks/internal/store"
	"github.com/awmpietro/policy-blocks/internal/store/fsstore"
	"github.com/awmpietro/policy-blocks/internal/store/mongostore"
	"github.com/awmpietro/policy-blocks/internal/store/redisstore"
	"github.com/awmpietro/policy-blocks/internal/store/sqlitestore"
	"github.com/awmpietro/policy-blocks/internal/tracing"
)

func openStore(ctx context.Context, rt config.Runtime) (store.Store, error) {
	switch rt.Store {
	case config.StoreFS, "":
		return fsstore.New(ctx, rt.Dir)
	case config.StoreRedis:
		return redisstore.New(ctx, redisstore.Config{Addr: rt.RedisAddr, Prefix: rt.RedisPrefix})
	case config.StoreMongo:
		return mongostore.New(ctx, mongostore.Config{URI: rt.MongoURI, Database: rt.MongoDB})
	case config.StoreSQLite:
		return sqlitestore.New(ctx, rt.SQLitePath)
	}
	return nil, fmt.Errorf("unknown store %q", rt.Store)
}

// openService wires the configured store, cache, renderer and observer.
// The returned func releases them and must be called when done.
func openService(ctx context.Context) (*app.Service, func(), error) {
	rt := runtimeFromContext(ctx)
	logger := loggerFromContext(ctx)

	st, err := openStore(ctx, rt)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("store opened", "kind", rt.Store)

	obs := app.NewAsyncOpObserver(app.NewOpLogger(logger), rt.ObsBuffer)
	opts := []app.Option{
		app.WithCache(cache.NewInMemory(rt.CacheMaxItems)),
		app.WithRenderer(render.SVG),
		app.WithLogger(logger),
		app.WithObserver(obs),
	}

	var stopTracing func()
	if rt.TraceFile != "" {
		tracer, stop, err := openTracer(ctx, rt.TraceFile, logger)
		if err != nil {
			obs.Close()
			_ = st.Close()
			return nil, nil, err
		}
		opts = append(opts, app.WithTracer(tracer))
		stopTracing = stop
	}

	svc := app.NewService(st, policy.NewCompiler(), opts...)

	closeFn := func() {
		if stopTracing != nil {
			stopTracing()
		}
		obs.Close()
		if dropped := obs.Dropped(); dropped > 0 {
			logger.Warn("observer dropped events", "count", dropped)
		}
		if err := st.Close(); err != nil {
			logger.Warn("store close", "err", err)
		}
	}
	return svc, closeFn, nil
}

// openTracer exports spans to path. stop flushes the provider and closes
// the file.
func openTracer(ctx context.Context, path string, logger *log.Logger) (trace.Tracer, func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("trace file: %w", err)
	}
	exp, err := tracing.NewWriterExporter(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("trace exporter: %w", err)
	}
	tp, err := tracing.NewProvider(ctx, "policyctl", version, exp)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("trace provider: %w", err)
	}

	stop := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("trace shutdown", "err", err)
		}
		_ = f.Close()
	}
	return tp.Tracer(tracing.InstrumentationName), stop, nil
}
