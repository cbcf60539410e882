// Package httpserver runs the web front end's HTTP listener with graceful
// shutdown on context cancellation or SIGINT/SIGTERM, and provides the
// liveness/readiness handler backed by named dependency checks.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithShutdownHook(func() { pool.Close() }),
//	)
//	err := srv.Run(ctx, router)
package httpserver
