// Package bootstrap runs the framegraph process lifecycle.
//
// An App owns the validated configuration and the logger. Long-running
// services such as the debug server are registered with Go and run
// alongside a finite task (the render loop) under one errgroup:
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.Go("debug", srv.Run)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return loop.Run(ctx)
//	})
//
// The services are cancelled when the task returns, and SIGINT or SIGTERM
// cancels the task. OnStop hooks run last, bounded by the graceful timeout.
package bootstrap
