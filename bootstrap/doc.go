// Package bootstrap runs an sttkit binary through a uniform lifecycle:
// start components, run hooks and configure callbacks, report readiness,
// then block until a signal (Run) or until a finite task returns (RunTask),
// and finally stop components in reverse order.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(orchestrator)
//	app.RegisterComponent(server.NewComponent(srv))
//	err = app.Run(ctx)
package bootstrap
