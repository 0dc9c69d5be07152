// Akira - Real-Time Storefront Event Intelligence
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/akira

/*
Package supervisor provides process supervision for Akira using suture v4.

The tree organizes services into three layers:

	RootSupervisor ("akira")
	├── DataSupervisor ("data-layer")
	│   └── retention-scheduler (if RETENTION_ENABLED)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── realtime-hub
	│   ├── reaction-dispatcher
	│   └── event-mirror (if NATS_ENABLED, build tag: nats)
	└── APISupervisor ("api-layer")
	    └── http-server

A crashed service is restarted with backoff inside its own layer. Supervisor
events are logged through sutureslog on the slog bridge of the global zerolog
logger.

Usage:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	tree.Register(supervisor.Services{
	    Retention:  scheduler,
	    Hub:        services.NewWebSocketHubService(hub),
	    Dispatcher: dispatcher,
	    HTTP:       services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout),
	})
	err = tree.Serve(ctx)

Services only need to implement suture.Service (Serve(ctx) error). Components
with other lifecycles are adapted in the services subpackage.
*/
package supervisor
