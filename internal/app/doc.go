// Package app provides application initialization and lifecycle management
// for the analytics backend. It handles the orchestration of all major
// components including configuration loading, service initialization, and
// graceful shutdown procedures.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//  1. Load configuration from environment and files
//  2. Initialize logging and observability
//  3. Create the data repository and the datagov client
//  4. Initialize the analytics, anomaly, forecast, insight and export services
//  5. Set up HTTP handlers and middleware
//  6. Configure and start the HTTP server
//  7. Set up graceful shutdown handlers
//
// # Usage
//
// The main entry point is typically:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The package handles SIGINT and SIGTERM signals to ensure active requests
// are completed, telemetry providers are flushed, and log files are closed.
// All initialization errors are returned to the caller; the app never calls
// os.Exit() directly.
package app
