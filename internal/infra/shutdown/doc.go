// Package shutdown provides graceful shutdown for respkv.
//
// A Handler waits for SIGINT, SIGTERM or an explicit Trigger and then runs
// the registered hooks in reverse order under one timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(10*time.Second, logger)
//	h.OnShutdown("resp server", srv.Shutdown)
//	err := h.WaitContext(ctx)
package shutdown
