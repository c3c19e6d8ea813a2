// Package coordinator schedules background sync cycles.
//
// On every tick the coordinator reads the two toggles of the settings
// service. Nothing runs while the scheduler is disabled, and nothing runs in
// offline mode, where the remote API must not be contacted. Otherwise it
// lists the active users whose data is not a frozen import, expands them into
// scopes through sync.Manager, adds the public scopes, and runs one cycle per
// scope.
//
// Cycles of different scopes run concurrently, bounded by
// sync.maxConcurrentScopes. A scope whose previous cycle is still running is
// skipped for the tick, so no scope ever has two cycles in flight.
//
// # Usage
//
//	c := coordinator.New(manager, settingsSvc, queries,
//	    coordinator.WithSyncConfig(cfg.Sync),
//	    coordinator.WithSyncMetrics(metrics))
//
//	go c.Start(ctx)
//	defer c.Stop()
//
// RunOnce runs a single tick synchronously, which is what the one-shot sync
// command uses.
//
// # Error Handling
//
// Failed cycles are logged and counted; the scope is attempted again on the
// next tick. Settings or user lookup failures skip the tick.
package coordinator
