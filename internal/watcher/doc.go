// Package watcher watches a built site directory and triggers index
// rebuilds when its pages change.
//
// The package implements a hybrid watching strategy:
//   - Primary: fsnotify for efficient event-based watching
//   - Fallback: Polling for environments where fsnotify fails (network mounts, Docker volumes)
//
// Only page files are reported. Events are debounced so a site build that
// rewrites hundreds of pages produces one batch, and a Rebuilder runs one
// build per batch, never two at once.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(watcher.Options{IgnoreDirs: []string{"docindex"}})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	go func() { _ = w.Start(ctx, "/path/to/dist") }()
//
//	r := watcher.NewRebuilder(func(ctx context.Context, batch []watcher.FileEvent) error {
//	    return rebuild(ctx)
//	})
//	return r.Run(ctx, w.Events())
package watcher
