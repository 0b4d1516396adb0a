// SPDX-FileCopyrightText: 2025 William Judge
//
// SPDX-License-Identifier: GPL-3.0-or-later

package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/WilliamJudge94/fairshare/internal/fairshare"
	"github.com/WilliamJudge94/fairshare/internal/ipc"
	"github.com/WilliamJudge94/fairshare/internal/policy"
)

// debouncePeriod batches the event bursts editors and atomic writes
// produce into a single policy reload.
const debouncePeriod = 500 * time.Millisecond

// Daemon serves allocation requests until its context is canceled.
type Daemon struct {
	Manager *fairshare.Manager

	// SocketPath of the IPC socket. Empty selects the default.
	SocketPath string

	// PolicyPath of the watched policy file. Empty selects the
	// default.
	PolicyPath string

	// Handler serves the requests arriving on the socket. Nil selects
	// a [Handler] backed by Manager.
	Handler ipc.Handler
}

// Run serves requests and watches the policy file until ctx is
// canceled or one of the two fails.
func (d *Daemon) Run(ctx context.Context) error {
	if d.PolicyPath == "" {
		d.PolicyPath = policy.DefaultPath
	}

	handler := d.Handler
	if handler == nil {
		handler = &Handler{Manager: d.Manager}
	}

	server := &ipc.Server{
		Path:    d.SocketPath,
		Handler: handler,
	}

	slog.Info("Daemon starting",
		slog.String("policy", d.PolicyPath))

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Serve(ctx)
	})

	group.Go(func() error {
		return d.watchPolicy(ctx)
	})

	err := group.Wait()

	slog.Info("Daemon stopped")

	return err
}

// watchPolicy reloads the policy whenever the file changes on disk.
// The watch is on the directory since editors and atomic writers
// replace the file, which would orphan a watch on the file itself.
func (d *Daemon) watchPolicy(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create policy watcher: %w", err)
	}
	defer watcher.Close()

	path := filepath.Clean(d.PolicyPath)

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		// No policy directory yet. The daemon still serves requests,
		// it just keeps the policy it started with.
		slog.Warn("Policy directory not watchable",
			slog.String("path", filepath.Dir(path)),
			slog.Any("error", err))

		<-ctx.Done()

		return nil
	}

	slog.Debug("Watching policy file", slog.String("path", path))

	var reload <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != path ||
				event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			slog.Debug("Policy file changed",
				slog.String("op", event.Op.String()))

			reload = time.After(debouncePeriod)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Error("Watch policy file", slog.Any("error", err))

		case <-reload:
			reload = nil

			d.reloadPolicy()
		}
	}
}

func (d *Daemon) reloadPolicy() {
	pol, err := policy.Load(d.PolicyPath)
	if err != nil {
		slog.Error("Reload policy", slog.Any("error", err))
		return
	}

	if err := pol.Validate(); err != nil {
		slog.Error("Reject changed policy", slog.Any("error", err))
		return
	}

	d.Manager.SetPolicy(pol)

	slog.Info("Policy reloaded",
		slog.String("path", d.PolicyPath),
		slog.Uint64("default_cpu", uint64(pol.Defaults.CPU)),
		slog.Uint64("default_mem_gb", uint64(pol.Defaults.Mem)))
}
