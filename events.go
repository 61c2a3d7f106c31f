package userlocale

import (
	"context"
	"errors"

	"github.com/pitabwire/util"

	"github.com/pitabwire/userlocale/locale"
)

// ErrNoWatcher is returned by Start when the resolver has no locale watcher.
var ErrNoWatcher = errors.New("userlocale: no locale watcher configured")

// OnLocaleChanged re-detects the system language and country.
func (r *Resolver) OnLocaleChanged(ctx context.Context) {
	r.Refresh(ctx)
}

// Listen calls OnLocaleChanged for every event until events is closed or ctx
// is done. It blocks; run it in its own goroutine.
func (r *Resolver) Listen(ctx context.Context, events <-chan locale.Event) {
	log := r.Log(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}

			before := r.Snapshot()
			r.OnLocaleChanged(ctx)
			after := r.Snapshot()

			log.WithField("path", event.Path).
				WithField("language", after.Language).
				WithField("country", after.Country).
				WithField("changed", before.Language != after.Language || before.Country != after.Country).
				Info("locale change observed")
		}
	}
}

// Start begins watching the configured locale watcher in the background.
// Calling Start again while a listener runs is a no-op.
func (r *Resolver) Start(ctx context.Context) error {
	if r.watcher == nil {
		return ErrNoWatcher
	}

	r.listenMu.Lock()
	defer r.listenMu.Unlock()

	if r.stopListen != nil {
		return nil
	}

	listenCtx, cancel := context.WithCancel(ctx)

	events, err := r.watcher.Watch(listenCtx)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	r.stopListen = cancel
	r.listenerDone = done

	go func() {
		defer close(done)
		r.Listen(listenCtx, events)
	}()

	r.Log(ctx).Debug("locale watcher started")
	return nil
}

// Stop ends a listener started with Start and waits for it to return.
func (r *Resolver) Stop(ctx context.Context) {
	r.listenMu.Lock()
	cancel, done := r.stopListen, r.listenerDone
	r.stopListen, r.listenerDone = nil, nil
	r.listenMu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close stops the listener and releases the preference store. Only the first
// call has any effect.
func (r *Resolver) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		r.Stop(ctx)

		r.mu.Lock()
		defer r.mu.Unlock()

		r.closeErr = r.repository.Close()
		if r.closeErr != nil {
			util.Log(ctx).WithError(r.closeErr).Warn("could not close preference store cleanly")
		}
	})
	return r.closeErr
}
