package userlocale_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pitabwire/userlocale/locale"
	"github.com/pitabwire/userlocale/preferences"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// nonClosing lets several resolvers in one test share the same stores.
type nonClosing struct {
	preferences.Repository
}

func (nonClosing) Close() error {
	return nil
}

var errUnavailable = errors.New("store unavailable")

type failingRepository struct{}

func (failingRepository) LoadRecord(context.Context) (*preferences.Record, error) {
	return nil, errUnavailable
}

func (failingRepository) SaveRecord(context.Context, preferences.Record) error {
	return errUnavailable
}

func (failingRepository) DeleteRecord(context.Context) error {
	return errUnavailable
}

func (failingRepository) LoadSecret(context.Context, string) (string, bool, error) {
	return "", false, errUnavailable
}

func (failingRepository) SaveSecret(context.Context, string, string) error {
	return errUnavailable
}

func (failingRepository) DeleteSecret(context.Context, string) error {
	return errUnavailable
}

func (failingRepository) Close() error {
	return nil
}

// channelWatcher hands the test's channel straight to the listener.
type channelWatcher struct {
	events chan locale.Event
	err    error
}

func newChannelWatcher() *channelWatcher {
	return &channelWatcher{events: make(chan locale.Event)}
}

func (w *channelWatcher) Watch(context.Context) (<-chan locale.Event, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.events, nil
}
