package userlocale_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/pitabwire/userlocale"
	"github.com/pitabwire/userlocale/locale"
)

func (s *ResolverSuite) TestListenRefreshesOnEvents() {
	ctx, r := s.newResolver()
	r.SetCustomCountry(ctx, "de")

	events := make(chan locale.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Listen(ctx, events)
	}()

	s.source.Update(locale.Values{Languages: []string{"ja-JP"}})
	events <- locale.Event{Path: "/etc/locale.conf"}

	s.Eventually(func() bool {
		return r.Snapshot().Language == "ja"
	}, 2*time.Second, 10*time.Millisecond)

	s.Equal("jp", r.Snapshot().Country)
	s.Equal("de", r.EffectiveCountry())

	close(events)
	s.Eventually(func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *ResolverSuite) TestListenStopsWithContext() {
	_, r := s.newResolver()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Listen(ctx, make(chan locale.Event))
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		s.Fail("listener did not stop")
	}
}

func (s *ResolverSuite) TestStartWithoutWatcher() {
	ctx, r := s.newResolver()
	s.ErrorIs(r.Start(ctx), userlocale.ErrNoWatcher)
}

func (s *ResolverSuite) TestStartPropagatesWatchErrors() {
	watcher := newChannelWatcher()
	watcher.err = errors.New("inotify limit reached")

	ctx, r := s.newResolver(userlocale.WithWatcher(watcher))
	s.Error(r.Start(ctx))
}

func (s *ResolverSuite) TestStartAndStop() {
	watcher := newChannelWatcher()
	ctx, r := s.newResolver(userlocale.WithWatcher(watcher))

	s.Require().NoError(r.Start(ctx))
	s.Require().NoError(r.Start(ctx))

	s.source.Update(locale.Values{Languages: []string{"sw-KE"}})
	watcher.events <- locale.Event{Path: "/etc/default/locale"}

	s.Eventually(func() bool {
		return r.EffectiveCountry() == "ke"
	}, 2*time.Second, 10*time.Millisecond)
	s.Equal("sw", r.EffectiveLanguage())

	r.Stop(ctx)
	r.Stop(ctx)

	s.Require().NoError(r.Start(ctx))

	s.source.Update(locale.Values{Languages: []string{"it-IT"}})
	watcher.events <- locale.Event{Path: "/etc/default/locale"}

	s.Eventually(func() bool {
		return r.EffectiveLanguage() == "it"
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *ResolverSuite) TestFileWatcherDrivesRefresh() {
	dir := s.T().TempDir()
	conf := filepath.Join(dir, "locale.conf")
	s.Require().NoError(os.WriteFile(conf, []byte("LANG=fr_CA.UTF-8\n"), 0o600))

	ctx, r := s.newResolver(userlocale.WithWatcher(locale.NewFileWatcher(conf)))
	s.Require().NoError(r.Start(ctx))

	s.source.Update(locale.Values{Languages: []string{"de-AT"}})
	s.Require().NoError(os.WriteFile(conf, []byte("LANG=de_AT.UTF-8\n"), 0o600))

	s.Eventually(func() bool {
		return r.EffectiveCountry() == "at"
	}, 5*time.Second, 20*time.Millisecond)
	s.Equal("de", r.EffectiveLanguage())
}
