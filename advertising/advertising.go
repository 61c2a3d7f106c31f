// Package advertising looks up the platform advertising identifier behind the
// user's tracking authorization.
package advertising

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pitabwire/util"
)

// AuthorizationStatus is the user's tracking authorization state.
type AuthorizationStatus int

const (
	// StatusNotDetermined means the user has not been asked yet.
	StatusNotDetermined AuthorizationStatus = iota
	// StatusAuthorized means tracking is allowed.
	StatusAuthorized
	// StatusDenied covers both an explicit refusal and a platform restriction.
	StatusDenied
)

func (s AuthorizationStatus) String() string {
	switch s {
	case StatusNotDetermined:
		return "not_determined"
	case StatusAuthorized:
		return "authorized"
	case StatusDenied:
		return "denied"
	default:
		return "unknown"
	}
}

// Authorizer exposes the tracking authorization of the platform.
type Authorizer interface {
	Status(ctx context.Context) AuthorizationStatus
	// RequestAuthorization prompts the user and blocks until they answer or ctx ends.
	RequestAuthorization(ctx context.Context) (AuthorizationStatus, error)
}

// IdentifierProvider reads the raw advertising identifier.
type IdentifierProvider interface {
	AdvertisingIdentifier(ctx context.Context) (string, error)
}

// Lookup returns the advertising identifier when tracking is authorized.
// A not yet determined status triggers exactly one authorization request.
// An empty or all-zero identifier counts as unavailable, and errors are
// logged rather than returned.
func Lookup(ctx context.Context, auth Authorizer, provider IdentifierProvider) (string, bool) {
	if auth == nil || provider == nil {
		return "", false
	}

	log := util.Log(ctx)

	status := auth.Status(ctx)
	if status == StatusNotDetermined {
		var err error
		status, err = auth.RequestAuthorization(ctx)
		if err != nil {
			log.WithError(err).Warn("tracking authorization request failed")
			return "", false
		}
		log.WithField("status", status.String()).Debug("tracking authorization answered")
	}

	if status != StatusAuthorized {
		return "", false
	}

	identifier, err := provider.AdvertisingIdentifier(ctx)
	if err != nil {
		log.WithError(err).Warn("could not read advertising identifier")
		return "", false
	}

	if !IsValidIdentifier(identifier) {
		return "", false
	}
	return identifier, true
}

// IsValidIdentifier reports whether identifier is non-empty and not the
// all-zero UUID. Values that are not UUIDs are accepted as they are.
func IsValidIdentifier(identifier string) bool {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false
	}

	parsed, err := uuid.Parse(identifier)
	if err != nil {
		return true
	}
	return parsed != uuid.Nil
}

// Static is an Authorizer and IdentifierProvider with fixed answers.
// A request from StatusNotDetermined moves it to Answer.
type Static struct {
	mu         sync.Mutex
	status     AuthorizationStatus
	answer     AuthorizationStatus
	identifier string
	requests   int
}

// NewStatic creates a Static that reports status, resolves authorization
// requests to answer and hands out identifier.
func NewStatic(status, answer AuthorizationStatus, identifier string) *Static {
	return &Static{status: status, answer: answer, identifier: identifier}
}

func (s *Static) Status(_ context.Context) AuthorizationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Static) RequestAuthorization(ctx context.Context) (AuthorizationStatus, error) {
	if err := ctx.Err(); err != nil {
		return StatusNotDetermined, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++
	if s.status == StatusNotDetermined {
		s.status = s.answer
	}
	return s.status, nil
}

func (s *Static) AdvertisingIdentifier(_ context.Context) (string, error) {
	return s.identifier, nil
}

// Requests returns how many authorization requests were made.
func (s *Static) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}
