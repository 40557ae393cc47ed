// Package auth implements the credential source for space creation. The
// backend authenticates submissions with the caller's session cookies; the
// browser original reads them from the cookie jar, the CLI reads them from
// configuration.
package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/mantis-labs/mantis-cli/internal/core/domain"
	"github.com/mantis-labs/mantis-cli/internal/core/ports/driven"
)

// sessionCookieName is the cookie that must be present: without it the
// backend rejects the submission, so failing early gives a better message.
const sessionCookieName = "sessionid"

// SettingsReader is the slice of the config store this source needs.
type SettingsReader interface {
	GetString(key string) string
	Load() error
}

// Ensure CookieSource implements the interface.
var _ driven.CredentialSource = (*CookieSource)(nil)

// CookieSource serialises the configured backend session cookies into the
// "name=value; ..." header form the submission payload carries.
type CookieSource struct {
	settings   SettingsReader
	sessionKey string
	csrfKey    string
}

// NewCookieSource creates a cookie credential source reading the session
// and CSRF cookies from the given config keys.
func NewCookieSource(settings SettingsReader, sessionKey, csrfKey string) *CookieSource {
	return &CookieSource{
		settings:   settings,
		sessionKey: sessionKey,
		csrfKey:    csrfKey,
	}
}

// CookieHeader returns the serialised session cookies. A missing session
// cookie wraps domain.ErrAuthRequired.
func (s *CookieSource) CookieHeader(ctx context.Context) (string, error) {
	session := strings.TrimSpace(s.settings.GetString(s.sessionKey))
	if session == "" {
		return "", fmt.Errorf("%w: no %s cookie configured; run `mantis auth cookie`", domain.ErrAuthRequired, sessionCookieName)
	}

	pairs := []string{sessionCookieName + "=" + session}
	if csrf := strings.TrimSpace(s.settings.GetString(s.csrfKey)); csrf != "" {
		pairs = append(pairs, "csrftoken="+csrf)
	}
	return strings.Join(pairs, "; "), nil
}

// Refresh re-reads the cookies from the config file, picking up rotations
// made while a run is in flight.
func (s *CookieSource) Refresh(ctx context.Context) error {
	return s.settings.Load()
}
