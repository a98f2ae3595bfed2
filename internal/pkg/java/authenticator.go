package java

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofrs/uuid"
)

const (
	DefaultSessionServerURL = "https://sessionserver.mojang.com"
	hasJoinedPath           = "/session/minecraft/hasJoined"
	texturesPropertyName    = "textures"
)

type AuthErrorKind string

const (
	AuthErrorNetwork          AuthErrorKind = "network"
	AuthErrorNotJoined        AuthErrorKind = "not-joined"
	AuthErrorUnexpectedStatus AuthErrorKind = "unexpected-status"
	AuthErrorMalformedBody    AuthErrorKind = "malformed-body"
	AuthErrorBadUUID          AuthErrorKind = "bad-uuid"
)

var (
	ErrAuthentication = errors.New("authentication failed")

	ErrAuthNetwork          = &AuthError{Kind: AuthErrorNetwork}
	ErrAuthNotJoined        = &AuthError{Kind: AuthErrorNotJoined}
	ErrAuthUnexpectedStatus = &AuthError{Kind: AuthErrorUnexpectedStatus}
	ErrAuthMalformedBody    = &AuthError{Kind: AuthErrorMalformedBody}
	ErrAuthBadUUID          = &AuthError{Kind: AuthErrorBadUUID}
)

// AuthError is returned by a SessionAuthenticator when a player could not be
// verified. It matches ErrAuthentication and the sentinel of its kind.
type AuthError struct {
	Kind AuthErrorKind
	Err  error
}

func (err *AuthError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("authentication failed: %s", err.Kind)
	}
	return fmt.Sprintf("authentication failed: %s: %v", err.Kind, err.Err)
}

func (err *AuthError) Unwrap() error {
	return err.Err
}

func (err *AuthError) Is(target error) bool {
	if target == ErrAuthentication {
		return true
	}

	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == err.Kind
}

type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// Profile is the identity the session server vouches for.
type Profile struct {
	UUID       uuid.UUID
	Name       string
	Properties []Property
}

// Skin returns the signed textures property if the session server sent one.
func (p Profile) Skin() (Property, bool) {
	for _, prop := range p.Properties {
		if prop.Name == texturesPropertyName {
			return prop, true
		}
	}
	return Property{}, false
}

type SessionAuthenticator interface {
	AuthenticateSession(ctx context.Context, username, sessionHash string, ip net.IP) (*Profile, error)
}

type HTTPSessionAuthenticator struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
	// Retries is the number of extra attempts made after a network failure.
	Retries int
	// PreventProxyConnections sends the client IP so the session server can
	// reject players who joined from a different address.
	PreventProxyConnections bool
}

func (auth HTTPSessionAuthenticator) hasJoinedURL(username, sessionHash string, ip net.IP) string {
	query := url.Values{}
	query.Set("username", username)
	query.Set("serverId", sessionHash)
	if auth.PreventProxyConnections && ip != nil {
		query.Set("ip", ip.String())
	}

	baseURL := auth.BaseURL
	if baseURL == "" {
		baseURL = DefaultSessionServerURL
	}
	return strings.TrimSuffix(baseURL, "/") + hasJoinedPath + "?" + query.Encode()
}

func (auth HTTPSessionAuthenticator) AuthenticateSession(ctx context.Context, username, sessionHash string, ip net.IP) (*Profile, error) {
	reqURL := auth.hasJoinedURL(username, sessionHash, ip)

	var err error
	for attempt := 0; attempt <= auth.Retries; attempt++ {
		var profile *Profile
		profile, err = auth.hasJoined(ctx, reqURL)
		if err == nil {
			return profile, nil
		}

		if !errors.Is(err, ErrAuthNetwork) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, err
}

func (auth HTTPSessionAuthenticator) hasJoined(ctx context.Context, reqURL string) (*Profile, error) {
	if auth.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, auth.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &AuthError{Kind: AuthErrorNetwork, Err: err}
	}

	client := auth.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &AuthError{Kind: AuthErrorNetwork, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, &AuthError{Kind: AuthErrorNotJoined}
	default:
		return nil, &AuthError{
			Kind: AuthErrorUnexpectedStatus,
			Err:  fmt.Errorf("status %s", resp.Status),
		}
	}

	bb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{Kind: AuthErrorNetwork, Err: err}
	}

	if len(strings.TrimSpace(string(bb))) == 0 {
		return nil, &AuthError{Kind: AuthErrorNotJoined}
	}

	dto := struct {
		ID         string     `json:"id"`
		Name       string     `json:"name"`
		Properties []Property `json:"properties"`
	}{}

	if err := json.Unmarshal(bb, &dto); err != nil {
		return nil, &AuthError{Kind: AuthErrorMalformedBody, Err: err}
	}

	if dto.Name == "" {
		return nil, &AuthError{Kind: AuthErrorMalformedBody, Err: errors.New("missing name")}
	}

	playerUUID, err := uuid.FromString(dto.ID)
	if err != nil {
		return nil, &AuthError{Kind: AuthErrorBadUUID, Err: err}
	}

	return &Profile{
		UUID:       playerUUID,
		Name:       dto.Name,
		Properties: dto.Properties,
	}, nil
}
