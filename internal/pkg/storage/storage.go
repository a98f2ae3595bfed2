// Package storage keeps a ledger of authenticated sessions so other
// services can look up who logged in from where.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/uuid"
)

var ErrNotFound = errors.New("session not found")

type SessionRecord struct {
	Username        string    `json:"username"`
	UUID            uuid.UUID `json:"uuid"`
	IP              string    `json:"ip"`
	ProtocolVersion int32     `json:"protocolVersion"`
	AuthenticatedAt time.Time `json:"authenticatedAt"`
}

type SessionStore interface {
	PutSession(ctx context.Context, rec SessionRecord) error
	// GetSession returns ErrNotFound if no unexpired record exists.
	GetSession(ctx context.Context, username string, ip net.IP) (SessionRecord, error)
	Close() error
}

// Key derives the lookup key of a player connecting from ip.
func Key(username string, ip net.IP) string {
	h := xxhash.New()
	_, _ = h.WriteString(strings.ToLower(username))
	_, _ = h.WriteString(ip.String())
	return hex.EncodeToString(h.Sum(nil))
}
