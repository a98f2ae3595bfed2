package java

import (
	"context"
	"net"
	"time"

	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol/login"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol/play"
)

type State int

const (
	StateHandshaking State = iota
	StateStatus
	StateLogin
	StateAuthenticated
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateHandshaking:
		return "handshaking"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StateAuthenticated:
		return "authenticated"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Session is handed to the play phase once a player is authenticated.
// Conn already encrypts and decrypts with SharedSecret.
type Session struct {
	Conn            *Conn
	SharedSecret    []byte
	Profile         Profile
	Username        string
	ProtocolVersion int32
	RemoteAddr      net.Addr
	AuthenticatedAt time.Time
}

// SessionHandler takes over an authenticated connection. The connection is
// closed after HandleSession returns.
type SessionHandler interface {
	HandleSession(ctx context.Context, s Session) error
}

type SessionHandlerFunc func(ctx context.Context, s Session) error

func (fn SessionHandlerFunc) HandleSession(ctx context.Context, s Session) error {
	return fn(ctx, s)
}

// PlayDisconnecter ends every session with a play state disconnect using
// the packet id of the session's protocol version.
type PlayDisconnecter struct {
	Message string
}

func (d PlayDisconnecter) HandleSession(_ context.Context, s Session) error {
	var pk protocol.Packet
	if err := (play.ClientBoundDisconnect{
		Version: protocol.Version(s.ProtocolVersion),
		Reason:  protocol.Chat(login.TextComponent(d.Message)),
	}).Marshal(&pk); err != nil {
		return err
	}
	return s.Conn.WritePacket(pk)
}
