package java

import (
	"net"
	"time"

	"github.com/gofrs/uuid"
)

// Payloads pushed to the event bus. They are plain data so recipients such
// as webhooks can encode them as JSON.

type NewConnEvent struct {
	RemoteAddr string `json:"remoteAddr"`
	LocalAddr  string `json:"localAddr"`
}

type StatusRequestEvent struct {
	RemoteAddr      string `json:"remoteAddr"`
	ServerAddr      string `json:"serverAddr"`
	ProtocolVersion int32  `json:"protocolVersion"`
}

type PreLoginEvent struct {
	RemoteAddr      string `json:"remoteAddr"`
	ServerAddr      string `json:"serverAddr"`
	ProtocolVersion int32  `json:"protocolVersion"`
	Username        string `json:"username"`
}

type PlayerLoginEvent struct {
	RemoteAddr string    `json:"remoteAddr"`
	Username   string    `json:"username"`
	UUID       uuid.UUID `json:"uuid"`
}

type LoginFailedEvent struct {
	RemoteAddr string `json:"remoteAddr"`
	Username   string `json:"username"`
	// Reason is the error class, one of io, protocol, crypto or authentication.
	Reason string `json:"reason"`
	Error  string `json:"error"`
}

type PlayerLeaveEvent struct {
	RemoteAddr string        `json:"remoteAddr"`
	Username   string        `json:"username"`
	UUID       uuid.UUID     `json:"uuid"`
	Playtime   time.Duration `json:"playtime"`
}

func errorReason(err error) string {
	switch classifyError(err) {
	case ErrProtocol:
		return "protocol"
	case ErrCrypto:
		return "crypto"
	case ErrAuthentication:
		return "authentication"
	default:
		return "io"
	}
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	return addr.String()
}
