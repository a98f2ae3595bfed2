package java

import (
	"net"

	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol/handshaking"
	"go.uber.org/zap"
)

// Helpers to keep the log fields of the same data consistent.

func logListener(l net.Listener) []zap.Field {
	return []zap.Field{
		zap.String("listenerNetwork", l.Addr().Network()),
		zap.String("listenerAddr", l.Addr().String()),
	}
}

func logConn(c net.Conn) []zap.Field {
	return []zap.Field{
		zap.String("connNetwork", c.LocalAddr().Network()),
		zap.String("connLocalAddr", c.LocalAddr().String()),
		zap.String("connRemoteAddr", c.RemoteAddr().String()),
	}
}

func logHandshake(hs handshaking.ServerBoundHandshake) []zap.Field {
	return []zap.Field{
		zap.Int32("protocolVersion", int32(hs.ProtocolVersion)),
		zap.String("protocolName", protocol.Version(hs.ProtocolVersion).Name()),
		zap.String("requestedServerAddr", hs.ParseServerAddress()),
		zap.Uint16("requestedServerPort", uint16(hs.ServerPort)),
		zap.Int32("nextState", int32(hs.NextState)),
	}
}

func logSession(s Session) []zap.Field {
	return []zap.Field{
		zap.String("username", s.Username),
		zap.Stringer("playerUUID", s.Profile.UUID),
		zap.String("connRemoteAddr", s.RemoteAddr.String()),
	}
}
