package gatekeeper

import (
	"context"
	"net"

	"github.com/haveachin/gatekeeper/internal/pkg/java"
	"github.com/haveachin/gatekeeper/internal/pkg/storage"
	"go.uber.org/zap"
)

// recordSessions stores every authenticated session before handing it to
// next. A failing store never blocks a login.
func recordSessions(store storage.SessionStore, next java.SessionHandler, logger *zap.Logger) java.SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return java.SessionHandlerFunc(func(ctx context.Context, s java.Session) error {
		rec := storage.SessionRecord{
			Username:        s.Username,
			UUID:            s.Profile.UUID,
			IP:              hostOf(s.RemoteAddr),
			ProtocolVersion: s.ProtocolVersion,
			AuthenticatedAt: s.AuthenticatedAt,
		}

		if err := store.PutSession(ctx, rec); err != nil {
			logger.Warn("failed to record session",
				zap.String("username", s.Username),
				zap.Error(err),
			)
		}
		return next.HandleSession(ctx, s)
	})
}

func hostOf(addr net.Addr) string {
	if addr == nil {
		return ""
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
