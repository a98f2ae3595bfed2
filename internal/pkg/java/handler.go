package java

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/gertd/wild"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol/handshaking"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol/login"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol/status"
	"github.com/haveachin/gatekeeper/pkg/event"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/haveachin/gatekeeper/internal/pkg/java"

// Messages are the texts shown to a player on the disconnect screen.
type Messages struct {
	AuthenticationFailed string
	EncryptionFailed     string
	ProtocolError        string
	DomainNotAllowed     string
	PlayDisconnect       string
}

var DefaultMessages = Messages{
	AuthenticationFailed: "Failed to verify username!",
	EncryptionFailed:     "Encryption failed!",
	ProtocolError:        "Invalid login sequence!",
	DomainNotAllowed:     "Unknown server address!",
	PlayDisconnect:       "Authenticated. The game is not available on this server.",
}

// Handler runs the protocol state machine for a single connection:
// handshaking, then either status or login. An authenticated login is
// handed to SessionHandler.
type Handler struct {
	Encrypter      SessionEncrypter
	Authenticator  SessionAuthenticator
	SessionHandler SessionHandler
	Status         StatusProvider
	ServerID       string
	// AllowedDomains are wildcard patterns the handshake address has to
	// match. All addresses are accepted if empty.
	AllowedDomains []string
	Messages       Messages
	EventBus       event.Bus
	Logger         *zap.Logger
	// Tracer records a span per login. The global tracer is used if nil.
	Tracer trace.Tracer
}

func (h *Handler) tracer() trace.Tracer {
	if h.Tracer == nil {
		return otel.Tracer(tracerName)
	}
	return h.Tracer
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h *Handler) push(data any, topics ...string) {
	if h.EventBus != nil {
		h.EventBus.Push(data, topics...)
	}
}

func (h *Handler) messages() Messages {
	if h.Messages == (Messages{}) {
		return DefaultMessages
	}
	return h.Messages
}

// ServeConn reads the handshake and serves the requested state. It never
// closes c; that is left to the caller. A nil error means the client went
// through a complete status exchange or a completed session.
func (h *Handler) ServeConn(ctx context.Context, c *Conn) error {
	logger := h.logger().With(logConn(c)...)

	pk, err := c.ReadPacket()
	if err != nil {
		return readError("reading handshake", err)
	}

	var hs handshaking.ServerBoundHandshake
	if err := hs.Unmarshal(pk); err != nil {
		return protocolError("decoding handshake", err)
	}
	logger = logger.With(logHandshake(hs)...)

	var next State
	switch {
	case hs.IsStatusRequest():
		next = StateStatus
	case hs.IsLoginRequest():
		next = StateLogin
	default:
		return protocolError("handshake", fmt.Errorf("%w: %d", ErrUnexpectedNextState, hs.NextState))
	}
	logger.Debug("switching state", zap.Stringer("state", next))

	if !h.domainAllowed(hs.ParseServerAddress()) {
		err := protocolError("matching domain", ErrDomainNotAllowed)
		if next == StateLogin {
			h.disconnectLogin(c, h.messages().DomainNotAllowed)
		}
		return err
	}

	if next == StateStatus {
		return h.serveStatus(c, hs)
	}
	return h.serveLogin(ctx, c, hs, logger)
}

func (h *Handler) domainAllowed(domain string) bool {
	if len(h.AllowedDomains) == 0 {
		return true
	}

	for _, pattern := range h.AllowedDomains {
		if wild.Match(pattern, domain, true) {
			return true
		}
	}
	return false
}

// readStatusPacket treats a client hanging up as the regular end of a status
// exchange. Only malformed bytes are reported.
func readStatusPacket(c *Conn, op string) (protocol.Packet, bool, error) {
	pk, err := c.ReadPacket()
	if err == nil {
		return pk, true, nil
	}

	if protocol.IsMalformed(err) {
		return pk, false, protocolError(op, err)
	}
	return pk, false, nil
}

// serveStatus answers right after the handshake. Clients that send a status
// request first get it skipped; a ping is echoed with a pong.
func (h *Handler) serveStatus(c *Conn, hs handshaking.ServerBoundHandshake) error {
	h.push(StatusRequestEvent{
		RemoteAddr:      addrString(c.RemoteAddr()),
		ServerAddr:      hs.ParseServerAddress(),
		ProtocolVersion: int32(hs.ProtocolVersion),
	}, event.TopicStatusRequest)

	var respJSON status.ResponseJSON
	if h.Status != nil {
		respJSON = h.Status.StatusResponse()
	}

	bb, err := json.Marshal(respJSON)
	if err != nil {
		return err
	}

	var pk protocol.Packet
	if err := (status.ClientBoundResponse{
		JSONResponse: protocol.String(bb),
	}).Marshal(&pk); err != nil {
		return protocolError("encoding status response", err)
	}

	if err := c.WritePacket(pk); err != nil {
		return ioError("writing status response", err)
	}

	requested := false
	for {
		pk, ok, err := readStatusPacket(c, "reading status packet")
		if !ok {
			return err
		}

		switch {
		case pk.ID == status.ServerBoundRequestID && !requested:
			var req status.ServerBoundRequest
			if err := req.Unmarshal(pk); err != nil {
				return protocolError("decoding status request", err)
			}
			requested = true
		case pk.ID == status.ServerBoundPingID:
			return h.pong(c, pk)
		default:
			return protocolError("reading status packet", fmt.Errorf("%w: %#x", protocol.ErrInvalidPacketID, pk.ID))
		}
	}
}

func (h *Handler) pong(c *Conn, pk protocol.Packet) error {
	var ping status.ServerBoundPing
	if err := ping.Unmarshal(pk); err != nil {
		return protocolError("decoding ping", err)
	}

	if err := (status.ClientBoundPong{
		Payload: ping.Payload,
	}).Marshal(&pk); err != nil {
		return protocolError("encoding pong", err)
	}

	if err := c.WritePacket(pk); err != nil {
		return ioError("writing pong", err)
	}
	return nil
}

func (h *Handler) serveLogin(ctx context.Context, c *Conn, hs handshaking.ServerBoundHandshake, logger *zap.Logger) error {
	pk, err := c.ReadPacket()
	if err != nil {
		return readError("reading login start", err)
	}

	var ls login.ServerBoundLoginStart
	if err := ls.Unmarshal(pk); err != nil {
		h.disconnectLogin(c, h.messages().ProtocolError)
		return protocolError("decoding login start", err)
	}
	username := string(ls.Name)
	logger = logger.With(zap.String("username", username))

	h.push(PreLoginEvent{
		RemoteAddr:      addrString(c.RemoteAddr()),
		ServerAddr:      hs.ParseServerAddress(),
		ProtocolVersion: int32(hs.ProtocolVersion),
		Username:        username,
	}, event.TopicPreLogin)

	profile, sharedSecret, err := h.login(ctx, c, hs, username)
	if err != nil {
		return err
	}

	session := Session{
		Conn:            c,
		SharedSecret:    sharedSecret,
		Profile:         *profile,
		Username:        profile.Name,
		ProtocolVersion: int32(hs.ProtocolVersion),
		RemoteAddr:      c.RemoteAddr(),
		AuthenticatedAt: time.Now(),
	}
	logger.Debug("switching state", zap.Stringer("state", StateAuthenticated))
	logger.Info("player authenticated", zap.Stringer("playerUUID", session.Profile.UUID))

	h.push(PlayerLoginEvent{
		RemoteAddr: addrString(session.RemoteAddr),
		Username:   session.Username,
		UUID:       session.Profile.UUID,
	}, event.TopicPlayerLogin)

	defer func() {
		h.push(PlayerLeaveEvent{
			RemoteAddr: addrString(session.RemoteAddr),
			Username:   session.Username,
			UUID:       session.Profile.UUID,
			Playtime:   time.Since(session.AuthenticatedAt),
		}, event.TopicPlayerLeave)
	}()

	var sh SessionHandler = PlayDisconnecter{Message: h.messages().PlayDisconnect}
	if h.SessionHandler != nil {
		sh = h.SessionHandler
	}

	if err := sh.HandleSession(ctx, session); err != nil {
		return fmt.Errorf("handling session: %w", err)
	}
	return nil
}

// login authenticates the player and confirms it with a login success.
// The span ends here, the play phase that follows may last for hours.
func (h *Handler) login(ctx context.Context, c *Conn, hs handshaking.ServerBoundHandshake, username string) (*Profile, []byte, error) {
	ctx, span := h.tracer().Start(ctx, "login", trace.WithAttributes(
		attribute.String("player.username", username),
		attribute.String("server.address", hs.ParseServerAddress()),
		attribute.Int("protocol.version", int(hs.ProtocolVersion)),
	))
	defer span.End()

	profile, sharedSecret, err := h.authenticate(ctx, c, username)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errorReason(err))
		h.failLogin(c, username, err)
		return nil, nil, err
	}
	span.SetAttributes(attribute.String("player.uuid", profile.UUID.String()))

	var pk protocol.Packet
	if err := (login.ClientBoundLoginSuccess{
		UUID:     protocol.UUID(profile.UUID),
		Username: protocol.String(username),
	}).Marshal(&pk); err != nil {
		return nil, nil, protocolError("encoding login success", err)
	}

	if err := c.WritePacket(pk); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "io")
		return nil, nil, ioError("writing login success", err)
	}

	span.SetStatus(codes.Ok, "")
	return profile, sharedSecret, nil
}

// authenticate runs the key exchange and verifies the player with the
// session server. Encryption is enabled as soon as the shared secret is
// known, the same moment the client starts encrypting.
func (h *Handler) authenticate(ctx context.Context, c *Conn, username string) (*Profile, []byte, error) {
	verifyToken, err := h.Encrypter.GenerateVerifyToken()
	if err != nil {
		return nil, nil, cryptoError("generating verify token", err)
	}
	defer zero(verifyToken)

	publicKey := h.Encrypter.PublicKey()

	var pk protocol.Packet
	if err := (login.ClientBoundEncryptionRequest{
		ServerID:    protocol.String(h.ServerID),
		PublicKey:   publicKey,
		VerifyToken: verifyToken,
	}).Marshal(&pk); err != nil {
		return nil, nil, protocolError("encoding encryption request", err)
	}

	if err := c.WritePacket(pk); err != nil {
		return nil, nil, ioError("writing encryption request", err)
	}

	pk, err = c.ReadPacket()
	if err != nil {
		return nil, nil, readError("reading encryption response", err)
	}

	var resp login.ServerBoundEncryptionResponse
	if err := resp.Unmarshal(pk); err != nil {
		return nil, nil, protocolError("decoding encryption response", err)
	}

	sharedSecret, err := h.Encrypter.DecryptAndVerifySharedSecret(verifyToken, resp.VerifyToken, resp.SharedSecret)
	if err != nil {
		return nil, nil, cryptoError("decrypting shared secret", err)
	}

	if err := c.EnableEncryption(sharedSecret); err != nil {
		return nil, nil, cryptoError("enabling encryption", err)
	}

	sessionHash := GenerateSessionHash(h.ServerID, sharedSecret, publicKey)
	profile, err := h.Authenticator.AuthenticateSession(ctx, username, sessionHash, remoteIP(c.RemoteAddr()))
	if err != nil {
		return nil, nil, authError("authenticating session", err)
	}

	return profile, sharedSecret, nil
}

func (h *Handler) failLogin(c *Conn, username string, err error) {
	msgs := h.messages()
	switch classifyError(err) {
	case ErrAuthentication:
		h.disconnectLogin(c, msgs.AuthenticationFailed)
	case ErrCrypto:
		h.disconnectLogin(c, msgs.EncryptionFailed)
	case ErrProtocol:
		h.disconnectLogin(c, msgs.ProtocolError)
	}

	h.push(LoginFailedEvent{
		RemoteAddr: addrString(c.RemoteAddr()),
		Username:   username,
		Reason:     errorReason(err),
		Error:      err.Error(),
	}, event.TopicLoginFailed)
}

// disconnectLogin is best effort; the connection is closed afterwards anyway.
func (h *Handler) disconnectLogin(c *Conn, msg string) {
	var pk protocol.Packet
	if err := login.NewClientBoundDisconnect(msg).Marshal(&pk); err != nil {
		return
	}

	if err := c.WritePacket(pk); err != nil {
		h.logger().Debug("failed to send disconnect", zap.Error(err))
	}
}

func remoteIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case nil:
		return nil
	case *net.TCPAddr:
		return a.IP
	}

	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}
	return net.ParseIP(host)
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
