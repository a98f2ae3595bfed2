package handshaking

import (
	"strings"

	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol"
)

const (
	ServerBoundHandshakeID int32 = 0x00

	StateStatusServerBoundHandshake = protocol.VarInt(1)
	StateLoginServerBoundHandshake  = protocol.VarInt(2)

	SeparatorForge = "\x00"
)

type ServerBoundHandshake struct {
	ProtocolVersion protocol.VarInt
	ServerAddress   protocol.String
	ServerPort      protocol.UnsignedShort
	NextState       protocol.VarInt
}

func (pk ServerBoundHandshake) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ServerBoundHandshakeID,
		pk.ProtocolVersion,
		pk.ServerAddress,
		pk.ServerPort,
		pk.NextState,
	)
}

func (pk *ServerBoundHandshake) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ServerBoundHandshakeID {
		return protocol.ErrInvalidPacketID
	}

	return packet.Decode(
		&pk.ProtocolVersion,
		&pk.ServerAddress,
		&pk.ServerPort,
		&pk.NextState,
	)
}

func (pk ServerBoundHandshake) IsStatusRequest() bool {
	return pk.NextState == StateStatusServerBoundHandshake
}

func (pk ServerBoundHandshake) IsLoginRequest() bool {
	return pk.NextState == StateLoginServerBoundHandshake
}

func (pk ServerBoundHandshake) IsForgeAddress() bool {
	return strings.Contains(string(pk.ServerAddress), SeparatorForge)
}

// ParseServerAddress returns the host the client dialed without any
// mod loader suffix and without surrounding dots.
func (pk ServerBoundHandshake) ParseServerAddress() string {
	addr := string(pk.ServerAddress)
	if i := strings.Index(addr, SeparatorForge); i != -1 {
		addr = addr[:i]
	}
	// Some DNS resolvers leave a trailing dot on SRV targets
	addr = strings.Trim(addr, ".")
	return strings.ToLower(addr)
}
