package login

import "github.com/haveachin/gatekeeper/internal/pkg/java/protocol"

const ClientBoundLoginSuccessID int32 = 0x02

type ClientBoundLoginSuccess struct {
	UUID     protocol.UUID
	Username protocol.String
}

func (pk ClientBoundLoginSuccess) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ClientBoundLoginSuccessID,
		pk.UUID,
		pk.Username,
	)
}

func (pk *ClientBoundLoginSuccess) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ClientBoundLoginSuccessID {
		return protocol.ErrInvalidPacketID
	}

	return packet.Decode(
		&pk.UUID,
		&pk.Username,
	)
}
