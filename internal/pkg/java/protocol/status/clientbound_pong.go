package status

import "github.com/haveachin/gatekeeper/internal/pkg/java/protocol"

const ClientBoundPongID int32 = 0x01

type ClientBoundPong struct {
	Payload protocol.Long
}

func (pk ClientBoundPong) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ClientBoundPongID,
		pk.Payload,
	)
}

func (pk *ClientBoundPong) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ClientBoundPongID {
		return protocol.ErrInvalidPacketID
	}

	return packet.Decode(
		&pk.Payload,
	)
}
