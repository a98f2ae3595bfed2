package play

import "github.com/haveachin/gatekeeper/internal/pkg/java/protocol"

// DefaultClientBoundDisconnectID is the play state disconnect id of protocol
// 757 (1.18.1). It is used for versions without a known id.
const DefaultClientBoundDisconnectID int32 = 0x1A

// ClientBoundDisconnectID returns the play state disconnect id of v. The play
// state follows login success directly only up to 1.20.1; newer clients enter
// the configuration state and get the default id.
func ClientBoundDisconnectID(v protocol.Version) int32 {
	switch {
	case v >= protocol.Version1_16 && v < protocol.Version1_16_2:
		return 0x1A
	case v >= protocol.Version1_16_2 && v <= protocol.Version1_16_5:
		return 0x19
	case v >= protocol.Version1_17 && v <= protocol.Version1_18_2:
		return 0x1A
	case v == protocol.Version1_19, v == protocol.Version1_19_3:
		return 0x17
	case v == protocol.Version1_19_2:
		return 0x19
	case v == protocol.Version1_19_4, v == protocol.Version1_20:
		return 0x1A
	default:
		return DefaultClientBoundDisconnectID
	}
}

type ClientBoundDisconnect struct {
	// Version selects the packet id.
	Version protocol.Version
	Reason  protocol.Chat
}

func (pk ClientBoundDisconnect) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ClientBoundDisconnectID(pk.Version),
		pk.Reason,
	)
}

func (pk *ClientBoundDisconnect) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ClientBoundDisconnectID(pk.Version) {
		return protocol.ErrInvalidPacketID
	}

	return packet.Decode(
		&pk.Reason,
	)
}
