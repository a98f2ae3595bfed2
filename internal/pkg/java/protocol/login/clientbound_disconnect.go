package login

import (
	"encoding/json"

	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol"
)

const ClientBoundDisconnectID int32 = 0x00

type ClientBoundDisconnect struct {
	Reason protocol.Chat
}

// NewClientBoundDisconnect builds a disconnect with a plain text chat component.
func NewClientBoundDisconnect(text string) ClientBoundDisconnect {
	return ClientBoundDisconnect{
		Reason: protocol.Chat(TextComponent(text)),
	}
}

func (pk ClientBoundDisconnect) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ClientBoundDisconnectID,
		pk.Reason,
	)
}

func (pk *ClientBoundDisconnect) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ClientBoundDisconnectID {
		return protocol.ErrInvalidPacketID
	}

	return packet.Decode(
		&pk.Reason,
	)
}

// TextComponent renders text as a JSON chat component.
func TextComponent(text string) string {
	bb, _ := json.Marshal(struct {
		Text string `json:"text"`
	}{
		Text: text,
	})
	return string(bb)
}
