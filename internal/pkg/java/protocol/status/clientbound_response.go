package status

import "github.com/haveachin/gatekeeper/internal/pkg/java/protocol"

const ClientBoundResponseID int32 = 0x00

type ClientBoundResponse struct {
	JSONResponse protocol.String
}

func (pk ClientBoundResponse) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ClientBoundResponseID,
		pk.JSONResponse,
	)
}

func (pk *ClientBoundResponse) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ClientBoundResponseID {
		return protocol.ErrInvalidPacketID
	}

	return packet.Decode(
		&pk.JSONResponse,
	)
}

// ResponseJSON is the server list status document.
type ResponseJSON struct {
	Version     VersionJSON     `json:"version"`
	Players     PlayersJSON     `json:"players"`
	Description DescriptionJSON `json:"description"`
	Favicon     string          `json:"favicon,omitempty"`
}

type VersionJSON struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type PlayersJSON struct {
	Max    int                `json:"max"`
	Online int                `json:"online"`
	Sample []PlayerSampleJSON `json:"sample,omitempty"`
}

type PlayerSampleJSON struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type DescriptionJSON struct {
	Text string `json:"text"`
}
