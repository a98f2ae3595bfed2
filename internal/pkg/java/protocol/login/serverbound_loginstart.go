package login

import "github.com/haveachin/gatekeeper/internal/pkg/java/protocol"

const (
	ServerBoundLoginStartID int32 = 0x00
	// MaxUsernameLength is the longest name a vanilla client will send.
	MaxUsernameLength = 16
)

type ServerBoundLoginStart struct {
	Name protocol.String
}

func (pk ServerBoundLoginStart) Marshal(packet *protocol.Packet) error {
	return packet.Encode(
		ServerBoundLoginStartID,
		pk.Name,
	)
}

// Unmarshal reads the player name. Fields appended by newer protocol
// versions are ignored.
func (pk *ServerBoundLoginStart) Unmarshal(packet protocol.Packet) error {
	if packet.ID != ServerBoundLoginStartID {
		return protocol.ErrInvalidPacketID
	}

	if err := packet.DecodePrefix(&pk.Name); err != nil {
		return err
	}

	if n := len(pk.Name); n == 0 || n > MaxUsernameLength {
		return protocol.ErrInvalidLength
	}
	return nil
}
