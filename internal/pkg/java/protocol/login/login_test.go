package login_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol/login"
)

func TestClientBoundDisconnect_Marshal(t *testing.T) {
	tt := []struct {
		packet          login.ClientBoundDisconnect
		marshaledPacket protocol.Packet
	}{
		{
			packet: login.ClientBoundDisconnect{
				Reason: protocol.Chat(""),
			},
			marshaledPacket: protocol.Packet{
				ID:   0x00,
				Data: []byte{0x00},
			},
		},
		{
			packet: login.ClientBoundDisconnect{
				Reason: protocol.Chat("Hello, World!"),
			},
			marshaledPacket: protocol.Packet{
				ID:   0x00,
				Data: []byte{0x0d, 0x48, 0x65, 0x6c, 0x6c, 0x6f, 0x2c, 0x20, 0x57, 0x6f, 0x72, 0x6c, 0x64, 0x21},
			},
		},
	}

	var pk protocol.Packet
	for _, tc := range tt {
		if err := tc.packet.Marshal(&pk); err != nil {
			t.Fatal(err)
		}

		if pk.ID != login.ClientBoundDisconnectID {
			t.Error("invalid packet id")
		}

		if !bytes.Equal(pk.Data, tc.marshaledPacket.Data) {
			t.Errorf("got: %v, want: %v", pk.Data, tc.marshaledPacket.Data)
		}
	}
}

func TestTextComponent(t *testing.T) {
	tt := []struct {
		text string
		want string
	}{
		{
			text: "Failed to verify username!",
			want: `{"text":"Failed to verify username!"}`,
		},
		{
			text: `quote " and backslash \`,
			want: `{"text":"quote \" and backslash \\"}`,
		},
	}

	for _, tc := range tt {
		if got := login.TextComponent(tc.text); got != tc.want {
			t.Errorf("got: %s, want: %s", got, tc.want)
		}
	}

	pk := login.NewClientBoundDisconnect("bye")
	if pk.Reason != `{"text":"bye"}` {
		t.Errorf("got: %s", pk.Reason)
	}
}

func TestServerBoundLoginStart_Unmarshal(t *testing.T) {
	tt := []struct {
		name   string
		packet protocol.Packet
		want   protocol.String
		err    error
	}{
		{
			name:   "name only",
			packet: protocol.Packet{ID: 0x00, Data: []byte{0x05, 'A', 'l', 'i', 'c', 'e'}},
			want:   "Alice",
		},
		{
			name: "name with trailing uuid",
			packet: protocol.Packet{
				ID:   0x00,
				Data: append([]byte{0x05, 'A', 'l', 'i', 'c', 'e', 0x01}, make([]byte, 16)...),
			},
			want: "Alice",
		},
		{
			name:   "empty name",
			packet: protocol.Packet{ID: 0x00, Data: []byte{0x00}},
			err:    protocol.ErrInvalidLength,
		},
		{
			name:   "name too long",
			packet: protocol.Packet{ID: 0x00, Data: append([]byte{0x11}, bytes.Repeat([]byte{'a'}, 17)...)},
			err:    protocol.ErrInvalidLength,
		},
		{
			name:   "wrong id",
			packet: protocol.Packet{ID: 0x01, Data: []byte{0x05, 'A', 'l', 'i', 'c', 'e'}},
			err:    protocol.ErrInvalidPacketID,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var ls login.ServerBoundLoginStart
			err := ls.Unmarshal(tc.packet)
			if !errors.Is(err, tc.err) {
				t.Fatalf("got: %v, want: %v", err, tc.err)
			}
			if err == nil && ls.Name != tc.want {
				t.Errorf("got: %s, want: %s", ls.Name, tc.want)
			}
		})
	}
}

func TestClientBoundEncryptionRequest_Marshal(t *testing.T) {
	req := login.ClientBoundEncryptionRequest{
		ServerID:    "",
		PublicKey:   []byte{0x30, 0x81},
		VerifyToken: []byte{0x01, 0x02, 0x03, 0x04},
	}

	var pk protocol.Packet
	if err := req.Marshal(&pk); err != nil {
		t.Fatal(err)
	}

	want := []byte{0x00, 0x02, 0x30, 0x81, 0x04, 0x01, 0x02, 0x03, 0x04}
	if pk.ID != login.ClientBoundEncryptionRequestID {
		t.Errorf("got: %#x, want: %#x", pk.ID, login.ClientBoundEncryptionRequestID)
	}
	if !bytes.Equal(pk.Data, want) {
		t.Errorf("got: % x, want: % x", pk.Data, want)
	}

	var decoded login.ClientBoundEncryptionRequest
	if err := decoded.Unmarshal(pk); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded.VerifyToken, req.VerifyToken) {
		t.Errorf("got: % x, want: % x", []byte(decoded.VerifyToken), []byte(req.VerifyToken))
	}
}

func TestServerBoundEncryptionResponse_Unmarshal(t *testing.T) {
	pk := protocol.Packet{
		ID:   login.ServerBoundEncryptionResponseID,
		Data: []byte{0x02, 0xaa, 0xbb, 0x01, 0xcc},
	}

	var res login.ServerBoundEncryptionResponse
	if err := res.Unmarshal(pk); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(res.SharedSecret, []byte{0xaa, 0xbb}) {
		t.Errorf("shared secret got: % x", []byte(res.SharedSecret))
	}
	if !bytes.Equal(res.VerifyToken, []byte{0xcc}) {
		t.Errorf("verify token got: % x", []byte(res.VerifyToken))
	}

	pk.Data = pk.Data[:3]
	if err := res.Unmarshal(pk); err == nil {
		t.Error("truncated response should fail")
	}
}

func TestClientBoundLoginSuccess_Marshal(t *testing.T) {
	id := protocol.UUID{0x06, 0x9a, 0x79, 0xf4, 0x44, 0xe9, 0x40, 0x26, 0xbf, 0xf7, 0xc6, 0x61, 0xee, 0x8f, 0x6a, 0x09}
	pk := protocol.Packet{}
	if err := (login.ClientBoundLoginSuccess{UUID: id, Username: "Alice"}).Marshal(&pk); err != nil {
		t.Fatal(err)
	}

	if pk.ID != 0x02 {
		t.Errorf("got: %#x, want: 0x02", pk.ID)
	}

	want := append(append([]byte{}, id[:]...), 0x05, 'A', 'l', 'i', 'c', 'e')
	if !bytes.Equal(pk.Data, want) {
		t.Errorf("got: % x, want: % x", pk.Data, want)
	}
}
