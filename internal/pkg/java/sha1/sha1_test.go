package sha1

import "testing"

func TestHash_HexDigest(t *testing.T) {
	tt := []struct {
		username string
		hash     string
	}{
		{
			username: "Notch",
			hash:     "4ed1f46bbe04bc756bcb17c0c7ce3e4632f06a48",
		},
		{
			username: "jeb_",
			hash:     "-7c9d5b0044c130109a5d7b5fb5c317c02b4e28c1",
		},
		{
			username: "simon",
			hash:     "88e16a1019277b15d58faf0541e11910eb756f6",
		},
	}

	for _, tc := range tt {
		hash := NewHash()
		hash.Update([]byte(tc.username))
		if got := hash.HexDigest(); got != tc.hash {
			t.Errorf("%s: got: %s, want: %s", tc.username, got, tc.hash)
		}
	}
}

func TestHexDigest(t *testing.T) {
	tt := []struct {
		name string
		sum  []byte
		want string
	}{
		{
			name: "zero",
			sum:  []byte{0x00, 0x00},
			want: "0",
		},
		{
			name: "leading zeros trimmed",
			sum:  []byte{0x00, 0x0f},
			want: "f",
		},
		{
			name: "minus one",
			sum:  []byte{0xff, 0xff},
			want: "-1",
		},
		{
			name: "most negative",
			sum:  []byte{0x80, 0x00},
			want: "-8000",
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := HexDigest(tc.sum); got != tc.want {
				t.Errorf("got: %s, want: %s", got, tc.want)
			}
		})
	}
}
