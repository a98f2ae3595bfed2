package protocol

import "strconv"

// Version is the protocol number a client sends in its handshake.
type Version int32

const (
	Version1_16   Version = 735
	Version1_16_2 Version = 751
	Version1_16_5 Version = 754
	Version1_17   Version = 755
	Version1_18_1 Version = 757
	Version1_18_2 Version = 758
	Version1_19   Version = 759
	Version1_19_2 Version = 760
	Version1_19_3 Version = 761
	Version1_19_4 Version = 762
	Version1_20   Version = 763
	Version1_20_2 Version = 764
)

func (v Version) Name() string {
	switch v {
	case Version1_16:
		return "1.16"
	case Version1_16_2:
		return "1.16.2"
	case Version1_16_5:
		return "1.16.5"
	case Version1_17:
		return "1.17"
	case Version1_18_1:
		return "1.18.1"
	case Version1_18_2:
		return "1.18.2"
	case Version1_19:
		return "1.19"
	case Version1_19_2:
		return "1.19.2"
	case Version1_19_3:
		return "1.19.3"
	case Version1_19_4:
		return "1.19.4"
	case Version1_20:
		return "1.20.1"
	case Version1_20_2:
		return "1.20.2"
	default:
		return strconv.Itoa(int(v))
	}
}

func (v Version) ProtocolNumber() int32 {
	return int32(v)
}
