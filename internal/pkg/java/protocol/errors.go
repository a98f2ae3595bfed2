package protocol

import "errors"

var (
	ErrVarIntTooBig       = errors.New("varint is too big")
	ErrInvalidLength      = errors.New("invalid length")
	ErrInvalidUTF8        = errors.New("string is not valid utf-8")
	ErrInvalidFrameLength = errors.New("invalid frame length")
	ErrInvalidPacketID    = errors.New("invalid packet id")
	ErrTrailingData       = errors.New("trailing data after packet fields")
)

// IsMalformed reports whether err was caused by bytes that do not follow
// the wire format, as opposed to a failing transport.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrVarIntTooBig) ||
		errors.Is(err, ErrInvalidLength) ||
		errors.Is(err, ErrInvalidUTF8) ||
		errors.Is(err, ErrInvalidFrameLength) ||
		errors.Is(err, ErrInvalidPacketID) ||
		errors.Is(err, ErrTrailingData)
}
