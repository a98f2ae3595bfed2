package protocol

import (
	"bytes"
	"fmt"
	"io"
)

// MaxFrameLength is the largest frame length expressible in a three byte VarInt.
const MaxFrameLength = 2097151

// Packet is a single decoded frame. ID is the leading VarInt of the frame
// payload and Data holds the remaining body.
type Packet struct {
	ID   int32
	Data []byte
}

// ReadFrame reads one length prefixed frame from r and returns its payload.
func ReadFrame(r io.Reader, maxLen int) ([]byte, error) {
	var frameLen VarInt
	if _, err := frameLen.ReadFrom(r); err != nil {
		return nil, err
	}

	if frameLen < 0 || int(frameLen) > maxLen {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFrameLength, frameLen)
	}

	payload := make([]byte, frameLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return payload, nil
}

// WriteFrame writes payload prefixed with its length.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameLength {
		return fmt.Errorf("%w: %d", ErrInvalidFrameLength, len(payload))
	}

	var buf [MaxVarIntLen]byte
	n := VarInt(len(payload)).WriteToBytes(buf[:])
	if _, err := w.Write(buf[:n]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// Decode reads the fields from the packet body in order and fails if any
// bytes are left over.
func (pk Packet) Decode(fields ...FieldDecoder) error {
	r := bytes.NewReader(pk.Data)
	if err := ScanFields(r, fields...); err != nil {
		return err
	}
	if r.Len() > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, r.Len())
	}
	return nil
}

// DecodePrefix is like Decode but ignores bytes after the last field.
func (pk Packet) DecodePrefix(fields ...FieldDecoder) error {
	return ScanFields(bytes.NewReader(pk.Data), fields...)
}

func ScanFields(r io.Reader, fields ...FieldDecoder) error {
	for i, v := range fields {
		_, err := v.ReadFrom(r)
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("scanning packet field[%d] error: %w", i, err)
		}
	}
	return nil
}

func (pk *Packet) Encode(id int32, fields ...FieldEncoder) error {
	buf := bytes.NewBuffer(pk.Data[:0])
	for _, f := range fields {
		if _, err := f.WriteTo(buf); err != nil {
			return err
		}
	}
	pk.ID = id
	pk.Data = buf.Bytes()
	return nil
}

// Payload returns the frame payload, the packet id followed by the body.
func (pk Packet) Payload() []byte {
	payload := make([]byte, VarInt(pk.ID).Len()+len(pk.Data))
	n := VarInt(pk.ID).WriteToBytes(payload)
	copy(payload[n:], pk.Data)
	return payload
}

// WriteTo writes the packet as a single frame.
func (pk Packet) WriteTo(w io.Writer) (int64, error) {
	payload := pk.Payload()
	if err := WriteFrame(w, payload); err != nil {
		return 0, err
	}
	return int64(VarInt(len(payload)).Len() + len(payload)), nil
}

// ReadFrom reads a single frame of at most MaxFrameLength bytes.
func (pk *Packet) ReadFrom(r io.Reader) (int64, error) {
	return pk.ReadFromLimit(r, MaxFrameLength)
}

// ReadFromLimit reads a single frame of at most maxLen bytes and splits it
// into id and body.
func (pk *Packet) ReadFromLimit(r io.Reader, maxLen int) (int64, error) {
	payload, err := ReadFrame(r, maxLen)
	if err != nil {
		return 0, err
	}
	n := int64(VarInt(len(payload)).Len() + len(payload))
	return n, pk.UnmarshalPayload(payload)
}

// UnmarshalPayload splits a frame payload into packet id and body.
func (pk *Packet) UnmarshalPayload(payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: frame has no packet id", ErrInvalidFrameLength)
	}

	r := bytes.NewReader(payload)
	var id VarInt
	if _, err := id.ReadFrom(r); err != nil {
		// The payload is already in memory, running out of bytes means the
		// id itself is truncated.
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			err = ErrInvalidPacketID
		}
		return fmt.Errorf("reading packet id: %w", err)
	}
	pk.ID = int32(id)
	pk.Data = payload[len(payload)-r.Len():]
	return nil
}
