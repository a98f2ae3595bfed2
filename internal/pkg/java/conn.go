package java

import (
	"bufio"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"net"
	"time"

	"github.com/haveachin/gatekeeper/internal/pkg/java/cfb8"
	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol"
)

var ErrAlreadyEncrypted = errors.New("connection is already encrypted")

// Conn is a client connection speaking the length prefixed packet protocol.
// Every read and write sets its own deadline of timeout.
type Conn struct {
	net.Conn

	r             *bufio.Reader
	w             *bufio.Writer
	timeout       time.Duration
	maxPacketSize int
	encrypted     bool
}

func NewConn(c net.Conn, timeout time.Duration, maxPacketSize int) *Conn {
	if c == nil {
		panic("c cannot be nil")
	}

	if maxPacketSize <= 0 || maxPacketSize > protocol.MaxFrameLength {
		maxPacketSize = protocol.MaxFrameLength
	}

	return &Conn{
		Conn:          c,
		r:             bufio.NewReader(c),
		w:             bufio.NewWriter(c),
		timeout:       timeout,
		maxPacketSize: maxPacketSize,
	}
}

func (c *Conn) setReadDeadline() error {
	if c.timeout <= 0 {
		return nil
	}
	return c.SetReadDeadline(time.Now().Add(c.timeout))
}

func (c *Conn) setWriteDeadline() error {
	if c.timeout <= 0 {
		return nil
	}
	return c.SetWriteDeadline(time.Now().Add(c.timeout))
}

// Read reads decrypted bytes once encryption is enabled.
func (c *Conn) Read(b []byte) (int, error) {
	if err := c.setReadDeadline(); err != nil {
		return 0, err
	}
	return c.r.Read(b)
}

// Write writes and flushes b, encrypted once encryption is enabled.
func (c *Conn) Write(b []byte) (int, error) {
	if err := c.setWriteDeadline(); err != nil {
		return 0, err
	}
	n, err := c.w.Write(b)
	if err != nil {
		return n, err
	}
	return n, c.w.Flush()
}

func (c *Conn) ReadPacket() (protocol.Packet, error) {
	if err := c.setReadDeadline(); err != nil {
		return protocol.Packet{}, err
	}

	var pk protocol.Packet
	_, err := pk.ReadFromLimit(c.r, c.maxPacketSize)
	return pk, err
}

func (c *Conn) WritePacket(pk protocol.Packet) error {
	if err := c.setWriteDeadline(); err != nil {
		return err
	}

	if _, err := pk.WriteTo(c.w); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Conn) WritePackets(pks ...protocol.Packet) error {
	for _, pk := range pks {
		if err := c.WritePacket(pk); err != nil {
			return err
		}
	}
	return nil
}

// EnableEncryption installs AES/CFB8 with key and IV set to sharedSecret
// on both directions. Bytes that are already buffered are decrypted too.
func (c *Conn) EnableEncryption(sharedSecret []byte) error {
	if c.encrypted {
		return ErrAlreadyEncrypted
	}

	block, err := aes.NewCipher(sharedSecret)
	if err != nil {
		return err
	}

	if err := c.w.Flush(); err != nil {
		return err
	}

	c.r = bufio.NewReader(cipher.StreamReader{
		S: cfb8.NewDecrypter(block, sharedSecret),
		R: c.r,
	})
	c.w = bufio.NewWriter(cipher.StreamWriter{
		S: cfb8.NewEncrypter(block, sharedSecret),
		W: c.Conn,
	})
	c.encrypted = true
	return nil
}

func (c *Conn) Encrypted() bool {
	return c.encrypted
}

// ForceClose closes the connection without waiting for unsent data.
func (c *Conn) ForceClose() error {
	if conn, ok := c.Conn.(*net.TCPConn); ok {
		_ = conn.SetLinger(0)
	}
	return c.Close()
}
