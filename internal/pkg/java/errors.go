package java

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/haveachin/gatekeeper/internal/pkg/java/protocol"
)

// Error classes a connection can fail with. ErrAuthentication is declared
// next to the session authenticator.
var (
	ErrIO       = errors.New("connection i/o failed")
	ErrProtocol = errors.New("protocol violation")
	ErrCrypto   = errors.New("crypto handshake failed")

	ErrUnexpectedNextState = errors.New("unexpected next state")
	ErrDomainNotAllowed    = errors.New("domain not allowed")
)

// ConnError annotates an error with the connection step it happened in
// and its class.
type ConnError struct {
	Class error
	Op    string
	Err   error
}

func (err *ConnError) Error() string {
	return fmt.Sprintf("%s: %v", err.Op, err.Err)
}

func (err *ConnError) Unwrap() error {
	return err.Err
}

func (err *ConnError) Is(target error) bool {
	return target == err.Class
}

func ioError(op string, err error) error {
	return &ConnError{Class: ErrIO, Op: op, Err: err}
}

func protocolError(op string, err error) error {
	return &ConnError{Class: ErrProtocol, Op: op, Err: err}
}

func cryptoError(op string, err error) error {
	return &ConnError{Class: ErrCrypto, Op: op, Err: err}
}

func authError(op string, err error) error {
	return &ConnError{Class: ErrAuthentication, Op: op, Err: err}
}

// readError classifies a failed packet read. Malformed bytes are a
// protocol violation, everything else is the transport failing.
func readError(op string, err error) error {
	if protocol.IsMalformed(err) {
		return protocolError(op, err)
	}
	return ioError(op, err)
}

// classifyError maps err to one of ErrIO, ErrProtocol, ErrCrypto or
// ErrAuthentication.
func classifyError(err error) error {
	var connErr *ConnError
	if errors.As(err, &connErr) {
		return connErr.Class
	}

	switch {
	case errors.Is(err, ErrAuthentication):
		return ErrAuthentication
	case errors.Is(err, ErrDecryption),
		errors.Is(err, ErrVerifyTokenMismatch),
		errors.Is(err, ErrInvalidSharedSecretLength):
		return ErrCrypto
	case protocol.IsMalformed(err),
		errors.Is(err, ErrUnexpectedNextState):
		return ErrProtocol
	default:
		return ErrIO
	}
}

// isClosedByPeer reports whether err is the client hanging up or timing out.
func isClosedByPeer(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, os.ErrDeadlineExceeded)
}
