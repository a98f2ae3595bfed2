package java

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/haveachin/gatekeeper/pkg/event"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var ErrGatewayClosed = errors.New("gateway closed")

// Gateway accepts client connections and serves each of them with Handler
// on its own goroutine.
type Gateway struct {
	Listener net.Listener
	Handler  *Handler
	// Filter is consulted before anything is read from a new connection.
	Filter        Filterer
	ClientTimeout time.Duration
	MaxPacketSize int
	Logger        *zap.Logger
	EventBus      event.Bus

	closed atomic.Bool
	wg     sync.WaitGroup
	mu     sync.Mutex
	conns  map[*Conn]struct{}
}

func (gw *Gateway) logger() *zap.Logger {
	if gw.Logger == nil {
		return zap.NewNop()
	}
	return gw.Logger
}

// ListenAndServe blocks until ctx is canceled or Close is called. It waits
// for all connections to finish before returning.
func (gw *Gateway) ListenAndServe(ctx context.Context) error {
	if gw.closed.Load() {
		return ErrGatewayClosed
	}

	logger := gw.logger()
	logger.Info("starting to listen for connections", logListener(gw.Listener)...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		if err := gw.Close(); err != nil && !errors.Is(err, ErrGatewayClosed) {
			logger.Debug("failed to close gateway", zap.Error(err))
		}
	}()

	for {
		c, err := gw.Listener.Accept()
		if err != nil {
			if gw.closed.Load() || errors.Is(err, net.ErrClosed) {
				break
			}
			logger.Debug("failed to accept connection", zap.Error(err))
			continue
		}

		gw.wg.Add(1)
		go gw.serve(ctx, c)
	}

	gw.wg.Wait()
	logger.Info("stopped listening for connections", logListener(gw.Listener)...)
	return nil
}

func (gw *Gateway) serve(ctx context.Context, c net.Conn) {
	defer gw.wg.Done()
	logger := gw.logger().With(logConn(c)...)
	defer func() {
		if r := recover(); r != nil {
			logger.Error("recovered from panic while serving connection",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			_ = c.Close()
		}
	}()

	if gw.Filter != nil {
		if err := gw.Filter.Filter(c); err != nil {
			logger.Debug("filtered connection", zap.Error(err))
			_ = c.Close()
			return
		}
	}

	conn := NewConn(c, gw.ClientTimeout, gw.MaxPacketSize)
	if !gw.track(conn) {
		_ = conn.ForceClose()
		return
	}
	defer gw.untrack(conn)
	defer conn.ForceClose()

	if gw.EventBus != nil {
		gw.EventBus.Push(NewConnEvent{
			RemoteAddr: addrString(c.RemoteAddr()),
			LocalAddr:  addrString(c.LocalAddr()),
		}, event.TopicNewConn)
	}

	logger.Debug("serving connection")
	if err := gw.Handler.ServeConn(ctx, conn); err != nil {
		logServeError(logger, err)
		return
	}
	logger.Debug("closing connection")
}

func logServeError(logger *zap.Logger, err error) {
	switch classifyError(err) {
	case ErrCrypto, ErrAuthentication:
		logger.Info("login failed", zap.Error(err))
	case ErrIO:
		if isClosedByPeer(err) {
			logger.Debug("client went away", zap.Error(err))
			return
		}
		logger.Debug("connection failed", zap.Error(err))
	default:
		logger.Debug("closing connection", zap.Error(err))
	}
}

func (gw *Gateway) track(c *Conn) bool {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	if gw.closed.Load() {
		return false
	}

	if gw.conns == nil {
		gw.conns = map[*Conn]struct{}{}
	}
	gw.conns[c] = struct{}{}
	return true
}

func (gw *Gateway) untrack(c *Conn) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	delete(gw.conns, c)
}

// Conns returns the number of connections currently being served.
func (gw *Gateway) Conns() int {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return len(gw.conns)
}

// Close stops accepting connections and closes the ones being served.
func (gw *Gateway) Close() error {
	if !gw.closed.CompareAndSwap(false, true) {
		return ErrGatewayClosed
	}

	err := gw.Listener.Close()

	gw.mu.Lock()
	defer gw.mu.Unlock()
	for c := range gw.conns {
		err = multierr.Append(err, c.ForceClose())
	}
	return err
}
