package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
	"github.com/lxzan/gws"
	"go.uber.org/zap"

	"pricebook/domain"
)

// ErrDisconnected is returned by Run when the server ends the connection
var ErrDisconnected = errors.New("feed: connection closed by server")

// Sink receives decoded feed messages; *store.Store satisfies it
type Sink interface {
	LoadSnapshot(symbol string, snap domain.Snapshot)
	ApplyDiffUpdate(update domain.DiffUpdate) error
}

// Client consumes an exchange depth feed over websocket and forwards it to a Sink
type Client struct {
	sink    Sink
	symbols []string
	ids     *IDGenerator
	logger  *zap.Logger

	mu       sync.Mutex
	closeErr error
}

var _ gws.Event = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithSymbols sets the symbols subscribed to on connect
func WithSymbols(symbols ...string) Option {
	return func(c *Client) {
		c.symbols = append(c.symbols, symbols...)
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a feed client writing into sink
func New(sink Sink, opts ...Option) *Client {
	c := &Client{
		sink:   sink,
		ids:    NewIDGenerator("feed-"),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run dials addr and processes messages until ctx is cancelled or the server
// closes the connection.
func (c *Client) Run(ctx context.Context, addr string) error {
	socket, _, err := gws.NewClient(c, &gws.ClientOption{
		Addr: addr,
		PermessageDeflate: gws.PermessageDeflate{
			Enabled:               true,
			ServerContextTakeover: true,
			ClientContextTakeover: true,
		},
	})
	if err != nil {
		return fmt.Errorf("dial feed %s: %w", addr, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		socket.ReadLoop()
	}()

	select {
	case <-ctx.Done():
		socket.WriteClose(1000, nil)
		_ = socket.NetConn().Close()
		<-done
		return nil
	case <-done:
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closeErr != nil {
			return fmt.Errorf("%w: %w", ErrDisconnected, c.closeErr)
		}
		return ErrDisconnected
	}
}

// Handle decodes one feed message and routes it
// Snapshots replace the symbol's book, updates are dispatched as diffs and get
// a generated id when the feed did not send one. Unknown types are ignored.
func (c *Client) Handle(data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode feed message: %w", err)
	}

	switch msg.Type {
	case TypeSnapshot, TypeUpdate:
	default:
		c.logger.Debug("ignoring feed message", zap.String("type", msg.Type))
		return nil
	}

	if msg.Symbol == "" {
		return fmt.Errorf("feed %s message without symbol", msg.Type)
	}

	if msg.Type == TypeSnapshot {
		c.sink.LoadSnapshot(msg.Symbol, msg.snapshot())
		return nil
	}

	if msg.ID == "" {
		msg.ID = c.ids.Next()
	}
	if err := c.sink.ApplyDiffUpdate(msg.diff()); err != nil {
		return fmt.Errorf("apply update %s for %s: %w", msg.ID, msg.Symbol, err)
	}
	return nil
}

// OnOpen subscribes to the configured symbols
func (c *Client) OnOpen(socket *gws.Conn) {
	if len(c.symbols) == 0 {
		return
	}
	if err := socket.WriteMessage(gws.OpcodeText, subscribeRequest(c.symbols).Pack()); err != nil {
		c.logger.Error("subscribe failed", zap.Error(err))
		return
	}
	c.logger.Info("subscribed", zap.Strings("symbols", c.symbols))
}

// OnClose records why the connection ended
func (c *Client) OnClose(socket *gws.Conn, err error) {
	c.mu.Lock()
	c.closeErr = err
	c.mu.Unlock()

	c.logger.Info("feed closed", zap.Error(err))
}

// OnPing answers with a pong
func (c *Client) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.WritePong(payload)
}

// OnPong is a no-op
func (c *Client) OnPong(socket *gws.Conn, payload []byte) {
}

// OnMessage routes one frame through Handle
func (c *Client) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	if err := c.Handle(message.Bytes()); err != nil {
		c.logger.Warn("feed message rejected", zap.Error(err))
	}
}
