// Package bridge maintains the TCP connection to the Blender addon and
// implements the JSON command protocol it speaks: one {"type","params"}
// object per command, one JSON object back. There is no length framing;
// a response is complete when the accumulated bytes parse as JSON.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default connection parameters. The command timeout matches the addon's
// own execution timeout so both sides give up together.
const (
	DefaultHost           = "localhost"
	DefaultPort           = 9876
	DefaultDialTimeout    = 5 * time.Second
	DefaultCommandTimeout = 180 * time.Second

	recvBufferSize = 8192
)

var (
	// ErrNotConnected is returned when a command is attempted and the
	// connection cannot be established.
	ErrNotConnected = errors.New("not connected to Blender")

	// ErrConnectionClosed is returned when the addon closes the socket
	// before sending any response data.
	ErrConnectionClosed = errors.New("connection closed before receiving any data")

	// ErrIncompleteResponse is returned when the receive deadline passes
	// with a partial, unparseable response in the buffer.
	ErrIncompleteResponse = errors.New("incomplete JSON response received")

	// ErrTimeout is returned when Blender does not answer within the
	// command timeout.
	ErrTimeout = errors.New("timeout waiting for Blender response - try simplifying your request")
)

// Command is the wire format sent to the addon.
type Command struct {
	Type   string `json:"type"`
	Params any    `json:"params"`
}

// Response is the wire format received from the addon.
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// Err returns a non-nil error when the addon reported a command failure.
func (r *Response) Err() error {
	if r.Status == "error" {
		msg := r.Message
		if msg == "" {
			msg = "unknown error"
		}
		return fmt.Errorf("blender error: %s", msg)
	}
	return nil
}

// ResultMap decodes the result payload into a generic map. A missing or
// null result decodes to an empty map.
func (r *Response) ResultMap() (map[string]any, error) {
	out := map[string]any{}
	if len(r.Result) == 0 || string(r.Result) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(r.Result, &out); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return out, nil
}

// DecodeResult decodes the result payload into the given value.
func (r *Response) DecodeResult(v any) error {
	if len(r.Result) == 0 {
		return fmt.Errorf("empty result")
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("failed to decode result: %w", err)
	}
	return nil
}

// Config holds the connection parameters for the addon socket.
type Config struct {
	Host           string
	Port           int
	DialTimeout    time.Duration
	CommandTimeout time.Duration
}

// Conn is a persistent connection to the Blender addon. One command is
// in flight at a time; the mutex serializes callers. A failed command
// invalidates the socket so the next call reconnects.
type Conn struct {
	cfg Config
	log *zap.Logger

	mu   sync.Mutex
	sock net.Conn

	// Cached from the last liveness probe.
	polyhavenEnabled bool
}

// New creates an unconnected bridge. Zero config fields fall back to
// the defaults above.
func New(cfg Config, log *zap.Logger) *Conn {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Conn{cfg: cfg, log: log}
}

// Addr returns the host:port the bridge dials.
func (c *Conn) Addr() string {
	return net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

// Connect dials the addon if no socket is held. It is a no-op when
// already connected.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Conn) connectLocked(ctx context.Context) error {
	if c.sock != nil {
		return nil
	}

	dialer := net.Dialer{Timeout: c.cfg.DialTimeout}
	sock, err := dialer.DialContext(ctx, "tcp", c.Addr())
	if err != nil {
		c.log.Error("failed to connect to Blender", zap.String("addr", c.Addr()), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}

	c.sock = sock
	c.log.Info("connected to Blender", zap.String("addr", c.Addr()))
	return nil
}

// Disconnect closes the socket if one is held.
func (c *Conn) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

func (c *Conn) dropLocked() {
	if c.sock == nil {
		return
	}
	if err := c.sock.Close(); err != nil {
		c.log.Warn("error closing Blender socket", zap.Error(err))
	}
	c.sock = nil
}

// Connected reports whether a socket is currently held. It says nothing
// about liveness; use Probe for that.
func (c *Conn) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sock != nil
}

// Send issues one command and waits for the complete response. On timeout
// or connection error the socket is invalidated so the next Send
// reconnects; Send itself never retries.
func (c *Conn) Send(ctx context.Context, commandType string, params any) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}

	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(Command{Type: commandType, Params: params})
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}

	c.log.Debug("sending command", zap.String("type", commandType), zap.Int("bytes", len(payload)))

	deadline := time.Now().Add(c.cfg.CommandTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.sock.SetDeadline(deadline); err != nil {
		c.dropLocked()
		return nil, fmt.Errorf("failed to set socket deadline: %w", err)
	}

	if _, err := c.sock.Write(payload); err != nil {
		c.dropLocked()
		c.log.Error("socket write failed", zap.String("type", commandType), zap.Error(err))
		return nil, fmt.Errorf("connection to Blender lost: %w", err)
	}

	data, err := c.receiveFullLocked()
	if err != nil {
		c.dropLocked()
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.dropLocked()
		c.log.Error("invalid JSON response from Blender",
			zap.String("type", commandType), zap.ByteString("head", head(data, 200)))
		return nil, fmt.Errorf("invalid response from Blender: %w", err)
	}

	c.log.Debug("received response",
		zap.String("type", commandType), zap.String("status", resp.Status), zap.Int("bytes", len(data)))
	return &resp, nil
}

// receiveFullLocked reads chunks until the buffer parses as complete
// JSON. Large scene dumps arrive in many chunks; partial reads are
// expected and retried until the deadline.
func (c *Conn) receiveFullLocked() ([]byte, error) {
	var buf []byte
	chunk := make([]byte, recvBufferSize)

	for {
		n, err := c.sock.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if json.Valid(buf) {
				return buf, nil
			}
		}
		if err == nil {
			continue
		}

		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			// Use what we have if it happens to be complete.
			if len(buf) > 0 && json.Valid(buf) {
				return buf, nil
			}
			c.log.Warn("socket timeout during chunked receive", zap.Int("buffered", len(buf)))
			if len(buf) > 0 {
				return nil, ErrIncompleteResponse
			}
			return nil, ErrTimeout
		}
		if len(buf) == 0 {
			c.log.Error("socket error before any response data", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrConnectionClosed, err)
		}
		if json.Valid(buf) {
			return buf, nil
		}
		return nil, fmt.Errorf("connection to Blender lost mid-response: %w", err)
	}
}

// Probe checks liveness of the held connection by issuing a
// get_polyhaven_status command, caching whether PolyHaven is enabled.
// On failure the connection is torn down so the next Send reconnects.
func (c *Conn) Probe(ctx context.Context) error {
	resp, err := c.Send(ctx, "get_polyhaven_status", nil)
	if err != nil {
		c.log.Warn("existing connection is no longer valid", zap.Error(err))
		c.Disconnect()
		return err
	}

	var status struct {
		Enabled bool `json:"enabled"`
	}
	if len(resp.Result) > 0 {
		_ = json.Unmarshal(resp.Result, &status)
	}
	c.mu.Lock()
	c.polyhavenEnabled = status.Enabled
	c.mu.Unlock()
	return nil
}

// PolyHavenEnabled reports the PolyHaven integration state cached by the
// last successful Probe.
func (c *Conn) PolyHavenEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.polyhavenEnabled
}

func head(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
