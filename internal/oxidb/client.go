// Package oxidb is a TCP client for oxidb-server.
//
// Each message is [4-byte little-endian length][JSON payload]. The server
// answers {"ok": true, "data": ...} or {"ok": false, "error": "..."}.
package oxidb

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// maxFrame bounds a single response frame.
const maxFrame = 64 << 20

// ErrBroken is returned by a client whose connection failed mid-request.
// The stream may hold a partial frame, so the client is not reused.
var ErrBroken = errors.New("oxidb: connection broken")

// Client is a single connection. Requests on it are serialized.
type Client struct {
	conn   net.Conn
	mu     sync.Mutex
	broken bool
}

// Connect dials addr ("host:port") honoring ctx.
func Connect(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("oxidb: connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broken = true
	return c.conn.Close()
}

// Broken reports whether the client was closed or lost its stream.
func (c *Client) Broken() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.broken
}

// fail closes the connection after a transport error.
func (c *Client) fail(err error) error {
	c.broken = true
	c.conn.Close()
	return err
}

func (c *Client) send(data []byte) error {
	frame := make([]byte, 4+len(data))
	binary.LittleEndian.PutUint32(frame, uint32(len(data)))
	copy(frame[4:], data)
	_, err := c.conn.Write(frame)
	return err
}

func (c *Client) recv() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.conn, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("oxidb: read length: %w", err)
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])
	if length > maxFrame {
		return nil, fmt.Errorf("oxidb: frame of %d bytes exceeds limit", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, fmt.Errorf("oxidb: read payload: %w", err)
	}
	return payload, nil
}

func (c *Client) request(ctx context.Context, payload map[string]any) (map[string]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken {
		return nil, ErrBroken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	deadline, _ := ctx.Deadline()
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("oxidb: marshal request: %w", err)
	}
	if err := c.send(body); err != nil {
		return nil, c.fail(fmt.Errorf("oxidb: send: %w", err))
	}
	respBytes, err := c.recv()
	if err != nil {
		return nil, c.fail(err)
	}
	var resp map[string]any
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("oxidb: unmarshal response: %w", err)
	}
	return resp, nil
}

func (c *Client) checked(ctx context.Context, payload map[string]any) (any, error) {
	resp, err := c.request(ctx, payload)
	if err != nil {
		return nil, err
	}
	if ok, _ := resp["ok"].(bool); !ok {
		msg, _ := resp["error"].(string)
		if msg == "" {
			msg = "unknown error"
		}
		return nil, &Error{Msg: msg}
	}
	return resp["data"], nil
}

// Ping returns "pong" from a healthy server.
func (c *Client) Ping(ctx context.Context) (string, error) {
	data, err := c.checked(ctx, map[string]any{"cmd": "ping"})
	if err != nil {
		return "", err
	}
	s, _ := data.(string)
	return s, nil
}

// Insert stores doc and returns the server's reply, which carries the new id.
func (c *Client) Insert(ctx context.Context, collection string, doc map[string]any) (map[string]any, error) {
	data, err := c.checked(ctx, map[string]any{"cmd": "insert", "collection": collection, "doc": doc})
	if err != nil {
		return nil, err
	}
	m, _ := data.(map[string]any)
	return m, nil
}

// FindOptions holds optional parameters for Find.
type FindOptions struct {
	Sort  map[string]any
	Skip  *int
	Limit *int
}

func (c *Client) Find(ctx context.Context, collection string, query map[string]any, opts *FindOptions) ([]map[string]any, error) {
	payload := map[string]any{"cmd": "find", "collection": collection, "query": query}
	if opts != nil {
		if opts.Sort != nil {
			payload["sort"] = opts.Sort
		}
		if opts.Skip != nil {
			payload["skip"] = *opts.Skip
		}
		if opts.Limit != nil {
			payload["limit"] = *opts.Limit
		}
	}
	data, err := c.checked(ctx, payload)
	if err != nil {
		return nil, err
	}
	return toMapSlice(data), nil
}

// FindOne returns the first match, or nil.
func (c *Client) FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	data, err := c.checked(ctx, map[string]any{"cmd": "find_one", "collection": collection, "query": query})
	if err != nil {
		return nil, err
	}
	m, _ := data.(map[string]any)
	return m, nil
}

func (c *Client) CreateIndex(ctx context.Context, collection, field string) error {
	_, err := c.checked(ctx, map[string]any{"cmd": "create_index", "collection": collection, "field": field})
	return err
}

func (c *Client) CreateUniqueIndex(ctx context.Context, collection, field string) error {
	_, err := c.checked(ctx, map[string]any{"cmd": "create_unique_index", "collection": collection, "field": field})
	return err
}

func (c *Client) CreateBucket(ctx context.Context, bucket string) error {
	_, err := c.checked(ctx, map[string]any{"cmd": "create_bucket", "bucket": bucket})
	return err
}

// PutObject uploads data; it is base64-encoded on the wire.
func (c *Client) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string, metadata map[string]string) (map[string]any, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	payload := map[string]any{
		"cmd":          "put_object",
		"bucket":       bucket,
		"key":          key,
		"data":         base64.StdEncoding.EncodeToString(data),
		"content_type": contentType,
	}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}
	result, err := c.checked(ctx, payload)
	if err != nil {
		return nil, err
	}
	m, _ := result.(map[string]any)
	return m, nil
}

// GetObject returns the object's content and metadata.
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, map[string]any, error) {
	result, err := c.checked(ctx, map[string]any{"cmd": "get_object", "bucket": bucket, "key": key})
	if err != nil {
		return nil, nil, err
	}
	m, _ := result.(map[string]any)
	content, _ := m["content"].(string)
	decoded, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		return nil, nil, fmt.Errorf("oxidb: decode base64: %w", err)
	}
	meta, _ := m["metadata"].(map[string]any)
	return decoded, meta, nil
}

// IsNotFound reports whether err is a server "not found" reply.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && strings.Contains(strings.ToLower(e.Msg), "not found")
}

// IsExists reports whether err is a server "already exists" reply.
func IsExists(err error) bool {
	var e *Error
	return errors.As(err, &e) && strings.Contains(strings.ToLower(e.Msg), "exists")
}

func toMapSlice(data any) []map[string]any {
	arr, _ := data.([]any)
	result := make([]map[string]any, 0, len(arr))
	for _, v := range arr {
		if m, ok := v.(map[string]any); ok {
			result = append(result, m)
		}
	}
	return result
}
