package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jaywantadh/chunkstore/internal/chunker"
	"github.com/jaywantadh/chunkstore/internal/metadata"
)

// DefaultTimeout bounds every request when no timeout option is given.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of an error response is read for its reason.
const maxErrorBody = 4096

// Client talks to a chunk store over HTTP. It holds no per-call state and is
// safe for concurrent use. Requests are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        logrus.FieldLogger
}

type ClientOption func(*Client)

// WithTimeout bounds each request, including reading the response body.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(log logrus.FieldLogger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// NewClient creates a client for the store at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	discard := logrus.New()
	discard.Out = io.Discard

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		log: discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the store endpoint without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// PutResult is the store's acknowledgement of one write.
type PutResult struct {
	Address chunker.Address
	// Status is the HTTP status of the response: 201 for a new chunk, 204
	// when the address was already stored.
	Status int
}

// Put uploads c to /chunk/<address> and returns the address on success.
// The address is computed locally; the store only acknowledges the write.
func (c *Client) Put(ctx context.Context, chunk chunker.Chunk) (chunker.Address, error) {
	res, err := c.Store(ctx, chunk)
	return res.Address, err
}

// Store is Put that also reports the status the store answered with.
func (c *Client) Store(ctx context.Context, chunk chunker.Chunk) (PutResult, error) {
	addr := chunker.AddressOf(chunk)
	url := ChunkURL(c.baseURL, addr)

	resp, err := c.do(ctx, "put", http.MethodPut, url, chunk.Bytes())
	if err != nil {
		return PutResult{}, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	c.log.WithFields(logrus.Fields{
		"address": addr.Short(),
		"status":  resp.StatusCode,
	}).Debug("chunk stored")
	return PutResult{Address: addr, Status: resp.StatusCode}, nil
}

// FetchResult is a verified chunk and the status it was served with.
type FetchResult struct {
	Chunk  chunker.Chunk
	Status int
}

// Get downloads the chunk at addr. The body must be exactly ChunkSize bytes
// hashing to addr, otherwise an *IntegrityError is returned.
func (c *Client) Get(ctx context.Context, addr chunker.Address) (chunker.Chunk, error) {
	res, err := c.Fetch(ctx, addr)
	return res.Chunk, err
}

// Fetch is Get that also reports the status the store answered with.
func (c *Client) Fetch(ctx context.Context, addr chunker.Address) (FetchResult, error) {
	url := ChunkURL(c.baseURL, addr)

	resp, err := c.do(ctx, "get", http.MethodGet, url, nil)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, chunker.ChunkSize+1))
	if err != nil {
		return FetchResult{}, &TransportError{Op: "get", URL: url, Err: err}
	}

	chunk, err := chunker.FromBytes(data)
	if err != nil {
		return FetchResult{}, &IntegrityError{Address: addr, Size: len(data)}
	}
	if got := chunker.AddressOf(chunk); got != addr {
		c.log.WithFields(logrus.Fields{
			"address": addr.Short(),
			"got":     got.Short(),
		}).Warn("store returned mismatched chunk")
		return FetchResult{}, &IntegrityError{Address: addr, Got: got, Size: len(data)}
	}

	c.log.WithField("address", addr.Short()).Debug("chunk fetched")
	return FetchResult{Chunk: chunk, Status: resp.StatusCode}, nil
}

func (c *Client) Delete(ctx context.Context, addr chunker.Address) error {
	resp, err := c.do(ctx, "delete", http.MethodDelete, ChunkURL(c.baseURL, addr), nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// List returns the addresses held by the store.
func (c *Client) List(ctx context.Context) ([]chunker.Address, error) {
	var addrs []chunker.Address
	if err := c.getJSON(ctx, "list", c.baseURL+ChunkPath, &addrs); err != nil {
		return nil, err
	}
	return addrs, nil
}

// Records lists every write record the store keeps.
func (c *Client) Records(ctx context.Context) ([]metadata.ChunkRecord, error) {
	var records []metadata.ChunkRecord
	if err := c.getJSON(ctx, "records", c.baseURL+RecordPath, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// Record fetches the store's write record for addr.
func (c *Client) Record(ctx context.Context, addr chunker.Address) (metadata.ChunkRecord, error) {
	var rec metadata.ChunkRecord
	err := c.getJSON(ctx, "record", ChunkURL(c.baseURL, addr)+"/record", &rec)
	return rec, err
}

func (c *Client) Ping(ctx context.Context) error {
	var health HealthResponse
	return c.getJSON(ctx, "ping", c.baseURL+HealthPath, &health)
}

func (c *Client) getJSON(ctx context.Context, op, url string, out interface{}) error {
	resp, err := c.do(ctx, op, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, URL: url, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// do sends one request. Failures before a response are *TransportError;
// responses outside 2xx are closed and returned as *StatusError.
func (c *Client) do(ctx context.Context, op, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", ContentTypeRaw)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	log := c.log.WithFields(logrus.Fields{
		"op":         op,
		"request_id": requestID,
	})
	log.Debugf("%s %s", method, url)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return nil, &TransportError{Op: op, URL: url, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		se := &StatusError{Op: op, Code: resp.StatusCode, Reason: readReason(resp)}
		log.WithField("status", resp.StatusCode).Debug(se.Reason)
		return nil, se
	}
	return resp, nil
}

// readReason extracts the message of an ErrorResponse body, falling back to
// the raw body and then to the status text.
func readReason(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body ErrorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
