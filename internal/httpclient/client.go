// internal/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"janmanch-client/internal/credential"
	xerrors "janmanch-client/internal/pkg/errors"

	"go.uber.org/zap"
)

// Credential rotation headers. The server may attach either on any response.
const (
	HeaderNewToken  = "x-new-token"
	HeaderSessionID = "x-session-id"
)

// HeaderDeviceType identifies the device on outbound requests; the server
// records it against the session it creates.
const HeaderDeviceType = "x-device-type"

// Client wraps every outbound call to the backend: it attaches the bearer
// token and session-id header, observes responses for rotated credentials,
// and normalizes all failures into xerrors.APIError. Each call is attempted
// exactly once; there are no client-side retries.
type Client struct {
	base   string
	device string
	http   *http.Client
	creds  *credential.Store
	logger *zap.Logger

	// gen guards rotation against late responses: a logout bumps it, and
	// rotation from a response started under an older generation is dropped.
	gen atomic.Uint64
}

func New(baseURL, device string, timeout time.Duration, creds *credential.Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		device: device,
		http:   &http.Client{Timeout: timeout},
		creds:  creds,
		logger: logger,
	}
}

// BumpGeneration invalidates credential rotation from any request already
// in flight. Called by the auth controller during logout cleanup.
func (c *Client) BumpGeneration() {
	c.gen.Add(1)
}

func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodPatch, path, body, out)
}

// Delete issues a DELETE, optionally carrying a JSON body.
func (c *Client) Delete(ctx context.Context, path string, body, out interface{}) error {
	return c.doJSON(ctx, http.MethodDelete, path, body, out)
}

// PostMultipart submits a multipart/form-data body built by Form.
func (c *Client) PostMultipart(ctx context.Context, path string, form *Form, out interface{}) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return xerrors.New(xerrors.KindNetwork, 0, "failed to encode form").WithCause(err)
	}
	return c.do(ctx, http.MethodPost, path, body, contentType, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return xerrors.New(xerrors.KindNetwork, 0, "failed to encode request body").WithCause(err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	startGen := c.gen.Load()

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return xerrors.New(xerrors.KindNetwork, 0, err.Error()).WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.device != "" {
		req.Header.Set(HeaderDeviceType, c.device)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := c.creds.Get(credential.KeyToken); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if sessionID, ok := c.creds.Get(credential.KeySessionID); ok {
		req.Header.Set(HeaderSessionID, sessionID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failure: no response, nothing to inspect for rotation.
		return xerrors.New(xerrors.KindNetwork, 0, err.Error()).WithCause(err)
	}
	defer resp.Body.Close()

	// Rotation applies to every response carrying headers, success or not.
	c.applyRotation(resp.Header, startGen)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerrors.New(xerrors.KindNetwork, 0, err.Error()).WithCause(err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return xerrors.New(xerrors.KindServer, resp.StatusCode, "malformed response body").WithCause(err)
		}
		return nil
	}

	return normalizeFailure(resp.StatusCode, raw)
}

func (c *Client) applyRotation(header http.Header, startGen uint64) {
	newToken := header.Get(HeaderNewToken)
	newSessionID := header.Get(HeaderSessionID)
	if newToken == "" && newSessionID == "" {
		return
	}
	if c.gen.Load() != startGen {
		// The session ended while this request was in flight; a stale
		// rotation must not resurrect credentials.
		c.logger.Debug("dropping credential rotation from stale response")
		return
	}
	if newToken != "" {
		if exp, ok := TokenExpiry(newToken); ok {
			c.creds.SetUntil(credential.KeyToken, newToken, exp)
		} else {
			c.creds.Set(credential.KeyToken, newToken, credential.LifetimeShort)
		}
		c.logger.Debug("bearer token rotated")
	}
	if newSessionID != "" {
		c.creds.Set(credential.KeySessionID, newSessionID, credential.LifetimeLong)
		c.logger.Debug("session id issued", zap.String("session_id", newSessionID))
	}
}
