package supernote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://cloud.supernote.com/api"

// Request constants. The service fingerprints clients, so requests carry
// a realistic browser header set; userAgent must stay in step with the
// browserTag sent in the login payload.
const (
	defaultTimeout = 60 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"
	browserTag     = "Chrome134"
	webOrigin      = "https://cloud.supernote.com"
)

// Header names for the two session tokens.
const (
	headerXSRF        = "X-XSRF-TOKEN"
	headerAccessToken = "x-access-token"
)

// API endpoint paths, relative to the base URL.
const (
	endpointCSRF         = "/csrf"
	endpointRandomCode   = "/official/user/query/random/code"
	endpointLogin        = "/official/user/account/login/new"
	endpointFileList     = "/file/list/query"
	endpointDownloadURL  = "/file/download/url"
	endpointPDFURL       = "/file/pdf/url"
	endpointPNGURL       = "/file/png/url"
	endpointCreateFolder = "/file/directory/create"
	endpointUploadApply  = "/file/upload/apply"
	endpointUploadFinish = "/file/upload/finish"
	endpointDelete       = "/file/delete"
)

// Client is an HTTP client for the Supernote Cloud API. It handles the
// session handshake, request construction, and error classification.
//
// Session state (access token, anti-forgery token, cookies) is lazily
// initialized on first use and reused for all subsequent calls. Client is
// not safe for concurrent use; every operation is a blocking call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	// accessToken is set by Login or SetAccessToken. xsrfToken is filled
	// by ensureSession from the anti-forgery exchange.
	accessToken string
	xsrfToken   string
}

// NewClient creates a Supernote Cloud client. An empty baseURL selects
// the production endpoint. If httpClient is nil, a default with a
// 60-second timeout is used. A cookie jar is attached when the given
// client has none, because the anti-forgery exchange sets a session
// cookie the service pairs with the token on later requests.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	if httpClient.Jar == nil {
		if jar, err := cookiejar.New(nil); err == nil {
			clone := *httpClient
			clone.Jar = jar
			httpClient = &clone
		}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// SetAccessToken installs a bearer token obtained from a previous login,
// typically one persisted by the CLI.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// AccessToken returns the current bearer token, empty when not logged in.
func (c *Client) AccessToken() string {
	return c.accessToken
}

// requireAuth gates file operations on a present access token.
func (c *Client) requireAuth() error {
	if c.accessToken == "" {
		return ErrAuthRequired
	}

	return nil
}

// ensureSession performs the anti-forgery exchange once per client: a GET
// whose response carries the token in the X-Xsrf-Token header and a
// session cookie in the jar. Already-initialized clients return
// immediately, which makes lazy initialization idempotent.
func (c *Client) ensureSession(ctx context.Context) error {
	if c.xsrfToken != "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpointCSRF, nil)
	if err != nil {
		return fmt.Errorf("supernote: building session request: %w", err)
	}

	c.attachHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	// The body is unused; drain it so the connection can be reused.
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &TransportError{StatusCode: resp.StatusCode}
	}

	token := resp.Header.Get(headerXSRF)
	if token == "" {
		return &APIError{Op: "session init", Message: "no anti-forgery token in response"}
	}

	c.xsrfToken = token
	c.logger.Debug("session initialized")

	return nil
}

// attachHeaders sets the browser-like header set plus whichever session
// tokens are currently held.
func (c *Client) attachHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Origin", webOrigin)
	req.Header.Set("Referer", webOrigin+"/")

	if c.xsrfToken != "" {
		req.Header.Set(headerXSRF, c.xsrfToken)
	}

	if c.accessToken != "" {
		req.Header.Set(headerAccessToken, c.accessToken)
	}
}

// envelope is the response wrapper common to the JSON endpoints. The
// service reports application-level failures with HTTP 200 and
// success=false.
type envelope struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
}

// post sends an authenticated JSON POST and returns the raw response
// body. It classifies network and HTTP-status failures as TransportError
// but does not interpret the response envelope; callers that need the
// success flag handled should use postJSON instead.
func (c *Client) post(ctx context.Context, op, path string, payload any) ([]byte, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("supernote: encoding %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("supernote: building %s request: %w", op, err)
	}

	req.Header.Set("Content-Type", "application/json")
	c.attachHeaders(req)

	c.logger.Debug("api call", "op", op, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck

		return nil, &TransportError{StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	return raw, nil
}

// postJSON sends an authenticated JSON POST, enforces the success
// envelope, and decodes the body into out when out is non-nil. Envelope
// failures surface as APIError carrying the service's errorMsg.
func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	raw, err := c.post(ctx, op, path, payload)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Op: op, Message: fmt.Sprintf("malformed response: %v", err)}
	}

	if !env.Success {
		return &APIError{Op: op, Message: env.ErrorMsg}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return &APIError{Op: op, Message: fmt.Sprintf("malformed response: %v", err)}
		}
	}

	return nil
}
