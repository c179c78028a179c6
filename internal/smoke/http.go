package smoke

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client is one worker's view of the server. It keeps its own cookie jar so
// the CSRF cookie issued to one worker is never seen by another.
type Client struct {
	base   string
	client *http.Client
}

type response struct {
	status int
	body   []byte
}

// NewClient creates a client for baseURL with a fresh cookie jar.
func NewClient(baseURL string, timeout time.Duration) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, header http.Header) (*response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	return &response{status: resp.StatusCode, body: data}, nil
}

// Token fetches a CSRF token. The matching cookie lands in the jar.
func (c *Client) Token(ctx context.Context) (string, error) {
	res, err := c.do(ctx, http.MethodGet, "/csrf-token", nil, nil)
	if err != nil {
		return "", err
	}
	if res.status != http.StatusOK {
		return "", fmt.Errorf("csrf-token: status %d", res.status)
	}
	var tr struct {
		Token string `json:"csrf_token"`
	}
	if err := json.Unmarshal(res.body, &tr); err != nil {
		return "", fmt.Errorf("csrf-token: %w", err)
	}
	if tr.Token == "" {
		return "", fmt.Errorf("csrf-token: empty token")
	}
	return tr.Token, nil
}
