package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/okian/csvpage/internal/adapters/http/web"
)

// ErrUnexpected is wrapped when a response does not match the contract.
var ErrUnexpected = errors.New("unexpected response")

// Check is one step of a round. Steps share a round's state through r.
type Check struct {
	Name string
	Run  func(ctx context.Context, c *Client, r *Round) error
}

// Round carries state between the checks of one round.
type Round struct {
	Token string
}

// Checks returns the contract checks in the order they run.
func Checks() []Check {
	return []Check{
		{Name: "healthz", Run: checkHealth},
		{Name: "reject_without_token", Run: checkRejectWithoutToken},
		{Name: "fetch_token", Run: checkFetchToken},
		{Name: "hello", Run: checkHello},
		{Name: "data", Run: checkData},
		{Name: "data_method", Run: checkDataMethod},
	}
}

func expectStatus(res *response, want int) error {
	if res.status != want {
		return fmt.Errorf("%w: status %d, want %d", ErrUnexpected, res.status, want)
	}
	return nil
}

func checkHealth(ctx context.Context, c *Client, _ *Round) error {
	res, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	return expectStatus(res, http.StatusOK)
}

func checkRejectWithoutToken(ctx context.Context, c *Client, _ *Round) error {
	res, err := c.do(ctx, http.MethodPost, "/", url.Values{}, nil)
	if err != nil {
		return err
	}
	return expectStatus(res, http.StatusForbidden)
}

func checkFetchToken(ctx context.Context, c *Client, r *Round) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	r.Token = token
	return nil
}

func checkHello(ctx context.Context, c *Client, r *Round) error {
	res, err := c.do(ctx, http.MethodPost, "/", url.Values{"csrf_token": {r.Token}}, nil)
	if err != nil {
		return err
	}
	if err := expectStatus(res, http.StatusOK); err != nil {
		return err
	}
	if string(res.body) != web.HelloBody {
		return fmt.Errorf("%w: body %q", ErrUnexpected, res.body)
	}
	return nil
}

func checkData(ctx context.Context, c *Client, r *Round) error {
	h := http.Header{}
	h.Set("X-CSRF-Token", r.Token)
	res, err := c.do(ctx, http.MethodPost, "/data", url.Values{}, h)
	if err != nil {
		return err
	}
	if err := expectStatus(res, http.StatusOK); err != nil {
		return err
	}
	if !strings.Contains(string(res.body), "<table>") {
		return fmt.Errorf("%w: no table in data page", ErrUnexpected)
	}
	return nil
}

func checkDataMethod(ctx context.Context, c *Client, _ *Round) error {
	res, err := c.do(ctx, http.MethodGet, "/data", nil, nil)
	if err != nil {
		return err
	}
	return expectStatus(res, http.StatusMethodNotAllowed)
}
