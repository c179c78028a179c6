package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
)

// testBase is the origin requests appear to come from.
var testBase = &url.URL{Scheme: "http", Host: "example.com", Path: "/"}

// Response is what TestClient hands back for one request.
type Response struct {
	Status     string // e.g. "200 OK"
	StatusCode int
	Header     http.Header
	Data       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Data) }

// JSON decodes the body into v.
func (r *Response) JSON(v any) error { return json.Unmarshal(r.Data, v) }

// TestClient drives the App in process. Cookies set by responses are sent
// back on later requests, so a token fetched with Get is accepted by a
// following Post.
type TestClient struct {
	handler http.Handler
	jar     *cookiejar.Jar
}

// TestClient returns a client bound to the App's current handler chain.
func (a *App) TestClient() *TestClient {
	jar, _ := cookiejar.New(nil)
	return &TestClient{handler: a.Handler(), jar: jar}
}

// Get issues a GET for path.
func (c *TestClient) Get(path string) *Response {
	return c.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// Post issues a form-encoded POST for path. A nil form sends no body.
func (c *TestClient) Post(path string, form url.Values) *Response {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(http.MethodPost, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return c.Do(req)
}

// Do serves req and records the response. Jar cookies are attached first.
func (c *TestClient) Do(req *http.Request) *Response {
	target := testBase.ResolveReference(req.URL)
	for _, ck := range c.jar.Cookies(target) {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	data, _ := io.ReadAll(res.Body)
	c.jar.SetCookies(target, res.Cookies())

	return &Response{
		Status:     res.Status,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Data:       data,
	}
}
