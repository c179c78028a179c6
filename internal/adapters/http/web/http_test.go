package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/csvpage/internal/adapters/http/web"
	"github.com/okian/csvpage/internal/domain/sheet"
	"github.com/okian/csvpage/pkg/logger"
)

// countingSource wraps a sheet.File and counts Scan entries and exits.
type countingSource struct {
	file    sheet.File
	entered int
	exited  int
}

func (c *countingSource) Scan(ctx context.Context, fn func(*sheet.Rows) error) error {
	c.entered++
	defer func() { c.exited++ }()
	return c.file.Scan(ctx, fn)
}

func newMux(t *testing.T, source web.DataSource, templates fs.FS) *http.ServeMux {
	t.Helper()
	renderer, err := web.NewRenderer(templates)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	mux := http.NewServeMux()
	web.NewServer(source, renderer, prometheus.NewRegistry(), logger.Nop()).Register(context.Background(), mux)
	return mux
}

func do(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func csvFS(content string) sheet.File {
	return sheet.File{FS: fstest.MapFS{"data.csv": {Data: []byte(content)}}, Name: "data.csv"}
}

func TestHelloRoute(t *testing.T) {
	Convey("Given the web routes", t, func() {
		mux := newMux(t, csvFS(""), nil)

		Convey("POST / returns the greeting byte for byte", func() {
			rec := do(mux, http.MethodPost, "/")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, "<h1>Hello, World!</h1>")
			So(rec.Header().Get("Content-Type"), ShouldEqual, "text/html; charset=utf-8")
		})

		Convey("GET / returns the same greeting", func() {
			rec := do(mux, http.MethodGet, "/")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldEqual, web.HelloBody)
		})

		Convey("Repeated requests return identical bodies", func() {
			first := do(mux, http.MethodPost, "/").Body.String()
			second := do(mux, http.MethodPost, "/").Body.String()
			So(second, ShouldEqual, first)
		})

		Convey("Unbound methods get 405", func() {
			So(do(mux, http.MethodPut, "/").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(do(mux, http.MethodDelete, "/").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Unknown paths get 404", func() {
			So(do(mux, http.MethodGet, "/nope").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestDataRoute(t *testing.T) {
	Convey("Given a data file with two rows", t, func() {
		source := &countingSource{file: csvFS("name,qty\nwidget,3\n")}
		mux := newMux(t, source, nil)

		Convey("POST /data renders every value", func() {
			rec := do(mux, http.MethodPost, "/data")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldEqual, "text/html; charset=utf-8")
			body := rec.Body.String()
			for _, v := range []string{"name", "qty", "widget", "3"} {
				So(body, ShouldContainSubstring, "<td>"+v+"</td>")
			}
			So(source.entered, ShouldEqual, 1)
			So(source.exited, ShouldEqual, 1)
		})

		Convey("GET /data gets 405", func() {
			So(do(mux, http.MethodGet, "/data").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(source.entered, ShouldEqual, 0)
		})
	})

	Convey("Given cell values with markup", t, func() {
		mux := newMux(t, csvFS("<b>bold</b>,\"a,b\"\n"), nil)

		Convey("The values are escaped and quoted commas stay in one cell", func() {
			rec := do(mux, http.MethodPost, "/data")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "&lt;b&gt;bold&lt;/b&gt;")
			So(rec.Body.String(), ShouldContainSubstring, "<td>a,b</td>")
		})
	})

	Convey("Given rows of different lengths", t, func() {
		mux := newMux(t, csvFS("a\nb,c,d\n"), nil)

		Convey("Every row is rendered", func() {
			rec := do(mux, http.MethodPost, "/data")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.Count(rec.Body.String(), "<tr>"), ShouldEqual, 2)
		})
	})

	Convey("Given an empty data file", t, func() {
		mux := newMux(t, csvFS(""), nil)

		Convey("The page renders with no rows", func() {
			rec := do(mux, http.MethodPost, "/data")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldNotContainSubstring, "<tr>")
		})
	})

	Convey("Given a missing data file", t, func() {
		source := &countingSource{file: sheet.File{FS: fstest.MapFS{}, Name: "data.csv"}}
		mux := newMux(t, source, nil)

		Convey("POST /data fails with 500 and a JSON error", func() {
			rec := do(mux, http.MethodPost, "/data")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			var body map[string]string
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body["code"], ShouldEqual, "internal_error")
			So(body["message"], ShouldNotContainSubstring, "data.csv")
		})
	})

	Convey("Given a malformed row after a valid one", t, func() {
		mux := newMux(t, csvFS("ok,row\nbad,ro\"w\n"), nil)

		Convey("The partial render is discarded and 500 is returned", func() {
			rec := do(mux, http.MethodPost, "/data")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(rec.Body.String(), ShouldNotContainSubstring, "<td>ok</td>")
		})
	})

	Convey("Given a template that fails while rendering", t, func() {
		source := &countingSource{file: csvFS("a,b\n")}
		templates := fstest.MapFS{"data.html": {Data: []byte(`{{range .csv}}{{index . 9}}{{end}}`)}}
		mux := newMux(t, source, templates)

		Convey("The response is 500 and the file is still released", func() {
			rec := do(mux, http.MethodPost, "/data")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(source.exited, ShouldEqual, source.entered)
		})
	})
}

func TestTokenRoute(t *testing.T) {
	Convey("Given the web routes without a guard", t, func() {
		mux := newMux(t, csvFS(""), nil)

		Convey("GET /csrf-token describes where the token goes", func() {
			rec := do(mux, http.MethodGet, "/csrf-token")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Cache-Control"), ShouldEqual, "no-store")
			var body map[string]string
			So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
			So(body["csrf_token"], ShouldBeEmpty)
			So(body["header_name"], ShouldEqual, "X-CSRF-Token")
			So(body["form_field"], ShouldEqual, "csrf_token")
		})
	})
}

func TestHealthRoute(t *testing.T) {
	Convey("Given a registry with one counter", t, func() {
		reg := prometheus.NewRegistry()
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: "probe_total", Help: "probe"})
		reg.MustRegister(c)
		c.Inc()

		renderer, err := web.NewRenderer(nil)
		So(err, ShouldBeNil)
		mux := http.NewServeMux()
		web.NewServer(csvFS(""), renderer, reg, nil).Register(context.Background(), mux)

		Convey("GET /healthz exposes it", func() {
			rec := do(mux, http.MethodGet, "/healthz")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "probe_total 1")
		})
	})
}

func TestRenderer(t *testing.T) {
	Convey("Given a template set that does not parse", t, func() {
		_, err := web.NewRenderer(fstest.MapFS{"data.html": {Data: []byte(`{{range}}`)}})

		Convey("NewRenderer reports ErrTemplates", func() {
			So(errors.Is(err, web.ErrTemplates), ShouldBeTrue)
		})
	})

	Convey("Given the embedded templates", t, func() {
		r, err := web.NewRenderer(web.Templates())
		So(err, ShouldBeNil)

		Convey("An unknown template reports ErrRender", func() {
			err := r.Execute(&bytes.Buffer{}, "missing.html", nil)
			So(errors.Is(err, web.ErrRender), ShouldBeTrue)
		})

		Convey("The token lands in the reload form", func() {
			var buf bytes.Buffer
			So(r.Execute(&buf, web.DataTemplate, map[string]any{web.TokenVar: "tok123"}), ShouldBeNil)
			So(buf.String(), ShouldContainSubstring, `value="tok123"`)
		})
	})
}

func TestKindErrors(t *testing.T) {
	Convey("Given a wrapped cause", t, func() {
		cause := errors.New("disk gone")
		err := web.WrapKind("web.data", web.ErrDataUnavailable, cause)

		Convey("errors.Is matches the kind and the cause", func() {
			So(errors.Is(err, web.ErrDataUnavailable), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "web.data: data unavailable: disk gone")
		})

		Convey("A nil cause wraps to nil", func() {
			So(web.WrapKind("op", web.ErrRender, nil), ShouldBeNil)
		})

		Convey("NewKind carries only the kind", func() {
			err := web.NewKind("op", web.ErrRender)
			So(errors.Is(err, web.ErrRender), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "op: render template")
		})
	})
}
