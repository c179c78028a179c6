package acceptance

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing/fstest"

	"github.com/cucumber/godog"

	"github.com/okian/csvpage/internal/app"
	"github.com/okian/csvpage/internal/config"
)

const dataFile = "data.csv"

// world is the per-scenario state.
type world struct {
	testing bool
	data    fstest.MapFS

	app    *app.App
	client *app.TestClient
	last   *app.Response
}

func newWorld() *world {
	return &world{
		data: fstest.MapFS{dataFile: {Data: []byte("name,value\nalpha,1\n")}},
	}
}

// ensure builds the application on first use so Given steps can shape it.
func (w *world) ensure() error {
	if w.client != nil {
		return nil
	}
	cfg := config.New()
	cfg.Testing = w.testing
	a, err := app.New(cfg, app.WithDataFS(w.data, dataFile))
	if err != nil {
		return err
	}
	w.app = a
	w.client = a.TestClient()
	return nil
}

func (w *world) testingMode() error {
	w.testing = true
	if w.app != nil {
		w.app.SetTesting(true)
	}
	return nil
}

func (w *world) enforcingMode() error {
	w.testing = false
	if w.app != nil {
		w.app.SetTesting(false)
	}
	return nil
}

func (w *world) dataFileContains(doc *godog.DocString) error {
	w.data[dataFile] = &fstest.MapFile{Data: []byte(doc.Content + "\n")}
	return nil
}

func (w *world) dataFileMissing() error {
	delete(w.data, dataFile)
	return nil
}

func (w *world) sendRequest(method, path string) error {
	if err := w.ensure(); err != nil {
		return err
	}
	switch method {
	case http.MethodGet:
		w.last = w.client.Get(path)
	case http.MethodPost:
		w.last = w.client.Post(path, nil)
	default:
		req, err := http.NewRequest(method, path, nil)
		if err != nil {
			return err
		}
		w.last = w.client.Do(req)
	}
	return nil
}

func (w *world) sendWithToken(method, path string) error {
	if err := w.ensure(); err != nil {
		return err
	}
	var body struct {
		Token string `json:"csrf_token"`
	}
	if err := w.client.Get("/csrf-token").JSON(&body); err != nil {
		return fmt.Errorf("decode token: %w", err)
	}
	if body.Token == "" {
		return fmt.Errorf("no token issued")
	}
	if method != http.MethodPost {
		return fmt.Errorf("unsupported method %s", method)
	}
	w.last = w.client.Post(path, url.Values{"csrf_token": {body.Token}})
	return nil
}

func (w *world) statusLine(want string) error {
	if w.last == nil {
		return fmt.Errorf("no request sent")
	}
	if w.last.Status != want {
		return fmt.Errorf("expected status %q, got %q", want, w.last.Status)
	}
	return nil
}

func (w *world) statusCode(want int) error {
	if w.last == nil {
		return fmt.Errorf("no request sent")
	}
	if w.last.StatusCode != want {
		return fmt.Errorf("expected status code %d, got %d: %s", want, w.last.StatusCode, w.last.Text())
	}
	return nil
}

func (w *world) bodyExactly(want string) error {
	if got := w.last.Text(); got != want {
		return fmt.Errorf("expected body %q, got %q", want, got)
	}
	return nil
}

func (w *world) bodyContains(want string) error {
	if !strings.Contains(w.last.Text(), want) {
		return fmt.Errorf("expected body to contain %q, got %q", want, w.last.Text())
	}
	return nil
}

func (w *world) bodyLacks(unwanted string) error {
	if strings.Contains(w.last.Text(), unwanted) {
		return fmt.Errorf("expected body not to contain %q", unwanted)
	}
	return nil
}

// InitializeScenario registers the step definitions with fresh state.
func InitializeScenario(sc *godog.ScenarioContext) {
	w := newWorld()

	sc.Step(`^the application is in testing mode$`, w.testingMode)
	sc.Step(`^the application is not in testing mode$`, w.enforcingMode)
	sc.Step(`^the data file contains:$`, w.dataFileContains)
	sc.Step(`^the data file is missing$`, w.dataFileMissing)

	sc.Step(`^I send a (GET|POST|PUT|PATCH|DELETE) request to "([^"]*)"$`, w.sendRequest)
	sc.Step(`^I send a (POST) request to "([^"]*)" with a valid CSRF token$`, w.sendWithToken)

	sc.Step(`^the status should be "([^"]*)"$`, w.statusLine)
	sc.Step(`^the status code should be (\d+)$`, w.statusCode)
	sc.Step(`^the body should be exactly "([^"]*)"$`, w.bodyExactly)
	sc.Step(`^the body should contain "([^"]*)"$`, w.bodyContains)
	sc.Step(`^the body should not contain "([^"]*)"$`, w.bodyLacks)
}
