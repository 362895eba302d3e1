package routes

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/openstar/openstar/cluster"
	"github.com/openstar/openstar/cluster/clustertest"
)

type fakeContext struct{ name, dir string }

func (f fakeContext) Name() string { return f.name }
func (f fakeContext) Dir() string  { return f.dir }

type fakeInventory struct{ records []cluster.Record }

func (f fakeInventory) Name() string              { return "OpenStar" }
func (f fakeInventory) Version() string           { return "9.9.9" }
func (f fakeInventory) Environment() string       { return "production" }
func (f fakeInventory) Records() []cluster.Record { return f.records }

type greeterConfig struct {
	Greeting string `json:"greeting"`
}

type configured struct {
	*clustertest.Stub
	cfg *greeterConfig
}

func (c *configured) Config() any { return c.cfg }

func newInventory(t *testing.T) fakeInventory {
	t.Helper()
	host := clustertest.NewHost(t.TempDir())
	hello, err := clustertest.NewStub(host, "Hello", "1.0.0", nil)
	if err != nil {
		t.Fatalf("NewStub failed: %v", err)
	}
	plain, err := clustertest.NewStub(host, "Plain", "0.2.0", nil)
	if err != nil {
		t.Fatalf("NewStub failed: %v", err)
	}
	greeter := &configured{Stub: hello, cfg: &greeterConfig{Greeting: "hi"}}
	return fakeInventory{records: []cluster.Record{
		{Identity: cluster.IdentityOf(greeter), StorageDir: greeter.StorageDirectory(), Context: fakeContext{"Hello", "/m/Hello"}, Instance: greeter},
		{Identity: cluster.IdentityOf(plain), StorageDir: plain.StorageDirectory(), Instance: plain},
	}}
}

func get(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, body
}

func TestClusterListKeepsRegistrationOrder(t *testing.T) {
	app := fiber.New()
	RegisterClusterRoutes(app, newInventory(t))

	status, body := get(t, app, "/-/clusters")
	if status != fiber.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	var payload struct {
		Host     hostPayload      `json:"host"`
		Clusters []clusterPayload `json:"clusters"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.Host.Name != "OpenStar" || payload.Host.Version != "9.9.9" {
		t.Fatalf("unexpected host payload %+v", payload.Host)
	}
	if len(payload.Clusters) != 2 || payload.Clusters[0].Name != "Hello" || payload.Clusters[1].Name != "Plain" {
		t.Fatalf("unexpected clusters %+v", payload.Clusters)
	}
	if payload.Clusters[0].Directory != "Hello" || payload.Clusters[0].Source != "/m/Hello" {
		t.Fatalf("expected load context info, got %+v", payload.Clusters[0])
	}
	if payload.Clusters[1].Directory != "" {
		t.Fatalf("records without context must omit directory")
	}
}

func TestClusterDetailIsCaseInsensitiveAndIncludesConfig(t *testing.T) {
	app := fiber.New()
	RegisterClusterRoutes(app, newInventory(t))

	status, body := get(t, app, "/-/clusters/hello")
	if status != fiber.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(string(body), `"greeting":"hi"`) {
		t.Fatalf("detail should include config: %s", body)
	}

	status, body = get(t, app, "/-/clusters/Plain")
	if status != fiber.StatusOK || strings.Contains(string(body), `"config"`) {
		t.Fatalf("cluster without config should omit it: %d %s", status, body)
	}

	status, _ = get(t, app, "/-/clusters/missing")
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestMetricsRouteServesPrometheusText(t *testing.T) {
	app := fiber.New()
	RegisterMetricsRoute(app)

	status, body := get(t, app, "/-/metrics")
	if status != fiber.StatusOK {
		t.Fatalf("unexpected status %d", status)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("expected default collectors in output")
	}
}
