package http_test

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/earthwork/internal/adapters/http"
	"github.com/samirrijal/earthwork/internal/core/domain"
	"github.com/samirrijal/earthwork/internal/core/usecases"
	"github.com/samirrijal/earthwork/internal/pkg/config"
)

const site = `[
	{"longitude": -2.9300, "latitude": 43.2600},
	{"longitude": -2.9290, "latitude": 43.2600},
	{"longitude": -2.9290, "latitude": 43.2610},
	{"longitude": -2.9300, "latitude": 43.2610}
]`

const bowtie = `[
	{"longitude": 0, "latitude": 0},
	{"longitude": 0.001, "latitude": 0.001},
	{"longitude": 0.001, "latitude": 0},
	{"longitude": 0, "latitude": 0.001}
]`

func makeDeps(opts ...func(*config.EngineConfig)) *handler.Dependencies {
	cfg := config.EngineConfig{
		MaxSamples:      20000,
		DefaultGridSize: 10,
		MaxRegionSpan:   50000,
		CellDetailLimit: 100,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &handler.Dependencies{Earthwork: usecases.NewEarthworkService(cfg, nil, nil)}
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string) (int, []byte, http.Header) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, resp.Header
}

func decodeError(t *testing.T, data []byte) handler.APIError {
	t.Helper()
	var e handler.APIError
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode error body %q: %v", data, err)
	}
	return e
}

// ---- /calculate ----

func TestCalculate_Success(t *testing.T) {
	app := setupApp(makeDeps())
	body := `{"polygon_coordinates": ` + site + `, "original_height": 10, "target_height": 12}`

	status, data, hdr := post(t, app, "/v1/earthwork/calculate", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var res domain.VolumeResult
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatal(err)
	}
	if res.CutVolume != 0 || math.Abs(res.FillVolume-2*res.Area) > 1e-6*res.FillVolume {
		t.Errorf("unexpected volumes: %+v", res)
	}
	if res.Unit != "m³" || res.Method != domain.MethodGridAverage {
		t.Errorf("unexpected unit/method: %q %q", res.Unit, res.Method)
	}
	if got := hdr.Get("Cache-Control"); got != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", got)
	}
}

func TestCalculate_InvalidPolygon(t *testing.T) {
	app := setupApp(makeDeps())
	body := `{"polygon_coordinates": ` + bowtie + `, "original_height": 0, "target_height": 1}`

	status, data, _ := post(t, app, "/v1/earthwork/calculate", body)
	if status != 422 {
		t.Fatalf("expected 422, got %d: %s", status, data)
	}
	e := decodeError(t, data)
	if e.Code != "invalid_polygon" || e.Reason != "self_intersecting" {
		t.Errorf("unexpected error: %+v", e)
	}
}

func TestCalculate_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"bad json", "{"},
		{"missing target", `{"polygon_coordinates": ` + site + `, "original_height": 1}`},
		{"negative grid", `{"polygon_coordinates": ` + site + `, "original_height": 1, "target_height": 2, "grid_size": -5}`},
		{"empty polygon", `{"polygon_coordinates": [], "original_height": 1, "target_height": 2}`},
	}
	app := setupApp(makeDeps())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data, _ := post(t, app, "/v1/earthwork/calculate", tt.body)
			if status != 400 {
				t.Fatalf("expected 400, got %d: %s", status, data)
			}
			if e := decodeError(t, data); e.Code != "malformed_request" {
				t.Errorf("expected malformed_request, got %q", e.Code)
			}
		})
	}
}

// ---- /calculate-tin ----

func TestCalculateTIN_Methods(t *testing.T) {
	app := setupApp(makeDeps())
	for _, method := range []string{"tin", "grid"} {
		t.Run(method, func(t *testing.T) {
			body := `{"polygon_coordinates": ` + site + `, "calculation_method": "` + method +
				`", "grid_size": 10, "original_height": 5, "target_height": 4}`
			status, data, _ := post(t, app, "/v1/earthwork/calculate-tin", body)
			if status != 200 {
				t.Fatalf("expected 200, got %d: %s", status, data)
			}
			var res domain.VolumeResult
			if err := json.Unmarshal(data, &res); err != nil {
				t.Fatal(err)
			}
			if string(res.Method) != method || res.FillVolume != 0 || res.CutVolume <= 0 {
				t.Errorf("unexpected result: %+v", res)
			}
		})
	}
}

func TestCalculateTIN_MissingMethod(t *testing.T) {
	app := setupApp(makeDeps())
	status, data, _ := post(t, app, "/v1/earthwork/calculate-tin", `{"polygon_coordinates": `+site+`}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d: %s", status, data)
	}
}

func TestCalculateTIN_TooManySamples(t *testing.T) {
	app := setupApp(makeDeps(func(c *config.EngineConfig) { c.MaxSamples = 10 }))
	body := `{"polygon_coordinates": ` + site + `, "calculation_method": "tin", "grid_size": 5}`
	status, data, _ := post(t, app, "/v1/earthwork/calculate-tin", body)
	if status != 413 {
		t.Fatalf("expected 413, got %d: %s", status, data)
	}
	if e := decodeError(t, data); e.Code != "sample_set_too_large" {
		t.Errorf("unexpected code %q", e.Code)
	}
}

func TestCalculateTIN_InsufficientDensity(t *testing.T) {
	app := setupApp(makeDeps())
	body := `{"polygon_coordinates": ` + site + `, "calculation_method": "grid", "grid_size": 500}`
	status, data, _ := post(t, app, "/v1/earthwork/calculate-tin", body)
	if status != 422 {
		t.Fatalf("expected 422, got %d: %s", status, data)
	}
	if e := decodeError(t, data); e.Code != "insufficient_sampling_density" {
		t.Errorf("unexpected code %q", e.Code)
	}
}

// ---- /generate-sample-points ----

func TestGenerateSamplePoints(t *testing.T) {
	app := setupApp(makeDeps())
	body := `{"polygon_coordinates": ` + site + `, "grid_size": 20, "original_height": 1, "target_height": 2}`

	status, data, _ := post(t, app, "/v1/earthwork/generate-sample-points", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var points []domain.SamplePoint
	if err := json.Unmarshal(data, &points); err != nil {
		t.Fatal(err)
	}
	if len(points) < 20 {
		t.Fatalf("expected a lattice, got %d points", len(points))
	}
	for _, p := range points {
		if p.OriginalHeight != 1 || p.TargetHeight != 2 {
			t.Fatalf("defaults not applied: %+v", p)
		}
	}
}

func TestGenerateSamplePoints_Paginated(t *testing.T) {
	app := setupApp(makeDeps())
	body := `{"polygon_coordinates": ` + site + `, "grid_size": 20}`

	status, data, hdr := post(t, app, "/v1/earthwork/generate-sample-points?offset=5&limit=5", body)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var page struct {
		Data       []domain.SamplePoint `json:"data"`
		Pagination handler.Pagination   `json:"pagination"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 5 || page.Pagination.Offset != 5 || page.Pagination.Total < 20 {
		t.Errorf("unexpected page: %d points, %+v", len(page.Data), page.Pagination)
	}
	if link := hdr.Get("Link"); !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected prev and next links, got %q", link)
	}
}

// ---- /validate-polygon ----

func TestValidatePolygon(t *testing.T) {
	app := setupApp(makeDeps())
	tests := []struct {
		name   string
		body   string
		valid  bool
		reason string
	}{
		{"raw list", site, true, ""},
		{"wrapped", `{"polygon_coordinates": ` + site + `}`, true, ""},
		{"bowtie", bowtie, false, "self_intersecting"},
		{"two points", `[{"longitude":0,"latitude":0},{"longitude":0.001,"latitude":0}]`, false, "too_few_points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data, _ := post(t, app, "/v1/earthwork/validate-polygon", tt.body)
			if status != 200 {
				t.Fatalf("expected 200, got %d: %s", status, data)
			}
			var v domain.PolygonValidation
			if err := json.Unmarshal(data, &v); err != nil {
				t.Fatal(err)
			}
			if v.Valid != tt.valid || v.Reason != tt.reason {
				t.Errorf("got valid=%v reason=%q", v.Valid, v.Reason)
			}
			if v.Valid && (v.Area == nil || *v.Area <= 0 || v.Unit != "m²") {
				t.Errorf("expected positive area in m², got %+v", v)
			}
			if !v.Valid && v.Area != nil {
				t.Errorf("invalid polygon must not report an area")
			}
		})
	}
}

// ---- /elevation ----

func TestElevation_OutsideHull(t *testing.T) {
	app := setupApp(makeDeps())
	body := `{"calculation_method": "tin", "sample_points": ` + site + `,
		"points": [{"longitude": -2.9200, "latitude": 43.2605}]}`
	status, data, _ := post(t, app, "/v1/earthwork/elevation", body)
	if status != 422 {
		t.Fatalf("expected 422, got %d: %s", status, data)
	}
	if e := decodeError(t, data); e.Code != "point_outside_hull" {
		t.Errorf("unexpected code %q", e.Code)
	}
}

// ---- legacy prefix, GraphQL, health ----

func TestLegacyPrefixIsDeprecated(t *testing.T) {
	app := setupApp(makeDeps())
	status, data, hdr := post(t, app, "/api/earthwork/validate-polygon", site)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	if hdr.Get("Deprecation") != "true" || hdr.Get("Sunset") == "" {
		t.Errorf("missing deprecation headers: %v", hdr)
	}
	if link := hdr.Get("Link"); !strings.Contains(link, "/v1/earthwork/validate-polygon") {
		t.Errorf("unexpected successor link %q", link)
	}

	_, _, hdr = post(t, app, "/v1/earthwork/validate-polygon", site)
	if hdr.Get("Deprecation") != "" {
		t.Error("v1 route must not be marked deprecated")
	}
}

func TestGraphQL_ValidatePolygon(t *testing.T) {
	app := setupApp(makeDeps())
	query := `{"query": "{ validatePolygon(polygon: [{longitude: 0, latitude: 0}, {longitude: 0.001, latitude: 0}, {longitude: 0, latitude: 0.001}]) { valid area unit } }"}`
	status, data, _ := post(t, app, "/graphql", query)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, data)
	}
	var out struct {
		Data struct {
			ValidatePolygon struct {
				Valid bool    `json:"valid"`
				Area  float64 `json:"area"`
				Unit  string  `json:"unit"`
			} `json:"validatePolygon"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", out.Errors)
	}
	v := out.Data.ValidatePolygon
	// Right triangle with ~111 m legs.
	if !v.Valid || v.Area < 6000 || v.Area > 6400 {
		t.Errorf("unexpected validation: %+v", v)
	}
}

func TestGraphQL_DomainErrorExtensions(t *testing.T) {
	app := setupApp(makeDeps())
	query := `{"query": "{ calculate(polygon: [{longitude: 0, latitude: 0}, {longitude: 0.001, latitude: 0}], originalHeight: 0, targetHeight: 1) { fill_volume } }"}`
	_, data, _ := post(t, app, "/graphql", query)
	if !strings.Contains(string(data), "too_few_points") {
		t.Errorf("expected the reason in the GraphQL error, got %s", data)
	}
}

func TestHealthAndReady(t *testing.T) {
	app := setupApp(makeDeps())
	for _, path := range []string{"/v1/health", "/v1/ready"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 200 {
			t.Errorf("%s: expected 200, got %d", path, resp.StatusCode)
		}
	}
}

func TestDocs_ETag(t *testing.T) {
	app := setupApp(makeDeps())
	resp, _ := app.Test(httptest.NewRequest("GET", "/docs", nil), -1)
	tag := resp.Header.Get("ETag")
	if tag == "" {
		t.Fatal("expected an ETag")
	}
	req := httptest.NewRequest("GET", "/docs", nil)
	req.Header.Set("If-None-Match", tag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}

func TestWebSocketRouteRequiresNATS(t *testing.T) {
	app := setupApp(makeDeps())
	resp, _ := app.Test(httptest.NewRequest("GET", "/ws", nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("expected 404 without NATS, got %d", resp.StatusCode)
	}
}
