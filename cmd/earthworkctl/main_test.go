package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samirrijal/earthwork/internal/core/domain"
)

const site = `[
	{"longitude": -2.9300, "latitude": 43.2600},
	{"longitude": -2.9290, "latitude": 43.2600},
	{"longitude": -2.9290, "latitude": 43.2610},
	{"longitude": -2.9300, "latitude": 43.2610}
]`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	out, err := run(t, site, "validate")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Valid:") || !strings.Contains(out, "true") || !strings.Contains(out, "m²") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestValidate_InvalidExitsNonZero(t *testing.T) {
	_, err := run(t, `[{"longitude":0,"latitude":0},{"longitude":1e-3,"latitude":0}]`, "validate")
	if err == nil || !strings.Contains(err.Error(), "too_few_points") {
		t.Errorf("expected too_few_points error, got %v", err)
	}
}

func TestCalculate_JSONFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "req.json")
	body := `{"polygon_coordinates": ` + site + `, "original_height": 1, "target_height": 0}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "", "calculate", "--file", path, "--output", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var res domain.VolumeResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if res.Method != domain.MethodGridAverage || res.CutVolume <= 0 || res.FillVolume != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestCalculate_SurfaceMethod(t *testing.T) {
	body := `{"polygon_coordinates": ` + site + `, "calculation_method": "tin", "grid_size": 10, "target_height": 2}`
	out, err := run(t, body, "calculate")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "tin") || !strings.Contains(out, "Fill:") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestSample_GridSizeFlag(t *testing.T) {
	body := `{"polygon_coordinates": ` + site + `, "grid_size": 5}`
	out, err := run(t, body, "sample", "--grid-size", "40", "--output", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var points []domain.SamplePoint
	if err := json.Unmarshal([]byte(out), &points); err != nil {
		t.Fatal(err)
	}
	// 81 m x 111 m at 40 m spacing: 3 columns, 3 rows.
	if len(points) != 9 {
		t.Errorf("expected 9 points, got %d", len(points))
	}
}

func TestParseJob(t *testing.T) {
	job, err := parseJob([]byte(`{"calculation_method": "grid"}`))
	if err != nil || job.Surface == nil || job.Uniform != nil || job.ID == "" {
		t.Errorf("expected a surface job, got %+v (%v)", job, err)
	}
	job, err = parseJob([]byte(`{"original_height": 1}`))
	if err != nil || job.Uniform == nil || job.Surface != nil {
		t.Errorf("expected a uniform job, got %+v (%v)", job, err)
	}
}
