package output

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/balticscan/domain-analyzer/internal/model"
)

func boolPtr(b bool) *bool { return &b }

func sampleResults() []*model.Result {
	return []*model.Result{
		{
			Domain: "veikia.lt",
			Status: model.StatusSuccess,
			Checks: map[string]*model.CheckResult{
				"whois": {
					Status: model.CheckSuccess,
					Data:   &model.RegistrationData{Domain: "veikia.lt", Registered: boolPtr(true)},
				},
				"http": {
					Status: model.CheckSuccess,
					Data:   &model.HTTPData{StatusCode: 200, FinalURL: "https://veikia.lt/", HTTPS: true, Reachable: true},
				},
				"active": {
					Status: model.CheckSuccess,
					Data: &model.ActiveData{
						Active:          true,
						StatusCode:      200,
						FinalURL:        "https://veikia.lt/",
						CapturedDomains: []string{"kitas.lt"},
					},
				},
			},
			Summary: model.Summary{Reachable: true, HTTPS: true, Grade: "A"},
			Meta:    model.Meta{SchemaVersion: model.SchemaVersion},
		},
		{
			Domain:     "laisvas.lt",
			Status:     model.StatusSkipped,
			SkipReason: model.SkipUnregistered,
			Checks: map[string]*model.CheckResult{
				"whois": {
					Status: model.CheckSuccess,
					Data:   &model.RegistrationData{Domain: "laisvas.lt", Registered: boolPtr(false)},
				},
			},
			Meta: model.Meta{SchemaVersion: model.SchemaVersion},
		},
		{
			Domain: "lūžo.lt",
			Status: model.StatusError,
			Error:  "all checks failed",
			Checks: map[string]*model.CheckResult{},
			Meta:   model.Meta{SchemaVersion: model.SchemaVersion},
		},
	}
}

func TestBuildReportTotals(t *testing.T) {
	report := BuildReport(sampleResults())

	if report.Totals.Domains != 3 {
		t.Errorf("domains = %d", report.Totals.Domains)
	}
	if report.Totals.Success != 1 || report.Totals.Skipped != 1 || report.Totals.Errors != 1 {
		t.Errorf("totals = %+v", report.Totals)
	}
	if report.Totals.Reachable != 1 {
		t.Errorf("reachable = %d", report.Totals.Reachable)
	}
	if report.Totals.Discovered != 1 {
		t.Errorf("discovered = %d", report.Totals.Discovered)
	}
	if report.SchemaVersion != model.SchemaVersion {
		t.Errorf("schema version = %q", report.SchemaVersion)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	report := BuildReport(sampleResults())
	path := filepath.Join(t.TempDir(), "report.json")

	if err := WriteJSON(report, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Report
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if len(decoded.Results) != 3 {
		t.Errorf("results = %d", len(decoded.Results))
	}
	if decoded.Results[0].Domain != "veikia.lt" {
		t.Errorf("first domain = %q", decoded.Results[0].Domain)
	}
}

func TestWriteDomainJSON(t *testing.T) {
	dir := t.TempDir()
	result := sampleResults()[0]

	if err := WriteDomainJSON(result, filepath.Join(dir, "out")); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "out", "veikia.lt.json"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded model.Result
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Status != model.StatusSuccess {
		t.Errorf("status = %s", decoded.Status)
	}
}

func TestWriteCSV(t *testing.T) {
	report := BuildReport(sampleResults())
	path := filepath.Join(t.TempDir(), "summary.csv")

	if err := WriteCSV(report, path); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}

	// Success row carries the probe details.
	if rows[1][0] != "veikia.lt" || rows[1][3] != "true" || rows[1][7] != "200" {
		t.Errorf("success row = %v", rows[1])
	}
	// Skipped row keeps its reason and leaves probe columns blank.
	if rows[2][2] != model.SkipUnregistered || rows[2][7] != "" {
		t.Errorf("skipped row = %v", rows[2])
	}
}
