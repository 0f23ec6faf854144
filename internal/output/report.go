// Package output handles scan report serialization and progress
// reporting.
package output

import (
	"time"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// Report is the batch-level output: every per-domain result plus
// aggregate counts.
type Report struct {
	GeneratedAt   string          `json:"generated_at"`
	SchemaVersion string          `json:"schema_version"`
	Totals        Totals          `json:"totals"`
	Results       []*model.Result `json:"results"`
}

// Totals aggregates outcome counts across the batch.
type Totals struct {
	Domains    int `json:"domains"`
	Success    int `json:"success"`
	Partial    int `json:"partial"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
	Reachable  int `json:"reachable"`
	Discovered int `json:"discovered_domains"`
}

// BuildReport assembles the batch report from per-domain results.
func BuildReport(results []*model.Result) *Report {
	report := &Report{
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		SchemaVersion: model.SchemaVersion,
		Results:       results,
	}
	report.Totals.Domains = len(results)

	for _, r := range results {
		switch r.Status {
		case model.StatusSuccess:
			report.Totals.Success++
		case model.StatusPartial:
			report.Totals.Partial++
		case model.StatusSkipped:
			report.Totals.Skipped++
		case model.StatusError:
			report.Totals.Errors++
		}
		if r.Summary.Reachable {
			report.Totals.Reachable++
		}
		if active := activeData(r); active != nil {
			report.Totals.Discovered += len(active.CapturedDomains)
		}
	}
	return report
}

// activeData pulls the activity payload out of a result, nil when the
// check did not run.
func activeData(r *model.Result) *model.ActiveData {
	check, ok := r.Checks["active"]
	if !ok || check.Data == nil {
		return nil
	}
	data, _ := check.Data.(*model.ActiveData)
	return data
}

// registrationData pulls the whois-gate payload out of a result.
func registrationData(r *model.Result) *model.RegistrationData {
	check, ok := r.Checks["whois"]
	if !ok || check.Data == nil {
		return nil
	}
	data, _ := check.Data.(*model.RegistrationData)
	return data
}

// httpData pulls the http probe payload out of a result.
func httpData(r *model.Result) *model.HTTPData {
	check, ok := r.Checks["http"]
	if !ok || check.Data == nil {
		return nil
	}
	data, _ := check.Data.(*model.HTTPData)
	return data
}
