package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var csvHeader = []string{
	"domain", "status", "skip_reason", "registered", "active",
	"reachable", "https", "status_code", "final_url", "grade", "issues",
}

// WriteCSV writes the one-line-per-domain summary table.
// If path is "-" or empty, writes to stdout.
func WriteCSV(report *Report, path string) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create csv file: %w", err)
		}
		defer f.Close()
		w = f
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range report.Results {
		registered := ""
		if reg := registrationData(r); reg != nil && reg.Registered != nil {
			registered = strconv.FormatBool(*reg.Registered)
		}

		active := ""
		statusCode := ""
		finalURL := ""
		if act := activeData(r); act != nil {
			active = strconv.FormatBool(act.Active)
			if act.StatusCode != 0 {
				statusCode = strconv.Itoa(act.StatusCode)
			}
			finalURL = act.FinalURL
		}
		if h := httpData(r); h != nil {
			if statusCode == "" && h.StatusCode != 0 {
				statusCode = strconv.Itoa(h.StatusCode)
			}
			if finalURL == "" {
				finalURL = h.FinalURL
			}
		}

		row := []string{
			r.Domain,
			string(r.Status),
			r.SkipReason,
			registered,
			active,
			strconv.FormatBool(r.Summary.Reachable),
			strconv.FormatBool(r.Summary.HTTPS),
			statusCode,
			finalURL,
			r.Summary.Grade,
			strings.Join(r.Summary.Issues, "; "),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", r.Domain, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
