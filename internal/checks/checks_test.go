package checks

import (
	"context"
	"testing"
	"time"

	"github.com/balticscan/domain-analyzer/internal/model"
)

func TestAnalyzeHeaders(t *testing.T) {
	content := &model.ContentData{
		Headers: map[string]string{
			"Strict-Transport-Security": "max-age=31536000",
			"X-Content-Type-Options":    "nosniff",
			"Server":                    "Apache",
			"X-Powered-By":              "PHP/8.2",
		},
	}

	data := AnalyzeHeaders(content)

	if len(data.Present) != 2 {
		t.Errorf("present = %v", data.Present)
	}
	if data.Present["Strict-Transport-Security"] != "max-age=31536000" {
		t.Error("HSTS value lost")
	}
	want := map[string]bool{
		"Content-Security-Policy": true,
		"X-Frame-Options":         true,
		"Referrer-Policy":         true,
		"Permissions-Policy":      true,
	}
	if len(data.Missing) != len(want) {
		t.Fatalf("missing = %v", data.Missing)
	}
	for _, name := range data.Missing {
		if !want[name] {
			t.Errorf("unexpected missing header %q", name)
		}
	}
	if data.Server != "Apache" || data.Powered != "PHP/8.2" {
		t.Errorf("server/powered = %q/%q", data.Server, data.Powered)
	}
}

func TestGrade(t *testing.T) {
	noneMissing := func() *model.HeadersData {
		return &model.HeadersData{Present: map[string]string{}}
	}
	allMissing := func() *model.HeadersData {
		return &model.HeadersData{Missing: append([]string(nil), securityHeaderNames...)}
	}

	https := &model.HTTPData{HTTPS: true, Reachable: true}
	plain := &model.HTTPData{HTTPS: false, Reachable: true}
	goodTLS := &model.TLSData{DaysUntilExpiry: 200, Version: "TLS 1.3"}

	tests := []struct {
		name      string
		headers   *model.HeadersData
		tls       *model.TLSData
		http      *model.HTTPData
		wantGrade string
	}{
		{"clean https", noneMissing(), goodTLS, https, "A"},
		{"http only", noneMissing(), nil, plain, "C"},
		{"all headers missing", allMissing(), goodTLS, https, "D"},
		{"expired cert", noneMissing(), &model.TLSData{DaysUntilExpiry: -3, Version: "TLS 1.2"}, https, "C"},
		{"everything wrong", allMissing(), &model.TLSData{DaysUntilExpiry: -3, SelfSigned: true, Version: "TLS 1.0"}, plain, "F"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(tt.headers, tt.tls, tt.http)
			if got.Grade != tt.wantGrade {
				t.Errorf("grade = %s (score %d, findings %v), want %s",
					got.Grade, got.Score, got.Findings, tt.wantGrade)
			}
		})
	}
}

func TestGradeSkipsHSTSPenaltyWithoutHTTPS(t *testing.T) {
	headers := &model.HeadersData{Missing: []string{"Strict-Transport-Security"}}
	got := Grade(headers, nil, &model.HTTPData{HTTPS: false})

	// Only the https deduction applies; HSTS is not counted twice.
	if got.Score != 70 {
		t.Errorf("score = %d, want 70", got.Score)
	}
	for _, f := range got.Findings {
		if f == "missing Strict-Transport-Security" {
			t.Error("HSTS finding reported on plain-http site")
		}
	}
}

func TestSEOSignals(t *testing.T) {
	tests := []struct {
		name       string
		content    *model.ContentData
		wantIssues int
	}{
		{
			"well formed",
			&model.ContentData{
				Title:           "Baldų gamyba Vilniuje – UAB Pavyzdys",
				MetaDescription: "Gaminame baldus pagal individualius užsakymus Vilniuje ir visoje Lietuvoje.",
				Canonical:       "https://pavyzdys.lt/",
				H1Count:         1,
			},
			0,
		},
		{
			"empty page",
			&model.ContentData{},
			4,
		},
		{
			"short title, multiple h1",
			&model.ContentData{
				Title:           "Labas",
				MetaDescription: "Gaminame baldus pagal individualius užsakymus Vilniuje ir visoje Lietuvoje.",
				Canonical:       "https://pavyzdys.lt/",
				H1Count:         3,
			},
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SEOSignals(tt.content)
			if len(got.Issues) != tt.wantIssues {
				t.Errorf("issues = %v, want %d", got.Issues, tt.wantIssues)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	content := &model.ContentData{
		Generator: "WordPress 6.4",
		Headers: map[string]string{
			"Server":       "nginx/1.24 (Ubuntu)",
			"X-Powered-By": "PHP/8.2.1",
		},
	}

	data := Fingerprint(content, nil)

	wantDetected := map[string]bool{"WordPress": true, "nginx": true, "PHP": true}
	if len(data.Detected) != len(wantDetected) {
		t.Fatalf("detected = %v", data.Detected)
	}
	for _, tech := range data.Detected {
		if !wantDetected[tech] {
			t.Errorf("unexpected detection %q", tech)
		}
	}
}

func TestFingerprintNoSignals(t *testing.T) {
	data := Fingerprint(&model.ContentData{}, nil)
	if len(data.Detected) != 0 {
		t.Errorf("detected = %v, want none", data.Detected)
	}
}

func TestRunnerRegistry(t *testing.T) {
	r := NewRunner(time.Second, 0, nil)

	for _, name := range []string{
		"content_fetch", "security_headers", "security_grade",
		"seo_signals", "tech_fingerprint",
	} {
		if _, ok := r.Lookup(name); !ok {
			t.Errorf("check %q not registered", name)
		}
	}
	if _, ok := r.Lookup("nonexistent"); ok {
		t.Error("unknown check resolved")
	}
}

func TestRunnerPrerequisiteErrors(t *testing.T) {
	r := NewRunner(time.Second, 0, nil)
	in := &Input{Domain: "example.lt"}

	for _, name := range []string{"security_headers", "security_grade", "seo_signals", "tech_fingerprint"} {
		fn, _ := r.Lookup(name)
		if _, err := fn(context.Background(), in); err == nil {
			t.Errorf("%s without prerequisites should error", name)
		}
	}
}

func TestRunnerThreadsDataBetweenChecks(t *testing.T) {
	r := NewRunner(time.Second, 0, nil)
	in := &Input{
		Domain: "example.lt",
		Content: &model.ContentData{
			Headers: map[string]string{"X-Content-Type-Options": "nosniff"},
		},
		HTTP: &model.HTTPData{HTTPS: true},
	}

	fn, _ := r.Lookup("security_headers")
	if _, err := fn(context.Background(), in); err != nil {
		t.Fatalf("security_headers: %v", err)
	}
	if in.Headers == nil {
		t.Fatal("headers result not threaded into input")
	}

	fn, _ = r.Lookup("security_grade")
	payload, err := fn(context.Background(), in)
	if err != nil {
		t.Fatalf("security_grade: %v", err)
	}
	if _, ok := payload.(*model.SecurityData); !ok {
		t.Errorf("payload type %T", payload)
	}
}
