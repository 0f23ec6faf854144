package checks

import (
	"fmt"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// headerPenalty is the score deduction per missing security header.
var headerPenalty = map[string]int{
	"Strict-Transport-Security": 10,
	"Content-Security-Policy":   10,
	"X-Frame-Options":           5,
	"X-Content-Type-Options":    5,
	"Referrer-Policy":           5,
	"Permissions-Policy":        5,
}

// Grade scores the domain's transport and header hygiene on a 0-100
// scale and maps it to a letter grade. tls and http may be nil when
// those probes did not run.
func Grade(headers *model.HeadersData, tls *model.TLSData, http *model.HTTPData) *model.SecurityData {
	score := 100
	var findings []string

	https := http != nil && http.HTTPS
	if !https {
		score -= 30
		findings = append(findings, "site is not served over https")
	}

	for _, name := range headers.Missing {
		// HSTS is meaningless without https; don't double-penalize.
		if name == "Strict-Transport-Security" && !https {
			continue
		}
		score -= headerPenalty[name]
		findings = append(findings, "missing "+name)
	}

	if headers.Powered != "" {
		score -= 5
		findings = append(findings, "X-Powered-By discloses "+headers.Powered)
	}

	if tls != nil {
		switch {
		case tls.DaysUntilExpiry < 0:
			score -= 30
			findings = append(findings, "certificate has expired")
		case tls.DaysUntilExpiry <= 14:
			score -= 10
			findings = append(findings, fmt.Sprintf("certificate expires in %d days", tls.DaysUntilExpiry))
		}
		if tls.SelfSigned {
			score -= 20
			findings = append(findings, "certificate is self-signed")
		}
		if tls.Version == "TLS 1.0" || tls.Version == "TLS 1.1" {
			score -= 15
			findings = append(findings, "negotiated legacy protocol "+tls.Version)
		}
	}

	if score < 0 {
		score = 0
	}
	return &model.SecurityData{
		Grade:    letterGrade(score),
		Score:    score,
		Findings: findings,
	}
}

func letterGrade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
