package checks

import (
	"github.com/balticscan/domain-analyzer/internal/model"
)

// securityHeaderNames are the response headers the headers check
// scores, in report order.
var securityHeaderNames = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Frame-Options",
	"X-Content-Type-Options",
	"Referrer-Policy",
	"Permissions-Policy",
}

// AnalyzeHeaders splits the captured response headers into present
// security headers and missing ones.
func AnalyzeHeaders(content *model.ContentData) *model.HeadersData {
	data := &model.HeadersData{
		Present: make(map[string]string),
	}
	for _, name := range securityHeaderNames {
		if v, ok := content.Headers[name]; ok {
			data.Present[name] = v
		} else {
			data.Missing = append(data.Missing, name)
		}
	}
	data.Server = content.Headers["Server"]
	data.Powered = content.Headers["X-Powered-By"]
	return data
}
