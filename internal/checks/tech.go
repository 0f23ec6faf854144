package checks

import (
	"strings"

	"github.com/balticscan/domain-analyzer/internal/model"
)

// techSignatures maps a lowercase substring of the generator, server,
// or powered-by values to the technology it identifies.
var techSignatures = []struct {
	token string
	tech  string
}{
	{"wordpress", "WordPress"},
	{"joomla", "Joomla"},
	{"drupal", "Drupal"},
	{"prestashop", "PrestaShop"},
	{"shopify", "Shopify"},
	{"wix", "Wix"},
	{"typo3", "TYPO3"},
	{"nginx", "nginx"},
	{"apache", "Apache"},
	{"litespeed", "LiteSpeed"},
	{"iis", "IIS"},
	{"cloudflare", "Cloudflare"},
	{"php", "PHP"},
	{"asp.net", "ASP.NET"},
	{"express", "Express"},
	{"next.js", "Next.js"},
}

// Fingerprint identifies the serving stack from the generator meta tag
// and response headers. headers may be nil when the headers check did
// not run; the content check's captured headers still apply.
func Fingerprint(content *model.ContentData, headers *model.HeadersData) *model.TechData {
	data := &model.TechData{
		Generator: content.Generator,
		Server:    content.Headers["Server"],
		Powered:   content.Headers["X-Powered-By"],
	}
	if headers != nil {
		if data.Server == "" {
			data.Server = headers.Server
		}
		if data.Powered == "" {
			data.Powered = headers.Powered
		}
	}

	haystack := strings.ToLower(data.Generator + " " + data.Server + " " + data.Powered)
	seen := make(map[string]bool)
	for _, sig := range techSignatures {
		if strings.Contains(haystack, sig.token) && !seen[sig.tech] {
			seen[sig.tech] = true
			data.Detected = append(data.Detected, sig.tech)
		}
	}
	return data
}
