// Package domainutil provides pure host-name helpers used across the
// probes, the active analyzer, and redirect-capture: normalization,
// registrable-root extraction with configurable keep-patterns, and
// same-family comparison.
package domainutil

import (
	"net/url"
	"strings"
)

// Normalize strips scheme, path, port, trailing dot/slash and a leading
// "www." from host, and lowercases the result. Accepts either a bare
// host or a full URL.
func Normalize(host string) string {
	h := strings.TrimSpace(strings.ToLower(host))
	if h == "" {
		return ""
	}

	// Full URLs: delegate host extraction to net/url.
	if strings.Contains(h, "://") {
		if u, err := url.Parse(h); err == nil && u.Host != "" {
			h = u.Host
		} else if i := strings.Index(h, "://"); i >= 0 {
			h = h[i+3:]
		}
	}

	// Drop any path or query that survived.
	if i := strings.IndexAny(h, "/?#"); i >= 0 {
		h = h[:i]
	}
	// Drop a port suffix. IPv6 literals keep their brackets intact.
	if !strings.HasPrefix(h, "[") {
		if i := strings.LastIndex(h, ":"); i >= 0 {
			h = h[:i]
		}
	}

	h = strings.TrimSuffix(h, ".")
	h = strings.TrimPrefix(h, "www.")
	return h
}

// ExtractMain reduces host to its registrable root: the rightmost two
// labels joined by a dot. Hosts ending in one of keepPatterns (e.g.
// ".gov.lt") keep their subdomain so that institutional sites like
// stat.gov.lt are not collapsed into gov.lt.
func ExtractMain(host string, keepPatterns []string) string {
	h := Normalize(host)
	if h == "" {
		return ""
	}

	for _, pat := range keepPatterns {
		if pat == "" {
			continue
		}
		p := strings.ToLower(strings.TrimSpace(pat))
		if strings.HasSuffix(h, p) {
			return h
		}
	}

	labels := strings.Split(h, ".")
	if len(labels) <= 2 {
		return h
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// IsLithuanian reports whether host belongs to the .lt TLD.
// "example.lt.com" is not Lithuanian.
func IsLithuanian(host string) bool {
	h := Normalize(host)
	return strings.HasSuffix(h, ".lt")
}

// SameFamily reports whether a and b reduce to the same registrable
// root under the given keep-patterns.
func SameFamily(a, b string, keepPatterns []string) bool {
	ra := ExtractMain(a, keepPatterns)
	rb := ExtractMain(b, keepPatterns)
	return ra != "" && ra == rb
}

// ExtractLTFromChain walks a redirect chain and returns the distinct
// .lt roots that are neither the origin's family nor on the ignore
// list. First-occurrence order is preserved. The ignore list holds
// exact hostnames of common services (URL shorteners, parking pages).
func ExtractLTFromChain(chain []string, origin string, keepPatterns, ignore []string) []string {
	ignored := make(map[string]bool, len(ignore))
	for _, h := range ignore {
		ignored[Normalize(h)] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, raw := range chain {
		host := Normalize(raw)
		if host == "" || ignored[host] {
			continue
		}
		root := ExtractMain(host, keepPatterns)
		if !IsLithuanian(root) {
			continue
		}
		if SameFamily(root, origin, keepPatterns) {
			continue
		}
		if seen[root] {
			continue
		}
		seen[root] = true
		out = append(out, root)
	}
	return out
}
