package http

import (
	"net"
	"net/http"
	"strings"
)

// clientIPFunc returns the client address extractor. Proxy headers are
// only honoured when trustProxy is set; otherwise any client could pick
// its own rate limit key. Behind a proxy the rightmost X-Forwarded-For
// entry is the one the proxy appended.
func clientIPFunc(trustProxy bool) func(*http.Request) string {
	if !trustProxy {
		return remoteIP
	}
	return func(r *http.Request) string {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			parts := strings.Split(fwd, ",")
			if last := strings.TrimSpace(parts[len(parts)-1]); last != "" {
				return last
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		return remoteIP(r)
	}
}

func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// sanitizeInput removes control characters except tab, newline and
// carriage return. Whitespace is kept so presence checks see what the
// user typed.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// wantsJSON reports whether the client asked for a JSON response rather
// than a redirect back to the page.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
