package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Policy describes the headers attached to every response. The page is
// plain HTML forms plus one stylesheet, so the default CSP allows no
// scripts at all.
type Policy struct {
	// CSP directives, joined with "; " in the order given
	ContentSecurity []string

	// HSTS is only sent on TLS or behind a proxy that reports https
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool

	FrameOptions        string
	ReferrerPolicy      string
	PermissionsPolicy   string
	CrossOriginOpener   string
	CrossOriginResource string
}

// DefaultPolicy returns the policy used by the server.
func DefaultPolicy() Policy {
	return Policy{
		ContentSecurity: []string{
			"default-src 'self'",
			"script-src 'none'",
			"style-src 'self'",
			"img-src 'self' data:",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		},
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "same-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=(), payment=()",
		CrossOriginOpener:     "same-origin",
		CrossOriginResource:   "same-origin",
	}
}

// Headers applies a Policy. The header set is computed once.
type Headers struct {
	fixed http.Header
	hsts  string
}

func NewHeaders(p Policy) *Headers {
	fixed := http.Header{}
	fixed.Set("X-Content-Type-Options", "nosniff")
	setIf(fixed, "Content-Security-Policy", strings.Join(p.ContentSecurity, "; "))
	setIf(fixed, "X-Frame-Options", p.FrameOptions)
	setIf(fixed, "Referrer-Policy", p.ReferrerPolicy)
	setIf(fixed, "Permissions-Policy", p.PermissionsPolicy)
	setIf(fixed, "Cross-Origin-Opener-Policy", p.CrossOriginOpener)
	setIf(fixed, "Cross-Origin-Resource-Policy", p.CrossOriginResource)

	h := &Headers{fixed: fixed}
	if p.HSTSMaxAge > 0 {
		h.hsts = fmt.Sprintf("max-age=%d", int64(p.HSTSMaxAge.Seconds()))
		if p.HSTSIncludeSubdomains {
			h.hsts += "; includeSubDomains"
		}
	}
	return h
}

// Middleware sets the policy headers before calling next.
func (h *Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range h.fixed {
			dst[k] = v
		}
		if h.hsts != "" && isHTTPS(r) {
			dst.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// NoStore keeps ledger pages and downloads out of shared and browser
// caches. Handlers that serve cacheable content may override it.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Cacheable marks embedded assets as publicly cacheable for maxAge.
func Cacheable(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", int64(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func setIf(h http.Header, key, value string) {
	if value != "" {
		h.Set(key, value)
	}
}
