// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, a structured HTTP logger that scrubs
// health-related data from request metadata before emitting logs. Medication
// names, dosages, and search terms are personal health information, so the
// logger treats the query string and headers as hostile by default.
//
// Design goals:
//   - Default-safe: never logs request or response bodies
//   - Masks whole query parameters that carry medication text (the search
//     param "q" by default)
//   - Redacts dosage strings ("200mg", "2.5 ml"), common identifiers
//     (UUIDs), emails, and phone numbers wherever they appear
//   - Masks sensitive headers (Authorization, Cookie, Set-Cookie, plus custom)
//   - Attaches the request-scoped logger that LoggerFrom returns
//   - Produces structured JSON logs via zerolog
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders:     []string{"X-Medication-Name"},
//	    MaskQueryParams: []string{"name"},
//	}))
//
// Security note: this middleware reduces but does not eliminate the risk of
// health data leaking to logs. Clients should still avoid transmitting
// medication details in query strings or headers unless strictly necessary.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders specifies extra HTTP header names whose values will be fully
// replaced with "[REDACTED]". Matching is case-insensitive and merged with
// built-in sensitive headers ("Authorization", "Cookie", "Set-Cookie").
//
// MaskQueryParams specifies extra query parameter names whose values will be
// fully replaced with "[REDACTED]". Matching is case-insensitive and merged
// with the built-in masked param "q" (medication search text).
type RedactOptions struct {
	MaskHeaders     []string
	MaskQueryParams []string
}

// RedactingLogger returns a Gin middleware that logs HTTP requests and
// responses with medication data and other sensitive values scrubbed.
//
// Behavior:
//   - Logs method, path, query string, status, response size, latency,
//     and request headers (with scrubbing applied).
//   - Fully masks the values of masked query parameters before any pattern
//     redaction runs, so free-text medication searches never reach the log.
//   - Applies regex-based substitution to redact UUID-like identifiers,
//     dosage strings, email addresses, and phone numbers from the remaining
//     query string and from header values.
//   - Fully masks built-in sensitive headers and any additional headers
//     provided in opts.MaskHeaders.
//   - Logs in structured JSON format at INFO level by default, WARN for 4xx,
//     and ERROR for 5xx responses.
//
// NOTE: redact UUIDs before dosages and phone numbers so the looser numeric
// patterns never match fragments of an already-structured identifier.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	// Compile regex patterns once.
	uuidRE := regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	// Dosage amounts with a unit suffix. Examples matched: "200mg",
	// "2.5 ml", "1000 IU", "50mcg".
	doseRE := regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s?(?:mcg|mg|ml|iu|g)\b`)
	emailRE := regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits-only phone pattern (prevents matching hex characters from UUIDs).
	// Examples matched: "+1 212-555-1212", "212 555 1212", "(212) 555-1212".
	phoneRE := regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)

	redact := func(s string) string {
		if s == "" {
			return s
		}
		out := s
		// Order matters: IDs → dose → email → phone (phone is the loosest).
		out = uuidRE.ReplaceAllString(out, "[REDACTED:id]")
		out = doseRE.ReplaceAllString(out, "[REDACTED:dose]")
		out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
		out = phoneRE.ReplaceAllString(out, "[REDACTED:phone]")
		return out
	}

	// Build header mask set (case-insensitive).
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	// Build query-param mask set. "q" carries medication search text.
	maskParams := map[string]struct{}{
		"q": {},
	}
	for _, p := range opts.MaskQueryParams {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			maskParams[p] = struct{}{}
		}
	}

	// maskQuery blanks the values of masked params without decoding the
	// query, preserving parameter order for log readability.
	maskQuery := func(raw string) string {
		if raw == "" {
			return raw
		}
		parts := strings.Split(raw, "&")
		for i, part := range parts {
			key, _, found := strings.Cut(part, "=")
			if !found {
				continue
			}
			if _, masked := maskParams[strings.ToLower(key)]; masked {
				parts[i] = key + "=[REDACTED]"
			}
		}
		return strings.Join(parts, "&")
	}

	return func(c *gin.Context) {
		start := time.Now()

		// Request path and query.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := truncate(redact(maskQuery(c.Request.URL.RawQuery)), maxQueryLogLength)

		// Attach a request-scoped logger so handlers and services can emit
		// correlated lines via LoggerFrom without re-deriving these fields.
		reqLogger := log.With().
			Str("request_id", c.Writer.Header().Get(requestIDHeader)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &reqLogger)

		// Scrub headers.
		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			keyLower := strings.ToLower(k)
			val := strings.Join(vv, ", ")
			if _, ok := maskHeaders[keyLower]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(val)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		size := c.Writer.Size()

		reqID := c.Writer.Header().Get("X-Request-ID")
		if reqID == "" {
			reqID = c.GetHeader("X-Request-ID")
		}

		// Severity based on status.
		ev := log.Info()
		switch {
		case status >= 500:
			ev = log.Error()
		case status >= 400:
			ev = log.Warn()
		}

		ev.
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", size).
			Dur("latency", latency).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
