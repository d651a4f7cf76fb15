package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func lastLine(t *testing.T, buf *bytes.Buffer, msg string) map[string]any {
	t.Helper()
	var found map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	for sc.Scan() {
		var m map[string]any
		if json.Unmarshal(sc.Bytes(), &m) == nil && m["message"] == msg {
			found = m
		}
	}
	if found == nil {
		t.Fatalf("no %q log line in:\n%s", msg, buf.String())
	}
	return found
}

func TestRedactingLogger_ScrubsAndUsesRouteTemplate(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	r := newEngine()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{"X-API-Key"}, Logger: &base}))
	r.GET("/conversations/:userId/:sessionId", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet,
		"/conversations/alice/s-1?email=a.b@example.com&phone=212-555-1212&id=123e4567-e89b-12d3-a456-426614174000", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-API-Key", "k")
	req.Header.Set("X-Note", "reach me at bob@example.org")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := lastLine(t, &buf, "http_request")
	if line["level"] != "info" {
		t.Fatalf("level = %v", line["level"])
	}
	if line["route"] != "/conversations/:userId/:sessionId" {
		t.Fatalf("route = %v", line["route"])
	}
	raw := buf.String()
	for _, leak := range []string{"alice", "a.b@example.com", "212-555-1212", "123e4567", "Bearer secret", "bob@example.org"} {
		if strings.Contains(raw, leak) {
			t.Fatalf("log leaked %q:\n%s", leak, raw)
		}
	}
	headers, _ := line["headers"].(map[string]any)
	if headers["Authorization"] != "[REDACTED]" || headers["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", headers)
	}
}

func TestRedactingLogger_LevelsByStatus(t *testing.T) {
	buf := captureLogger(t)
	r := newEngine()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))
	if lastLine(t, buf, "http_request")["level"] != "warn" {
		t.Fatalf("4xx should log at warn")
	}
	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))
	if lastLine(t, buf, "http_request")["level"] != "error" {
		t.Fatalf("5xx should log at error")
	}
	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if lastLine(t, buf, "http_request")["route"] != "unmatched" {
		t.Fatalf("unmatched routes must not log the raw path")
	}
}

func TestRedactingLogger_AttachesScopedLogger(t *testing.T) {
	buf := captureLogger(t)
	r := newEngine()
	r.Use(RequestID(), RedactingLogger(RedactOptions{}))
	r.GET("/scoped", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("from-ctx")
		LoggerFrom(c).Info().Msg("from-gin")
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/scoped", nil)
	req.Header.Set(requestIDHeader, "rid-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	for _, msg := range []string{"from-ctx", "from-gin"} {
		if got := lastLine(t, buf, msg)["request_id"]; got != "rid-42" {
			t.Fatalf("%s: request_id = %v", msg, got)
		}
	}
}
