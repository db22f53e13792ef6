package metadata //nolint:testpackage // exercises unexported URL checks

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraerrors "github.com/huzhengnan/website-monitor-sub000/infrastructure/errors"
	infralogger "github.com/huzhengnan/website-monitor-sub000/infrastructure/logger"
)

const samplePage = `<!doctype html>
<html lang="en">
<head>
  <title>  Example Directory  </title>
  <meta name="description" content="A curated list of indie tools.">
  <meta property="og:site_name" content="ExampleDir">
  <link rel="canonical" href="https://example.com/">
</head>
<body><h1>Hello</h1></body>
</html>`

func newTestExtractor() *Extractor {
	return NewExtractor(Config{AllowPrivateHosts: true}, infralogger.NewNop())
}

func TestExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	meta, err := newTestExtractor().Extract(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Example Directory", meta.Title)
	assert.Equal(t, "A curated list of indie tools.", meta.Description)
	assert.Equal(t, "ExampleDir", meta.SiteName)
	assert.Equal(t, "https://example.com/", meta.Canonical)
	assert.Equal(t, "en", meta.Language)
	assert.Equal(t, "Example Directory - A curated list of indie tools.", meta.Note())
}

func TestExtractor_Extract_PrefersOGTitle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Plain</title><meta property="og:title" content="Rich"></head></html>`))
	}))
	defer srv.Close()

	meta, err := newTestExtractor().Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Rich", meta.Title)
	assert.Equal(t, "Rich", meta.Note())
}

func TestExtractor_Extract_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestExtractor().Extract(context.Background(), srv.URL)
	status, ok := infraerrors.StatusCode(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestExtractor_Extract_BlocksPrivateHosts(t *testing.T) {
	e := NewExtractor(Config{}, infralogger.NewNop())

	_, err := e.Extract(context.Background(), "http://127.0.0.1:8080/")
	assert.ErrorIs(t, err, ErrBlockedURL)

	_, err = e.Extract(context.Background(), "http://localhost/admin")
	assert.ErrorIs(t, err, ErrBlockedURL)
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		{"127.0.0.1", true},
		{"::1", true},
		{"10.0.0.1", true},
		{"192.168.1.1", true},
		{"169.254.1.1", true},
		{"0.0.0.0", true},
		{"8.8.8.8", false},
		{"2607:f8b0:4004:800::200e", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			assert.Equal(t, tt.expected, isPrivateIP(net.ParseIP(tt.ip)))
		})
	}
	assert.False(t, isPrivateIP(nil))
}

func TestValidateURLScheme(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://example.com", false},
		{"http://example.com", false},
		{"ftp://example.com", true},
		{"javascript:alert(1)", true},
		{"file:///etc/passwd", true},
		{"http://metadata.google.internal/", true},
		{"http://LOCALHOST/admin", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateURLScheme(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
