package urlnorm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huzhengnan/website-monitor-sub000/internal/urlnorm"
)

func TestSelectBetterURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"https wins", "http://example.com", "https://example.com", "https://example.com"},
		{"root wins", "https://example.com/page", "https://example.com", "https://example.com"},
		{"no www wins", "https://www.example.com", "https://example.com", "https://example.com"},
		{"valid wins", "not a url at all", "example.com", "example.com"},
		{"lexicographic tiebreak", "https://b.com", "https://a.com", "https://a.com"},
		{"identical", "https://a.com", "https://a.com", "https://a.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, urlnorm.SelectBetterURL(tt.a, tt.b))
			assert.Equal(t, tt.want, urlnorm.SelectBetterURL(tt.b, tt.a), "order independent")
		})
	}
}

func TestDeduplicateURLs(t *testing.T) {
	t.Parallel()

	result := urlnorm.DeduplicateURLs([]string{
		"https://example.com/a",
		"http://www.example.com",
		"",
		"https://other.org",
		"https://example.com",
		"bad url x",
	})

	assert.Equal(t, []string{"https://example.com", "https://other.org"}, result.Unique)
	assert.Equal(t, 2, result.Removed)
	assert.Equal(t, []string{"bad url x"}, result.Invalid)
}

func TestDeduplicateURLs_Empty(t *testing.T) {
	t.Parallel()

	result := urlnorm.DeduplicateURLs(nil)
	assert.Empty(t, result.Unique)
	assert.Zero(t, result.Removed)
}
