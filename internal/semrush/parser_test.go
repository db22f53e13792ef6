package semrush_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/semrush"
)

func TestParse_AuthorityBlock(t *testing.T) {
	t.Parallel()

	got := semrush.Parse("Authority Score\n49\nVery good\nOrganic traffic\n256.5K")
	require.Len(t, got, 1)

	d := got[0]
	assert.Empty(t, d.Domain)
	require.NotNil(t, d.AuthorityScore)
	assert.Equal(t, 49, *d.AuthorityScore)
	assert.Equal(t, []string{"Very good"}, d.Tags)
	require.NotNil(t, d.OrganicTraffic)
	assert.Equal(t, int64(256500), *d.OrganicTraffic)
}

func TestParse_MultipleDomains(t *testing.T) {
	t.Parallel()

	text := `example.com
Authority Score
52
Good
Organic traffic
1.2M
+12%
Organic keywords 34.1K -3.5%
Backlinks
2,345
Ref.Domains
980

https://www.other.org/
Authority Score 17
Paid traffic
0
AI Visibility
41.5
AI Mentions
120
`
	got := semrush.Parse(text)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "example.com", first.Domain)
	assert.Equal(t, 52, *first.AuthorityScore)
	assert.Equal(t, []string{"Good"}, first.Tags)
	assert.Equal(t, int64(1200000), *first.OrganicTraffic)
	assert.InDelta(t, 12.0, *first.TrafficChange, 0.0001)
	assert.Equal(t, int64(34100), *first.OrganicKeywords)
	assert.InDelta(t, -3.5, *first.KeywordsChange, 0.0001)
	assert.Equal(t, int64(2345), *first.Backlinks)
	assert.Equal(t, int64(980), *first.RefDomains)
	assert.Contains(t, first.Raw, "backlinks")

	second := got[1]
	assert.Equal(t, "other.org", second.Domain)
	assert.Equal(t, 17, *second.AuthorityScore)
	assert.Empty(t, second.Tags)
	assert.Equal(t, int64(0), *second.PaidTraffic)
	assert.InDelta(t, 41.5, *second.AIVisibility, 0.0001)
	assert.Equal(t, int64(120), *second.AIMentions)
	assert.Nil(t, second.OrganicTraffic)
	assert.True(t, second.HasMetrics())
}

func TestParse_CountOutOfRange(t *testing.T) {
	t.Parallel()

	got := semrush.Parse("example.com\nBacklinks\n99999999999B\nRef.Domains\n12")
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Backlinks)
	assert.Equal(t, int64(0), *got[0].Backlinks)
	assert.Equal(t, int64(12), *got[0].RefDomains)
	require.NoError(t, semrush.Validate(got[0]))
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, semrush.Parse(""))
	assert.Empty(t, semrush.Parse("\n  \n"))
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
	}{
		{"1,234", 1234},
		{"256.5K", 256500},
		{"1.2M", 1200000},
		{"2B", 2e9},
		{"12.5%", 12.5},
		{"+3.2%", 3.2},
		{"-4%", -4},
		{"7k", 7000},
		{"", 0},
		{"n/a", 0},
		{"abc", 0},
		{"NaN", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, semrush.ParseNumber(tt.in), 0.001)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	score := func(v int) *int { return &v }
	negative := int64(-1)

	tests := []struct {
		name  string
		data  semrush.Data
		field string
	}{
		{"valid", semrush.Data{Domain: "example.com", AuthorityScore: score(40)}, ""},
		{"missing domain", semrush.Data{AuthorityScore: score(40)}, "domain"},
		{"score too high", semrush.Data{Domain: "example.com", AuthorityScore: score(101)}, "authorityScore"},
		{"negative traffic", semrush.Data{Domain: "example.com", OrganicTraffic: &negative}, "organicTraffic"},
		{"negative backlinks", semrush.Data{Domain: "example.com", Backlinks: &negative}, "backlinks"},
		{"negative ref domains", semrush.Data{Domain: "example.com", RefDomains: &negative}, "refDomains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := semrush.Validate(tt.data)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var vErr *models.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
