// Package semrush extracts backlink-site metrics from text copied out of the
// Semrush web UI. The input has no stable format; parsing is heuristic and
// never fails, it only leaves fields unset.
package semrush

import (
	"math"
	"strings"

	"github.com/huzhengnan/website-monitor-sub000/internal/models"
	"github.com/huzhengnan/website-monitor-sub000/internal/urlnorm"
)

// Data is the metric set parsed for one domain block.
type Data struct {
	Domain          string            `json:"domain"`
	AuthorityScore  *int              `json:"authorityScore,omitempty"`
	OrganicTraffic  *int64            `json:"organicTraffic,omitempty"`
	OrganicKeywords *int64            `json:"organicKeywords,omitempty"`
	PaidTraffic     *int64            `json:"paidTraffic,omitempty"`
	Backlinks       *int64            `json:"backlinks,omitempty"`
	RefDomains      *int64            `json:"refDomains,omitempty"`
	AIVisibility    *float64          `json:"aiVisibility,omitempty"`
	AIMentions      *int64            `json:"aiMentions,omitempty"`
	TrafficChange   *float64          `json:"trafficChange,omitempty"`
	KeywordsChange  *float64          `json:"keywordsChange,omitempty"`
	Tags            []string          `json:"tags,omitempty"`
	Raw             map[string]string `json:"raw,omitempty"`
}

// HasMetrics reports whether any metric was found.
func (d *Data) HasMetrics() bool {
	return d.AuthorityScore != nil || d.OrganicTraffic != nil || d.OrganicKeywords != nil ||
		d.PaidTraffic != nil || d.Backlinks != nil || d.RefDomains != nil ||
		d.AIVisibility != nil || d.AIMentions != nil
}

type field struct {
	name     string
	keywords []string
	apply    func(d *Data, nums []numberToken)
}

// fields is scanned in order; the first line that mentions a keyword wins.
var fields = []field{
	{name: "authorityScore", keywords: []string{"authority score"}, apply: func(d *Data, n []numberToken) {
		v := int(math.Round(n[0].value))
		d.AuthorityScore = &v
	}},
	{name: "organicTraffic", keywords: []string{"organic traffic"}, apply: func(d *Data, n []numberToken) {
		d.OrganicTraffic = int64Ptr(n[0].value)
		d.TrafficChange = change(n[1:])
	}},
	{name: "organicKeywords", keywords: []string{"organic keywords"}, apply: func(d *Data, n []numberToken) {
		d.OrganicKeywords = int64Ptr(n[0].value)
		d.KeywordsChange = change(n[1:])
	}},
	{name: "paidTraffic", keywords: []string{"paid traffic"}, apply: func(d *Data, n []numberToken) {
		d.PaidTraffic = int64Ptr(n[0].value)
	}},
	{name: "backlinks", keywords: []string{"backlinks"}, apply: func(d *Data, n []numberToken) {
		d.Backlinks = int64Ptr(n[0].value)
	}},
	{name: "refDomains", keywords: []string{"ref.domains", "ref. domains", "referring domains"}, apply: func(d *Data, n []numberToken) {
		d.RefDomains = int64Ptr(n[0].value)
	}},
	{name: "aiVisibility", keywords: []string{"ai visibility"}, apply: func(d *Data, n []numberToken) {
		v := n[0].value
		d.AIVisibility = &v
	}},
	{name: "aiMentions", keywords: []string{"ai mentions"}, apply: func(d *Data, n []numberToken) {
		d.AIMentions = int64Ptr(n[0].value)
	}},
}

// Parse splits text into domain blocks and extracts metrics from each.
// Lines before the first domain line form a block with an empty Domain.
func Parse(text string) []Data {
	var (
		results []Data
		domain  string
		block   []string
		started bool
	)

	flush := func() {
		if started {
			results = append(results, parseBlock(domain, block))
		}
	}

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if isDomainLine(line) {
			flush()
			domain = urlnorm.ExtractDomain(line)
			block = nil
			started = true
			continue
		}
		started = true
		block = append(block, line)
	}
	flush()

	return results
}

func parseBlock(domain string, lines []string) Data {
	d := Data{Domain: domain, Raw: make(map[string]string)}

	merged := mergeLabels(lines)
	for _, f := range fields {
		for _, line := range merged {
			nums, ok := valueAfterKeyword(line, f.keywords)
			if !ok {
				continue
			}
			f.apply(&d, nums)
			d.Raw[f.name] = line
			break
		}
	}

	if tag := authorityTag(lines); tag != "" {
		d.Tags = append(d.Tags, tag)
	}
	if len(d.Raw) == 0 {
		d.Raw = nil
	}
	return d
}

// mergeLabels joins a label line that carries no value with the line after
// it, and with a following "+N%" change line when present.
func mergeLabels(lines []string) []string {
	merged := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isLabel(line) && len(numbersAfterKeyword(line)) == 0 && i+1 < len(lines) && !isLabel(lines[i+1]) {
			line += " " + lines[i+1]
			i++
			if i+1 < len(lines) && isSignedPercentLine(lines[i+1]) {
				line += " " + lines[i+1]
				i++
			}
		}
		merged = append(merged, line)
	}
	return merged
}

// authorityTag returns the rating text Semrush prints under the authority
// score ("Very good"), if any.
func authorityTag(lines []string) string {
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), "authority score") {
			continue
		}
		next := i + 1
		if len(numbersAfterKeyword(line)) == 0 {
			next++ // skip the value line
		}
		if next >= len(lines) {
			return ""
		}
		candidate := lines[next]
		if isNumberLine(candidate) || isLabel(candidate) || isDomainLine(candidate) {
			return ""
		}
		return candidate
	}
	return ""
}

func valueAfterKeyword(line string, keywords []string) ([]numberToken, bool) {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		idx := strings.Index(lower, kw)
		if idx < 0 {
			continue
		}
		nums := findNumbers(line[idx+len(kw):])
		if len(nums) == 0 {
			return nil, false
		}
		return nums, true
	}
	return nil, false
}

func numbersAfterKeyword(line string) []numberToken {
	lower := strings.ToLower(line)
	for _, f := range fields {
		for _, kw := range f.keywords {
			if idx := strings.Index(lower, kw); idx >= 0 {
				return findNumbers(line[idx+len(kw):])
			}
		}
	}
	return nil
}

func isLabel(line string) bool {
	lower := strings.ToLower(line)
	for _, f := range fields {
		for _, kw := range f.keywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func isDomainLine(line string) bool {
	if isNumberLine(line) || isLabel(line) {
		return false
	}
	tokens := strings.Fields(line)
	if len(tokens) != 1 {
		return false
	}
	return urlnorm.IsKnownDomain(urlnorm.ExtractDomain(tokens[0]))
}

func change(nums []numberToken) *float64 {
	for _, n := range nums {
		if n.percent && n.signed {
			v := n.value
			return &v
		}
	}
	return nil
}

// int64Ptr rounds v. Values outside the int64 range are unreadable and
// yield 0, like any other unreadable number.
func int64Ptr(v float64) *int64 {
	var n int64
	if r := math.Round(v); r >= math.MinInt64 && r < math.MaxInt64 {
		n = int64(r)
	}
	return &n
}

// Validate checks the minimum a record needs before it is stored.
func Validate(d Data) error {
	if strings.TrimSpace(d.Domain) == "" {
		return models.NewValidationError("domain", "domain is required")
	}
	if d.AuthorityScore != nil && (*d.AuthorityScore < 0 || *d.AuthorityScore > 100) {
		return models.NewValidationError("authorityScore", "authority score %d is outside 0-100", *d.AuthorityScore)
	}
	counts := []struct {
		field string
		value *int64
	}{
		{"organicTraffic", d.OrganicTraffic},
		{"organicKeywords", d.OrganicKeywords},
		{"paidTraffic", d.PaidTraffic},
		{"backlinks", d.Backlinks},
		{"refDomains", d.RefDomains},
		{"aiMentions", d.AIMentions},
	}
	for _, c := range counts {
		if c.value != nil && *c.value < 0 {
			return models.NewValidationError(c.field, "%s must not be negative", c.field)
		}
	}
	return nil
}
