package semrush

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// numberRe finds a number with an optional unit suffix and percent sign.
	numberRe = regexp.MustCompile(`([+-]?\d[\d,]*(?:\.\d+)?)([KMBkmb]\b)?(%)?`)

	// numberOnlyRe matches lines that hold nothing but a value.
	numberOnlyRe = regexp.MustCompile(`^[+-]?\d[\d,]*(?:\.\d+)?[KMBkmb]?%?$`)
)

// ParseNumber reads values as Semrush prints them ("1,234", "256.5K",
// "+12%", "1.2B"). Thousands separators, a leading "+" and a trailing "%"
// are ignored; K, M and B scale by 1e3, 1e6 and 1e9. Anything unreadable
// yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		multiplier = 1e3
	case 'M', 'm':
		multiplier = 1e6
	case 'B', 'b':
		multiplier = 1e9
	}
	if multiplier != 1 {
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v * multiplier
}

func isNumberLine(line string) bool {
	return numberOnlyRe.MatchString(strings.TrimSpace(line))
}

func isSignedPercentLine(line string) bool {
	line = strings.TrimSpace(line)
	return isNumberLine(line) && strings.HasSuffix(line, "%") &&
		(strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-"))
}

// numberToken is one number found in free text.
type numberToken struct {
	value   float64
	percent bool
	signed  bool
}

func findNumbers(s string) []numberToken {
	matches := numberRe.FindAllStringSubmatch(s, -1)
	tokens := make([]numberToken, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, numberToken{
			value:   ParseNumber(m[1] + m[2]),
			percent: m[3] != "",
			signed:  strings.HasPrefix(m[1], "+") || strings.HasPrefix(m[1], "-"),
		})
	}
	return tokens
}
