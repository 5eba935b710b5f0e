package util

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Set collects strings, ignoring duplicates.
func Set(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// Sorted returns the distinct items in lexicographic order.
func Sorted(items []string) []string {
	keys := maps.Keys(Set(items))
	slices.Sort(keys)
	return keys
}

// FormatResultSet prints findings the way grading sheets list them:
// {'At #1: forbidden starting pitch', 'At #3: consecutive fifths'}
func FormatResultSet(results []string) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, r := range Sorted(results) {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(r, "'", `\'`))
		b.WriteByte('\'')
	}
	b.WriteByte('}')
	return b.String()
}

// Diff compares a report against an expected result set. Missing holds
// expected entries absent from got; unexpected holds the extras.
func Diff(got, want []string) (missing, unexpected []string) {
	g, w := Set(got), Set(want)
	for k := range w {
		if _, ok := g[k]; !ok {
			missing = append(missing, k)
		}
	}
	for k := range g {
		if _, ok := w[k]; !ok {
			unexpected = append(unexpected, k)
		}
	}
	slices.Sort(missing)
	slices.Sort(unexpected)
	return missing, unexpected
}

// ParseResultSet reads the output of FormatResultSet back.
func ParseResultSet(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
	var out []string
	for _, part := range strings.Split(s, "', ") {
		part = strings.Trim(strings.TrimSpace(part), "'")
		if part == "" {
			continue
		}
		out = append(out, strings.ReplaceAll(part, `\'`, "'"))
	}
	return Sorted(out)
}
