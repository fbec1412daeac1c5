package equivalence

import (
	"math"
	"sort"
	"strings"
)

// stripNoise removes comments and blanks string literal contents so pattern
// matching only sees code. Line breaks are preserved.
func stripNoise(src string) string {
	var b strings.Builder
	b.Grow(len(src))
	runes := []rune(src)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			if i < len(runes) {
				b.WriteRune('\n')
			}
		case r == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				if runes[i] == '\n' {
					b.WriteRune('\n')
				}
				i++
			}
			i++
			b.WriteRune(' ')
		case r == '"' || r == '\'' || r == '`':
			quote := r
			b.WriteRune(quote)
			i++
			for i < len(runes) && runes[i] != quote {
				if runes[i] == '\\' {
					i++
				} else if runes[i] == '\n' && quote != '`' {
					break
				}
				i++
			}
			b.WriteRune(quote)
			if i < len(runes) && runes[i] == '\n' {
				b.WriteRune('\n')
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// overlap is |a ∩ b| / max(|a|, |b|), or 1 when both are empty.
func overlap(a, b map[string]struct{}) float64 {
	largest := len(a)
	if len(b) > largest {
		largest = len(b)
	}
	if largest == 0 {
		return 1
	}
	shared := 0
	for k := range a {
		if _, ok := b[k]; ok {
			shared++
		}
	}
	return float64(shared) / float64(largest)
}

// closeness is 1 - |a-b| / max(a, b), or 1 when the counts are equal.
func closeness(a, b int) float64 {
	if a == b {
		return 1
	}
	largest := a
	if b > largest {
		largest = b
	}
	return 1 - math.Abs(float64(a-b))/float64(largest)
}

// missing returns the sorted members of want absent from have.
func missing(want, have map[string]struct{}) []string {
	var out []string
	for k := range want {
		if _, ok := have[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
