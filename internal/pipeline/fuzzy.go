package pipeline

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// normalizeText lowercases, replaces punctuation with spaces and
// collapses whitespace, so "Aalto-Chair" and "aalto chair" compare as
// equal.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r >= 0x80:
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func tokenSet(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range strings.Fields(normalizeText(s)) {
		if _, dup := seen[tok]; !dup {
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

// similarity is a normalized edit-distance ratio in [0, 1].
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// tokenSetRatio compares two strings the way rapidfuzz's
// token_set_ratio does: the sorted token intersection is compared
// against each side's full sorted token set, and the best of the three
// pairings wins. Identical strings up to case, whitespace and
// punctuation score exactly 1.
func tokenSetRatio(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(tb))
	for _, tok := range tb {
		inB[tok] = struct{}{}
	}
	var common, restA []string
	for _, tok := range ta {
		if _, ok := inB[tok]; ok {
			common = append(common, tok)
		} else {
			restA = append(restA, tok)
		}
	}
	inA := make(map[string]struct{}, len(ta))
	for _, tok := range ta {
		inA[tok] = struct{}{}
	}
	var restB []string
	for _, tok := range tb {
		if _, ok := inA[tok]; !ok {
			restB = append(restB, tok)
		}
	}

	base := strings.Join(common, " ")
	full1 := strings.TrimSpace(base + " " + strings.Join(restA, " "))
	full2 := strings.TrimSpace(base + " " + strings.Join(restB, " "))

	best := similarity(full1, full2)
	if base != "" {
		if s := similarity(base, full1); s > best {
			best = s
		}
		if s := similarity(base, full2); s > best {
			best = s
		}
	}
	return best
}

// typeRatio compares furniture types with singularized tokens, so
// "chairs" matches "chair". Empty on either side scores zero: a record
// without a type cannot satisfy the two-field match key.
func typeRatio(a, b string) float64 {
	return tokenSetRatio(singularize(a), singularize(b))
}

func singularize(s string) string {
	toks := strings.Fields(normalizeText(s))
	for i, tok := range toks {
		if len(tok) > 3 {
			toks[i] = strings.TrimSuffix(tok, "s")
		}
	}
	return strings.Join(toks, " ")
}
