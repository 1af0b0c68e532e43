package match

import "strings"

// Levenshtein returns the minimum number of single-character insertions,
// deletions and substitutions needed to transform a into b.
// Comparison is case-insensitive.
func Levenshtein(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	la, lb := len(ra), len(rb)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	// Single-row DP
	prev := make([]int, lb+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr := make([]int, lb+1)
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev = curr
	}
	return prev[lb]
}

// EditSimilarity normalizes the edit distance to a similarity in [0,1]
// via 1 - distance/max(len(a), len(b)). Two empty strings yield 0.
func EditSimilarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// JaroWinkler computes a positional character similarity in [0,1].
// Characters of a match characters of b within a window of
// floor(max(la,lb)/2)-1 positions, each consumed at most once; matched
// characters compared in encounter order yield the transposition count,
// halved. A prefix bonus of min(prefix,4)*0.1*(1-base) rewards shared
// leading characters, which is common for brand-name prefixes.
func JaroWinkler(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	la, lb := len(ra), len(rb)
	if la == lb && string(ra) == string(rb) {
		return 1
	}
	if la == 0 || lb == 0 {
		return 0
	}

	window := max(la, lb)/2 - 1
	if window < 0 {
		window = 0
	}

	aMatched := make([]bool, la)
	bMatched := make([]bool, lb)
	m := 0
	for i := 0; i < la; i++ {
		lo := max(0, i-window)
		hi := min(lb-1, i+window)
		for j := lo; j <= hi; j++ {
			if !bMatched[j] && ra[i] == rb[j] {
				aMatched[i] = true
				bMatched[j] = true
				m++
				break
			}
		}
	}
	if m == 0 {
		return 0
	}

	// transpositions: matched characters in original encounter order
	t := 0
	j := 0
	for i := 0; i < la; i++ {
		if !aMatched[i] {
			continue
		}
		for !bMatched[j] {
			j++
		}
		if ra[i] != rb[j] {
			t++
		}
		j++
	}
	half := float64(t) / 2

	fm := float64(m)
	base := (fm/float64(la) + fm/float64(lb) + (fm-half)/fm) / 3

	prefix := 0
	for i := 0; i < min(la, lb, 4); i++ {
		if ra[i] != rb[i] {
			break
		}
		prefix++
	}
	return base + float64(prefix)*0.1*(1-base)
}

// TokenOverlap splits both strings on whitespace, drops tokens of length
// <= 2, and returns the fraction of tokens in the smaller set that equal or
// are substrings of some token in the other set, divided by the larger
// token-set size. Returns 0 if either set is empty after filtering.
func TokenOverlap(a, b string) float64 {
	ta := filterTokens(strings.Fields(strings.ToLower(a)))
	tb := filterTokens(strings.Fields(strings.ToLower(b)))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	small, large := ta, tb
	if len(tb) < len(ta) {
		small, large = tb, ta
	}

	hits := 0
	for _, s := range small {
		for _, l := range large {
			if strings.Contains(l, s) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(large))
}

func filterTokens(tokens []string) []string {
	kept := tokens[:0]
	for _, t := range tokens {
		if len([]rune(t)) > 2 {
			kept = append(kept, t)
		}
	}
	return kept
}
