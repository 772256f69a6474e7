package rerank

import (
	"regexp"
	"strconv"

	"github.com/FurkiKARA/CENG543-Furkan-KARA/internal/trec"
)

var indexPattern = regexp.MustCompile(`\[(\d+)\]`)

// ParseRanking extracts bracketed integers from free text in order of first
// appearance. Repeats and values that overflow int are dropped.
func ParseRanking(text string) []int {
	matches := indexPattern.FindAllStringSubmatch(text, -1)
	indices := make([]int, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		indices = append(indices, n)
	}
	return indices
}

// Order applies parsed labels to a candidate list. Labels naming no
// candidate are discarded; candidates the labels never mention follow in
// their original order. The result always holds every candidate position
// exactly once. fallback reports that no label was usable.
func Order(m IndexMap, indices []int) (ranked []string, fallback bool) {
	n := m.Len()
	used := make([]bool, n)
	ranked = make([]string, 0, n)

	for _, idx := range indices {
		id, ok := m.DocID(idx)
		if !ok || used[idx-1] {
			continue
		}
		used[idx-1] = true
		ranked = append(ranked, id)
	}
	fallback = len(ranked) == 0

	for i, id := range m.ids {
		if !used[i] {
			ranked = append(ranked, id)
		}
	}
	return ranked, fallback
}

// Applied counts the distinct labels that name a candidate.
func Applied(m IndexMap, indices []int) int {
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if _, ok := m.DocID(idx); ok {
			seen[idx] = true
		}
	}
	return len(seen)
}

// Score assigns reciprocal-rank scores, 1/rank, to an ordered list.
func Score(ranked []string) []trec.Scored {
	scored := make([]trec.Scored, len(ranked))
	for i, id := range ranked {
		scored[i] = trec.Scored{DocID: id, Score: 1.0 / float64(i+1)}
	}
	return scored
}
