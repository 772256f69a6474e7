package evaluation

import (
	"math"
	"sort"
)

// RelevanceThreshold is the minimum judgment grade counted as relevant.
const RelevanceThreshold = 1

// NDCG calculates Normalized Discounted Cumulative Gain at K. gains are the
// judgment grades of the ranked documents (0 when unjudged); idealGains are
// the grades of every judged document for the query, in any order.
func NDCG(gains []int, idealGains []int, k int) float64 {
	if k <= 0 {
		return 0
	}

	idcg := dcg(sortedDesc(idealGains), k)
	if idcg == 0 {
		return 0
	}
	return dcg(gains, k) / idcg
}

func dcg(gains []int, k int) float64 {
	if k > len(gains) {
		k = len(gains)
	}
	sum := 0.0
	for i := 0; i < k; i++ {
		if gains[i] <= 0 {
			continue
		}
		sum += float64(gains[i]) / math.Log2(float64(i+2))
	}
	return sum
}

func sortedDesc(gains []int) []int {
	sorted := make([]int, len(gains))
	copy(sorted, gains)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))
	return sorted
}

// Recall calculates Recall at K against the total number of relevant
// documents in the judgments, retrieved or not.
func Recall(gains []int, k int, totalRelevant int) float64 {
	if totalRelevant == 0 {
		return 0
	}
	if k > len(gains) {
		k = len(gains)
	}

	relevantInK := 0
	for i := 0; i < k; i++ {
		if gains[i] >= RelevanceThreshold {
			relevantInK++
		}
	}

	return float64(relevantInK) / float64(totalRelevant)
}

// Precision calculates Precision at K. Missing ranks count as non-relevant.
func Precision(gains []int, k int) float64 {
	if k <= 0 {
		return 0
	}

	n := k
	if n > len(gains) {
		n = len(gains)
	}
	relevant := 0
	for i := 0; i < n; i++ {
		if gains[i] >= RelevanceThreshold {
			relevant++
		}
	}

	return float64(relevant) / float64(k)
}

// ReciprocalRank returns 1/rank of the first relevant document.
func ReciprocalRank(gains []int) float64 {
	for i, g := range gains {
		if g >= RelevanceThreshold {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// AveragePrecision calculates Average Precision. Relevant documents that were
// never retrieved contribute zero precision, so the sum is divided by
// totalRelevant rather than by the number of relevant hits.
func AveragePrecision(gains []int, totalRelevant int) float64 {
	if totalRelevant == 0 {
		return 0
	}

	relevant := 0
	sumPrecision := 0.0

	for i, g := range gains {
		if g >= RelevanceThreshold {
			relevant++
			sumPrecision += float64(relevant) / float64(i+1)
		}
	}

	return sumPrecision / float64(totalRelevant)
}
