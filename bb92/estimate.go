package bb92

import (
	"math/rand"
	"sort"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// sampleTestIndices draws min(k, pool size) pair indices from the
// basis-matched pool, uniformly at random and without replacement. The
// returned indices are sorted ascending.
func sampleTestIndices(pairs []Pair, k int, rnd *rand.Rand) []int {
	var pool []int
	for _, p := range pairs {
		if p.SameBasis {
			pool = append(pool, p.Index)
		}
	}
	if k > len(pool) {
		k = len(pool)
	}
	if k <= 0 {
		return nil
	}
	picks := make([]int, k)
	sampleuv.WithoutReplacement(picks, len(pool), xrand.NewSource(rnd.Uint64()))
	test := make([]int, k)
	for i, j := range picks {
		test[i] = pool[j]
	}
	sort.Ints(test)
	return test
}

// markTestPairs flags the sampled pairs. Pairs outside the test set keep
// IsTest == false, including all basis-mismatched pairs.
func markTestPairs(pairs []Pair, testIdx []int) {
	for _, i := range testIdx {
		pairs[i].IsTest = true
	}
}

// testOutcomes collects the (index, outcome) list for the test set.
func testOutcomes(pairs []Pair, testIdx []int) []indexedBit {
	out := make([]indexedBit, len(testIdx))
	for i, idx := range testIdx {
		out[i] = indexedBit{index: idx, value: pairs[idx].Outcome}
	}
	return out
}

// compareOutcomes annotates tested pairs with whether the peer observed the
// same outcome and returns the number of disagreements. The local and peer
// lists must be index-aligned element-wise.
func compareOutcomes(pairs []Pair, local, remote []indexedBit) (int, error) {
	if len(local) != len(remote) {
		return 0, desyncf("test outcome length mismatch: local %d, peer %d", len(local), len(remote))
	}
	numErr := 0
	for i := range local {
		if local[i].index != remote[i].index {
			return 0, desyncf("test outcomes misaligned at position %d: local index %d, peer index %d",
				i, local[i].index, remote[i].index)
		}
		match := local[i].value == remote[i].value
		pairs[local[i].index].OutcomesMatch = match
		if !match {
			numErr++
		}
	}
	return numErr, nil
}
