package bb92

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/entanglab/bb92/bb92/epr"
)

// distributePairs creates, optionally rotates, and measures n entangled-pair
// halves, producing the ordered pair sequence the later stages annotate.
// basisFunc overrides random basis selection; it is a test seam and nil in
// production.
func distributePairs(source epr.Source, peer string, n int, rnd *rand.Rand, basisFunc func(int) Basis) ([]Pair, error) {
	pairs := make([]Pair, 0, n)
	for i := 0; i < n; i++ {
		basis := BasisZ
		if basisFunc != nil {
			basis = basisFunc(i)
		} else if rnd.Intn(2) == 1 {
			basis = BasisX
		}
		q, err := source.CreateEntangledPair(peer)
		if err != nil {
			return nil, errors.Wrapf(err, "creating entangled pair %d", i)
		}
		if basis == BasisX {
			if err := q.ApplyBasisRotation(); err != nil {
				return nil, errors.Wrapf(err, "rotating basis for pair %d", i)
			}
		}
		// The peer must hold its half of the pair before the local
		// measurement collapses the state. Measuring early would amount to
		// preparing a specific state for the peer, which changes the
		// protocol's security properties. This barrier is what separates
		// BB92 from measure-immediately BB84 variants.
		if err := source.Synchronize(); err != nil {
			return nil, errors.Wrapf(err, "synchronizing before measuring pair %d", i)
		}
		bit, err := q.Measure()
		if err != nil {
			return nil, errors.Wrapf(err, "measuring pair %d", i)
		}
		pairs = append(pairs, Pair{Index: i, Basis: basis, Outcome: bit})
	}
	return pairs, nil
}
