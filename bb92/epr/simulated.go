package epr

import (
	"math/rand"

	"github.com/pkg/errors"
)

// A pairState carries the hidden measurement outcomes of one simulated EPR
// pair. Matching bases observe the same bit on both ends; mismatched bases
// observe independent bits, which is indistinguishable from uncorrelated
// noise.
type pairState struct {
	zBit, xBit byte
}

// A LinkOpts parameterizes a simulated entanglement link.
type LinkOpts struct {
	// NameA, NameB identify the two parties. CreateEntangledPair validates
	// the requested peer against these names when they are set.
	NameA, NameB string

	// Rand drives the hidden pair outcomes. Defaults to a fixed-seed pRNG.
	Rand *rand.Rand

	// ErrProb is the probability that a measurement on the B half flips,
	// simulating channel noise observed by the protocol as QBER.
	ErrProb float64
}

// NewLink returns a connected pair of simulated Sources. Pair creation is
// unbuffered: each side's CreateEntangledPair blocks until the other side
// requests the matching pair, mimicking a processor that cannot run ahead
// of its peer.
func NewLink(opts LinkOpts) (a, b *Simulated) {
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	pairs := make(chan pairState)
	a = &Simulated{peer: opts.NameB, pairs: pairs, generate: rnd}
	b = &Simulated{
		peer:    opts.NameA,
		pairs:   pairs,
		errProb: opts.ErrProb,
		errRand: rand.New(rand.NewSource(rnd.Int63())),
	}
	return a, b
}

// A Simulated is one endpoint of an in-process entanglement link. It is not
// safe for concurrent use by multiple goroutines; each party owns its
// endpoint exclusively.
type Simulated struct {
	peer  string
	pairs chan pairState

	// generate is set on the A half, which produces the hidden outcomes.
	generate *rand.Rand

	// errProb/errRand are set on the B half, which absorbs the simulated
	// channel noise.
	errProb float64
	errRand *rand.Rand

	unsynced []*simQubit
}

// CreateEntangledPair implements the Source interface.
func (s *Simulated) CreateEntangledPair(peer string) (Qubit, error) {
	if s.peer != "" && peer != s.peer {
		return nil, errors.Errorf("no entanglement link to %q", peer)
	}
	var st pairState
	if s.generate != nil {
		st = pairState{
			zBit: byte(s.generate.Intn(2)),
			xBit: byte(s.generate.Intn(2)),
		}
		s.pairs <- st
	} else {
		st = <-s.pairs
		if s.errRand.Float64() < s.errProb {
			st.zBit ^= 1
			st.xBit ^= 1
		}
	}
	q := &simQubit{state: st}
	s.unsynced = append(s.unsynced, q)
	return q, nil
}

// Synchronize releases every qubit created since the previous barrier for
// measurement.
func (s *Simulated) Synchronize() error {
	for _, q := range s.unsynced {
		q.synced = true
	}
	s.unsynced = nil
	return nil
}

type simQubit struct {
	state    pairState
	basisX   bool
	synced   bool
	measured bool
}

func (q *simQubit) ApplyBasisRotation() error {
	if q.measured {
		return errors.New("rotating an already-measured qubit")
	}
	q.basisX = !q.basisX
	return nil
}

// Measure returns the hidden outcome for the selected basis. Measuring
// before a Synchronize barrier is an error: the peer is not yet guaranteed
// to hold its half of the pair, and measuring now would silently degrade the
// protocol into state preparation.
func (q *simQubit) Measure() (byte, error) {
	if !q.synced {
		return 0, errors.New("measuring qubit before synchronization barrier")
	}
	if q.measured {
		return 0, errors.New("qubit already measured")
	}
	q.measured = true
	if q.basisX {
		return q.state.xBit, nil
	}
	return q.state.zBit, nil
}
