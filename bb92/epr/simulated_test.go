package epr

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type measureResult struct {
	bit byte
	err error
}

// measureAll runs one endpoint's half of n pair exchanges in basis bases[i]
// (false = Z, true = X), pumping results into the returned channel.
func measureAll(s *Simulated, peer string, bases []bool) <-chan measureResult {
	out := make(chan measureResult, len(bases))
	go func() {
		defer close(out)
		for _, x := range bases {
			q, err := s.CreateEntangledPair(peer)
			if err != nil {
				out <- measureResult{err: err}
				return
			}
			if x {
				if err := q.ApplyBasisRotation(); err != nil {
					out <- measureResult{err: err}
					return
				}
			}
			if err := s.Synchronize(); err != nil {
				out <- measureResult{err: err}
				return
			}
			bit, err := q.Measure()
			out <- measureResult{bit: bit, err: err}
		}
	}()
	return out
}

func TestSameBasisOutcomesAgree(t *testing.T) {
	a, b := NewLink(LinkOpts{NameA: "alice", NameB: "bob", Rand: rand.New(rand.NewSource(3))})
	const n = 64
	bases := make([]bool, n)
	for i := range bases {
		bases[i] = i%2 == 0
	}
	aOut := measureAll(a, "bob", bases)
	bOut := measureAll(b, "alice", bases)
	for i := 0; i < n; i++ {
		aRes, bRes := <-aOut, <-bOut
		require.NoError(t, aRes.err)
		require.NoError(t, bRes.err)
		require.Equal(t, aRes.bit, bRes.bit, "pair %d", i)
	}
}

func TestMismatchedBasisOutcomesValid(t *testing.T) {
	a, b := NewLink(LinkOpts{NameA: "alice", NameB: "bob", Rand: rand.New(rand.NewSource(3))})
	const n = 32
	aOut := measureAll(a, "bob", make([]bool, n))
	xBases := make([]bool, n)
	for i := range xBases {
		xBases[i] = true
	}
	bOut := measureAll(b, "alice", xBases)
	for i := 0; i < n; i++ {
		aRes, bRes := <-aOut, <-bOut
		require.NoError(t, aRes.err)
		require.NoError(t, bRes.err)
		require.LessOrEqual(t, aRes.bit, byte(1))
		require.LessOrEqual(t, bRes.bit, byte(1))
	}
}

func TestErrProbFlipsOutcomes(t *testing.T) {
	a, b := NewLink(LinkOpts{
		NameA:   "alice",
		NameB:   "bob",
		Rand:    rand.New(rand.NewSource(3)),
		ErrProb: 1,
	})
	const n = 32
	aOut := measureAll(a, "bob", make([]bool, n))
	bOut := measureAll(b, "alice", make([]bool, n))
	for i := 0; i < n; i++ {
		aRes, bRes := <-aOut, <-bOut
		require.NoError(t, aRes.err)
		require.NoError(t, bRes.err)
		require.NotEqual(t, aRes.bit, bRes.bit, "pair %d", i)
	}
}

func TestMeasureBeforeSynchronizeFails(t *testing.T) {
	a, b := NewLink(LinkOpts{NameA: "alice", NameB: "bob", Rand: rand.New(rand.NewSource(3))})
	done := measureAll(b, "alice", []bool{false})
	q, err := a.CreateEntangledPair("bob")
	require.NoError(t, err)
	_, err = q.Measure()
	require.Error(t, err)
	<-done
}

func TestPeerNameValidated(t *testing.T) {
	a, _ := NewLink(LinkOpts{NameA: "alice", NameB: "bob"})
	_, err := a.CreateEntangledPair("carol")
	require.Error(t, err)
}
