package bb92

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/entanglab/bb92/bb92/epr"
)

// An alice drives a BB92 negotiation as the initiating party: she announces
// measurement completion, announces bases first, and chooses the test
// sample.
type alice struct {
	source      epr.Source
	sideChannel *sideChannel
	rand        *rand.Rand
	log         zerolog.Logger
	peer        string
	numPairs    int
	keyLength   int
	testBits    int

	// basisFunc overrides random basis selection in tests.
	basisFunc func(int) Basis
}

// NegotiateKey implements the Peer interface.
func (a *alice) NegotiateKey() (Report, error) {
	pairs, err := distributePairs(a.source, a.peer, a.numPairs, a.rand, a.basisFunc)
	if err != nil {
		return Report{}, err
	}
	a.log.Debug().Int("pairs", len(pairs)).Msg("distributed entangled pairs")
	if err := a.sideChannel.sendAssured(&message{header: msgAllMeasured}); err != nil {
		return Report{}, errors.Wrap(err, "announcing measurement completion")
	}
	if err := reconcileBases(a.sideChannel, pairs, true); err != nil {
		return Report{}, err
	}
	errRate, err := a.estimateErrorRate(pairs)
	if err != nil {
		return Report{}, err
	}
	a.log.Debug().Float64("error_rate", errRate).Msg("error estimation complete")
	report := buildReport(pairs, a.keyLength, a.sideChannel.stats)
	a.log.Info().
		Int("raw_key_bits", len(report.RawKey)).
		Float64("qber", report.QBER).
		Float64("key_rate_potential", report.KeyRatePotential).
		Msg("negotiation complete")
	return report, nil
}

// estimateErrorRate samples the test set, directs the peer to it, and
// compares outcomes. The local outcomes go out only after the peer's have
// arrived, so a dishonest peer cannot trivially echo ours back; this is a
// best-effort mitigation, not authentication.
func (a *alice) estimateErrorRate(pairs []Pair) (float64, error) {
	testIdx := sampleTestIndices(pairs, a.testBits, a.rand)
	markTestPairs(pairs, testIdx)
	a.log.Debug().Ints("test_indices", testIdx).Msg("selected test bits")
	if err := a.sideChannel.send(&message{header: headerTestIndices, payload: indicesPayload(testIdx)}); err != nil {
		return 0, errors.Wrap(err, "announcing test indices")
	}
	in, err := a.sideChannel.recv()
	if err != nil {
		return 0, errors.Wrap(err, "receiving peer test outcomes")
	}
	if in.header != headerTestOutcomes {
		return 0, desyncf("expected %q, got %q", headerTestOutcomes, in.header)
	}
	remote, err := parseIndexedBits(in.payload)
	if err != nil {
		return 0, errors.Wrap(err, "parsing peer test outcomes")
	}
	local := testOutcomes(pairs, testIdx)
	if err := a.sideChannel.send(&message{header: headerTestOutcomes, payload: indexedBitsPayload(local)}); err != nil {
		return 0, errors.Wrap(err, "announcing test outcomes")
	}
	numErr, err := compareOutcomes(pairs, local, remote)
	if err != nil {
		return 0, err
	}
	if a.testBits <= 0 {
		// No comparisons: assume the worst rather than divide by zero.
		return 1, nil
	}
	return float64(numErr) / float64(a.testBits), nil
}
