package bb92

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/entanglab/bb92/bb92/epr"
)

// A bob follows a BB92 negotiation as the responding party: he waits for the
// initiator's measurement-complete sentinel and tests the pairs the
// initiator directs him to.
type bob struct {
	source      epr.Source
	sideChannel *sideChannel
	rand        *rand.Rand
	log         zerolog.Logger
	peer        string
	numPairs    int
	keyLength   int

	// basisFunc overrides random basis selection in tests.
	basisFunc func(int) Basis
}

// NegotiateKey implements the Peer interface.
func (b *bob) NegotiateKey() (Report, error) {
	pairs, err := distributePairs(b.source, b.peer, b.numPairs, b.rand, b.basisFunc)
	if err != nil {
		return Report{}, err
	}
	b.log.Debug().Int("pairs", len(pairs)).Msg("distributed entangled pairs")
	m, err := b.sideChannel.recvAssured()
	if err != nil {
		return Report{}, errors.Wrap(err, "awaiting measurement completion")
	}
	if m.header != msgAllMeasured {
		return Report{}, desyncf("expected %q sentinel, got %q", msgAllMeasured, m.header)
	}
	if err := reconcileBases(b.sideChannel, pairs, false); err != nil {
		return Report{}, err
	}
	errRate, err := b.estimateErrorRate(pairs)
	if err != nil {
		return Report{}, err
	}
	b.log.Debug().Float64("error_rate", errRate).Msg("error estimation complete")
	report := buildReport(pairs, b.keyLength, b.sideChannel.stats)
	b.log.Info().
		Int("raw_key_bits", len(report.RawKey)).
		Float64("qber", report.QBER).
		Float64("key_rate_potential", report.KeyRatePotential).
		Msg("negotiation complete")
	return report, nil
}

// estimateErrorRate follows the initiator's test-set choice. Local outcomes
// are committed before the initiator's arrive; see the ordering note on the
// alice side.
func (b *bob) estimateErrorRate(pairs []Pair) (float64, error) {
	in, err := b.sideChannel.recv()
	if err != nil {
		return 0, errors.Wrap(err, "receiving test indices")
	}
	if in.header != headerTestIndices {
		return 0, desyncf("expected %q, got %q", headerTestIndices, in.header)
	}
	testIdx, err := parseIndices(in.payload)
	if err != nil {
		return 0, errors.Wrap(err, "parsing test indices")
	}
	for _, idx := range testIdx {
		if idx < 0 || idx >= len(pairs) {
			return 0, desyncf("test index %d outside pair range [0, %d)", idx, len(pairs))
		}
		if !pairs[idx].SameBasis {
			return 0, desyncf("test index %d refers to a basis-mismatched pair", idx)
		}
	}
	markTestPairs(pairs, testIdx)
	b.log.Debug().Ints("test_indices", testIdx).Msg("peer selected test bits")
	local := testOutcomes(pairs, testIdx)
	if err := b.sideChannel.send(&message{header: headerTestOutcomes, payload: indexedBitsPayload(local)}); err != nil {
		return 0, errors.Wrap(err, "announcing test outcomes")
	}
	in, err = b.sideChannel.recv()
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
	numErr, err := compareOutcomes(pairs, local, remote)
	if err != nil {
		return 0, err
	}
	if len(testIdx) == 0 {
		// No comparisons: assume the worst rather than divide by zero.
		return 1, nil
	}
	return float64(numErr) / float64(len(testIdx)), nil
}
