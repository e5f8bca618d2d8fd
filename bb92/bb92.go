// Package bb92 negotiates a shared raw key between two parties using a
// BB92-style entanglement-based QKD protocol: EPR pair distribution, basis
// reconciliation, statistical error-rate estimation and raw-key extraction.
// Error correction and privacy amplification are left to higher layers, and
// the classical channel is assumed authenticated.
package bb92

import (
	"io"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/entanglab/bb92/bb92/epr"
)

var (
	DefaultNumPairs         = 144
	DefaultKeyLength        = 16
	DefaultAckDiscardBudget = 8
)

// Stats packages together counters describing classical-channel traffic
// during a key negotiation.
type Stats struct {
	MessagesSent     int
	MessagesReceived int
	BytesSent        int
	BytesRead        int
}

// A Peer represents one of the two legitimate participants in a BB92 key
// negotiation.
type Peer interface {
	// NegotiateKey performs one full protocol run: pair distribution, basis
	// reconciliation, error estimation and raw-key extraction.
	NegotiateKey() (Report, error)
}

// A PeerOpts packages together the arguments necessary to construct a new
// Peer. Source, ClassicalChannel and Rand have no reasonable defaults, and
// leaving them unset will result in NewPeer returning an error.
type PeerOpts struct {
	// Source produces local halves of entangled pairs shared with the peer.
	// Must be non-nil.
	Source epr.Source

	// ClassicalChannel carries the protocol's classical messages. It is
	// assumed authenticated; it need not be private. Must be non-nil.
	ClassicalChannel io.ReadWriter

	// Rand drives basis selection and test-bit sampling. This may use pRNG
	// for experiments and/or testing, but for unconditional security it must
	// be truly random. Must be non-nil.
	Rand *rand.Rand

	// Logger receives protocol progress. Defaults to a no-op logger.
	Logger *zerolog.Logger

	// PeerName identifies the remote party to the entanglement source.
	PeerName string

	// Initiator selects which side drives the protocol. The initiator emits
	// the measurement-complete sentinel, announces its bases first, and
	// chooses which pairs are sacrificed for error estimation.
	Initiator bool

	// NumPairs is the number of entangled pairs to distribute per call to
	// NegotiateKey. Defaults to DefaultNumPairs.
	NumPairs int

	// KeyLength bounds the negotiated secret key, in bits. Defaults to
	// DefaultKeyLength.
	KeyLength int

	// TestBits is the number of basis-matched pairs sacrificed to estimate
	// the error rate. Defaults to max(NumPairs/4, 1).
	TestBits int

	// AckDiscardBudget bounds how many unexpected messages an assured send
	// may drop while awaiting acknowledgment before giving up. Defaults to
	// DefaultAckDiscardBudget.
	AckDiscardBudget int
}

// NewPeer returns a new Peer, configured in accordance with opts, or an
// error if the options are nonsensical.
func NewPeer(opts PeerOpts) (Peer, error) {
	if opts.Source == nil {
		return nil, errors.New("must provide Source")
	}
	if opts.ClassicalChannel == nil {
		return nil, errors.New("must provide ClassicalChannel")
	}
	if opts.Rand == nil {
		return nil, errors.New("must provide Rand")
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	numPairs := opts.NumPairs
	if numPairs == 0 {
		numPairs = DefaultNumPairs
	}
	if numPairs < 0 {
		return nil, errors.Errorf("invalid pair count %d", numPairs)
	}
	keyLength := opts.KeyLength
	if keyLength == 0 {
		keyLength = DefaultKeyLength
	}
	if keyLength < 0 {
		return nil, errors.Errorf("invalid key length %d", keyLength)
	}
	testBits := opts.TestBits
	if testBits == 0 {
		testBits = numPairs / 4
		if testBits < 1 {
			testBits = 1
		}
	}
	budget := opts.AckDiscardBudget
	if budget == 0 {
		budget = DefaultAckDiscardBudget
	}
	ch := newSideChannel(opts.ClassicalChannel, log, budget)
	if opts.Initiator {
		return &alice{
			source:      opts.Source,
			sideChannel: ch,
			rand:        opts.Rand,
			log:         log,
			peer:        opts.PeerName,
			numPairs:    numPairs,
			keyLength:   keyLength,
			testBits:    testBits,
		}, nil
	}
	return &bob{
		source:      opts.Source,
		sideChannel: ch,
		rand:        opts.Rand,
		log:         log,
		peer:        opts.PeerName,
		numPairs:    numPairs,
		keyLength:   keyLength,
	}, nil
}
