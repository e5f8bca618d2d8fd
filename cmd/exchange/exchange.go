// exchange runs a complete two-party BB92 key negotiation in-process, using
// a simulated entanglement link and a net.Pipe classical channel, prints the
// initiator's report, and verifies that both parties derived the same raw
// key.
package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"net"
	"os"

	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/entanglab/bb92/bb92"
	"github.com/entanglab/bb92/bb92/epr"
)

var (
	configPath = flag.String("config", "", "Path to a TOML config file.")
	pairs      = flag.Int("pairs", bb92.DefaultNumPairs, "The number of entangled pairs to distribute.")
	keyLength  = flag.Int("key-length", bb92.DefaultKeyLength, "The maximum secret key length, in bits.")
	testBits   = flag.Int("test-bits", 0, "The number of pairs sacrificed for error estimation. Defaults to a quarter of the pairs.")
	errProb    = flag.Float64("err-prob", 0, "The probability of a simulated measurement error on Bob's side.")
	seed       = flag.Int64("seed", 42, "The seed for the simulated link and both parties' sampling.")
	verbose    = flag.BoolP("verbose", "v", false, "Enable debug logging.")
)

type negotiationResult struct {
	report bb92.Report
	err    error
}

func main() {
	flag.Parse()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().Level(zerolog.InfoLevel)
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	cfg, err := resolveConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("resolving config")
	}

	l, r := net.Pipe()
	srcA, srcB := epr.NewLink(epr.LinkOpts{
		NameA:   "alice",
		NameB:   "bob",
		Rand:    rand.New(rand.NewSource(cfg.Seed)),
		ErrProb: cfg.ErrProb,
	})
	aliceLog := log.With().Str("party", "alice").Logger()
	bobLog := log.With().Str("party", "bob").Logger()
	a, err := bb92.NewPeer(bb92.PeerOpts{
		Source:           srcA,
		ClassicalChannel: l,
		Rand:             rand.New(rand.NewSource(cfg.Seed + 1)),
		Logger:           &aliceLog,
		PeerName:         "bob",
		Initiator:        true,
		NumPairs:         cfg.Pairs,
		KeyLength:        cfg.KeyLength,
		TestBits:         cfg.TestBits,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("building alice")
	}
	b, err := bb92.NewPeer(bb92.PeerOpts{
		Source:           srcB,
		ClassicalChannel: r,
		Rand:             rand.New(rand.NewSource(cfg.Seed + 2)),
		Logger:           &bobLog,
		PeerName:         "alice",
		NumPairs:         cfg.Pairs,
		KeyLength:        cfg.KeyLength,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("building bob")
	}

	aResCh := make(chan negotiationResult, 1)
	bResCh := make(chan negotiationResult, 1)
	go func() {
		rep, err := a.NegotiateKey()
		aResCh <- negotiationResult{rep, err}
	}()
	go func() {
		rep, err := b.NegotiateKey()
		bResCh <- negotiationResult{rep, err}
	}()
	aRes := <-aResCh
	bRes := <-bResCh
	if aRes.err != nil {
		log.Fatal().Err(aRes.err).Msg("alice negotiation failed")
	}
	if bRes.err != nil {
		log.Fatal().Err(bRes.err).Msg("bob negotiation failed")
	}

	fmt.Print(aRes.report.Render())
	if !bytes.Equal(aRes.report.RawKey, bRes.report.RawKey) {
		log.Fatal().Msg("parties disagree on the raw key")
	}
	log.Info().
		Int("raw_key_bits", len(aRes.report.RawKey)).
		Msg("parties agree on the raw key")
}

// resolveConfig layers flag defaults, the optional config file, and explicit
// flag overrides, in that order.
func resolveConfig() (runConfig, error) {
	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath, cfg)
		if err != nil {
			return runConfig{}, err
		}
		cfg = loaded
	}
	if flag.CommandLine.Changed("pairs") {
		cfg.Pairs = *pairs
	}
	if flag.CommandLine.Changed("key-length") {
		cfg.KeyLength = *keyLength
	}
	if flag.CommandLine.Changed("test-bits") {
		cfg.TestBits = *testBits
	}
	if flag.CommandLine.Changed("err-prob") {
		cfg.ErrProb = *errProb
	}
	if flag.CommandLine.Changed("seed") {
		cfg.Seed = *seed
	}
	if err := validateConfig(cfg); err != nil {
		return runConfig{}, err
	}
	return cfg, nil
}
