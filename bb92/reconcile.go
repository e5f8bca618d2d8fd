package bb92

import "github.com/pkg/errors"

// reconcileBases exchanges basis announcements with the peer and annotates
// each pair with whether the bases matched. sendFirst breaks the
// send/receive symmetry so that two parties on an unbuffered transport
// cannot deadlock: the initiator announces first, the responder receives
// first. The two announcements must be index-aligned element-wise; any
// misalignment is a fatal desync, not a recoverable condition.
func reconcileBases(c *sideChannel, pairs []Pair, sendFirst bool) error {
	local := make([]indexedBit, len(pairs))
	for i, p := range pairs {
		local[i] = indexedBit{index: p.Index, value: byte(p.Basis)}
	}
	out := &message{header: headerBases, payload: indexedBitsPayload(local)}
	var in *message
	var err error
	if sendFirst {
		if err = c.send(out); err != nil {
			return errors.Wrap(err, "announcing bases")
		}
		if in, err = c.recv(); err != nil {
			return errors.Wrap(err, "receiving peer bases")
		}
	} else {
		if in, err = c.recv(); err != nil {
			return errors.Wrap(err, "receiving peer bases")
		}
		if err = c.send(out); err != nil {
			return errors.Wrap(err, "announcing bases")
		}
	}
	if in.header != headerBases {
		return desyncf("expected %q announcement, got %q", headerBases, in.header)
	}
	remote, err := parseIndexedBits(in.payload)
	if err != nil {
		return errors.Wrap(err, "parsing peer bases")
	}
	if len(remote) != len(pairs) {
		return desyncf("basis list length mismatch: local %d, peer %d", len(pairs), len(remote))
	}
	for i := range pairs {
		if remote[i].index != pairs[i].Index {
			return desyncf("basis list misaligned at position %d: local index %d, peer index %d",
				i, pairs[i].Index, remote[i].index)
		}
		pairs[i].SameBasis = Basis(remote[i].value) == pairs[i].Basis
	}
	return nil
}
