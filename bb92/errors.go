package bb92

import "github.com/pkg/errors"

// ErrProtocolDesync indicates that the local and peer views of the pair
// sequence have diverged: misaligned index lists, an unexpected sentinel, or
// a test index referring to a pair that cannot legally be tested. It marks a
// broken channel or peer implementation, not a transient condition, and
// aborts the run.
var ErrProtocolDesync = errors.New("protocol desync")

// ErrAckExhausted indicates that an assured send dropped its full budget of
// unexpected messages without ever observing an acknowledgment.
var ErrAckExhausted = errors.New("ack discard budget exhausted")

func desyncf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrProtocolDesync, format, args...)
}
