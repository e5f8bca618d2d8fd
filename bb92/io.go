package bb92

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// A sideChannel reads and writes framed structured messages on the classical
// channel. The structure of the frame is trivial: body-length | body, where
// the body is a marshalled struct proto. The bufio.Reader is owned by this
// instance and splits batched transport reads back into individual logical
// messages, in FIFO order.
type sideChannel struct {
	w   io.Writer
	r   *bufio.Reader
	log zerolog.Logger

	// maxAckDiscards bounds how many non-ACK messages sendAssured drops
	// while waiting for an acknowledgment.
	maxAckDiscards int

	stats Stats
}

func newSideChannel(rw io.ReadWriter, log zerolog.Logger, maxAckDiscards int) *sideChannel {
	return &sideChannel{
		w:              rw,
		r:              bufio.NewReader(rw),
		log:            log,
		maxAckDiscards: maxAckDiscards,
	}
}

// send delivers exactly one logical message.
func (c *sideChannel) send(m *message) error {
	body, err := proto.Marshal(m.toProto())
	if err != nil {
		return errors.Wrap(err, "marshalling message")
	}
	if err := binary.Write(c.w, binary.LittleEndian, int32(len(body))); err != nil {
		return errors.Wrap(err, "writing frame length")
	}
	if _, err := c.w.Write(body); err != nil {
		return errors.Wrap(err, "writing frame body")
	}
	c.stats.MessagesSent++
	c.stats.BytesSent += len(body) + 4
	c.log.Debug().Str("header", m.header).Msg("sent message")
	return nil
}

// recv returns exactly one logical message, blocking until one arrives.
func (c *sideChannel) recv() (*message, error) {
	var bodyLen int32
	if err := binary.Read(c.r, binary.LittleEndian, &bodyLen); err != nil {
		return nil, errors.Wrap(err, "reading frame length")
	}
	if bodyLen < 0 {
		return nil, errors.Errorf("invalid frame length %d", bodyLen)
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(c.r, body); err != nil {
		return nil, errors.Wrap(err, "reading frame body")
	}
	s := new(structpb.Struct)
	if err := proto.Unmarshal(body, s); err != nil {
		return nil, errors.Wrap(err, "unmarshalling message")
	}
	m, err := messageFromProto(s)
	if err != nil {
		return nil, err
	}
	c.stats.MessagesReceived++
	c.stats.BytesRead += len(body) + 4
	c.log.Debug().Str("header", m.header).Msg("received message")
	return m, nil
}

// sendAssured delivers m and blocks until the peer acknowledges it. Any other
// message observed while waiting is dropped: nothing in the protocol can
// legally interleave with the ack window, so a non-ACK here is already
// suspect. Dropping more than the discard budget fails with ErrAckExhausted
// rather than spinning forever.
func (c *sideChannel) sendAssured(m *message) error {
	if err := c.send(m); err != nil {
		return err
	}
	for discarded := 0; ; discarded++ {
		got, err := c.recv()
		if err != nil {
			return err
		}
		if got.header == msgAck {
			return nil
		}
		if discarded >= c.maxAckDiscards {
			return errors.Wrapf(ErrAckExhausted, "dropped %d messages awaiting ack", discarded+1)
		}
		c.log.Warn().Str("header", got.header).Msg("dropping message while awaiting ack")
	}
}

// recvAssured receives one message and synchronously acknowledges it.
func (c *sideChannel) recvAssured() (*message, error) {
	m, err := c.recv()
	if err != nil {
		return nil, err
	}
	if err := c.send(&message{header: msgAck}); err != nil {
		return nil, errors.Wrap(err, "acknowledging message")
	}
	return m, nil
}
