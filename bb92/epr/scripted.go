package epr

import "github.com/pkg/errors"

// A Scripted is a deterministic Source for protocol-logic tests: pair i
// measures to Outcomes[i] regardless of basis. It still enforces the
// synchronization barrier, so tests exercise the same ordering constraints
// as a real backend.
type Scripted struct {
	Outcomes []byte

	next     int
	unsynced []*scriptedQubit
}

// CreateEntangledPair implements the Source interface.
func (s *Scripted) CreateEntangledPair(string) (Qubit, error) {
	if s.next >= len(s.Outcomes) {
		return nil, errors.Errorf("outcome script exhausted after %d pairs", s.next)
	}
	q := &scriptedQubit{bit: s.Outcomes[s.next]}
	s.next++
	s.unsynced = append(s.unsynced, q)
	return q, nil
}

// Synchronize implements the Source interface.
func (s *Scripted) Synchronize() error {
	for _, q := range s.unsynced {
		q.synced = true
	}
	s.unsynced = nil
	return nil
}

type scriptedQubit struct {
	bit    byte
	synced bool
}

func (q *scriptedQubit) ApplyBasisRotation() error { return nil }

func (q *scriptedQubit) Measure() (byte, error) {
	if !q.synced {
		return 0, errors.New("measuring qubit before synchronization barrier")
	}
	return q.bit, nil
}
