package bb92

// A Basis identifies the measurement basis used for one half of an entangled
// pair.
type Basis int

const (
	BasisZ Basis = iota
	BasisX
)

func (b Basis) String() string {
	if b == BasisX {
		return "X"
	}
	return "Z"
}

// A Pair records everything one party knows about a single attempted
// entangled-pair exchange. Fields are filled in progressively as the
// protocol advances.
type Pair struct {
	// Index in the list of all generated pairs. Indices form a contiguous
	// range [0, n) shared identically by both parties.
	Index int

	// Basis this party measured in.
	Basis Basis

	// Outcome is the local measurement result, 0 or 1.
	Outcome byte

	// SameBasis reports whether the peer measured in the same basis. Valid
	// after basis reconciliation.
	SameBasis bool

	// IsTest reports whether this pair was sampled for error estimation.
	// Only meaningful for basis-matched pairs.
	IsTest bool

	// OutcomesMatch reports whether the peer observed the same outcome.
	// Only meaningful for tested pairs.
	OutcomesMatch bool
}

// rawKey selects the raw key: outcomes of all basis-matched, untested pairs
// in ascending index order.
func rawKey(pairs []Pair) []byte {
	var key []byte
	for _, p := range pairs {
		if p.SameBasis && !p.IsTest {
			key = append(key, p.Outcome)
		}
	}
	return key
}
