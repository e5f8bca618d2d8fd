// Package epr models the quantum-processor collaborator that establishes
// entangled pairs between two parties. Protocol logic depends only on the
// Source interface, so tests can substitute deterministic implementations
// and a real deployment can plug in an actual quantum backend.
package epr

// A Qubit is a handle to the local half of one entangled pair.
type Qubit interface {
	// ApplyBasisRotation rotates the qubit from the Z basis into the X basis
	// ahead of measurement.
	ApplyBasisRotation() error

	// Measure collapses the qubit and returns the classical outcome, 0 or 1.
	// A qubit may only be measured after a Synchronize barrier has
	// guaranteed the peer's access to its half of the pair.
	Measure() (byte, error)
}

// A Source establishes entangled pairs with a named peer.
type Source interface {
	// CreateEntangledPair establishes one EPR pair with the peer and returns
	// the local half. Blocks until the pair exists on both ends.
	CreateEntangledPair(peer string) (Qubit, error)

	// Synchronize flushes pending quantum operations and blocks until their
	// effects, including the peer's access to its pair halves, are
	// guaranteed visible. It is an ordering barrier, not an asynchronous
	// future.
	Synchronize() error
}
