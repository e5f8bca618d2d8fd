package epr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScriptedOutcomes(t *testing.T) {
	s := &Scripted{Outcomes: []byte{0, 1, 1}}
	for _, want := range []byte{0, 1, 1} {
		q, err := s.CreateEntangledPair("bob")
		require.NoError(t, err)
		require.NoError(t, s.Synchronize())
		bit, err := q.Measure()
		require.NoError(t, err)
		require.Equal(t, want, bit)
	}
}

func TestScriptedExhaustion(t *testing.T) {
	s := &Scripted{Outcomes: []byte{1}}
	_, err := s.CreateEntangledPair("bob")
	require.NoError(t, err)
	_, err = s.CreateEntangledPair("bob")
	require.Error(t, err)
}

func TestScriptedEnforcesBarrier(t *testing.T) {
	s := &Scripted{Outcomes: []byte{1}}
	q, err := s.CreateEntangledPair("bob")
	require.NoError(t, err)
	_, err = q.Measure()
	require.Error(t, err)
	require.NoError(t, s.Synchronize())
	bit, err := q.Measure()
	require.NoError(t, err)
	require.Equal(t, byte(1), bit)
}
