package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuiteAdd(t *testing.T) {
	s := NewSuite()

	require.NoError(t, s.Add(TestCase{
		ID:  "t.S.One",
		Run: func(ctx context.Context) error { return nil },
	}))
	assert.Equal(t, 1, s.Len())

	err := s.Add(TestCase{
		ID:  "t.S.One",
		Run: func(ctx context.Context) error { return nil },
	})
	assert.Error(t, err, "duplicate identifier")

	assert.Error(t, s.Add(TestCase{Run: func(ctx context.Context) error { return nil }}), "empty identifier")
	assert.Error(t, s.Add(TestCase{ID: "t.S.NoBody"}), "missing body")

	// A skipped case needs no body.
	assert.NoError(t, s.Add(TestCase{ID: "t.S.SkippedStub", Skip: true}))
}

func TestSuiteCasesAreCopies(t *testing.T) {
	s := NewSuite()
	s.MustAdd(TestCase{ID: "t.S.One", Run: func(ctx context.Context) error { return nil }})

	cases := s.Cases()
	cases[0] = nil
	require.NotNil(t, s.Cases()[0])
}

func TestSuiteMustAddPanics(t *testing.T) {
	s := NewSuite()
	assert.Panics(t, func() {
		s.MustAdd(TestCase{})
	})
}
