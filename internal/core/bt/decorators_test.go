package bt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInverter(t *testing.T) {
	var n int
	tree := New("t", NewInverter("Not", countedCondition("C", true, &n)))
	require.Equal(t, StatusFailure, tree.Tick(context.Background()))

	tree = New("t", NewInverter("Not", countedCondition("C", false, &n)))
	require.Equal(t, StatusSuccess, tree.Tick(context.Background()))

	tree = New("t", NewInverter("Not", scriptedAction("A", StatusRunning)))
	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
}

func TestSucceeder(t *testing.T) {
	var n int
	tree := New("t", NewSucceeder("Always", countedAction("A", StatusFailure, &n)))
	require.Equal(t, StatusSuccess, tree.Tick(context.Background()))

	tree = New("t", NewSucceeder("Always", scriptedAction("A", StatusRunning, StatusFailure)))
	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
	require.Equal(t, StatusSuccess, tree.Tick(context.Background()))
}

func TestRepeatCountsChildCompletions(t *testing.T) {
	var n int
	rep := NewRepeat("Thrice", 3, countedAction("A", StatusSuccess, &n))
	tree := New("t", rep)

	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
	require.Equal(t, StatusSuccess, tree.Tick(context.Background()))
	require.Equal(t, 3, n)

	// The counter rewound; the next pass needs three completions again.
	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
	require.Equal(t, 4, n)
}

func TestRepeatChildFailureResetsCounter(t *testing.T) {
	rep := NewRepeat("Twice", 2, scriptedAction("A", StatusSuccess, StatusFailure, StatusSuccess))
	tree := New("t", rep)

	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
	require.Equal(t, StatusFailure, tree.Tick(context.Background()))

	// Back to zero completions: one success is not enough.
	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
}

func TestRepeatRunningChildPassesThrough(t *testing.T) {
	rep := NewRepeat("Twice", 2, scriptedAction("A", StatusRunning, StatusSuccess, StatusSuccess))
	tree := New("t", rep)

	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
	require.Equal(t, StatusSuccess, tree.Tick(context.Background()))
}

func TestCooldownGatesAfterCompletion(t *testing.T) {
	clock := newManualClock()
	var n int
	cd := NewCooldown("Gate", 100*time.Millisecond, countedAction("A", StatusSuccess, &n))
	tree := New("t", cd, WithClock(clock.Now))

	require.Equal(t, StatusSuccess, tree.Tick(context.Background()))
	require.Equal(t, 1, n)

	// Within the window the child is not consulted at all.
	clock.Advance(50 * time.Millisecond)
	require.Equal(t, StatusFailure, tree.Tick(context.Background()))
	require.Equal(t, 1, n)

	clock.Advance(100 * time.Millisecond)
	require.Equal(t, StatusSuccess, tree.Tick(context.Background()))
	require.Equal(t, 2, n)
}

func TestCooldownNotArmedByRunningChild(t *testing.T) {
	clock := newManualClock()
	cd := NewCooldown("Gate", time.Minute, scriptedAction("A", StatusRunning, StatusSuccess, StatusSuccess))
	tree := New("t", cd, WithClock(clock.Now))

	require.Equal(t, StatusRunning, tree.Tick(context.Background()))
	// Still running, no gate yet.
	require.Equal(t, StatusSuccess, tree.Tick(context.Background()))
	// Completed: now the gate is armed.
	require.Equal(t, StatusFailure, tree.Tick(context.Background()))
}

func TestDecoratorConstructorsRejectNilChild(t *testing.T) {
	require.Panics(t, func() { NewInverter("X", nil) })
	require.Panics(t, func() { NewSucceeder("X", nil) })
	require.Panics(t, func() { NewRepeat("X", 2, nil) })
	require.Panics(t, func() { NewCooldown("X", time.Second, nil) })
}
