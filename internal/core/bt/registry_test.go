package bt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exprTickContext(bb Blackboard) *TickContext {
	return &TickContext{Ctx: context.Background(), BB: bb}
}

func TestExprConditionEvaluatesBlackboard(t *testing.T) {
	r := testRegistry()
	bb := NewBlackboard()
	bb.Set("enemies", 2)
	bb.Set("is_loading", false)

	eval, err := r.NewCondition("Expr", map[string]any{"expr": "enemies > 1 && !is_loading"})
	require.NoError(t, err)
	assert.True(t, eval(exprTickContext(bb)))

	eval, err = r.NewCondition("Expr", map[string]any{"expr": "enemies > 5"})
	require.NoError(t, err)
	assert.False(t, eval(exprTickContext(bb)))
}

func TestExprConditionErrorsReadAsFalse(t *testing.T) {
	r := testRegistry()
	eval, err := r.NewCondition("Expr", map[string]any{"expr": "missing_key > 1"})
	require.NoError(t, err)
	assert.False(t, eval(exprTickContext(NewBlackboard())))
}

func TestExprConditionCompileErrors(t *testing.T) {
	r := testRegistry()
	_, err := r.NewCondition("Expr", map[string]any{"expr": "1 +"})
	require.ErrorIs(t, err, ErrBadParams)

	_, err = r.NewCondition("Expr", map[string]any{})
	require.ErrorIs(t, err, ErrBadParams)
}

func TestSetActionWritesExpressionResult(t *testing.T) {
	r := testRegistry()
	bb := NewBlackboard()
	bb.Set("leader_x", 10.0)
	bb.Set("offset_x", 2.5)

	work, err := r.NewAction("Set", map[string]any{"key": "formation_x", "expr": "leader_x + offset_x"})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, work(exprTickContext(bb)))

	v, ok := bb.Get("formation_x")
	require.True(t, ok)
	assert.Equal(t, 12.5, v)
}

func TestSetActionRuntimeErrorFails(t *testing.T) {
	r := testRegistry()
	work, err := r.NewAction("Set", map[string]any{"key": "out", "expr": "missing + 1"})
	require.NoError(t, err)

	bb := NewBlackboard()
	require.Equal(t, StatusFailure, work(exprTickContext(bb)))
	_, ok := bb.Get("out")
	assert.False(t, ok)
}

func TestStubFactories(t *testing.T) {
	r := testRegistry()

	eval, err := r.NewCondition("Stub", map[string]any{"result": true})
	require.NoError(t, err)
	assert.True(t, eval(exprTickContext(NewBlackboard())))

	work, err := r.NewAction("Stub", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, work(exprTickContext(NewBlackboard())))

	work, err = r.NewAction("Stub", map[string]any{"status": "failure"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, work(exprTickContext(NewBlackboard())))

	_, err = r.NewAction("Stub", map[string]any{"status": "sideways"})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestIsTrueRequiresKey(t *testing.T) {
	r := testRegistry()
	_, err := r.NewCondition("IsTrue", nil)
	require.ErrorIs(t, err, ErrBadParams)

	eval, err := r.NewCondition("IsTrue", map[string]any{"key": "armed"})
	require.NoError(t, err)

	bb := NewBlackboard()
	assert.False(t, eval(exprTickContext(bb)))
	bb.Set("armed", "yes") // non-bool reads as false
	assert.False(t, eval(exprTickContext(bb)))
	bb.Set("armed", true)
	assert.True(t, eval(exprTickContext(bb)))
}

func TestRegistryUnknownNames(t *testing.T) {
	r := NewRegistry()
	_, err := r.NewCondition("Nope", nil)
	require.ErrorIs(t, err, ErrUnknownCondition)
	_, err = r.NewAction("Nope", nil)
	require.ErrorIs(t, err, ErrUnknownAction)
	_, err = r.NewSensor("Nope", nil)
	require.ErrorIs(t, err, ErrUnknownSensor)
}

func TestRegistryCustomOverridesBuiltin(t *testing.T) {
	r := testRegistry()
	r.RegisterAction("Noop", func(map[string]any) (func(*TickContext) Status, error) {
		return func(*TickContext) Status { return StatusRunning }, nil
	})
	work, err := r.NewAction("Noop", nil)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, work(exprTickContext(NewBlackboard())))
}
