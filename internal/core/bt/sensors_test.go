package bt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceSensorComputesHypot(t *testing.T) {
	bb := NewBlackboard()
	bb.Set("self_x", 0.0)
	bb.Set("self_y", 0.0)
	bb.Set("enemy_x", 3)
	bb.Set("enemy_y", 4.0)

	s := NewDistanceSensor("radar", "self_x", "self_y", "enemy_x", "enemy_y", "enemy_distance")
	require.NoError(t, s.Update(context.Background(), bb))

	v, ok := bb.Get("enemy_distance")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
}

func TestDistanceSensorMissingCoordinates(t *testing.T) {
	bb := NewBlackboard()
	bb.Set("self_x", 1.0)

	s := NewDistanceSensor("radar", "self_x", "self_y", "enemy_x", "enemy_y", "out")
	err := s.Update(context.Background(), bb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing coordinates")
	_, ok := bb.Get("out")
	assert.False(t, ok)
}

func TestThresholdSensorFlagsAtBoundary(t *testing.T) {
	bb := NewBlackboard()
	s := NewThresholdSensor("shock", "damage", "retreating", 60)

	bb.Set("damage", 59.9)
	require.NoError(t, s.Update(context.Background(), bb))
	v, _ := bb.Get("retreating")
	assert.Equal(t, false, v)

	bb.Set("damage", 60) // ints convert
	require.NoError(t, s.Update(context.Background(), bb))
	v, _ = bb.Get("retreating")
	assert.Equal(t, true, v)

	bb.Set("damage", "high")
	require.Error(t, s.Update(context.Background(), bb))
}

func TestSensorFactories(t *testing.T) {
	r := NewRegistry()
	RegisterSensors(r)

	s, err := r.NewSensor("Distance", map[string]any{
		"src_x": "ax", "src_y": "ay", "dst_x": "bx", "dst_y": "by", "out": "d",
	})
	require.NoError(t, err)

	bb := NewBlackboard()
	bb.Set("ax", 0.0)
	bb.Set("ay", 0.0)
	bb.Set("bx", 6.0)
	bb.Set("by", 8.0)
	require.NoError(t, s.Update(context.Background(), bb))
	v, _ := bb.Get("d")
	assert.Equal(t, 10.0, v)

	_, err = r.NewSensor("Distance", map[string]any{"out": "d"})
	require.ErrorIs(t, err, ErrBadParams)

	_, err = r.NewSensor("Threshold", map[string]any{"key": "k"})
	require.ErrorIs(t, err, ErrBadParams)
}
