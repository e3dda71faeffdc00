package bt

import (
	"context"
	"fmt"
	"math"
)

// DistanceSensor computes the distance between two 2D points stored on the
// blackboard (src_x/src_y and dst_x/dst_y keys) and writes it to out.
type DistanceSensor struct {
	name string
	srcX string
	srcY string
	dstX string
	dstY string
	out  string
}

func NewDistanceSensor(name, srcX, srcY, dstX, dstY, out string) *DistanceSensor {
	return &DistanceSensor{name: name, srcX: srcX, srcY: srcY, dstX: dstX, dstY: dstY, out: out}
}

func (d *DistanceSensor) Name() string { return d.name }

func (d *DistanceSensor) Update(_ context.Context, bb Blackboard) error {
	x1, ok1 := getFloat(bb, d.srcX)
	y1, ok2 := getFloat(bb, d.srcY)
	x2, ok3 := getFloat(bb, d.dstX)
	y2, ok4 := getFloat(bb, d.dstY)
	if !(ok1 && ok2 && ok3 && ok4) {
		return fmt.Errorf("sensor %s: missing coordinates", d.name)
	}
	bb.Set(d.out, math.Hypot(x2-x1, y2-y1))
	return nil
}

// ThresholdSensor writes out = value(key) >= threshold.
type ThresholdSensor struct {
	name      string
	key       string
	threshold float64
	out       string
}

func NewThresholdSensor(name, key, out string, threshold float64) *ThresholdSensor {
	return &ThresholdSensor{name: name, key: key, threshold: threshold, out: out}
}

func (t *ThresholdSensor) Name() string { return t.name }

func (t *ThresholdSensor) Update(_ context.Context, bb Blackboard) error {
	v, ok := getFloat(bb, t.key)
	if !ok {
		return fmt.Errorf("sensor %s: key %s is not numeric", t.name, t.key)
	}
	bb.Set(t.out, v >= t.threshold)
	return nil
}

func getFloat(bb Blackboard, key string) (float64, bool) {
	v, ok := bb.Get(key)
	if !ok {
		return 0, false
	}
	switch tv := v.(type) {
	case float64:
		return tv, true
	case float32:
		return float64(tv), true
	case int:
		return float64(tv), true
	case int64:
		return float64(tv), true
	default:
		return 0, false
	}
}

// RegisterSensors registers the built-in sensor factories.
func RegisterSensors(r *Registry) {
	r.RegisterSensor("Distance", func(params map[string]any) (Sensor, error) {
		var p struct {
			SrcX string `mapstructure:"src_x"`
			SrcY string `mapstructure:"src_y"`
			DstX string `mapstructure:"dst_x"`
			DstY string `mapstructure:"dst_y"`
			Out  string `mapstructure:"out"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.SrcX == "" || p.SrcY == "" || p.DstX == "" || p.DstY == "" || p.Out == "" {
			return nil, fmt.Errorf("%w: Distance requires src_x, src_y, dst_x, dst_y, out", ErrBadParams)
		}
		return NewDistanceSensor("Distance", p.SrcX, p.SrcY, p.DstX, p.DstY, p.Out), nil
	})

	r.RegisterSensor("Threshold", func(params map[string]any) (Sensor, error) {
		var p struct {
			Key       string  `mapstructure:"key"`
			Threshold float64 `mapstructure:"threshold"`
			Out       string  `mapstructure:"out"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Key == "" || p.Out == "" {
			return nil, fmt.Errorf("%w: Threshold requires key, out", ErrBadParams)
		}
		return NewThresholdSensor("Threshold", p.Key, p.Out, p.Threshold), nil
	})
}
