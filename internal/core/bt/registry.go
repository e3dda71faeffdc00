package bt

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/mitchellh/mapstructure"
)

// ConditionFactory builds a condition predicate from config params.
type ConditionFactory func(params map[string]any) (func(*TickContext) bool, error)

// ActionFactory builds an action work func from config params.
type ActionFactory func(params map[string]any) (func(*TickContext) Status, error)

// SensorFactory builds a sensor from config params.
type SensorFactory func(params map[string]any) (Sensor, error)

// Registry maps leaf and sensor names to factories, decoupling tree configs
// from concrete implementations. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	conds map[string]ConditionFactory
	acts  map[string]ActionFactory
	sens  map[string]SensorFactory
}

func NewRegistry() *Registry {
	return &Registry{
		conds: make(map[string]ConditionFactory),
		acts:  make(map[string]ActionFactory),
		sens:  make(map[string]SensorFactory),
	}
}

func (r *Registry) RegisterCondition(name string, f ConditionFactory) {
	r.mu.Lock()
	r.conds[name] = f
	r.mu.Unlock()
}

func (r *Registry) RegisterAction(name string, f ActionFactory) {
	r.mu.Lock()
	r.acts[name] = f
	r.mu.Unlock()
}

func (r *Registry) RegisterSensor(name string, f SensorFactory) {
	r.mu.Lock()
	r.sens[name] = f
	r.mu.Unlock()
}

func (r *Registry) NewCondition(name string, params map[string]any) (func(*TickContext) bool, error) {
	r.mu.RLock()
	f := r.conds[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCondition, name)
	}
	return f(params)
}

func (r *Registry) NewAction(name string, params map[string]any) (func(*TickContext) Status, error) {
	r.mu.RLock()
	f := r.acts[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	return f(params)
}

func (r *Registry) NewSensor(name string, params map[string]any) (Sensor, error) {
	r.mu.RLock()
	f := r.sens[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSensor, name)
	}
	return f(params)
}

// decodeParams fills a typed param struct from the free-form config map.
// Weak typing lets JSON numbers (float64) land in int fields.
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadParams, err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("%w: %v", ErrBadParams, err)
	}
	return nil
}

// RegisterBuiltins registers the reusable leaves every config can rely on.
func RegisterBuiltins(r *Registry) {
	// Stub yields a fixed result here; the loader builds config stubs
	// itself so they can also be overridden per node id at runtime.
	r.RegisterCondition("Stub", func(params map[string]any) (func(*TickContext) bool, error) {
		var p struct {
			Result bool `mapstructure:"result"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return func(*TickContext) bool { return p.Result }, nil
	})

	r.RegisterCondition("IsTrue", func(params map[string]any) (func(*TickContext) bool, error) {
		var p struct {
			Key string `mapstructure:"key"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Key == "" {
			return nil, fmt.Errorf("%w: IsTrue requires 'key'", ErrBadParams)
		}
		return func(tc *TickContext) bool {
			v, ok := tc.BB.Get(p.Key)
			if !ok {
				return false
			}
			b, ok := v.(bool)
			return ok && b
		}, nil
	})

	// Expr evaluates an expression against the blackboard contents, e.g.
	// "enemies_in_range > 0 && !is_loading". Evaluation errors (including
	// comparisons against absent keys) read as false.
	r.RegisterCondition("Expr", func(params map[string]any) (func(*TickContext) bool, error) {
		var p struct {
			Expr string `mapstructure:"expr"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Expr == "" {
			return nil, fmt.Errorf("%w: Expr requires 'expr'", ErrBadParams)
		}
		prog, err := expr.Compile(p.Expr, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadParams, err)
		}
		return func(tc *TickContext) bool {
			out, err := expr.Run(prog, tc.BB.Dump())
			if err != nil {
				return false
			}
			b, _ := out.(bool)
			return b
		}, nil
	})

	r.RegisterAction("Stub", func(params map[string]any) (func(*TickContext) Status, error) {
		var p struct {
			Status string `mapstructure:"status"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		st := StatusSuccess
		if p.Status != "" {
			var err error
			if st, err = ParseStatus(p.Status); err != nil {
				return nil, err
			}
		}
		return func(*TickContext) Status { return st }, nil
	})

	r.RegisterAction("SetBool", func(params map[string]any) (func(*TickContext) Status, error) {
		var p struct {
			Key   string `mapstructure:"key"`
			Value bool   `mapstructure:"value"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Key == "" {
			return nil, fmt.Errorf("%w: SetBool requires 'key'", ErrBadParams)
		}
		return func(tc *TickContext) Status {
			tc.BB.Set(p.Key, p.Value)
			return StatusSuccess
		}, nil
	})

	// Set writes the value of an expression to a blackboard key, e.g.
	// key: formation_x, expr: "leader_x + offset_x".
	r.RegisterAction("Set", func(params map[string]any) (func(*TickContext) Status, error) {
		var p struct {
			Key  string `mapstructure:"key"`
			Expr string `mapstructure:"expr"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		if p.Key == "" || p.Expr == "" {
			return nil, fmt.Errorf("%w: Set requires 'key' and 'expr'", ErrBadParams)
		}
		prog, err := expr.Compile(p.Expr, expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadParams, err)
		}
		return func(tc *TickContext) Status {
			out, err := expr.Run(prog, tc.BB.Dump())
			if err != nil {
				return StatusFailure
			}
			tc.BB.Set(p.Key, out)
			return StatusSuccess
		}, nil
	})

	r.RegisterAction("Noop", func(map[string]any) (func(*TickContext) Status, error) {
		return func(*TickContext) Status { return StatusSuccess }, nil
	})
}
