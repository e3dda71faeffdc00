package bt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the declarative form of a tree. Node ids double as node names,
// so sibling ids must be unique for paths to stay unambiguous.
type Config struct {
	Name    string                `yaml:"name" json:"name"`
	Root    string                `yaml:"root" json:"root"`
	Nodes   map[string]ConfigNode `yaml:"nodes" json:"nodes"`
	Sensors []ConfigSensor        `yaml:"sensors,omitempty" json:"sensors,omitempty"`
}

type ConfigNode struct {
	Type      string         `yaml:"type" json:"type"`
	Children  []string       `yaml:"children,omitempty" json:"children,omitempty"`
	Child     string         `yaml:"child,omitempty" json:"child,omitempty"`
	Condition string         `yaml:"condition,omitempty" json:"condition,omitempty"`
	Action    string         `yaml:"action,omitempty" json:"action,omitempty"`
	Params    map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

type ConfigSensor struct {
	Name   string         `yaml:"name" json:"name"`
	Type   string         `yaml:"type" json:"type"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

func LoadYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse tree config: %w", err)
	}
	return &cfg, nil
}

func LoadJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse tree config: %w", err)
	}
	return &cfg, nil
}

func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) == ".json" {
		return LoadJSON(data)
	}
	return LoadYAML(data)
}

// Build resolves the config into a node graph plus its sensors. Every
// reference yields a fresh node instance, so a subtree referenced from two
// parents becomes two independent copies and each keeps its own path.
func (c *Config) Build(reg *Registry) (Node, []Sensor, error) {
	if c.Root == "" {
		return nil, nil, ErrMissingRoot
	}
	b := &builder{cfg: c, reg: reg, building: make(map[string]bool)}
	root, err := b.node(c.Root)
	if err != nil {
		return nil, nil, err
	}
	var sensors []Sensor
	for _, sc := range c.Sensors {
		s, err := reg.NewSensor(sc.Type, sc.Params)
		if err != nil {
			return nil, nil, fmt.Errorf("sensor %s: %w", sc.Name, err)
		}
		if sc.Name != "" && sc.Name != s.Name() {
			s = &SensorFunc{SensorName: sc.Name, Fn: s.Update}
		}
		sensors = append(sensors, s)
	}
	return root, sensors, nil
}

type builder struct {
	cfg      *Config
	reg      *Registry
	building map[string]bool
}

func (b *builder) node(id string) (Node, error) {
	nc, ok := b.cfg.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeRef, id)
	}
	if b.building[id] {
		return nil, fmt.Errorf("%w: %s", ErrConfigCycle, id)
	}
	b.building[id] = true
	defer delete(b.building, id)

	switch nc.Type {
	case "Sequence", "Selector":
		seen := make(map[string]bool, len(nc.Children))
		children := make([]Node, 0, len(nc.Children))
		for _, cid := range nc.Children {
			if seen[cid] {
				return nil, fmt.Errorf("%w: %s under %s", ErrDuplicateSibling, cid, id)
			}
			seen[cid] = true
			child, err := b.node(cid)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		if nc.Type == "Sequence" {
			return NewSequence(id, children...), nil
		}
		return NewSelector(id, children...), nil

	case "Subtree":
		child, err := b.child(id, nc)
		if err != nil {
			return nil, err
		}
		return NewSubtree(id, child), nil

	case "Inverter":
		child, err := b.child(id, nc)
		if err != nil {
			return nil, err
		}
		return NewInverter(id, child), nil

	case "Succeeder":
		child, err := b.child(id, nc)
		if err != nil {
			return nil, err
		}
		return NewSucceeder(id, child), nil

	case "Repeat":
		child, err := b.child(id, nc)
		if err != nil {
			return nil, err
		}
		var p struct {
			Times int `mapstructure:"times"`
		}
		if err := decodeParams(nc.Params, &p); err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		return NewRepeat(id, p.Times, child), nil

	case "Cooldown":
		child, err := b.child(id, nc)
		if err != nil {
			return nil, err
		}
		var p struct {
			MS int `mapstructure:"ms"`
		}
		if err := decodeParams(nc.Params, &p); err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		return NewCooldown(id, time.Duration(p.MS)*time.Millisecond, child), nil

	case "Condition":
		// Stubs bypass the registry: their runtime override keys off the
		// node id, which factories never see.
		if nc.Condition == "" || nc.Condition == "Stub" {
			var p struct {
				Result bool `mapstructure:"result"`
			}
			if err := decodeParams(nc.Params, &p); err != nil {
				return nil, fmt.Errorf("node %s: %w", id, err)
			}
			return NewStubCondition(id, p.Result), nil
		}
		eval, err := b.reg.NewCondition(nc.Condition, nc.Params)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		return NewCondition(id, eval), nil

	case "Action":
		if nc.Action == "" || nc.Action == "Stub" {
			var p struct {
				Status string `mapstructure:"status"`
			}
			if err := decodeParams(nc.Params, &p); err != nil {
				return nil, fmt.Errorf("node %s: %w", id, err)
			}
			st := StatusSuccess
			if p.Status != "" {
				var err error
				if st, err = ParseStatus(p.Status); err != nil {
					return nil, fmt.Errorf("node %s: %w", id, err)
				}
			}
			return NewStubAction(id, st), nil
		}
		work, err := b.reg.NewAction(nc.Action, nc.Params)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", id, err)
		}
		return NewAction(id, work), nil
	}
	return nil, fmt.Errorf("%w: %s (node %s)", ErrUnknownNodeType, nc.Type, id)
}

func (b *builder) child(id string, nc ConfigNode) (Node, error) {
	if nc.Child == "" {
		return nil, fmt.Errorf("%w: %s needs a child", ErrMissingChild, id)
	}
	return b.node(nc.Child)
}
