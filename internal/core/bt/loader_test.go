package bt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testRegistry() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

func TestLoadAndRunYAMLTree(t *testing.T) {
	yamlCfg := []byte(`
name: worker
root: Root
nodes:
  Root:
    type: Sequence
    children: [IsReady, DoWork]
  IsReady:
    type: Condition
    condition: IsTrue
    params: {key: ready}
  DoWork:
    type: Action
    action: SetBool
    params: {key: done, value: true}
`)
	cfg, err := LoadYAML(yamlCfg)
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	root, sensors, err := cfg.Build(testRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(sensors) != 0 {
		t.Fatalf("expected no sensors, got %d", len(sensors))
	}

	tree := New(cfg.Name, root)
	tree.Blackboard().Set("ready", true)
	if st := tree.Tick(context.Background()); st != StatusSuccess {
		t.Fatalf("expected success, got %v", st)
	}
	if v, ok := tree.Blackboard().Get("done"); !ok || v != true {
		t.Fatalf("expected done=true, got %v,%v", v, ok)
	}
}

func TestLoadJSONDecoratorParams(t *testing.T) {
	jsonCfg := []byte(`{
  "root": "Root",
  "nodes": {
    "Root":    {"type": "Repeat", "child": "Work", "params": {"times": 2}},
    "Work":    {"type": "Action", "action": "Noop"}
  }
}`)
	cfg, err := LoadJSON(jsonCfg)
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	root, _, err := cfg.Build(testRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tree := New("r", root)
	if st := tree.Tick(context.Background()); st != StatusRunning {
		t.Fatalf("first completion should leave repeat running, got %v", st)
	}
	if st := tree.Tick(context.Background()); st != StatusSuccess {
		t.Fatalf("second completion should finish repeat, got %v", st)
	}
}

func TestLoadFileByExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.yaml")
	data := []byte("root: Root\nnodes:\n  Root: {type: Action, action: Noop}\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Root != "Root" {
		t.Fatalf("expected root node id Root, got %q", cfg.Root)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuildStubDefaults(t *testing.T) {
	cfg := &Config{
		Root: "Root",
		Nodes: map[string]ConfigNode{
			"Root":  {Type: "Selector", Children: []string{"Check", "Act"}},
			"Check": {Type: "Condition", Params: map[string]any{"result": false}},
			"Act":   {Type: "Action", Params: map[string]any{"status": "running"}},
		},
	}
	root, _, err := cfg.Build(testRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tree := New("stubs", root)
	if st := tree.Tick(context.Background()); st != StatusRunning {
		t.Fatalf("expected running from stub action, got %v", st)
	}
}

func TestBuildStubsHonorRuntimeOverride(t *testing.T) {
	cfg := &Config{
		Root: "Root",
		Nodes: map[string]ConfigNode{
			"Root": {Type: "Sequence", Children: []string{"Gate", "Wait"}},
			"Gate": {Type: "Condition", Params: map[string]any{"result": true}},
			"Wait": {Type: "Action", Action: "Stub", Params: map[string]any{"status": "running"}},
		},
	}
	root, _, err := cfg.Build(testRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tree := New("t", root)
	if st := tree.Tick(context.Background()); st != StatusRunning {
		t.Fatalf("expected running, got %v", st)
	}

	// Config stubs key their override off the node id, exactly like
	// code-built stubs.
	tree.Blackboard().Set("stub:Wait", StatusSuccess)
	if st := tree.Tick(context.Background()); st != StatusSuccess {
		t.Fatalf("expected success after override, got %v", st)
	}
}

func TestBuildSensors(t *testing.T) {
	r := testRegistry()
	r.RegisterSensor("Constant", func(params map[string]any) (Sensor, error) {
		var p struct {
			Key   string `mapstructure:"key"`
			Value int    `mapstructure:"value"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, err
		}
		return SensorFunc{SensorName: "Constant", Fn: func(_ context.Context, bb Blackboard) error {
			bb.Set(p.Key, p.Value)
			return nil
		}}, nil
	})

	cfg := &Config{
		Root:  "Root",
		Nodes: map[string]ConfigNode{"Root": {Type: "Action", Action: "Noop"}},
		Sensors: []ConfigSensor{
			{Name: "enemyCount", Type: "Constant", Params: map[string]any{"key": "enemies", "value": 3}},
		},
	}
	_, sensors, err := cfg.Build(r)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(sensors) != 1 || sensors[0].Name() != "enemyCount" {
		t.Fatalf("expected renamed sensor, got %+v", sensors)
	}
	bb := NewBlackboard()
	if err := sensors[0].Update(context.Background(), bb); err != nil {
		t.Fatalf("update: %v", err)
	}
	if v, _ := bb.Get("enemies"); v != 3 {
		t.Fatalf("sensor did not write: %v", v)
	}
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  *Config
		want error
	}{
		{
			name: "missing root",
			cfg:  &Config{Nodes: map[string]ConfigNode{}},
			want: ErrMissingRoot,
		},
		{
			name: "unknown reference",
			cfg: &Config{Root: "Root", Nodes: map[string]ConfigNode{
				"Root": {Type: "Sequence", Children: []string{"Ghost"}},
			}},
			want: ErrUnknownNodeRef,
		},
		{
			name: "unknown type",
			cfg: &Config{Root: "Root", Nodes: map[string]ConfigNode{
				"Root": {Type: "Parallel"},
			}},
			want: ErrUnknownNodeType,
		},
		{
			name: "cycle",
			cfg: &Config{Root: "A", Nodes: map[string]ConfigNode{
				"A": {Type: "Inverter", Child: "B"},
				"B": {Type: "Subtree", Child: "A"},
			}},
			want: ErrConfigCycle,
		},
		{
			name: "duplicate sibling",
			cfg: &Config{Root: "Root", Nodes: map[string]ConfigNode{
				"Root": {Type: "Selector", Children: []string{"X", "X"}},
				"X":    {Type: "Action", Action: "Noop"},
			}},
			want: ErrDuplicateSibling,
		},
		{
			name: "decorator without child",
			cfg: &Config{Root: "Root", Nodes: map[string]ConfigNode{
				"Root": {Type: "Repeat"},
			}},
			want: ErrMissingChild,
		},
		{
			name: "unknown condition factory",
			cfg: &Config{Root: "Root", Nodes: map[string]ConfigNode{
				"Root": {Type: "Condition", Condition: "Nope"},
			}},
			want: ErrUnknownCondition,
		},
		{
			name: "unknown action factory",
			cfg: &Config{Root: "Root", Nodes: map[string]ConfigNode{
				"Root": {Type: "Action", Action: "Nope"},
			}},
			want: ErrUnknownAction,
		},
		{
			name: "unknown sensor factory",
			cfg: &Config{
				Root:    "Root",
				Nodes:   map[string]ConfigNode{"Root": {Type: "Action", Action: "Noop"}},
				Sensors: []ConfigSensor{{Name: "s", Type: "Nope"}},
			},
			want: ErrUnknownSensor,
		},
		{
			name: "bad decorator params",
			cfg: &Config{Root: "Root", Nodes: map[string]ConfigNode{
				"Root": {Type: "Repeat", Child: "W", Params: map[string]any{"times": "three"}},
				"W":    {Type: "Action", Action: "Noop"},
			}},
			want: ErrBadParams,
		},
		{
			name: "bad stub status",
			cfg: &Config{Root: "Root", Nodes: map[string]ConfigNode{
				"Root": {Type: "Action", Params: map[string]any{"status": "sideways"}},
			}},
			want: ErrInvalidStatus,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := tc.cfg.Build(testRegistry())
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestBuildSharedReferenceBecomesCopies(t *testing.T) {
	cfg := &Config{
		Root: "Root",
		Nodes: map[string]ConfigNode{
			"Root":  {Type: "Selector", Children: []string{"Left", "Right"}},
			"Left":  {Type: "Inverter", Child: "Leaf"},
			"Right": {Type: "Subtree", Child: "Leaf"},
			"Leaf":  {Type: "Condition", Condition: "Stub", Params: map[string]any{"result": false}},
		},
	}
	root, _, err := cfg.Build(testRegistry())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	New("t", root)
	left := root.Children()[0].Children()[0]
	right := root.Children()[1].Children()[0]
	if left == right {
		t.Fatal("shared reference must build independent instances")
	}
	if left.Meta().PathID() == right.Meta().PathID() {
		t.Fatal("copies must keep distinct paths")
	}
}
