package bt

import (
	"bytes"
	"encoding/gob"
	"sort"
	"strings"
	"sync"
)

// bbMap is the in-memory Blackboard: a thread-safe map with prefix
// namespacing. Namespaced views share the root map, so a leader tree and its
// debug tooling see the same data.
type bbMap struct {
	mu     sync.RWMutex
	data   map[string]any
	prefix string // empty for the root view
	root   *bbMap
}

// NewBlackboard creates an empty in-memory blackboard.
func NewBlackboard() Blackboard {
	m := &bbMap{data: make(map[string]any)}
	m.root = m
	return m
}

func (b *bbMap) fullKey(key string) string {
	if b.prefix == "" {
		return key
	}
	return b.prefix + ":" + key
}

func (b *bbMap) Get(key string) (any, bool) {
	bb := b.root
	full := b.fullKey(key)
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	v, ok := bb.data[full]
	return v, ok
}

func (b *bbMap) Set(key string, value any) {
	bb := b.root
	full := b.fullKey(key)
	bb.mu.Lock()
	bb.data[full] = value
	bb.mu.Unlock()
}

func (b *bbMap) Delete(key string) {
	bb := b.root
	full := b.fullKey(key)
	bb.mu.Lock()
	delete(bb.data, full)
	bb.mu.Unlock()
}

func (b *bbMap) Namespace(ns string) Blackboard {
	if strings.Contains(ns, ":") {
		ns = strings.ReplaceAll(ns, ":", "_")
	}
	if b.prefix != "" {
		ns = b.prefix + ":" + ns
	}
	return &bbMap{root: b.root, prefix: ns}
}

func (b *bbMap) Keys() []string {
	bb := b.root
	bb.mu.RLock()
	keys := make([]string, 0, len(bb.data))
	for k := range bb.data {
		keys = append(keys, k)
	}
	bb.mu.RUnlock()
	sort.Strings(keys)
	if b.prefix == "" {
		return keys
	}
	pref := b.prefix + ":"
	res := make([]string, 0)
	for _, k := range keys {
		if strings.HasPrefix(k, pref) {
			res = append(res, strings.TrimPrefix(k, pref))
		}
	}
	return res
}

func (b *bbMap) Dump() map[string]any {
	bb := b.root
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	out := make(map[string]any, len(bb.data))
	if b.prefix == "" {
		for k, v := range bb.data {
			out[k] = v
		}
		return out
	}
	pref := b.prefix + ":"
	for k, v := range bb.data {
		if strings.HasPrefix(k, pref) {
			out[strings.TrimPrefix(k, pref)] = v
		}
	}
	return out
}

// MarshalBinary persists the full blackboard (all namespaces) as gob bytes.
func (b *bbMap) MarshalBinary() ([]byte, error) {
	bb := b.root
	bb.mu.RLock()
	defer bb.mu.RUnlock()
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bb.data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores state produced by MarshalBinary.
func (b *bbMap) UnmarshalBinary(data []byte) error {
	bb := b.root
	bb.mu.Lock()
	defer bb.mu.Unlock()
	if bb.data == nil {
		bb.data = make(map[string]any)
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(&bb.data)
}
