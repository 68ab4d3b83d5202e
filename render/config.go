package render

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/validation"
)

// EnabledKey is the reserved field that toggles a node.
const EnabledKey = "enabled"

// ConfigNode is the live configuration of one node. It may be read and
// written from any goroutine; the render goroutine picks up a change at
// the node's next entry.
type ConfigNode struct {
	path     string
	kind     NodeKind
	children []*ConfigNode
	spec     *paramSpec

	mu      sync.RWMutex
	enabled bool
	params  any
	version uint64
}

// Path returns the dotted node path.
func (n *ConfigNode) Path() string { return n.path }

// Kind returns whether the node is a job or a task.
func (n *ConfigNode) Kind() NodeKind { return n.kind }

// Enabled reports whether the node runs.
func (n *ConfigNode) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Version increases with every accepted parameter change.
func (n *ConfigNode) Version() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.version
}

// Params returns the current parameters, or nil for nodes without any.
// The value is a copy.
func (n *ConfigNode) Params() any {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.params
}

// Configurable reports whether the node takes parameters.
func (n *ConfigNode) Configurable() bool { return n.spec != nil }

func (n *ConfigNode) state() (enabled bool, params any, version uint64) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled, n.params, n.version
}

func (n *ConfigNode) setEnabled(on bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	changed := n.enabled != on
	n.enabled = on
	return changed
}

// decode merges fields over the current parameters and validates the
// result. Nothing is stored on error.
func (n *ConfigNode) decode(fields map[string]any) (any, error) {
	current := n.Params()
	target := reflect.New(n.spec.typ)
	if current != nil {
		target.Elem().Set(reflect.ValueOf(current))
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target.Interface(),
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, errors.InvalidConfig(n.path, err.Error())
	}
	if err := dec.Decode(fields); err != nil {
		return nil, errors.InvalidConfig(n.path, err.Error()).WithCause(err)
	}
	params := target.Elem().Interface()
	if err := validation.Validate(params); err != nil {
		reason := err.Error()
		if appErr, ok := errors.AsAppError(err); ok {
			reason = appErr.Message
		}
		return nil, errors.InvalidConfig(n.path, reason).WithCause(err)
	}
	return params, nil
}

func (n *ConfigNode) store(params any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.params = params
	n.version++
}

// ConfigTree mirrors a task tree. Its shape is fixed when the pipeline is
// built; only values change.
type ConfigTree struct {
	root   *ConfigNode
	byPath map[string]*ConfigNode
	order  []string
	hooks  []ChangeHook
}

// ChangeHook observes accepted changes. source names the caller, e.g.
// "api" or "profile".
type ChangeHook func(path, source string)

// NewConfigTree mirrors root and links every node to its configuration.
// Each job starts at version 1 with its default parameters.
func NewConfigTree(root *Task) *ConfigTree {
	t := &ConfigTree{byPath: make(map[string]*ConfigNode)}
	t.root = t.mirror(root.name, root)
	return t
}

func (t *ConfigTree) mirror(path string, n Node) *ConfigNode {
	base := n.base()
	cn := &ConfigNode{path: path, kind: base.kind, enabled: !base.disabled}
	if j, ok := n.(*Job); ok && j.params != nil {
		cn.spec = j.params
		cn.params = j.params.defaults
		cn.version = 1
	}
	base.cfg = cn
	base.path = path
	t.byPath[path] = cn
	t.order = append(t.order, path)
	if task, ok := n.(*Task); ok {
		for _, c := range task.children {
			cn.children = append(cn.children, t.mirror(path+"."+c.Name(), c))
		}
	}
	return cn
}

// OnChange registers a hook. Hooks must be registered before the tree is
// shared with other goroutines.
func (t *ConfigTree) OnChange(h ChangeHook) { t.hooks = append(t.hooks, h) }

func (t *ConfigTree) changed(path, source string) {
	for _, h := range t.hooks {
		h(path, source)
	}
}

// Root returns the root node.
func (t *ConfigTree) Root() *ConfigNode { return t.root }

// Paths lists every node path in declaration order.
func (t *ConfigTree) Paths() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Lookup returns the node at path.
func (t *ConfigTree) Lookup(path string) (*ConfigNode, bool) {
	n, ok := t.byPath[path]
	return n, ok
}

func (t *ConfigTree) node(path string) (*ConfigNode, error) {
	n, ok := t.byPath[path]
	if !ok {
		return nil, errors.ConfigNotFound(path)
	}
	return n, nil
}

// Enabled reports whether the node at path runs.
func (t *ConfigTree) Enabled(path string) (bool, error) {
	n, err := t.node(path)
	if err != nil {
		return false, err
	}
	return n.Enabled(), nil
}

// SetEnabled enables or disables the node at path.
func (t *ConfigTree) SetEnabled(path string, on bool) error {
	return t.setEnabled(path, on, "api")
}

func (t *ConfigTree) setEnabled(path string, on bool, source string) error {
	n, err := t.node(path)
	if err != nil {
		return err
	}
	if n.setEnabled(on) {
		t.changed(path, source)
	}
	return nil
}

// Params returns the current parameters of the node at path.
func (t *ConfigTree) Params(path string) (any, error) {
	n, err := t.node(path)
	if err != nil {
		return nil, err
	}
	return n.Params(), nil
}

// Apply merges fields into the parameters of the node at path. The
// reserved key "enabled" toggles the node. Unknown fields and values that
// fail validation are rejected and leave the node unchanged.
func (t *ConfigTree) Apply(path string, fields map[string]any) error {
	return t.apply(path, fields, "api")
}

func (t *ConfigTree) apply(path string, fields map[string]any, source string) error {
	n, err := t.node(path)
	if err != nil {
		return err
	}

	var enabled *bool
	params := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != EnabledKey {
			params[k] = v
			continue
		}
		on, err := toBool(v)
		if err != nil {
			return errors.InvalidConfig(path, err.Error())
		}
		enabled = &on
	}

	var decoded any
	if len(params) > 0 {
		if n.spec == nil {
			return errors.InvalidConfig(path, "node takes no parameters")
		}
		if decoded, err = n.decode(params); err != nil {
			return err
		}
	}

	if decoded != nil {
		n.store(decoded)
		t.changed(path, source)
	}
	if enabled != nil && n.setEnabled(*enabled) {
		t.changed(path, source)
	}
	return nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	}
	return false, fmt.Errorf("%s must be a boolean, got %T", EnabledKey, v)
}

// ApplyOverrides applies a flat map of dotted keys. A key is either a node
// path followed by one field ("Forward.Draw.maxDrawn") or a node path whose
// value is a map of fields ("Forward.Draw": {maxDrawn: 10}). Fields for the
// same node are applied together. Every node is attempted; the failures are
// returned joined.
func (t *ConfigTree) ApplyOverrides(overrides map[string]any) error {
	return t.applyOverrides(overrides, "override")
}

func (t *ConfigTree) applyOverrides(overrides map[string]any, source string) error {
	grouped := make(map[string]map[string]any)
	var errs []error
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		path, fields, err := t.resolveKey(key, overrides[key])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if grouped[path] == nil {
			grouped[path] = make(map[string]any)
		}
		for k, v := range fields {
			grouped[path][k] = v
		}
	}

	paths := make([]string, 0, len(grouped))
	for p := range grouped {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if err := t.apply(p, grouped[p], source); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (t *ConfigTree) resolveKey(key string, value any) (string, map[string]any, error) {
	if _, ok := t.byPath[key]; ok {
		fields, ok := asFields(value)
		if !ok {
			return "", nil, errors.InvalidConfig(key, fmt.Sprintf("expected a map of fields, got %T", value))
		}
		return key, fields, nil
	}
	i := strings.LastIndex(key, ".")
	if i <= 0 {
		return "", nil, errors.ConfigNotFound(key)
	}
	path, field := key[:i], key[i+1:]
	if _, ok := t.byPath[path]; !ok {
		return "", nil, errors.ConfigNotFound(path)
	}
	return path, map[string]any{field: value}, nil
}

func asFields(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// NodeSnapshot is a point-in-time view of one node's configuration.
type NodeSnapshot struct {
	Path    string         `json:"path" yaml:"path"`
	Kind    NodeKind       `json:"kind" yaml:"kind"`
	Enabled bool           `json:"enabled" yaml:"enabled"`
	Version uint64         `json:"version" yaml:"version"`
	Params  map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// Snapshot returns every node in declaration order. Parameters are
// flattened to maps keyed like the override fields.
func (t *ConfigTree) Snapshot() []NodeSnapshot {
	out := make([]NodeSnapshot, 0, len(t.order))
	for _, p := range t.order {
		out = append(out, t.byPath[p].snapshot())
	}
	return out
}

// SnapshotOf returns the snapshot of one node.
func (t *ConfigTree) SnapshotOf(path string) (NodeSnapshot, error) {
	n, err := t.node(path)
	if err != nil {
		return NodeSnapshot{}, err
	}
	return n.snapshot(), nil
}

func (n *ConfigNode) snapshot() NodeSnapshot {
	enabled, params, version := n.state()
	s := NodeSnapshot{Path: n.path, Kind: n.kind, Enabled: enabled, Version: version}
	if params != nil {
		var m map[string]any
		if err := mapstructure.Decode(params, &m); err == nil {
			s.Params = m
		}
	}
	return s
}
