package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Object is a decoded YAML mapping that preserves key declaration order.
// It appears only inside step and template definitions; run-time documents
// are always plain map[string]any values.
type Object struct {
	Pairs []Pair
}

// Pair is one key/value entry of an Object.
type Pair struct {
	Key   string
	Value any
}

// Get returns the value for a key and whether it is present.
func (o *Object) Get(key string) (any, bool) {
	for _, p := range o.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in declaration order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.Pairs))
	for i, p := range o.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// Len returns the number of entries.
func (o *Object) Len() int {
	return len(o.Pairs)
}

// DecodeNode converts a YAML node into a document value, decoding mappings
// to *Object so that key order survives. Sequences become []any and scalars
// decode through yaml.v3's usual scalar rules.
func DecodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return DecodeNode(n.Content[0])
	case yaml.AliasNode:
		return DecodeNode(n.Alias)
	case yaml.MappingNode:
		obj := &Object{Pairs: make([]Pair, 0, len(n.Content)/2)}
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("decode mapping key at line %d: %w", n.Content[i].Line, err)
			}
			val, err := DecodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj.Pairs = append(obj.Pairs, Pair{Key: key, Value: val})
		}
		return obj, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := DecodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode scalar at line %d: %w", n.Line, err)
		}
		return v, nil
	}
	return nil, fmt.Errorf("unsupported YAML node kind %d at line %d", n.Kind, n.Line)
}

// Plain converts a value decoded by DecodeNode into plain document form,
// turning every *Object into a map[string]any recursively. Used when a
// definition-space value (a static payload, for example) enters the
// run-time document.
func Plain(v any) any {
	switch x := v.(type) {
	case *Object:
		out := make(map[string]any, len(x.Pairs))
		for _, p := range x.Pairs {
			out[p.Key] = Plain(p.Value)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Plain(val)
		}
		return out
	}
	return v
}
