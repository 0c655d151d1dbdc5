package frontmatter

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/eringen/pubcontent/schema"
)

// decodeYAML walks the YAML node tree directly so that timestamps keep their
// source text and go through schema date coercion like any other string.
func decodeYAML(meta []byte) (schema.Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(meta, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return schema.Record{}, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return schema.Record{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: front-matter must be a mapping", root.Line)
	}
	d := &yamlDecoder{}
	v, err := d.value(root)
	if err != nil {
		return nil, err
	}
	fields, _ := v.Fields()
	return schema.Record(fields), nil
}

// maxAliasNodes caps the nodes reached through alias expansion. Each alias
// is expanded in place, so nested anchors grow exponentially without it.
const maxAliasNodes = 10000

var errExcessiveAliasing = errors.New("document contains excessive aliasing")

type yamlDecoder struct {
	aliasDepth int
	aliasNodes int
}

func (d *yamlDecoder) value(n *yaml.Node) (schema.Value, error) {
	if d.aliasDepth > 0 {
		d.aliasNodes++
		if d.aliasNodes > maxAliasNodes {
			return schema.Value{}, errExcessiveAliasing
		}
	}
	switch n.Kind {
	case yaml.AliasNode:
		d.aliasDepth++
		v, err := d.value(n.Alias)
		d.aliasDepth--
		return v, err
	case yaml.SequenceNode:
		items := make([]schema.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := d.value(c)
			if err != nil {
				return schema.Value{}, err
			}
			items = append(items, v)
		}
		return schema.Sequence(items...), nil
	case yaml.MappingNode:
		m := make(map[string]schema.Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, val := n.Content[i], n.Content[i+1]
			if k.ShortTag() == "!!merge" {
				if err := d.merge(m, val); err != nil {
					return schema.Value{}, err
				}
				continue
			}
			v, err := d.value(val)
			if err != nil {
				return schema.Value{}, err
			}
			m[k.Value] = v
		}
		return schema.Map(m), nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return schema.Value{}, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

// merge applies a "<<" merge key. Explicit keys already set win.
func (d *yamlDecoder) merge(dst map[string]schema.Value, n *yaml.Node) error {
	v, err := d.value(n)
	if err != nil {
		return err
	}
	sources := []schema.Value{v}
	if items, ok := v.Items(); ok {
		sources = items
	}
	for _, src := range sources {
		fields, ok := src.Fields()
		if !ok {
			return fmt.Errorf("line %d: merge value must be a mapping", n.Line)
		}
		for k, fv := range fields {
			if _, exists := dst[k]; !exists {
				dst[k] = fv
			}
		}
	}
	return nil
}

func yamlScalar(n *yaml.Node) (schema.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return schema.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return schema.Value{}, err
		}
		return schema.Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			f, ferr := strconv.ParseFloat(n.Value, 64)
			if ferr != nil {
				return schema.Value{}, err
			}
			return schema.Number(f), nil
		}
		return schema.Number(float64(i)), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return schema.Value{}, err
		}
		return schema.Number(f), nil
	default:
		// !!str, !!timestamp and custom tags keep their literal text.
		return schema.String(n.Value), nil
	}
}
