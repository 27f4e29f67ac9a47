package format

import (
	"github.com/czx-lab/traeger/value"
	"gopkg.in/yaml.v3"
)

func init() {
	Register(New("yaml", encodeYAML, decodeYAML))
}

func encodeYAML(v value.Value) (string, error) {
	node := yamlFromValue(v)
	b, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeYAML mirrors the original's decode mapping: a !!null scalar
// decodes to Null and every other scalar node, regardless of its YAML tag,
// is coerced to String. Only sequences and mappings retain their List/Map
// structure.
func decodeYAML(content string) (value.Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(content), &node); err != nil {
		return value.Value{}, err
	}
	if len(node.Content) == 0 {
		return value.Null(), nil
	}
	return valueFromYAML(node.Content[0]), nil
}

func yamlFromValue(v value.Value) any {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		b, _ := v.GetBool()
		return b
	case value.KindInt:
		i, _ := v.GetInt()
		return i
	case value.KindUInt:
		u, _ := v.GetUInt()
		return u
	case value.KindFloat:
		f, _ := v.GetFloat()
		return f
	case value.KindString:
		s, _ := v.GetString()
		return s
	case value.KindList:
		l, _ := v.GetList()
		arr := make([]any, 0, l.Len())
		l.Each(func(_ int, elem value.Value) bool {
			arr = append(arr, yamlFromValue(elem))
			return true
		})
		return arr
	case value.KindMap:
		m, _ := v.GetMap()
		var node yaml.Node
		node.Kind = yaml.MappingNode
		m.Each(func(key string, elem value.Value) bool {
			var keyNode, valNode yaml.Node
			keyNode.SetString(key)
			_ = valNode.Encode(yamlFromValue(elem))
			node.Content = append(node.Content, &keyNode, &valNode)
			return true
		})
		return &node
	}
	return nil
}

func valueFromYAML(n *yaml.Node) value.Value {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return value.Null()
		}
		return value.NewString(n.Value)
	case yaml.SequenceNode:
		items := make([]value.Value, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, valueFromYAML(c))
		}
		return value.FromList(value.NewList(items...))
	case yaml.MappingNode:
		m := value.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			m.Set(n.Content[i].Value, valueFromYAML(n.Content[i+1]))
		}
		return value.FromMap(m)
	case yaml.DocumentNode:
		if len(n.Content) > 0 {
			return valueFromYAML(n.Content[0])
		}
		return value.Null()
	case yaml.AliasNode:
		return valueFromYAML(n.Alias)
	}
	return value.Null()
}
