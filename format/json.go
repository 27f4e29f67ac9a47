package format

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/czx-lab/traeger/value"
)

func init() {
	Register(New("json", encodeJSON, decodeJSON))
}

func encodeJSON(v value.Value) (string, error) {
	tree := jsonFromValue(v)
	b, err := json.Marshal(tree)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(content string) (value.Value, error) {
	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return value.Value{}, err
	}
	return valueFromJSON(tree), nil
}

// jsonFromValue mirrors the original's null/bool/int/uint/float/string/
// array/object mapping; UInt values beyond int64 range are emitted as
// unsigned JSON numbers, matching nlohmann::json's unsigned-number support.
func jsonFromValue(v value.Value) any {
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
			arr = append(arr, jsonFromValue(elem))
			return true
		})
		return arr
	case value.KindMap:
		m, _ := v.GetMap()
		obj := make(map[string]any, m.Len())
		m.Each(func(key string, elem value.Value) bool {
			obj[key] = jsonFromValue(elem)
			return true
		})
		return obj
	}
	return nil
}

// valueFromJSON mirrors the decode direction, preserving the Int/UInt/Float
// distinction the decoder saw (via json.Number) rather than collapsing
// everything to float64 as encoding/json does by default.
func valueFromJSON(x any) value.Value {
	switch t := x.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.NewBool(t)
	case string:
		return value.NewString(t)
	case json.Number:
		return numberFromJSON(t)
	case []any:
		items := make([]value.Value, 0, len(t))
		for _, e := range t {
			items = append(items, valueFromJSON(e))
		}
		return value.FromList(value.NewList(items...))
	case map[string]any:
		m := value.NewMap()
		for k, e := range t {
			m.Set(k, valueFromJSON(e))
		}
		return value.FromMap(m)
	default:
		return value.Null()
	}
}

func numberFromJSON(n json.Number) value.Value {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return value.NewInt(i)
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return value.NewUInt(u)
	}
	if f, err := n.Float64(); err == nil {
		return value.NewFloat(f)
	}
	return value.Null()
}
