package format

import (
	"github.com/czx-lab/traeger/value"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	Register(New("msgpack", encodeMsgpack, decodeMsgpack))
}

func encodeMsgpack(v value.Value) (string, error) {
	tree := msgpackFromValue(v)
	b, err := msgpack.Marshal(tree)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeMsgpack mirrors the original's type switch on the msgpack wire
// type: POSITIVE_INTEGER decodes as UInt, NEGATIVE_INTEGER as Int, and
// FLOAT32/FLOAT64 both widen to Float.
func decodeMsgpack(content string) (value.Value, error) {
	var tree any
	if err := msgpack.Unmarshal([]byte(content), &tree); err != nil {
		return value.Value{}, err
	}
	return valueFromMsgpack(tree), nil
}

func msgpackFromValue(v value.Value) any {
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
			arr = append(arr, msgpackFromValue(elem))
			return true
		})
		return arr
	case value.KindMap:
		m, _ := v.GetMap()
		obj := make(map[string]any, m.Len())
		m.Each(func(key string, elem value.Value) bool {
			obj[key] = msgpackFromValue(elem)
			return true
		})
		return obj
	}
	return nil
}

func valueFromMsgpack(x any) value.Value {
	switch t := x.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.NewBool(t)
	case int8:
		return value.NewInt(int64(t))
	case int16:
		return value.NewInt(int64(t))
	case int32:
		return value.NewInt(int64(t))
	case int64:
		return value.NewInt(t)
	case int:
		return value.NewInt(int64(t))
	case uint8:
		return value.NewUInt(uint64(t))
	case uint16:
		return value.NewUInt(uint64(t))
	case uint32:
		return value.NewUInt(uint64(t))
	case uint64:
		return value.NewUInt(t)
	case float32:
		return value.NewFloat(float64(t))
	case float64:
		return value.NewFloat(t)
	case string:
		return value.NewString(t)
	case []byte:
		return value.NewString(string(t))
	case []any:
		items := make([]value.Value, 0, len(t))
		for _, e := range t {
			items = append(items, valueFromMsgpack(e))
		}
		return value.FromList(value.NewList(items...))
	case map[string]any:
		m := value.NewMap()
		for k, e := range t {
			m.Set(k, valueFromMsgpack(e))
		}
		return value.FromMap(m)
	case map[any]any:
		m := value.NewMap()
		for k, e := range t {
			if ks, ok := k.(string); ok {
				m.Set(ks, valueFromMsgpack(e))
			}
		}
		return value.FromMap(m)
	default:
		return value.Null()
	}
}
