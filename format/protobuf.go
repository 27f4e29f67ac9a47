package format

import (
	"errors"

	"github.com/czx-lab/traeger/value"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func init() {
	Register(New("protobuf", encodeProtobuf, decodeProtobuf))
}

func encodeProtobuf(v value.Value) (string, error) {
	sv, err := structFromValue(v)
	if err != nil {
		return "", err
	}
	b, err := proto.Marshal(sv)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeProtobuf(content string) (value.Value, error) {
	var sv structpb.Value
	if err := proto.Unmarshal([]byte(content), &sv); err != nil {
		return value.Value{}, err
	}
	return valueFromStruct(&sv), nil
}

// structFromValue maps onto google.protobuf.Value, whose NumberValue is a
// double: Int and UInt both narrow to float64, so protobuf round-trips
// integers beyond 2^53 lossily, the same caveat structpb itself documents.
func structFromValue(v value.Value) (*structpb.Value, error) {
	switch v.Kind() {
	case value.KindNull:
		return structpb.NewNullValue(), nil
	case value.KindBool:
		b, _ := v.GetBool()
		return structpb.NewBoolValue(b), nil
	case value.KindInt:
		i, _ := v.GetInt()
		return structpb.NewNumberValue(float64(i)), nil
	case value.KindUInt:
		u, _ := v.GetUInt()
		return structpb.NewNumberValue(float64(u)), nil
	case value.KindFloat:
		f, _ := v.GetFloat()
		return structpb.NewNumberValue(f), nil
	case value.KindString:
		s, _ := v.GetString()
		return structpb.NewStringValue(s), nil
	case value.KindList:
		l, _ := v.GetList()
		vals := make([]*structpb.Value, 0, l.Len())
		var convErr error
		l.Each(func(_ int, elem value.Value) bool {
			sv, err := structFromValue(elem)
			if err != nil {
				convErr = err
				return false
			}
			vals = append(vals, sv)
			return true
		})
		if convErr != nil {
			return nil, convErr
		}
		return structpb.NewListValue(&structpb.ListValue{Values: vals}), nil
	case value.KindMap:
		m, _ := v.GetMap()
		fields := make(map[string]*structpb.Value, m.Len())
		var convErr error
		m.Each(func(key string, elem value.Value) bool {
			sv, err := structFromValue(elem)
			if err != nil {
				convErr = err
				return false
			}
			fields[key] = sv
			return true
		})
		if convErr != nil {
			return nil, convErr
		}
		return structpb.NewStructValue(&structpb.Struct{Fields: fields}), nil
	}
	return nil, errors.New("unsupported value kind for protobuf encoding")
}

// valueFromStruct decodes every NumberValue as Float: the protobuf wire
// form carries no Int/UInt/Float distinction, so this codec's round-trip
// coerces numbers to Float the way the yaml codec coerces scalars to
// String.
func valueFromStruct(sv *structpb.Value) value.Value {
	switch k := sv.GetKind().(type) {
	case *structpb.Value_NullValue, nil:
		return value.Null()
	case *structpb.Value_BoolValue:
		return value.NewBool(k.BoolValue)
	case *structpb.Value_NumberValue:
		return value.NewFloat(k.NumberValue)
	case *structpb.Value_StringValue:
		return value.NewString(k.StringValue)
	case *structpb.Value_ListValue:
		items := make([]value.Value, 0, len(k.ListValue.GetValues()))
		for _, e := range k.ListValue.GetValues() {
			items = append(items, valueFromStruct(e))
		}
		return value.FromList(value.NewList(items...))
	case *structpb.Value_StructValue:
		m := value.NewMap()
		for key, e := range k.StructValue.GetFields() {
			m.Set(key, valueFromStruct(e))
		}
		return value.FromMap(m)
	}
	return value.Null()
}
