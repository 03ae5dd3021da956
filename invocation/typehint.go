package invocation

import "reflect"

// wellKnownTypeHint maps Go's built-in primitive kinds to the canonical
// "well-known" type names the spec's generic-substitution wire format
// uses for primitives. Every other type falls back to its reflected type
// name — the decoder side treats unrecognized names as opaque strings
// and never fails because of them.
func wellKnownTypeHint(v any) string {
	if v == nil {
		return "Nil"
	}
	return typeNameOf(reflect.TypeOf(v))
}

func typeNameOf(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "String"
	case reflect.Bool:
		return "Bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "Int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "UInt"
	case reflect.Float32:
		return "Float"
	case reflect.Float64:
		return "Double"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "Data"
		}
		return "[" + typeNameOf(t.Elem()) + "]"
	default:
		return t.String()
	}
}

// typeHintFor reports the canonical hint for a reflect.Type, used when
// recording a return or error type from a generic T without a value.
func typeHintFor(t reflect.Type) string {
	if t == nil {
		return "Void"
	}
	return typeNameOf(t)
}
