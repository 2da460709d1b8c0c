package filter

import "reflect"

// reflectIsCompositeNonByteSlice reports whether v is a map, slice (other
// than []byte), channel, or function via reflection — the fallback path
// for isForbiddenValue once the common concrete types have been ruled out.
func reflectIsCompositeNonByteSlice(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Chan, reflect.Func:
		return true
	case reflect.Slice, reflect.Array:
		return rv.Type().Elem().Kind() != reflect.Uint8
	default:
		return false
	}
}
