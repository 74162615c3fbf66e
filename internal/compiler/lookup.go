package compiler

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	stitcherrors "github.com/conneroisu/stitch/internal/errors"
)

// Lookup walks root along the dot-separated keys of path. Map keys match
// exactly first and then case-insensitively, since viper lower-cases keys
// read from configuration files. Numeric keys index into slices. The first
// key that cannot be followed yields a lookup error.
func Lookup(root map[string]interface{}, path string) (interface{}, error) {
	var current interface{} = root

	for _, key := range strings.Split(path, ".") {
		next, ok := child(current, key)
		if !ok {
			return nil, stitcherrors.NewLookupError(path, key)
		}
		current = next
	}

	return current, nil
}

func child(node interface{}, key string) (interface{}, bool) {
	if node == nil || key == "" {
		return nil, false
	}

	switch n := node.(type) {
	case map[string]interface{}:
		if v, ok := n[key]; ok {
			return v, true
		}
		for k, v := range n {
			if strings.EqualFold(k, key) {
				return v, true
			}
		}
		return nil, false
	case Locals:
		return child(map[string]interface{}(n), key)
	}

	rv := reflect.ValueOf(node)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if strings.EqualFold(iter.Key().String(), key) {
				return iter.Value().Interface(), true
			}
		}
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}

	return nil, false
}

// stringify renders a resolved configuration value as text.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []interface{}:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = stringify(p)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(val)
	}
}
