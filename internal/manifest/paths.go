package manifest

import (
	"fmt"
	"strings"
)

// The manifest historically accepted the same setting at several locations
// (for example defaults.identity_file and defaults.ssh.identity_file). These
// helpers pop dotted paths out of a raw TOML map so known settings can be
// lifted into forms while everything unrecognized survives as extras.

func popPath(mapping map[string]any, path string) (any, bool) {
	segments := strings.Split(path, ".")
	type parent struct {
		m   map[string]any
		key string
	}
	parents := make([]parent, 0, len(segments)-1)
	current := mapping
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			return nil, false
		}
		parents = append(parents, parent{current, segment})
		current = next
	}
	last := segments[len(segments)-1]
	value, ok := current[last]
	if !ok {
		return nil, false
	}
	delete(current, last)
	// Drop tables the pop emptied out.
	for i := len(parents) - 1; i >= 0; i-- {
		child, ok := parents[i].m[parents[i].key].(map[string]any)
		if !ok || len(child) > 0 {
			break
		}
		delete(parents[i].m, parents[i].key)
	}
	return value, true
}

func extract(mapping map[string]any, paths ...string) (any, bool) {
	for _, path := range paths {
		if value, ok := popPath(mapping, path); ok {
			return value, true
		}
	}
	return nil, false
}

func expectString(value any, label string) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("expected string for '%s', got %T", label, value)
	}
	return s, nil
}

func expectBool(value any, label string) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean for '%s', got %T", label, value)
	}
	return b, nil
}

func expectInt(value any, label string) (int, error) {
	switch n := value.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	}
	return 0, fmt.Errorf("expected integer for '%s', got %T", label, value)
}

func expectStringList(value any, label string) ([]string, error) {
	if s, ok := value.(string); ok {
		return []string{s}, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("expected string list for '%s', got %T", label, value)
	}
	result := make([]string, len(items))
	for i, item := range items {
		result[i] = fmt.Sprint(item)
	}
	return result, nil
}

func deepCopyMap(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = deepCopyValue(value)
	}
	return dst
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return deepCopyMap(v)
	case []any:
		copied := make([]any, len(v))
		for i, item := range v {
			copied[i] = deepCopyValue(item)
		}
		return copied
	}
	return value
}
