package tool

import "fmt"

// stringArg extracts a required string argument from the decoded call args.
func stringArg(args map[string]any, key string) (string, error) {
	raw, ok := args[key]
	if !ok {
		return "", fmt.Errorf("argument %q is required", key)
	}
	value, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, raw)
	}
	return value, nil
}

// stringSliceArg extracts a required array-of-strings argument.
func stringSliceArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("argument %q is required", key)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an array, got %T", key, raw)
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q[%d] must be a string, got %T", key, i, item)
		}
		out = append(out, s)
	}
	return out, nil
}

// optStringSliceArg extracts an optional array-of-strings argument.
func optStringSliceArg(args map[string]any, key string) ([]string, error) {
	if _, ok := args[key]; !ok {
		return nil, nil
	}
	return stringSliceArg(args, key)
}

// optStringMapArg extracts an optional object-of-strings argument.
func optStringMapArg(args map[string]any, key string) (map[string]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("argument %q must be an object, got %T", key, raw)
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("argument %q[%q] must be a string, got %T", key, k, v)
		}
		out[k] = s
	}
	return out, nil
}
