package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// paramFlags collects repeated -param key=value flags.
// Values stay strings; the normalizer coerces them to the schema type.
type paramFlags map[string]any

func (p paramFlags) String() string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}
	return strings.Join(parts, ",")
}

func (p paramFlags) Set(s string) error {
	key, value, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("want key=value, got %q", s)
	}
	p[key] = strings.TrimSpace(value)
	return nil
}

// mergeJSON adds the members of a JSON object. Flags set with -param win.
func (p paramFlags) mergeJSON(s string) error {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return err
	}
	for k, v := range obj {
		if _, set := p[k]; !set {
			p[k] = v
		}
	}
	return nil
}
