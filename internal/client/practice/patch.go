package practice

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// mergePatch overlays patch onto cur through its JSON form. Keys in drop
// are removed after the overlay, keys in set are written last and keys in
// keep always retain cur's value.
func mergePatch[T any](cur T, patch Patch, keep, drop []string, set map[string]any) (T, error) {
	var zero T
	raw, err := json.Marshal(cur)
	if err != nil {
		return zero, fmt.Errorf("encode current: %w", err)
	}
	var orig map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&orig); err != nil {
		return zero, fmt.Errorf("decode current: %w", err)
	}

	merged := make(map[string]any, len(orig)+len(patch))
	for k, v := range orig {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	for _, k := range drop {
		delete(merged, k)
	}
	for k, v := range set {
		merged[k] = v
	}
	for _, k := range keep {
		if v, ok := orig[k]; ok {
			merged[k] = v
		} else {
			delete(merged, k)
		}
	}

	raw, err = json.Marshal(merged)
	if err != nil {
		return zero, fmt.Errorf("encode merged: %w", err)
	}
	var next T
	if err := json.Unmarshal(raw, &next); err != nil {
		return zero, fmt.Errorf("decode merged: %w", err)
	}
	return next, nil
}
