package entity

// Merge combines two objects field-by-field: fields in patch overwrite
// same-named fields in base, fields present only in base are retained.
// The merge is shallow; nested objects are replaced, not merged.
// Neither input is mutated.
func Merge(base, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	return merged
}
