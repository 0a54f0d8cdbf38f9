package config

// Merge combines two JSON trees. When both are objects the result holds every
// key of base, and each key of overlay is merged into it recursively. Any
// other pairing resolves to overlay: arrays are replaced, never concatenated.
// Neither input is modified.
func Merge(base, overlay any) any {
	baseMap, baseOK := base.(map[string]any)
	overlayMap, overlayOK := overlay.(map[string]any)
	if !baseOK || !overlayOK {
		return overlay
	}

	merged := make(map[string]any, len(baseMap)+len(overlayMap))
	for k, v := range baseMap {
		merged[k] = v
	}
	for k, v := range overlayMap {
		if existing, ok := merged[k]; ok {
			merged[k] = Merge(existing, v)
			continue
		}
		merged[k] = v
	}
	return merged
}

// MergeObjects is Merge for two objects
func MergeObjects(base, overlay map[string]any) map[string]any {
	return Merge(base, overlay).(map[string]any)
}
