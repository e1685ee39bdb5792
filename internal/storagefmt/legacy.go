package storagefmt

import (
	"encoding/json"
	"os"
)

// legacyEntry is one element of the plain JSON array the binary
// format superseded. It carries no version field of its own because, unlike
// config.json in earlier iterations of this storage layer, the
// legacy vector data was never revised after it was first written.
type legacyEntry struct {
	ID       string                 `json:"id"`
	Vector   []float32              `json:"vector"`
	Metadata map[string]interface{} `json:"metadata"`
}

// ReadLegacyText loads a pre-binary-format text snapshot, if one
// exists at path, converting its untyped metadata into ValueRecords
// using Go's natural JSON-to-interface{} mapping (float64 for all
// JSON numbers, which this loader narrows back to Int when the value
// has no fractional part).
func ReadLegacyText(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var legacy []legacyEntry
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}

	snap := &Snapshot{Entries: make([]EntryRecord, 0, len(legacy))}
	for _, e := range legacy {
		rec := EntryRecord{ID: e.ID, Vector: e.Vector, Metadata: map[string]ValueRecord{}}
		for k, v := range e.Metadata {
			rec.Metadata[k] = legacyValue(v)
		}
		snap.Entries = append(snap.Entries, rec)
	}
	return snap, nil
}

func legacyValue(v interface{}) ValueRecord {
	switch val := v.(type) {
	case string:
		return ValueRecord{Kind: KindString, Str: val}
	case float64:
		if val == float64(int64(val)) {
			return ValueRecord{Kind: KindInt, Int: int64(val)}
		}
		return ValueRecord{Kind: KindFloat, Flt: val}
	case bool:
		return ValueRecord{Kind: KindBool, Bool: val}
	default:
		return ValueRecord{Kind: KindString}
	}
}
