package vectordb

import (
	"github.com/xDarkicex/vectordb/internal/filter"
	"github.com/xDarkicex/vectordb/internal/storagefmt"
)

// toValue narrows a caller-supplied interface{} metadata value down
// to the tagged variant the filter and storage layers operate on.
// Only the four types §3 names are accepted; everything else is
// InvalidConfig rather than a panic.
func toValue(v interface{}) (filter.Value, error) {
	switch val := v.(type) {
	case string:
		return filter.String(val), nil
	case bool:
		return filter.Bool(val), nil
	case int:
		return filter.Int(int64(val)), nil
	case int32:
		return filter.Int(int64(val)), nil
	case int64:
		return filter.Int(val), nil
	case float32:
		return filter.Float(float64(val)), nil
	case float64:
		return filter.Float(val), nil
	default:
		return filter.Value{}, newErr(InvalidConfig, "unsupported metadata value type %T", v)
	}
}

func fromValue(v filter.Value) interface{} {
	switch v.Kind {
	case filter.KindString:
		return v.Str
	case filter.KindInt:
		return v.Int
	case filter.KindFloat:
		return v.Flt
	case filter.KindBool:
		return v.Bool
	default:
		return nil
	}
}

func toMetadata(m map[string]interface{}) (filter.Metadata, error) {
	out := make(filter.Metadata, len(m))
	for k, v := range m {
		fv, err := toValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = fv
	}
	return out, nil
}

func fromMetadata(m filter.Metadata) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = fromValue(v)
	}
	return out
}

func valueRecord(v filter.Value) storagefmt.ValueRecord {
	return storagefmt.ValueRecord{Kind: byte(v.Kind), Str: v.Str, Int: v.Int, Flt: v.Flt, Bool: v.Bool}
}

func valueFromRecord(r storagefmt.ValueRecord) filter.Value {
	return filter.Value{Kind: filter.Kind(r.Kind), Str: r.Str, Int: r.Int, Flt: r.Flt, Bool: r.Bool}
}
