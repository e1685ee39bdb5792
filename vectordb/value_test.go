package vectordb

import (
	"testing"

	"github.com/xDarkicex/vectordb/internal/filter"
)

func TestToValueRejectsUnsupportedType(t *testing.T) {
	_, err := toValue(struct{}{})
	if kind, ok := KindOf(err); !ok || kind != InvalidConfig {
		t.Fatalf("got err=%v, want InvalidConfig", err)
	}
}

func TestToValueRoundTripsEachSupportedType(t *testing.T) {
	cases := []struct {
		in   interface{}
		want interface{}
	}{
		{"s", "s"},
		{true, true},
		{7, int64(7)},
		{int32(7), int64(7)},
		{int64(7), int64(7)},
		{float32(1.5), float64(1.5)},
		{1.5, 1.5},
	}
	for _, c := range cases {
		v, err := toValue(c.in)
		if err != nil {
			t.Fatalf("toValue(%v) error = %v", c.in, err)
		}
		if got := fromValue(v); got != c.want {
			t.Errorf("toValue/fromValue(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestMatchSkipsUnsupportedValues(t *testing.T) {
	p := Match(map[string]interface{}{"ok": "yes", "bad": struct{}{}})
	// Should not panic and should build a predicate that still
	// evaluates the supported field.
	if p.p == nil {
		t.Fatal("Match() produced a nil predicate")
	}
	if !p.p.Eval(filter.Metadata{"ok": filter.String("yes")}) {
		t.Error("Match() predicate should match on the supported field alone")
	}
}

func TestCollectionConfigDefaultsAndValidation(t *testing.T) {
	cfg := CollectionConfig{Name: "c", Dimension: 8, UseIVF: true, NClusters: 20}
	cfg.applyDefaults()
	if cfg.NProbe != 2 {
		t.Errorf("NProbe default = %d, want 2 (max(1, 20/10))", cfg.NProbe)
	}

	small := CollectionConfig{Name: "c", Dimension: 8, UseIVF: true, NClusters: 5}
	small.applyDefaults()
	if small.NProbe != 1 {
		t.Errorf("NProbe default = %d, want 1 for small n_clusters", small.NProbe)
	}

	if err := (CollectionConfig{Dimension: 0}).validate(); err == nil {
		t.Error("expected InvalidConfig for dimension 0")
	}
	if err := (CollectionConfig{Dimension: 4, UseIVF: true, NClusters: 0}).validate(); err == nil {
		t.Error("expected InvalidConfig for n_clusters 0")
	}
	if err := (CollectionConfig{Dimension: 4, UseIVF: true, NClusters: 4, NProbe: 5}).validate(); err == nil {
		t.Error("expected InvalidConfig for n_probe > n_clusters")
	}
}

func TestWithIVFDefaultsNProbe(t *testing.T) {
	var cfg CollectionConfig
	opt := WithIVF(10, 0)
	if err := opt(&cfg); err != nil {
		t.Fatalf("WithIVF() error = %v", err)
	}
	if cfg.NProbe != 0 {
		t.Fatalf("WithIVF(10, 0) should leave NProbe at 0 for applyDefaults to fill in, got %d", cfg.NProbe)
	}
	cfg.applyDefaults()
	if cfg.NProbe != 1 {
		t.Errorf("NProbe after defaults = %d, want 1", cfg.NProbe)
	}
}
