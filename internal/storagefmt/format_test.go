package storagefmt

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")

	snap := &Snapshot{
		Entries: []EntryRecord{
			{ID: "a", Vector: []float32{1, 0}, Metadata: map[string]ValueRecord{
				"src": {Kind: KindString, Str: "cam"},
			}},
			{ID: "b", Vector: []float32{0, 1}, Metadata: map[string]ValueRecord{
				"count": {Kind: KindInt, Int: 5},
			}},
		},
		IVF: &IVFRecord{
			Centroids:    [][]float32{{1, 0}},
			Assignments:  []int{0, 0},
			PostingLists: map[int][]int{0: {0, 1}},
			TrainedSize:  2,
		},
	}

	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("WriteSnapshot() error = %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain after a successful write")
	}

	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	if len(got.Entries) != 2 || got.Entries[0].ID != "a" {
		t.Errorf("round-tripped snapshot mismatched: %+v", got)
	}
	if got.IVF == nil || got.IVF.TrainedSize != 2 {
		t.Errorf("ivf record not round-tripped: %+v", got.IVF)
	}
}

func TestReadSnapshotRejectsUnknownMajor(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	if err := os.WriteFile(path, []byte{99, 0, 1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadSnapshot(path)
	if err == nil {
		t.Fatal("expected error for unknown major version")
	}
}

func TestReadSnapshotRejectsTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data")
	if err := os.WriteFile(path, []byte{1}, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadSnapshot(path)
	if err == nil {
		t.Fatal("expected error for truncated header")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")

	cfg := &ConfigRecord{Name: "docs", Dimension: 128, UseIVF: true, NClusters: 16, NProbe: 2}
	if err := WriteConfig(path, cfg); err != nil {
		t.Fatalf("WriteConfig() error = %v", err)
	}

	got, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	if *got != *cfg {
		t.Errorf("got %+v, want %+v", got, cfg)
	}
}

func TestReadLegacyText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.json")
	content := `[{"id":"a","vector":[1,0],"metadata":{"src":"cam","count":5,"active":true}}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, err := ReadLegacyText(path)
	if err != nil {
		t.Fatalf("ReadLegacyText() error = %v", err)
	}
	if len(snap.Entries) != 1 || snap.Entries[0].ID != "a" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Entries[0].Metadata["count"].Kind != KindInt || snap.Entries[0].Metadata["count"].Int != 5 {
		t.Errorf("count not parsed as int: %+v", snap.Entries[0].Metadata["count"])
	}
}
