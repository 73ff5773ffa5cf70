package profiles

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const smallProfile = `name: small
tables: [trip, building]
scale_factor: 0.01
parts: 2
format: csv
spatial:
  trip:
    dist_type: normal
    geom_type: point
    dim: 2
    seed: 7
    params:
      type: normal
      mu: 0.5
      sigma: 0.1
`

func TestGetByPath_RejectsPathTraversal(t *testing.T) {
	base := t.TempDir()
	repo := NewFileRepository(base)

	inside := filepath.Join(base, "ok.yaml")
	if err := os.WriteFile(inside, []byte(smallProfile), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := repo.GetByPath("ok.yaml")
	if err != nil {
		t.Fatalf("expected profile load inside base dir, got %v", err)
	}
	if p.ID != "ok" || p.Name != "small" || p.Parts != 2 || p.Spatial == nil || p.Spatial.Trip == nil {
		t.Fatalf("unexpected profile: %+v", p)
	}

	outsideFile := filepath.Join(t.TempDir(), "outside.yaml")
	if err := os.WriteFile(outsideFile, []byte("name: bad"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.GetByPath(outsideFile); !errors.Is(err, ErrPathTraversal) {
		t.Fatalf("expected traversal rejection for outside absolute path, got %v", err)
	}
	if _, err := repo.GetByPath("../outside.yaml"); !errors.Is(err, ErrPathTraversal) {
		t.Fatalf("expected traversal rejection for relative path escape, got %v", err)
	}
}

func TestListAndGet(t *testing.T) {
	base := t.TempDir()
	if err := os.WriteFile(filepath.Join(base, "small.yaml"), []byte(smallProfile), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(base, "full.json"), []byte(`{"tables":["trip"],"scale_factor":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	repo := NewFileRepository(base)

	list, err := repo.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "full" || list[1].ID != "small" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if _, err := repo.Get("small"); err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if _, err := repo.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
