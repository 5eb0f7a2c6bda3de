package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestLoadCatalog(t *testing.T) {
	tmpDir := t.TempDir()

	writeJSON(t, filepath.Join(tmpDir, "single.json"), ProductEntry{
		ID:      "s1a-iw-slc",
		Title:   "IW SLC over the Alps",
		Name:    "/data/S1A_IW_SLC__1SDV_20210304T050607_20210304T050634_036846_045A5E_1F4B.SAFE",
		Masks:   map[string]string{"lakes": "/masks/lakes.geojson"},
		Rasters: map[string]RasterEntry{"dem": {Resource: "/dem/srtm.tif"}},
	})
	writeJSON(t, filepath.Join(tmpDir, "many.json"), []ProductEntry{
		{ID: "s1a-iw-grd", Name: "/data/S1A_IW_GRDH_1SDV_x.SAFE"},
		{ID: "s1a-iw2", Name: "SENTINEL1_DS:/data/S1A_IW_SLC__1SDV_x.SAFE:IW2"},
	})
	if err := os.WriteFile(filepath.Join(tmpDir, "README.md"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(tmpDir)
	if err != nil {
		t.Fatalf("LoadCatalog() failed: %v", err)
	}

	if catalog.Count() != 3 {
		t.Errorf("expected 3 products, got %d", catalog.Count())
	}

	p := catalog.Get("s1a-iw-slc")
	if p == nil {
		t.Fatal("product not found")
	}
	if p.Masks["lakes"] != "/masks/lakes.geojson" {
		t.Errorf("unexpected masks %v", p.Masks)
	}
	if p.Rasters["dem"].Resource != "/dem/srtm.tif" {
		t.Errorf("unexpected rasters %v", p.Rasters)
	}

	if got := strings.Join(catalog.IDs(), ","); got != "s1a-iw-grd,s1a-iw-slc,s1a-iw2" {
		t.Errorf("IDs() = %s", got)
	}
}

func TestLoadCatalogInvalidDirectory(t *testing.T) {
	_, err := LoadCatalog("/nonexistent/directory")
	if err == nil {
		t.Error("expected error for nonexistent directory")
	}
}

func TestLoadCatalogEmptyDirectory(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := LoadCatalog(tmpDir)
	if err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestLoadCatalogDuplicateID(t *testing.T) {
	tmpDir := t.TempDir()
	writeJSON(t, filepath.Join(tmpDir, "a.json"), ProductEntry{ID: "dup", Name: "/data/a.SAFE"})
	writeJSON(t, filepath.Join(tmpDir, "b.json"), ProductEntry{ID: "dup", Name: "/data/b.SAFE"})

	_, err := LoadCatalog(tmpDir)
	if err == nil {
		t.Error("expected error for duplicate product ID")
	}
}

func TestLoadCatalogInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "bad.json"), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadCatalog(tmpDir)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestValidateProduct(t *testing.T) {
	tests := []struct {
		name      string
		product   *ProductEntry
		wantError bool
	}{
		{
			name:      "valid product",
			product:   &ProductEntry{ID: "p", Name: "/data/p.SAFE"},
			wantError: false,
		},
		{
			name:      "missing ID",
			product:   &ProductEntry{Name: "/data/p.SAFE"},
			wantError: true,
		},
		{
			name:      "ID with slash",
			product:   &ProductEntry{ID: "a/b", Name: "/data/p.SAFE"},
			wantError: true,
		},
		{
			name:      "missing name",
			product:   &ProductEntry{ID: "p"},
			wantError: true,
		},
		{
			name:      "mask without path",
			product:   &ProductEntry{ID: "p", Name: "/data/p.SAFE", Masks: map[string]string{"land": ""}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateProduct(tt.product)
			if (err != nil) != tt.wantError {
				t.Errorf("validateProduct() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestCatalogAdd(t *testing.T) {
	catalog := NewCatalog()

	if err := catalog.Add(&ProductEntry{ID: "p", Name: "/data/p.SAFE"}); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := catalog.Add(&ProductEntry{ID: "p", Name: "/data/q.SAFE"}); err == nil {
		t.Error("expected error for duplicate ID")
	}
	if err := catalog.Add(nil); err == nil {
		t.Error("expected error for nil product")
	}

	if !catalog.Has("p") {
		t.Error("Has(p) = false")
	}
	if catalog.Has("q") {
		t.Error("Has(q) = true")
	}
	if catalog.Get("q") != nil {
		t.Error("Get(q) should be nil")
	}
}

func TestCatalogAll(t *testing.T) {
	catalog := NewCatalog()
	for _, id := range []string{"c", "a", "b"} {
		if err := catalog.Add(&ProductEntry{ID: id, Name: "/data/" + id + ".SAFE"}); err != nil {
			t.Fatal(err)
		}
	}

	all := catalog.All()
	if len(all) != 3 {
		t.Fatalf("expected 3 products, got %d", len(all))
	}
	for i, want := range []string{"a", "b", "c"} {
		if all[i].ID != want {
			t.Errorf("All()[%d] = %s, want %s", i, all[i].ID, want)
		}
	}
}
