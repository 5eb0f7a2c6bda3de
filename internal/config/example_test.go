package config_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/robert-malhotra/s1meta/internal/config"
)

func ExampleLoad() {
	// Set required environment variables
	os.Setenv("STAC_BASE_URL", "https://s1meta.example.com")
	os.Setenv("CATALOG_DIR", "/srv/catalog")
	defer os.Unsetenv("STAC_BASE_URL")
	defer os.Unsetenv("CATALOG_DIR")

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Access configuration values
	fmt.Printf("Server: %s\n", cfg.Server.Address())
	fmt.Printf("Catalog: %s\n", cfg.Catalog.Dir)
	fmt.Printf("STAC Version: %s\n", cfg.STAC.Version)
	fmt.Printf("Metrics: %s\n", cfg.Metrics.Path)

	// Output:
	// Server: 0.0.0.0:8080
	// Catalog: /srv/catalog
	// STAC Version: 1.0.0
	// Metrics: /metrics
}

func ExampleLoadCatalog() {
	dir, err := os.MkdirTemp("", "catalog")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	entry := `{"id": "s1a-iw-slc", "title": "IW SLC", "name": "SENTINEL1_DS:/data/S1A_IW_SLC__1SDV_x.SAFE:IW1"}`
	if err := os.WriteFile(filepath.Join(dir, "s1a.json"), []byte(entry), 0644); err != nil {
		log.Fatal(err)
	}

	catalog, err := config.LoadCatalog(dir)
	if err != nil {
		log.Fatal(err)
	}

	if p := catalog.Get("s1a-iw-slc"); p != nil {
		fmt.Printf("Product: %s\n", p.Title)
		fmt.Printf("Name: %s\n", p.Name)
	}
	fmt.Printf("Total products: %d\n", catalog.Count())

	// Output:
	// Product: IW SLC
	// Name: SENTINEL1_DS:/data/S1A_IW_SLC__1SDV_x.SAFE:IW1
	// Total products: 1
}

func ExampleServerConfig_Address() {
	cfg := config.ServerConfig{
		Host: "localhost",
		Port: 8080,
	}

	fmt.Println(cfg.Address())
	// Output: localhost:8080
}
