package product

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DatasetPrefix starts every dataset name.
const DatasetPrefix = "SENTINEL1_DS"

// Identity names a dataset of a SAFE product: SENTINEL1_DS:<path>:<dsid>.
// An empty DSID names the whole product.
type Identity struct {
	Path        string
	SAFE        string
	DSID        string
	ProductType string
}

// ParseIdentity accepts either a product path or a full dataset name. The
// path may itself contain ':'.
func ParseIdentity(name string) (Identity, error) {
	if !strings.HasPrefix(name, DatasetPrefix+":") {
		name = DatasetPrefix + ":" + name + ":"
	}
	parts := strings.Split(name, ":")
	if len(parts) < 3 {
		return Identity{}, fmt.Errorf("%w: %q", ErrInvalidIdentity, name)
	}
	path := strings.Join(parts[1:len(parts)-1], ":")
	if path == "" {
		return Identity{}, fmt.Errorf("%w: %q has no path", ErrInvalidIdentity, name)
	}
	path = filepath.Clean(path)

	id := Identity{
		Path: path,
		SAFE: filepath.Base(path),
		DSID: parts[len(parts)-1],
	}
	id.ProductType = "XXX"
	if tokens := strings.Split(id.SAFE, "_"); len(tokens) >= 3 && tokens[2] != "" {
		id.ProductType = tokens[2]
	}
	return id, nil
}

// WithDSID returns the identity of one dataset of the same product.
func (id Identity) WithDSID(dsid string) Identity {
	id.DSID = dsid
	return id
}

// Name is the full dataset name.
func (id Identity) Name() string {
	return DatasetPrefix + ":" + id.Path + ":" + id.DSID
}

// ShortName is the dataset name with the SAFE base name instead of the full
// path.
func (id Identity) ShortName() string {
	return DatasetPrefix + ":" + id.SAFE + ":" + id.DSID
}

// Manifest is the manifest document of the product.
func (id Identity) Manifest() string {
	return filepath.Join(id.Path, "manifest.safe")
}

func (id Identity) String() string {
	return id.Name()
}
