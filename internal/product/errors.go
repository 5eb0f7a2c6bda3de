package product

import "errors"

var (
	// ErrUnsupportedOperation is returned by per-pixel, orbit and burst
	// queries on a multidataset product.
	ErrUnsupportedOperation = errors.New("unsupported operation on a multidataset product")

	// ErrAmbiguousFootprints is logged when the manifest footprints do not
	// match the sub-datasets one to one. Sub-datasets are then opened to
	// compute their footprints.
	ErrAmbiguousFootprints = errors.New("ambiguous footprints")

	// ErrCyclicProduct is returned when a sub-dataset resolves back to one
	// of its ancestors, or nesting is deeper than expected.
	ErrCyclicProduct = errors.New("cyclic product")

	// ErrResolvedCache is returned when a descriptor carries, or would
	// carry, resolved mask geometry.
	ErrResolvedCache = errors.New("descriptor carries resolved cache")

	// ErrInvalidIdentity is returned for a name that is not a product path.
	ErrInvalidIdentity = errors.New("invalid product identity")

	// ErrInvalidRaster is returned for a raster definition without a name
	// or a resource.
	ErrInvalidRaster = errors.New("invalid raster definition")

	// ErrUnknownKey is returned by ToMap for an unknown key.
	ErrUnknownKey = errors.New("unknown key")
)
