package metadata

import "fmt"

// Memory is an in-memory Provider. It is filled by Set* calls and is mostly
// useful to tests and to callers that already hold decoded metadata.
type Memory struct {
	docs map[string]*document
}

type document struct {
	scalars      map[string]any
	compounds    map[string]any
	descriptions map[string]string
}

// NewMemory returns an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]*document)}
}

func (m *Memory) doc(name string) *document {
	d, ok := m.docs[name]
	if !ok {
		d = &document{
			scalars:      make(map[string]any),
			compounds:    make(map[string]any),
			descriptions: make(map[string]string),
		}
		m.docs[name] = d
	}
	return d
}

// SetScalar stores a scalar value.
func (m *Memory) SetScalar(doc, name string, v any) {
	m.doc(doc).scalars[name] = v
}

// SetCompound stores a compound record with its provenance description.
func (m *Memory) SetCompound(doc, name string, v any, description string) {
	d := m.doc(doc)
	d.compounds[name] = v
	d.descriptions[name] = description
}

// Documents returns the number of documents held.
func (m *Memory) Documents() int {
	return len(m.docs)
}

// Scalar implements Provider.
func (m *Memory) Scalar(doc, name string) (any, error) {
	d, ok := m.docs[doc]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", doc, ErrNotFound)
	}
	v, ok := d.scalars[name]
	if !ok {
		return nil, fmt.Errorf("scalar %q in %q: %w", name, doc, ErrNotFound)
	}
	return v, nil
}

// Compound implements Provider.
func (m *Memory) Compound(doc, name string) (any, error) {
	d, ok := m.docs[doc]
	if !ok {
		return nil, fmt.Errorf("document %q: %w", doc, ErrNotFound)
	}
	v, ok := d.compounds[name]
	if !ok {
		return nil, fmt.Errorf("compound %q in %q: %w", name, doc, ErrNotFound)
	}
	return v, nil
}

// Describe implements Provider.
func (m *Memory) Describe(doc, name string) (string, error) {
	d, ok := m.docs[doc]
	if !ok {
		return "", fmt.Errorf("document %q: %w", doc, ErrNotFound)
	}
	if s, ok := d.descriptions[name]; ok {
		return s, nil
	}
	if _, ok := d.scalars[name]; ok {
		return fmt.Sprintf("%s: scalar %s", doc, name), nil
	}
	return "", fmt.Errorf("variable %q in %q: %w", name, doc, ErrNotFound)
}
