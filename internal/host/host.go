package host

import "context"

// Triple is one potentially file-referencing field reported by the host.
// OwnerLabel is an opaque association such as a material name; it selects
// the texture folder a file lands in.
type Triple struct {
	OwnerID    string `yaml:"owner" json:"owner"`
	Field      string `yaml:"field" json:"field"`
	Value      string `yaml:"value" json:"value"`
	OwnerLabel string `yaml:"label,omitempty" json:"label,omitempty"`
}

// ReferenceProvider supplies every (owner, field, value) triple the host
// considers file-referencing.
type ReferenceProvider interface {
	References(ctx context.Context) ([]Triple, error)
}

// ReferenceWriter overwrites one field with its library path.
type ReferenceWriter interface {
	WriteReference(ctx context.Context, ownerID, field, value string) error
}

// SceneSerializer writes the host's scene template to path. Hosts that
// cannot serialize simply do not implement it.
type SceneSerializer interface {
	SerializeScene(ctx context.Context, path string) error
}
