package cdecl

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/xxh3"
)

// snapshotVersion is bumped whenever the Surface encoding changes shape.
const snapshotVersion = 1

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cdecl: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

type snapshot struct {
	Version int      `cbor:"v"`
	Surface *Surface `cbor:"s"`
}

// MarshalSurface serializes a surface to canonical CBOR. Equal surfaces
// always produce equal bytes.
func MarshalSurface(s *Surface) ([]byte, error) {
	return cborEncMode.Marshal(snapshot{Version: snapshotVersion, Surface: s})
}

// UnmarshalSurface deserializes a surface written by MarshalSurface.
func UnmarshalSurface(data []byte) (*Surface, error) {
	var snap snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("cdecl: unmarshal surface: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("cdecl: snapshot version %d, want %d", snap.Version, snapshotVersion)
	}
	if snap.Surface == nil {
		return nil, fmt.Errorf("cdecl: snapshot has no surface")
	}
	return snap.Surface, nil
}

// Fingerprint hashes the canonical encoding of the surface.
func (s *Surface) Fingerprint() (string, error) {
	data, err := MarshalSurface(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxh3.Hash(data)), nil
}

// SurfaceDiff lists the function-level differences between two surfaces.
type SurfaceDiff struct {
	Added   []string // declared only in the new surface
	Removed []string // declared only in the old surface
	Changed []string // declared in both with a different signature
}

// Empty reports whether the surfaces declare the same functions.
func (d SurfaceDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares the functions of old and cur. Names are reported in the
// declaration order of the surface they come from.
func Diff(old, cur *Surface) SurfaceDiff {
	var d SurfaceDiff
	for i := range cur.Functions {
		fn := &cur.Functions[i]
		prev, ok := old.Function(fn.Name)
		switch {
		case !ok:
			d.Added = append(d.Added, fn.Name)
		case prev.String() != fn.String():
			d.Changed = append(d.Changed, fn.Name)
		}
	}
	for _, fn := range old.Functions {
		if _, ok := cur.Function(fn.Name); !ok {
			d.Removed = append(d.Removed, fn.Name)
		}
	}
	return d
}
