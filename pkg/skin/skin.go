// Package skin discovers character skins and loads their motion definitions
// and images.
//
// A skin is a directory holding a skin.yaml manifest, a motion definition
// (XML or YAML) and the PNG frames referenced by it. The built-in skin is
// embedded in the binary; additional skins are found under the configured
// skin directories.
package skin

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/decker502/aneko/internal/motionparams"
)

// ManifestFile is the name of the manifest expected in each skin directory.
const ManifestFile = "skin.yaml"

// ErrInvalidManifest is returned when a manifest lacks required fields.
var ErrInvalidManifest = errors.New("invalid skin manifest")

// Manifest describes a skin.
type Manifest struct {
	Name       string `yaml:"name"`
	Definition string `yaml:"definition"` // motion definition, relative to the skin directory
	Images     string `yaml:"images"`     // image directory, relative to the skin directory
	Author     string `yaml:"author"`
}

// Skin is a discovered skin together with the file tree it lives in.
type Skin struct {
	Manifest
	FS      fs.FS  // rooted at the skin directory
	Origin  string // host path or embedded path, for logs
	BuiltIn bool
}

// LoadManifest reads dir/skin.yaml from fsys.
//
// Returns:
//   - The skin rooted at dir.
//   - ErrInvalidManifest if name or definition is missing.
func LoadManifest(fsys fs.FS, dir string) (*Skin, error) {
	name := path.Join(dir, ManifestFile)
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", name, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", name, err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("%w: %s: name is required", ErrInvalidManifest, name)
	}
	if m.Definition == "" {
		return nil, fmt.Errorf("%w: %s: definition is required", ErrInvalidManifest, name)
	}

	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open skin directory %s: %w", dir, err)
	}
	return &Skin{Manifest: m, FS: sub, Origin: dir}, nil
}

// LoadParams parses the skin's motion definition.
func (s *Skin) LoadParams(density float64) (*motionparams.Params, error) {
	p, err := motionparams.LoadFile(s.FS, s.Definition, density)
	if err != nil {
		return nil, fmt.Errorf("skin '%s': %w", s.Name, err)
	}
	return p, nil
}

// NewImageLoader returns an image loader for the skin's frames.
func (s *Skin) NewImageLoader() *ImageLoader {
	return NewImageLoader(s.FS, s.imageDir())
}

func (s *Skin) imageDir() string {
	if s.Images == "" {
		return "."
	}
	return s.Images
}
