package skin

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry holds the built-in skin and the skins found under the configured
// skin directories.
type Registry struct {
	builtin *Skin
	dirs    []string
	skins   map[string]*Skin
}

// NewRegistry creates a registry whose fallback is builtin.
//
// Parameters:
//   - builtin: the embedded skin, always available
//   - dirs: host directories to scan; "~" is expanded to the home directory
func NewRegistry(builtin *Skin, dirs []string) *Registry {
	builtin.BuiltIn = true
	r := &Registry{
		builtin: builtin,
		skins:   make(map[string]*Skin),
	}
	for _, dir := range dirs {
		r.dirs = append(r.dirs, ExpandHome(dir))
	}
	r.skins[builtin.Name] = builtin
	return r
}

// Builtin returns the fallback skin.
func (r *Registry) Builtin() *Skin {
	return r.builtin
}

// Dirs returns the expanded skin directories.
func (r *Registry) Dirs() []string {
	return r.dirs
}

// Lookup returns the skin registered under name.
func (r *Registry) Lookup(name string) (*Skin, bool) {
	s, ok := r.skins[name]
	return s, ok
}

// Names returns all registered skin names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.skins))
	for name := range r.skins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rescan forgets previously discovered skins and scans every skin directory
// again. Missing directories are skipped.
func (r *Registry) Rescan() {
	r.skins = map[string]*Skin{r.builtin.Name: r.builtin}
	for _, dir := range r.dirs {
		if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := r.ScanFS(os.DirFS(dir), dir); err != nil {
			log.Printf("[SkinRegistry] Warning: failed to scan %s: %v", dir, err)
		}
	}
}

// ScanFS registers every direct subdirectory of fsys that holds a manifest.
// Broken manifests are logged and skipped; a skin cannot shadow the built-in one.
func (r *Registry) ScanFS(fsys fs.FS, origin string) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("failed to read skin directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := fs.Stat(fsys, entry.Name()+"/"+ManifestFile); err != nil {
			continue
		}

		s, err := LoadManifest(fsys, entry.Name())
		if err != nil {
			log.Printf("[SkinRegistry] Warning: %v", err)
			continue
		}
		if s.Name == r.builtin.Name {
			log.Printf("[SkinRegistry] Warning: skin '%s' in %s shadows the built-in skin, ignored", s.Name, origin)
			continue
		}
		s.Origin = filepath.Join(origin, entry.Name())
		r.skins[s.Name] = s
		log.Printf("[SkinRegistry] Found skin '%s' at %s", s.Name, s.Origin)
	}
	return nil
}

// SkinForPath returns the name of the registered skin whose directory contains
// the host path p.
func (r *Registry) SkinForPath(p string) (string, bool) {
	for name, s := range r.skins {
		if s.BuiltIn {
			continue
		}
		rel, err := filepath.Rel(s.Origin, p)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return name, true
		}
	}
	return "", false
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(dir string) string {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~"))
}
