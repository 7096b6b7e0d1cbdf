package motionparams

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// LoadFile reads a motion definition from fsys and parses it with the
// encoding implied by the file extension (.xml, .yaml or .yml). Parse errors
// are *ConfigError values carrying the file name.
func LoadFile(fsys fs.FS, name string, density float64) (*Params, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read motion definition '%s': %w", name, err)
	}

	var params *Params
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".xml":
		params, err = Parse(bytes.NewReader(data), density)
	case ".yaml", ".yml":
		params, err = ParseYAML(data, density)
	default:
		return nil, fmt.Errorf("unsupported motion definition format '%s' (%s)", ext, name)
	}
	if err != nil {
		return nil, withSource(err, name)
	}
	return params, nil
}
