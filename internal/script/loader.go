package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads, schema-validates and decodes one YAML script definition.
func LoadFile(path string) (*Definition, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Load(path, source)
}

// Load decodes a definition from raw YAML source. filename is used in error
// messages only.
func Load(filename string, source []byte) (*Definition, error) {
	if err := Validate(filename, source); err != nil {
		return nil, err
	}
	var def Definition
	if err := yaml.Unmarshal(source, &def); err != nil {
		return nil, NewDefinitionError(ErrCodeParse, "", "decode %s: %v", filename, err)
	}
	if err := def.Check(); err != nil {
		return nil, err
	}
	return &def, nil
}

// LoadDir loads every *.yml / *.yaml definition in a directory, in file name
// order. Subdirectories are not descended into.
func LoadDir(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yml" || ext == ".yaml" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	defs := make([]*Definition, 0, len(files))
	names := map[string]string{}
	for _, f := range files {
		def, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		if prev, dup := names[def.Name]; dup {
			return nil, NewDefinitionError(ErrCodeSchema, def.Name,
				"script %q defined in both %s and %s", def.Name, prev, f)
		}
		names[def.Name] = f
		defs = append(defs, def)
	}
	return defs, nil
}
