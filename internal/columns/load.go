package columns

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// aliasFile is the on-disk format of an alias override file:
//
//	aliases:
//	  Tên khách hàng: [buyer, khach mua]
//	  Kỹ thuật viên: [tech]
type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// LoadAliases reads a YAML alias file and merges it over the defaults.
// An empty path returns the defaults.
func LoadAliases(path string) (AliasMap, error) {
	defaults := DefaultAliases()
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return ParseAliases(data, defaults)
}

// ParseAliases decodes YAML alias data and merges it over base.
func ParseAliases(data []byte, base AliasMap) (AliasMap, error) {
	var file aliasFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse alias file: %w", err)
	}
	for name, aliases := range file.Aliases {
		if name == "" {
			return nil, fmt.Errorf("parse alias file: empty column name")
		}
		for _, alias := range aliases {
			if key(alias) == "" {
				return nil, fmt.Errorf("parse alias file: blank alias for %q", name)
			}
		}
	}
	return base.Merge(file.Aliases), nil
}
