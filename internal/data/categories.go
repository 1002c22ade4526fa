package data

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// categoriesFile is the on-disk shape of data/category-mappings.yaml.
type categoriesFile struct {
	Categories map[string][]string `yaml:"categories"`
}

// LoadCategoryMappings reads the category -> symbols table and inverts it
// into the symbol -> category mapping the concentration analyzer consumes.
// Symbols are uppercased; a symbol listed under two categories is an error
// since shares must sum to 100.
func LoadCategoryMappings(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category mappings file: %w", err)
	}

	var file categoriesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse category mappings file: %w", err)
	}

	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("category mappings file %s contains no categories", path)
	}

	mapping := make(map[string]string)
	for category, symbols := range file.Categories {
		for _, symbol := range symbols {
			symbol = strings.ToUpper(strings.TrimSpace(symbol))
			if symbol == "" {
				return nil, fmt.Errorf("category %s lists an empty symbol", category)
			}
			if prev, dup := mapping[symbol]; dup {
				return nil, fmt.Errorf("symbol %s mapped to both %s and %s", symbol, prev, category)
			}
			mapping[symbol] = category
		}
	}

	return mapping, nil
}
