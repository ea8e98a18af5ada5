package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"japanoil-catalog/internal/scraper"
)

// LoadSelectors загружает селекторы из YAML файла поверх таблицы по умолчанию
func LoadSelectors(filePath string) (*scraper.Selectors, error) {
	if filePath == "" {
		return nil, fmt.Errorf("selectors file path is empty")
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open selectors file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close selectors file: %v\n", closeErr)
		}
	}()

	selectors := scraper.DefaultSelectors()
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(selectors); err != nil {
		return nil, fmt.Errorf("failed to parse selectors YAML: %w", err)
	}

	if err := selectors.Validate(); err != nil {
		return nil, fmt.Errorf("selectors validation error: %w", err)
	}

	return selectors, nil
}

// Selectors returns the configured selector table, or the built-in one when
// no file is set.
func (c *Config) Selectors() (*scraper.Selectors, error) {
	if c.SelectorsFile == "" {
		return scraper.DefaultSelectors(), nil
	}
	return LoadSelectors(c.SelectorsFile)
}
