package file

import (
	"context"
	"fmt"
	"os"

	"composer-quiz/internal/domain"
	"gopkg.in/yaml.v3"
)

// CatalogLoader reads samples from a YAML document of the form:
//
//	samples:
//	  - id: 1
//	    composer: Bach
//	    uri: https://...
//	    artId: art/bach.png
type CatalogLoader struct {
	path string
}

func NewCatalogLoader(path string) *CatalogLoader {
	return &CatalogLoader{path: path}
}

type catalogFile struct {
	Samples []domain.Sample `yaml:"samples"`
}

func (l *CatalogLoader) LoadSamples(_ context.Context) ([]domain.Sample, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var doc catalogFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", l.path, err)
	}
	return doc.Samples, nil
}
