package source

import (
	"context"
	"fmt"
	"os"

	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/catalog"
)

// FileSource reads the product list from a local JSON file on every fetch.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Fetch(ctx context.Context) ([]catalog.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("source: open %s: %w", s.path, err)
	}
	defer f.Close()

	products, err := decodeProducts(f)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", s.path, err)
	}
	return products, nil
}
