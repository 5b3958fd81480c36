package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/conduit-lang/metaregistry/runtime/metadata"
)

// Node is the instance type of catalog-declared types. Catalog types carry
// no behavior of their own, only identity.
type Node struct {
	TypeName    string
	SubTypeName string
	NodeName    string
}

func (n *Node) Type() string    { return n.TypeName }
func (n *Node) SubType() string { return n.SubTypeName }
func (n *Node) Name() string    { return n.NodeName }

// NewNode is the factory of every catalog-declared type.
func NewNode(typ, subType, name string) (metadata.Node, error) {
	return &Node{TypeName: typ, SubTypeName: subType, NodeName: name}, nil
}

// Strategy discovers catalogs under a set of files and directories.
// Directories are walked recursively for .yml, .yaml and .json files.
type Strategy struct {
	paths  []string
	format Format
	logger *zap.Logger
}

// NewStrategy returns a strategy over paths. A nil logger discards output.
func NewStrategy(paths []string, format Format, logger *zap.Logger) *Strategy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategy{paths: paths, format: format, logger: logger}
}

// Files returns the catalog files under the strategy's paths, sorted so
// discovery order is stable.
func (s *Strategy) Files() ([]string, error) {
	var files []string
	for _, root := range s.paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("catalog path: %w", err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if IsCatalogFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// IsCatalogFile reports whether path has a catalog extension.
func IsCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml", ".json":
		return true
	}
	return false
}

// Discover loads every catalog file and returns one provider per catalog.
func (s *Strategy) Discover(ctx context.Context) ([]metadata.Provider, error) {
	files, err := s.Files()
	if err != nil {
		return nil, err
	}
	providers := make([]metadata.Provider, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := Load(file, s.format)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("loaded catalog",
			zap.String("path", file),
			zap.String("provider", c.Provider.Name),
			zap.Int("types", len(c.Types)),
			zap.Int("extensions", len(c.Extensions)))
		providers = append(providers, c.AsProvider())
	}
	return providers, nil
}

func (s *Strategy) Description() string {
	return "catalogs(" + strings.Join(s.paths, ", ") + ")"
}
