package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry holds entity schemas by name.
type Registry struct {
	schemas map[string]Schema
}

// FileInfo describes a spreadsheet in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]Schema)}
}

// Register adds a schema. Panics on duplicate name.
func (r *Registry) Register(s Schema) {
	key := strings.ToLower(s.Name)
	if _, ok := r.schemas[key]; ok {
		panic("duplicate import schema: " + key)
	}
	r.schemas[key] = s
}

// Get returns the schema for name ("expenses", "Transfers", ...).
func (r *Registry) Get(name string) (Schema, bool) {
	s, ok := r.schemas[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names returns registered schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for _, s := range r.schemas {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in schemas.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Expenses())
	r.Register(Transfers())
	return r
}

// importDir is the subdirectory for files waiting to be imported.
const importDir = "import"

// processedDir is the subdirectory for files that went through an import.
const processedDir = "import/processed"

// Supported reports whether fileName has an importable extension.
func Supported(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case extXLSX, extXLSM, extXLS, extCSV:
		return true
	}
	return false
}

// Scan returns importable files in <repoRoot>/import/.
func Scan(repoRoot string) ([]FileInfo, error) {
	dir := filepath.Join(repoRoot, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(repoRoot, fileName string) error {
	src := filepath.Join(repoRoot, importDir, fileName)
	dstDir := filepath.Join(repoRoot, processedDir)

	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, fileName)
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
