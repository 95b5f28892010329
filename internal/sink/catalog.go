package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-upload-engine/internal/model"
	"go-upload-engine/internal/util"
)

// Catalog is the JSON dataset registry: a single document with a top-level
// "uploads" array. Writes are whole-file replacements serialized by a
// mutex; the replacement itself goes through a temp file and rename so a
// crashed writer never leaves a truncated catalog behind.
type Catalog struct {
	path string
	mu   sync.Mutex
}

type catalogDocument struct {
	Uploads []model.CatalogEntry `json:"uploads"`
}

func NewCatalog(path string) (*Catalog, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog path: %w", err)
	}

	c := &Catalog{path: abs}
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		if err := c.replace(&catalogDocument{Uploads: []model.CatalogEntry{}}); err != nil {
			return nil, fmt.Errorf("initialize catalog: %w", err)
		}
	}

	return c, nil
}

// Register appends an entry and rewrites the catalog.
func (c *Catalog) Register(entry model.CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load()
	if err != nil {
		return err
	}

	doc.Uploads = append(doc.Uploads, entry)
	return c.replace(doc)
}

// Entries returns the registered entries.
func (c *Catalog) Entries() ([]model.CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load()
	if err != nil {
		return nil, err
	}

	return doc.Uploads, nil
}

func (c *Catalog) load() (*catalogDocument, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	doc := &catalogDocument{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	return doc, nil
}

func (c *Catalog) replace(doc *catalogDocument) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}

	if err := os.Rename(tmp, c.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace catalog: %w", err)
	}

	return nil
}

// CatalogRegistrar appends the enhanced metadata of completed datasets to
// the catalog. Non-vetoing; a write failure is logged upstream and the
// completion still succeeds.
type CatalogRegistrar struct {
	catalog *Catalog
}

func NewCatalogRegistrar(catalog *Catalog) *CatalogRegistrar {
	return &CatalogRegistrar{catalog: catalog}
}

func (*CatalogRegistrar) Name() string { return "catalog-registration" }

func (r *CatalogRegistrar) Process(_ context.Context, art *Artifact) error {
	if art.Metadata.FileType != util.FileTypeDataset {
		return nil
	}

	if art.Enhanced == nil {
		return fmt.Errorf("enhanced metadata missing for upload %s", art.Metadata.UploadID)
	}

	return r.catalog.Register(model.CatalogEntry{
		ID:               art.Metadata.UploadID,
		RegisteredAt:     time.Now().UTC().Format(time.RFC3339),
		EnhancedMetadata: *art.Enhanced,
	})
}
