// Package artifact writes validated snapshots as CSV files plus a manifest
// and reads them back for loading and auditing.
package artifact

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataerr"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/dataset"
	"github.com/Bharadwaj204/Ecom-synthetic-data-platform/internal/schema"
)

// Write encodes every table of snap concurrently, stores the files and then
// the manifest. base supplies the run parameters; Files and SnapshotID are
// filled in here.
func Write(ctx context.Context, store Store, snap *dataset.Snapshot, base Manifest, workers int) (*Manifest, error) {
	tables := snap.Tables()
	files := make([]FileInfo, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, t := range tables {
		g.Go(func() error {
			data, err := EncodeTable(t)
			if err != nil {
				return err
			}
			name := FileName(t.Name())
			if err := store.Put(gctx, name, data); err != nil {
				return err
			}
			files[i] = FileInfo{Table: t.Name(), Name: name, Rows: t.Len(), SHA256: checksum(data)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := base
	m.Files = files
	if err := m.Seal(); err != nil {
		return nil, err
	}
	data, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, ManifestName, data); err != nil {
		return nil, err
	}
	return &m, nil
}

func ReadManifest(ctx context.Context, store Store) (*Manifest, error) {
	data, err := store.Get(ctx, ManifestName)
	if err != nil {
		return nil, err
	}
	return DecodeManifest(data)
}

// Loaded is a snapshot read back from a store before validation.
type Loaded struct {
	Manifest *Manifest
	Tables   map[string]*dataset.Table
	// Violations found while reading each table: checksum and type failures.
	Violations map[string][]dataerr.Violation
}

// Read fetches the manifest and every table file it lists that the catalog declares.
func Read(ctx context.Context, store Store, catalog *schema.Catalog) (*Loaded, error) {
	m, err := ReadManifest(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest from %s: %w", store.Location(), err)
	}

	out := &Loaded{
		Manifest:   m,
		Tables:     make(map[string]*dataset.Table),
		Violations: make(map[string][]dataerr.Violation),
	}
	for _, def := range catalog.Tables {
		info, ok := m.File(def.Name)
		if !ok {
			return nil, fmt.Errorf("manifest %s lists no file for table %s", m.SnapshotID, def.Name)
		}
		data, err := store.Get(ctx, info.Name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("artifact for table %s missing: %w", def.Name, err)
			}
			return nil, err
		}

		var pre []dataerr.Violation
		if sum := checksum(data); sum != info.SHA256 {
			pre = append(pre, dataerr.Violation{
				Table: def.Name, Rule: "checksum",
				Message: fmt.Sprintf("%s has sha256 %s, manifest says %s", info.Name, sum, info.SHA256),
			})
		}
		t, vs, err := DecodeTable(def, data)
		if err != nil {
			return nil, err
		}
		pre = append(pre, vs...)
		if t.Len() != info.Rows && len(vs) == 0 {
			pre = append(pre, dataerr.Violation{
				Table: def.Name, Rule: "row_count",
				Message: fmt.Sprintf("%s has %d rows, manifest says %d", info.Name, t.Len(), info.Rows),
			})
		}

		out.Tables[def.Name] = t
		out.Violations[def.Name] = pre
	}
	return out, nil
}
