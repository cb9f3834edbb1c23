package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lanube360/mirador-lotes/pkg/core"
)

const projectsDir = "proyectos"

// ProjectExport is the root JSON structure of a snapshot file
type ProjectExport struct {
	Project core.Project         `json:"project"`
	Parcels []core.ParcelSummary `json:"lotes"`
}

// ExportedFilePath returns where the snapshot of projectSlug is written.
// Empty when no output directory is configured.
func (b *Backend) ExportedFilePath(projectSlug string) string {
	if b.cfg.OutputDir == "" {
		return ""
	}
	name := projectSlug + ".json"
	if b.cfg.CompressOutput {
		name += ".gz"
	}
	return filepath.Join(b.cfg.OutputDir, projectsDir, name)
}

// exportAll writes one snapshot per project. Callers hold b.mu.
func (b *Backend) exportAll() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Join(b.cfg.OutputDir, projectsDir), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var errs []error
	for slug, rec := range b.projects {
		export := ProjectExport{
			Project: rec.Project,
			Parcels: sortedParcels(rec.Parcels),
		}
		if err := writeSnapshot(b.ExportedFilePath(slug), b.cfg.CompressOutput, export); err != nil {
			errs = append(errs, fmt.Errorf("failed to export %s: %w", slug, err))
		}
	}
	return errors.Join(errs...)
}

func writeSnapshot(path string, compress bool, data ProjectExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	var w io.Writer = f
	if compress {
		gzWriter := gzip.NewWriter(f)
		defer gzWriter.Close()
		w = gzWriter
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// loadSnapshots reads every snapshot in the output directory. Callers hold b.mu.
func (b *Backend) loadSnapshots() error {
	if b.cfg.OutputDir == "" {
		return nil
	}
	dir := filepath.Join(b.cfg.OutputDir, projectsDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz")) {
			continue
		}
		export, err := readSnapshot(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to load snapshot %s: %w", name, err)
		}
		rec := b.record(strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".json"))
		if export.Project.Slug != "" {
			rec.Project = export.Project
			rec.HasProject = true
		}
		for _, p := range export.Parcels {
			rec.Parcels[p.ID] = cloneParcel(p)
		}
	}
	return nil
}

func readSnapshot(path string) (ProjectExport, error) {
	var export ProjectExport
	f, err := os.Open(path)
	if err != nil {
		return export, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return export, err
		}
		defer gzReader.Close()
		r = gzReader
	}

	err = json.NewDecoder(r).Decode(&export)
	return export, err
}
