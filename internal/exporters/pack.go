// Package exporters writes collection content back out. The pack
// exporter is the inverse of the pack adapter: it produces a zip archive
// with a manifest.yaml and a notes.tsv that re-imports losslessly.
package exporters

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mlevchik/mnemo/internal/database/notes"
	"github.com/mlevchik/mnemo/internal/entities"
	"github.com/mlevchik/mnemo/internal/importer"
)

// packManifest mirrors the manifest shape the pack adapter reads.
type packManifest struct {
	Name     string                 `yaml:"name"`
	NoteType string                 `yaml:"note_type"`
	Tags     []string               `yaml:"tags,omitempty"`
	Mapping  *importer.FieldMapping `yaml:"mapping,omitempty"`
}

// ExportResult summarizes one export run.
type ExportResult struct {
	NotesExported int
	Path          string
}

// PackExporter exports all notes of one note type into a deck pack.
type PackExporter struct {
	repo *notes.Repository
}

func NewPackExporter(repo *notes.Repository) *PackExporter {
	return &PackExporter{repo: repo}
}

// Export writes the pack to outPath. Per-note tags go into a trailing
// column past the note-type fields; the manifest carries a mapping with
// that tags column, so re-importing the pack restores them.
func (e *PackExporter) Export(noteTypeName, deckName, outPath string) (*ExportResult, error) {
	noteType, err := e.repo.NoteTypeByName(noteTypeName)
	if err != nil {
		return nil, fmt.Errorf("unknown note type %q: %w", noteTypeName, err)
	}

	var exported []entities.Note
	exported, err = e.repo.SearchNotes(noteType.ID, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to scan notes: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create pack: %w", err)
	}
	defer out.Close()

	archive := zip.NewWriter(out)

	mapping := importer.NewIdentityMapping(len(noteType.Fields))
	mapping.TagsColumn = len(noteType.Fields)
	if err := writeManifest(archive, packManifest{
		Name:     deckName,
		NoteType: noteType.Name,
		Mapping:  &mapping,
	}); err != nil {
		return nil, err
	}
	if err := writeNotes(archive, exported, len(noteType.Fields)); err != nil {
		return nil, err
	}

	if err := archive.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize pack: %w", err)
	}
	return &ExportResult{NotesExported: len(exported), Path: outPath}, nil
}

func writeManifest(archive *zip.Writer, manifest packManifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	w, err := archive.Create("manifest.yaml")
	if err != nil {
		return fmt.Errorf("failed to add manifest: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func writeNotes(archive *zip.Writer, exported []entities.Note, fieldCount int) error {
	w, err := archive.Create("notes.tsv")
	if err != nil {
		return fmt.Errorf("failed to add notes file: %w", err)
	}

	tsv := csv.NewWriter(w)
	tsv.Comma = '\t'
	for i := range exported {
		row := exported[i].FieldValues()
		for len(row) < fieldCount {
			row = append(row, "")
		}
		row = append(row, joinTags(exported[i].TagNames()))
		if err := tsv.Write(row); err != nil {
			return fmt.Errorf("failed to write note %d: %w", exported[i].ID, err)
		}
	}
	tsv.Flush()
	return tsv.Error()
}

func joinTags(tags []string) string {
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += " "
		}
		out += t
	}
	return out
}
