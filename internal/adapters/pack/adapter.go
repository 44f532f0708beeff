// Package pack adapts zipped deck packs: a manifest.yaml describing the
// deck (note-type hint, shared tags, optional field mapping) plus a
// notes.tsv holding the records.
package pack

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/mlevchik/mnemo/internal/importer"
)

const (
	manifestName = "manifest.yaml"
	notesName    = "notes.tsv"
)

// Manifest is the pack's self-description. NoteType and Mapping are
// hints; the caller decides what the session actually targets.
type Manifest struct {
	Name     string                 `yaml:"name"`
	NoteType string                 `yaml:"note_type"`
	Tags     []string               `yaml:"tags"`
	Mapping  *importer.FieldMapping `yaml:"mapping"`
}

// Adapter streams records out of a deck pack. It implements
// importer.RecordSource; Close releases the underlying archive.
type Adapter struct {
	archive   *zip.ReadCloser
	manifest  Manifest
	notesFile io.ReadCloser
	reader    *csv.Reader
	recordNum int
}

// Open validates the archive layout and parses the manifest. Both
// manifest.yaml and notes.tsv must be present; anything else in the
// archive (media, styling) is ignored.
func Open(path string) (*Adapter, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pack: %w", err)
	}

	manifest, err := readManifest(archive)
	if err != nil {
		archive.Close()
		return nil, err
	}

	notesFile, err := openEntry(archive, notesName)
	if err != nil {
		archive.Close()
		return nil, err
	}

	reader := csv.NewReader(notesFile)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	return &Adapter{
		archive:   archive,
		manifest:  manifest,
		notesFile: notesFile,
		reader:    reader,
	}, nil
}

// Manifest exposes the parsed pack description.
func (a *Adapter) Manifest() Manifest {
	return a.manifest
}

// Hints implements the adapter hint contract using the manifest.
func (a *Adapter) Hints() importer.Hints {
	return importer.Hints{
		NoteType: a.manifest.NoteType,
		Mapping:  a.manifest.Mapping,
	}
}

// Next implements importer.RecordSource. Manifest tags apply to every
// record.
func (a *Adapter) Next() (importer.RawRecord, error) {
	for {
		row, err := a.reader.Read()
		if err == io.EOF {
			return importer.RawRecord{}, io.EOF
		}
		if err != nil {
			return importer.RawRecord{}, fmt.Errorf("malformed row in %s: %w", notesName, err)
		}
		if len(row) == 1 && row[0] == "" {
			continue
		}

		a.recordNum++
		return importer.RawRecord{
			Index:  a.recordNum,
			Fields: row,
			Tags:   a.manifest.Tags,
		}, nil
	}
}

func (a *Adapter) Close() error {
	if a.notesFile != nil {
		a.notesFile.Close()
	}
	return a.archive.Close()
}

func readManifest(archive *zip.ReadCloser) (Manifest, error) {
	f, err := openEntry(archive, manifestName)
	if err != nil {
		return Manifest{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read %s: %w", manifestName, err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("invalid %s: %w", manifestName, err)
	}
	return manifest, nil
}

func openEntry(archive *zip.ReadCloser, name string) (io.ReadCloser, error) {
	for _, f := range archive.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("pack is missing %s", name)
}

// Compile-time interface check
var _ importer.RecordSource = (*Adapter)(nil)
