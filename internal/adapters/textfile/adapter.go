// Package textfile adapts delimited text files (CSV/TSV and friends) to
// the importer's record stream. The format follows the legacy deck
// exports: lines starting with '#' are comments, an optional leading
// "tags:" line applies its tags to every record, and the delimiter is
// guessed from the first data line.
package textfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/mlevchik/mnemo/internal/importer"
)

// delimiters tried in order when guessing the file format.
var delimiters = []rune{'\t', ';', ',', '|'}

// Adapter streams records from a delimited text file. It implements
// importer.RecordSource.
type Adapter struct {
	reader     *csv.Reader
	fileTags   []string
	fieldCount int
	pending    []string
	hasPending bool
	recordNum  int
}

// Open reads the input, strips comments, extracts the leading tags line,
// and guesses the delimiter. An unrecognizable file fails here, before
// any record is produced.
func Open(r io.Reader) (*Adapter, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	// UTF-8 BOM from Windows exports.
	text := strings.TrimPrefix(string(data), "\ufeff")

	var lines []string
	var fileTags []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimRight(line, "\r")
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		if len(lines) == 0 && len(fileTags) == 0 && strings.HasPrefix(trimmed, "tags:") {
			fileTags = strings.Fields(strings.TrimSpace(trimmed[5:]))
			continue
		}
		lines = append(lines, trimmed)
	}

	a := &Adapter{fileTags: fileTags}

	// Drop leading blank lines so delimiter guessing sees real data.
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		// Legitimate empty stream: Next returns io.EOF immediately.
		a.reader = csv.NewReader(strings.NewReader(""))
		return a, nil
	}

	delim := guessDelimiter(lines[0])
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	a.reader = reader

	// Buffer the first record so the field count is available as a hint
	// before consumption starts.
	first, err := reader.Read()
	if err == io.EOF {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unrecognized file format: %w", err)
	}
	a.pending = first
	a.hasPending = true
	a.fieldCount = len(first)

	return a, nil
}

// Next implements importer.RecordSource. Record indexes are 1-based
// positions in the filtered stream.
func (a *Adapter) Next() (importer.RawRecord, error) {
	for {
		var row []string
		if a.hasPending {
			row = a.pending
			a.pending = nil
			a.hasPending = false
		} else {
			var err error
			row, err = a.reader.Read()
			if err == io.EOF {
				return importer.RawRecord{}, io.EOF
			}
			if err != nil {
				return importer.RawRecord{}, fmt.Errorf("malformed row: %w", err)
			}
		}

		// Blank lines parse as a single empty field; skip them without
		// consuming a record index.
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		a.recordNum++
		return importer.RawRecord{
			Index:  a.recordNum,
			Fields: row,
			Tags:   a.fileTags,
		}, nil
	}
}

// Hints reports the observed field count so callers can pick or build a
// mapping before starting the session.
func (a *Adapter) Hints() importer.Hints {
	return importer.Hints{FieldCount: a.fieldCount}
}

// guessDelimiter picks the first known delimiter present in the line,
// falling back to a space the way the legacy importer did.
func guessDelimiter(line string) rune {
	for _, d := range delimiters {
		if strings.ContainsRune(line, d) {
			return d
		}
	}
	return ' '
}

// Compile-time interface check
var _ importer.RecordSource = (*Adapter)(nil)
