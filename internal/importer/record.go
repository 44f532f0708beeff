package importer

import "io"

// RawRecord is one note-shaped row produced by a format adapter: an
// ordered sequence of field strings plus optional tags. Index is the
// record's position in the source file (1-based where the format has
// lines) and is carried through to report problems.
type RawRecord struct {
	Index  int
	Fields []string
	Tags   []string
}

// RecordSource is the producer contract every format adapter implements.
// Next returns records strictly in source order and io.EOF once the
// stream is exhausted. Any other error is fatal to the session. Streams
// are finite and not restartable once consumed.
type RecordSource interface {
	Next() (RawRecord, error)
}

// Hints are adapter suggestions surfaced to the caller before a session
// starts. The caller, not the engine, decides the final note type and
// mapping.
type Hints struct {
	NoteType   string
	FieldCount int
	Mapping    *FieldMapping
}

// SliceSource adapts an in-memory record slice to RecordSource. Used by
// tests and by callers that already hold fully parsed input.
type SliceSource struct {
	records []RawRecord
	pos     int
}

func NewSliceSource(records []RawRecord) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (RawRecord, error) {
	if s.pos >= len(s.records) {
		return RawRecord{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}
