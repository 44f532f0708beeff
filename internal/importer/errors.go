package importer

import (
	"errors"
	"fmt"
)

// ErrCanceled is returned by Session.Run when the caller cancels the
// context between records. The whole batch is rolled back.
var ErrCanceled = errors.New("import canceled")

// ErrSessionFinished is returned when Run is called on a session that
// already reached a terminal state. Sessions are single use.
var ErrSessionFinished = errors.New("import session already finished")

// MappingError is a per-record failure: the field mapping could not be
// applied to the raw record. The record is skipped and counted as errored;
// the session continues.
type MappingError struct {
	RecordIndex int
	FieldName   string
	Reason      string
}

func (e *MappingError) Error() string {
	if e.FieldName != "" {
		return fmt.Sprintf("record %d: field %q: %s", e.RecordIndex, e.FieldName, e.Reason)
	}
	return fmt.Sprintf("record %d: %s", e.RecordIndex, e.Reason)
}

// AdapterError is a fatal failure of the record source. If it surfaces
// before the first record, the session never mutates the collection; if it
// surfaces mid-stream, the session aborts and rolls back.
type AdapterError struct {
	Err error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter: %v", e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// StorageError is a fatal collection write failure. The session aborts and
// every mutation made during the run is rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
