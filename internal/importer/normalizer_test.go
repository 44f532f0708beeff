package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlevchik/mnemo/internal/entities"
)

func basicNoteType() *entities.NoteType {
	return &entities.NoteType{
		ID:          1,
		Name:        "Basic",
		KeyFieldOrd: 0,
		Fields: []entities.NoteTypeField{
			{Ord: 0, Name: "Front"},
			{Ord: 1, Name: "Back"},
		},
		Templates: []entities.CardTemplate{
			{Ord: 0, Name: "Card 1"},
		},
	}
}

func TestNormalizeIdentityMapping(t *testing.T) {
	nt := basicNoteType()
	mapping := NewIdentityMapping(2)

	norm, err := Normalize(RawRecord{Index: 1, Fields: []string{"bonjour", "hello"}}, nt, mapping, KeyPolicy{})
	require.NoError(t, err)

	assert.Equal(t, []string{"bonjour", "hello"}, norm.Fields)
	assert.Equal(t, "bonjour", norm.SortField)
	assert.Equal(t, "bonjour", norm.DupeKey)
	assert.Equal(t, 1, norm.RecordIndex)
}

func TestNormalizeShortRecordFillsTrailingFields(t *testing.T) {
	nt := basicNoteType()
	mapping := NewIdentityMapping(2)

	norm, err := Normalize(RawRecord{Index: 3, Fields: []string{"solo"}}, nt, mapping, KeyPolicy{})
	require.NoError(t, err)

	assert.Equal(t, []string{"solo", ""}, norm.Fields)
}

func TestNormalizeMissingRequiredColumn(t *testing.T) {
	nt := basicNoteType()
	mapping := FieldMapping{
		Rules: []FieldRule{
			{FieldIndex: 0},
			{FieldIndex: 5}, // not optional, points past the record
		},
		TagsColumn: -1,
	}

	_, err := Normalize(RawRecord{Index: 2, Fields: []string{"a", "b"}}, nt, mapping, KeyPolicy{})
	require.Error(t, err)

	var mapErr *MappingError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, 2, mapErr.RecordIndex)
	assert.Equal(t, "Back", mapErr.FieldName)
}

func TestNormalizeIgnoreRule(t *testing.T) {
	nt := basicNoteType()
	mapping := FieldMapping{
		Rules: []FieldRule{
			{FieldIndex: 1},
			{Ignore: true},
		},
		TagsColumn: -1,
	}

	norm, err := Normalize(RawRecord{Index: 1, Fields: []string{"unused", "key"}}, nt, mapping, KeyPolicy{})
	require.NoError(t, err)

	assert.Equal(t, []string{"key", ""}, norm.Fields)
}

func TestNormalizeScrubsValues(t *testing.T) {
	nt := basicNoteType()
	mapping := NewIdentityMapping(2)

	norm, err := Normalize(RawRecord{Index: 1, Fields: []string{"  front \r\nline ", `one\ntwo`}}, nt, mapping, KeyPolicy{})
	require.NoError(t, err)

	assert.Equal(t, "front \nline", norm.Fields[0])
	assert.Equal(t, "one\ntwo", norm.Fields[1])
}

func TestNormalizeEmptyKeyField(t *testing.T) {
	nt := basicNoteType()
	mapping := NewIdentityMapping(2)

	_, err := Normalize(RawRecord{Index: 7, Fields: []string{"   ", "back"}}, nt, mapping, KeyPolicy{})
	require.Error(t, err)

	var mapErr *MappingError
	require.ErrorAs(t, err, &mapErr)
	assert.Equal(t, "Front", mapErr.FieldName)
	assert.Contains(t, mapErr.Reason, "empty")
}

func TestNormalizeTagsColumnAndDedupe(t *testing.T) {
	nt := basicNoteType()
	mapping := NewIdentityMapping(2)
	mapping.TagsColumn = 2

	norm, err := Normalize(RawRecord{
		Index:  1,
		Fields: []string{"front", "back", "geo  geo capitals"},
		Tags:   []string{"geo", "europe"},
	}, nt, mapping, KeyPolicy{})
	require.NoError(t, err)

	assert.Equal(t, []string{"geo", "europe", "capitals"}, norm.Tags)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "the quick fox", NormalizeKey("  the   quick\tfox ", KeyPolicy{}))
	assert.Equal(t, "capital", NormalizeKey("Capital", KeyPolicy{CaseFold: true}))
	assert.Equal(t, "Capital", NormalizeKey("Capital", KeyPolicy{}))
	assert.Equal(t, "", NormalizeKey("   ", KeyPolicy{CaseFold: true}))
}
