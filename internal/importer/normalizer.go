package importer

import (
	"strings"

	"github.com/mlevchik/mnemo/internal/entities"
)

// KeyPolicy controls how the duplicate key is derived from the
// uniqueness field. Whitespace runs are always collapsed; case folding is
// per-session because some legacy formats compare keys case-sensitively.
type KeyPolicy struct {
	CaseFold bool
}

// NormalizedNote is a RawRecord resolved against a note type: values
// aligned to the type's field list, tags deduplicated, and the duplicate
// key computed from the uniqueness field.
type NormalizedNote struct {
	RecordIndex int
	Fields      []string
	Tags        []string
	SortField   string
	DupeKey     string
}

// Normalize maps a raw record onto a note type using the given mapping.
// Pure function: no collection state is read or written. Returns a
// *MappingError when the mapping cannot be applied; such errors are
// per-record and recoverable.
func Normalize(raw RawRecord, noteType *entities.NoteType, mapping FieldMapping, policy KeyPolicy) (*NormalizedNote, error) {
	if err := mapping.Validate(len(noteType.Fields)); err != nil {
		return nil, &MappingError{RecordIndex: raw.Index, Reason: err.Error()}
	}

	values := make([]string, len(noteType.Fields))
	for i, rule := range mapping.Rules {
		if rule.Ignore {
			continue
		}
		if rule.FieldIndex >= len(raw.Fields) {
			if rule.Optional {
				continue
			}
			return nil, &MappingError{
				RecordIndex: raw.Index,
				FieldName:   noteType.Fields[i].Name,
				Reason:      "mapped column missing from record",
			}
		}
		values[i] = scrubValue(raw.Fields[rule.FieldIndex])
	}

	keyOrd := noteType.KeyFieldOrd
	if keyOrd < 0 || keyOrd >= len(values) {
		keyOrd = 0
	}
	dupeKey := NormalizeKey(values[keyOrd], policy)
	if dupeKey == "" {
		return nil, &MappingError{
			RecordIndex: raw.Index,
			FieldName:   noteType.Fields[keyOrd].Name,
			Reason:      "uniqueness field is empty",
		}
	}

	tags := raw.Tags
	if mapping.TagsColumn >= 0 && mapping.TagsColumn < len(raw.Fields) {
		tags = append(append([]string{}, tags...), strings.Fields(raw.Fields[mapping.TagsColumn])...)
	}

	return &NormalizedNote{
		RecordIndex: raw.Index,
		Fields:      values,
		Tags:        dedupeTags(tags),
		SortField:   values[keyOrd],
		DupeKey:     dupeKey,
	}, nil
}

// NormalizeKey collapses whitespace runs and optionally folds case. The
// same function is used when indexing existing notes so lookups compare
// like with like.
func NormalizeKey(value string, policy KeyPolicy) string {
	key := strings.Join(strings.Fields(value), " ")
	if policy.CaseFold {
		key = strings.ToLower(key)
	}
	return key
}

// scrubValue removes the escaping adapters are allowed to leak: literal
// newline markers and carriage returns. This is the only format-specific
// cleanup done outside the adapters themselves.
func scrubValue(v string) string {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	v = strings.ReplaceAll(v, `\n`, "\n")
	return strings.TrimSpace(v)
}

// dedupeTags applies set semantics while keeping first-seen order.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
