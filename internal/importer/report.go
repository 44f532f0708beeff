package importer

// Problem describes one per-record issue with enough context to locate it
// in the source file. Warnings are informational; non-warnings mean the
// record was skipped and counted as errored.
type Problem struct {
	RecordIndex int    `json:"record_index"`
	Message     string `json:"message"`
	Warning     bool   `json:"warning,omitempty"`
}

// Report accumulates the outcome of one import session. Created fresh per
// session and returned to the caller; never persisted by the engine
// itself.
type Report struct {
	Added    int       `json:"added"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
	Errored  int       `json:"errored"`
	Problems []Problem `json:"problems,omitempty"`
}

// Seen is the total number of records consumed from the adapter. It
// always equals Added + Updated + Skipped + Errored.
func (r *Report) Seen() int {
	return r.Added + r.Updated + r.Skipped + r.Errored
}

func (r *Report) addError(index int, msg string) {
	r.Errored++
	r.Problems = append(r.Problems, Problem{RecordIndex: index, Message: msg})
}

func (r *Report) addWarning(index int, msg string) {
	r.Problems = append(r.Problems, Problem{RecordIndex: index, Message: msg, Warning: true})
}

// clone returns a copy safe to hand out while the session is running.
func (r *Report) clone() *Report {
	out := *r
	out.Problems = append([]Problem(nil), r.Problems...)
	return &out
}
