package types

// ImportResult reports the outcome of merging a decoded document into the
// window store. It is always returned, even on total failure: per-candidate
// problems collect in Errors while the rest of the batch proceeds.
type ImportResult struct {
	RestoredWindows  []WindowRecord `json:"restored_windows"`
	Errors           []*Error       `json:"errors"`
	OriginalMetadata *DocMetadata   `json:"original_metadata,omitempty"`
	IDMapping        map[int]int    `json:"id_mapping"`
}

// NewImportResult creates an empty result ready to accumulate
func NewImportResult() *ImportResult {
	return &ImportResult{
		RestoredWindows: []WindowRecord{},
		Errors:          []*Error{},
		IDMapping:       map[int]int{},
	}
}

// Partial reports whether some candidates restored and some failed
func (r *ImportResult) Partial() bool {
	return len(r.Errors) > 0 && len(r.RestoredWindows) > 0
}

// Failed reports whether nothing restored and at least one error occurred
func (r *ImportResult) Failed() bool {
	return len(r.Errors) > 0 && len(r.RestoredWindows) == 0
}
