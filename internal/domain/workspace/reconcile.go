package workspace

import (
	"fmt"
	"sync"

	"github.com/orrery-labs/orrery/backend/internal/domain/notebook"
	"github.com/orrery-labs/orrery/backend/internal/domain/window"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/monitoring"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"github.com/orrery-labs/orrery/backend/internal/shared/utils"
)

// Options control a single reconcile run.
type Options struct {
	// ClearExisting empties the store before the first candidate commits.
	// The wipe is not rolled back if later candidates fail.
	ClearExisting bool `json:"clear_existing"`
}

// Reconciler merges decoded notebook candidates into a window store.
// Runs serialize on mu: allocation reads the store's max id and commits in
// separate store calls, so interleaved runs could hand two candidates the
// same id.
type Reconciler struct {
	mu       sync.Mutex
	store    *window.Store
	identity *utils.WindowIdentifier
	metrics  *monitoring.Metrics
}

// NewReconciler creates a reconciler bound to one store.
func NewReconciler(store *window.Store) *Reconciler {
	return &Reconciler{
		store:    store,
		identity: utils.NewWindowIdentifier(nil),
	}
}

// WithMetrics attaches import counters.
func (r *Reconciler) WithMetrics(metrics *monitoring.Metrics) *Reconciler {
	r.metrics = metrics
	return r
}

// Reconcile commits each candidate to the store in order, one at a time.
// A rejected candidate appends to Errors and processing continues, so one
// bad cell never aborts the rest of the batch. Candidates commit
// individually: there is no rollback across the batch. Because allocation
// is sequential, reconciling the same candidate sequence against the same
// store state always yields the same IDMapping.
func (r *Reconciler) Reconcile(decoded *notebook.Decoded, opts Options) *types.ImportResult {
	result := types.NewImportResult()
	if decoded == nil {
		return result
	}
	result.OriginalMetadata = decoded.Metadata

	r.mu.Lock()
	defer r.mu.Unlock()

	if opts.ClearExisting {
		r.store.Clear()
	}

	var remapped int
	for _, cand := range decoded.Candidates {
		rec, moved, fail := r.place(cand)
		if fail != nil {
			result.Errors = append(result.Errors, fail)
			continue
		}
		if moved {
			remapped++
		}
		result.IDMapping[cand.ID] = rec.ID
		result.RestoredWindows = append(result.RestoredWindows, rec)
	}

	if r.metrics != nil {
		r.metrics.IncImports()
		r.metrics.AddImportErrors(len(result.Errors))
		r.metrics.AddImportRemapped(remapped)
	}
	return result
}

// place commits one candidate and reports the materialized record plus
// whether its id had to move.
func (r *Reconciler) place(cand notebook.Candidate) (types.WindowRecord, bool, *types.Error) {
	if fail := validateCandidate(cand); fail != nil {
		return types.WindowRecord{}, false, fail
	}

	incoming := cand.Record(cand.ID)
	occupant, occupied := r.store.Get(cand.ID)

	switch {
	case !occupied:
		return r.store.Insert(incoming), false, nil

	case r.identity.SameWindow(occupant, incoming):
		// The occupant is this candidate's own prior export. Refresh it
		// in place and keep the id.
		r.store.Update(cand.ID, func(rec *types.WindowRecord) {
			rec.Kind = incoming.Kind
			rec.Position = incoming.Position
			rec.State = incoming.State
		})
		rec, _ := r.store.Get(cand.ID)
		return rec, false, nil

	default:
		// Occupied by an unrelated window: the occupant stays untouched
		// and the candidate lands past the current max id.
		moved := cand.Record(r.store.NextID())
		return r.store.Insert(moved), true, nil
	}
}

// validateCandidate applies the per-candidate limits before anything
// touches the store.
func validateCandidate(cand notebook.Candidate) *types.Error {
	if !cand.Kind.Valid() {
		return types.Errorf(types.ErrCandidateInvalid, "cell %d: unknown window kind %q", cand.ID, cand.Kind)
	}
	if err := utils.ValidateContent(cand.State.Content); err != nil {
		return types.WrapError(types.ErrCandidateInvalid, err, fmt.Sprintf("cell %d", cand.ID))
	}
	if err := utils.ValidateTags(cand.State.Tags); err != nil {
		return types.WrapError(types.ErrCandidateInvalid, err, fmt.Sprintf("cell %d", cand.ID))
	}
	return nil
}
