package journal

import (
	"context"

	"github.com/sells-group/districting-cli/internal/editor"
)

// Recorder adapts a Store to the editor's Recorder interface, stamping every
// committed operation with the plan it belongs to.
type Recorder struct {
	store Store
	plan  string
}

// NewRecorder creates a Recorder writing to store under the given plan.
func NewRecorder(store Store, plan string) *Recorder {
	return &Recorder{store: store, plan: plan}
}

func (r *Recorder) Record(ctx context.Context, op editor.Operation) error {
	_, err := r.store.Record(ctx, Entry{
		Plan:          r.plan,
		Kind:          Kind(op.Kind),
		District:      op.District,
		Units:         op.Units,
		VersionBefore: op.VersionBefore,
		VersionAfter:  op.VersionAfter,
		Message:       op.Message,
	})
	return err
}
