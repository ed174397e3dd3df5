package llm

import "context"

// Completer is the text-understanding capability the pipeline depends on.
// Implementations take a fixed system instruction plus a user payload and
// return the raw text of a single response.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}
