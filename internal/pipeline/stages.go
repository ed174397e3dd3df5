package pipeline

// Stage identifies how far a message made it through the pipeline. The
// progression is strictly forward; a failure leaves the Result at the
// last stage that completed.
type Stage string

const (
	StageReceived   Stage = "RECEIVED"
	StageExtracted  Stage = "EXTRACTED"
	StageReconciled Stage = "RECONCILED"
	StagePriced     Stage = "PRICED"
	StageRendered   Stage = "RENDERED"
	StageDispatched Stage = "DISPATCHED"
)

// Result records the outcome of driving one message through the pipeline.
// Err is nil on full success or on a clean short-circuit (empty order).
type Result struct {
	RunID       string
	Stage       Stage
	Sender      string
	Items       int
	InvoicePath string
	Err         error
}

// Failed reports whether the message stopped on an error.
func (r Result) Failed() bool {
	return r.Err != nil
}
