// Package autodiff provides tape-based reverse-mode automatic
// differentiation as a decorator over any compute backend. Forward
// operations run on the wrapped backend and are recorded on a gradient
// tape; Backward replays the tape in reverse, propagating gradients from
// the loss back to every tensor that contributed to it.
package autodiff

import (
	"github.com/tessera-ml/tessera/internal/autodiff/ops"
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Tape records operations during the forward pass. It is not safe for
// concurrent use; training runs on a single goroutine.
type Tape struct {
	operations []ops.Operation
	recording  bool

	// inner performs gradient accumulation without being recorded.
	inner tensor.Backend
}

// NewTape creates a tape that accumulates gradients on the given backend.
// Recording starts enabled.
func NewTape(inner tensor.Backend) *Tape {
	return &Tape{inner: inner, recording: true}
}

// StartRecording resumes recording forward operations.
func (t *Tape) StartRecording() { t.recording = true }

// StopRecording suspends recording. Evaluation passes run with recording
// stopped so no memory is spent on gradients.
func (t *Tape) StopRecording() { t.recording = false }

// IsRecording reports whether forward operations are being recorded.
func (t *Tape) IsRecording() bool { return t.recording }

// Record appends an operation to the tape.
func (t *Tape) Record(op ops.Operation) {
	t.operations = append(t.operations, op)
}

// NumOperations returns the number of recorded operations.
func (t *Tape) NumOperations() int { return len(t.operations) }

// Clear drops all recorded operations. Call once per training step, after
// the optimizer has consumed the gradients.
func (t *Tape) Clear() {
	t.operations = t.operations[:0]
}

// Backward walks the tape in reverse from output, seeded with seed (the
// gradient of the loss with respect to output, typically a scalar one), and
// returns the accumulated gradient for every tensor reached. Tensors with
// multiple consumers have their gradients summed.
func (t *Tape) Backward(output, seed *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := map[*tensor.RawTensor]*tensor.RawTensor{output: seed}

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outputGrad, ok := grads[op.Output()]
		if !ok {
			// This operation did not contribute to the loss.
			continue
		}
		for _, ig := range op.Backward(outputGrad) {
			if existing, ok := grads[ig.Input]; ok {
				grads[ig.Input] = t.inner.Add(existing, ig.Grad)
			} else {
				grads[ig.Input] = ig.Grad
			}
		}
	}
	return grads
}
