// Package trainer runs the epoch loop: forward pass, tape backward,
// optimizer step over the training loader, then an evaluation pass over
// the held-out loader.
package trainer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tessera-ml/tessera/internal/autodiff"
	"github.com/tessera-ml/tessera/internal/dataset"
	"github.com/tessera-ml/tessera/internal/metrics"
	"github.com/tessera-ml/tessera/internal/model"
	"github.com/tessera-ml/tessera/internal/nn"
	"github.com/tessera-ml/tessera/internal/optim"
	"github.com/tessera-ml/tessera/internal/tensor"
)

// Trainer owns one training run. Everything executes on the calling
// goroutine; cancellation is checked between batches.
type Trainer[B tensor.Backend] struct {
	backend *autodiff.Backend[B]
	model   *model.Classifier[*autodiff.Backend[B]]
	opt     optim.Optimizer[*autodiff.Backend[B]]
	train   *dataset.Loader
	test    *dataset.Loader
	classes []string
	epochs  int

	// seed is the gradient of the loss with respect to itself.
	seed *tensor.RawTensor
}

// New assembles a trainer.
func New[B tensor.Backend](
	backend *autodiff.Backend[B],
	m *model.Classifier[*autodiff.Backend[B]],
	opt optim.Optimizer[*autodiff.Backend[B]],
	train, test *dataset.Loader,
	classes []string,
	epochs int,
) *Trainer[B] {
	seed := tensor.MustRaw(tensor.Shape{1}, tensor.Float32, backend.Device())
	seed.AsFloat32()[0] = 1
	return &Trainer[B]{
		backend: backend,
		model:   m,
		opt:     opt,
		train:   train,
		test:    test,
		classes: classes,
		epochs:  epochs,
		seed:    seed,
	}
}

// Summary reports the state after the final epoch.
type Summary struct {
	FinalLoss     float64
	FinalAccuracy float64
	Confusion     *metrics.Confusion
}

// Run executes all epochs and returns the final evaluation. Loader errors
// and context cancellation abort the run.
func (t *Trainer[B]) Run(ctx context.Context) (*Summary, error) {
	// A tiny dataset can leave the train side of the split with zero
	// samples; surface that as an error rather than failing mid-epoch.
	if t.train.NumBatches() == 0 {
		return nil, fmt.Errorf("training set is empty: check the dataset size and split ratio")
	}
	var summary *Summary
	for epoch := 1; epoch <= t.epochs; epoch++ {
		if err := t.trainEpoch(ctx, epoch); err != nil {
			return nil, err
		}
		eval, err := t.evaluate(ctx)
		if err != nil {
			return nil, err
		}
		log.Printf("epoch=%d/%d eval_loss=%.4f eval_acc=%.4f", epoch, t.epochs, eval.FinalLoss, eval.FinalAccuracy)
		summary = eval
	}
	return summary, nil
}

func (t *Trainer[B]) trainEpoch(ctx context.Context, epoch int) error {
	t.model.Train()
	t.backend.Tape().StartRecording()
	t.train.Reset()

	lossWin := metrics.NewWindow(t.train.NumBatches())
	accWin := metrics.NewWindow(t.train.NumBatches())
	dataWin := metrics.NewWindow(t.train.NumBatches())
	computeWin := metrics.NewWindow(t.train.NumBatches())
	start := time.Now()
	batch := 0
	seen := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		loadStart := time.Now()
		images, labels, err := t.train.Next()
		if err != nil {
			return err
		}
		if images == nil {
			break
		}
		dataWin.Add(float64(time.Since(loadStart).Milliseconds()))
		batch++
		seen += images.Shape()[0]

		computeStart := time.Now()
		x := tensor.New[float32](images, t.backend)
		y := tensor.New[int32](labels, t.backend)

		out := t.model.Forward(x)
		loss := nn.NLLLoss(out, y)

		grads := t.backend.Tape().Backward(loss.Raw(), t.seed)
		t.opt.Step(grads)
		t.backend.Tape().Clear()
		computeWin.Add(float64(time.Since(computeStart).Milliseconds()))

		lossWin.Add(float64(loss.Item()))
		accWin.Add(nn.Accuracy(out, y))

		log.Printf("epoch=%d batch=%d/%d loss=%.4f acc=%.4f img/s=%.1f data_ms=%.0f compute_ms=%.0f",
			epoch, batch, t.train.NumBatches(),
			lossWin.Mean(), accWin.Mean(),
			float64(seen)/time.Since(start).Seconds(),
			dataWin.Mean(), computeWin.Mean())
	}
	return nil
}

// evaluate runs the test loader with recording stopped and dropout
// disabled.
func (t *Trainer[B]) evaluate(ctx context.Context) (*Summary, error) {
	t.model.Eval()
	t.backend.Tape().StopRecording()
	defer t.backend.Tape().StartRecording()

	t.test.Reset()
	confusion := metrics.NewConfusion(t.classes)
	var totalLoss float64
	seen := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		images, labels, err := t.test.Next()
		if err != nil {
			return nil, err
		}
		if images == nil {
			break
		}
		n := images.Shape()[0]
		seen += n

		x := tensor.New[float32](images, t.backend)
		y := tensor.New[int32](labels, t.backend)

		out := t.model.Forward(x)
		loss := nn.NLLLoss(out, y)
		totalLoss += float64(loss.Item()) * float64(n)
		confusion.RecordBatch(labels.AsInt32(), nn.Predictions(out))
	}

	if seen == 0 {
		return &Summary{Confusion: confusion}, nil
	}
	return &Summary{
		FinalLoss:     totalLoss / float64(seen),
		FinalAccuracy: confusion.Accuracy(),
		Confusion:     confusion,
	}, nil
}
