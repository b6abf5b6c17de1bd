// Command tessera trains the shape classifier on an ImageFolder dataset
// and reports held-out accuracy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/tessera-ml/tessera/internal/autodiff"
	"github.com/tessera-ml/tessera/internal/backend/cpu"
	"github.com/tessera-ml/tessera/internal/config"
	"github.com/tessera-ml/tessera/internal/dataset"
	"github.com/tessera-ml/tessera/internal/model"
	"github.com/tessera-ml/tessera/internal/optim"
	"github.com/tessera-ml/tessera/internal/trainer"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration")
	dataDir := flag.String("data", "", "dataset directory (overrides config)")
	epochs := flag.Int("epochs", 0, "number of epochs (overrides config)")
	batchSize := flag.Int("batch-size", 0, "batch size (overrides config)")
	lr := flag.Float64("lr", 0, "learning rate (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("tessera: %v", err)
		}
	}
	cfg.Apply(config.Overrides{
		DataDir:      *dataDir,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: float32(*lr),
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("tessera: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("tessera: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if cfg.Dataset.Archive != "" {
		log.Printf("extracting archive=%s dest=%s", cfg.Dataset.Archive, cfg.Dataset.Dir)
		if err := dataset.ExtractZip(cfg.Dataset.Archive, cfg.Dataset.Dir); err != nil {
			return err
		}
	}

	d, err := dataset.Load(cfg.Dataset.Dir)
	if err != nil {
		return err
	}
	log.Printf("dataset dir=%s samples=%d classes=%v", cfg.Dataset.Dir, d.Len(), d.Classes)

	train, test := dataset.Split(d, cfg.Dataset.SplitRatio, cfg.Dataset.SplitSeed)
	log.Printf("split train=%d test=%d ratio=%.2f seed=%d", train.Len(), test.Len(), cfg.Dataset.SplitRatio, cfg.Dataset.SplitSeed)

	tf := &dataset.Transform{Size: cfg.Model.ImageSize, Mean: 0.5, Std: 0.5}
	var opts []dataset.LoaderOption
	if cfg.Dataset.Shuffle {
		opts = append(opts, dataset.WithShuffle(rand.New(rand.NewSource(cfg.Dataset.SplitSeed))))
	}
	trainLoader := dataset.NewLoader(train, tf, cfg.Training.BatchSize, opts...)
	testLoader := dataset.NewLoader(test, tf, cfg.Training.BatchSize)

	if cfg.Output.PreviewGrid != "" {
		if err := writePreview(trainLoader, cfg.Output.PreviewGrid, cfg.Output.GridColumns); err != nil {
			return err
		}
		log.Printf("preview grid=%s", cfg.Output.PreviewGrid)
	}

	backend := autodiff.Wrap(cpu.New())
	rng := rand.New(rand.NewSource(cfg.Model.Seed))
	m := model.NewClassifier(cfg.Model.ImageSize, d.NumClasses(), rng, backend)

	var opt optim.Optimizer[*autodiff.Backend[*cpu.Backend]]
	switch cfg.Training.Optimizer {
	case "sgd":
		opt = optim.NewSGD(m.Parameters(), cfg.Training.LearningRate, cfg.Training.Momentum)
	case "adam":
		opt = optim.NewAdam(m.Parameters(), cfg.Training.LearningRate)
	}
	log.Printf("model image_size=%d classes=%d optimizer=%s lr=%v",
		cfg.Model.ImageSize, d.NumClasses(), cfg.Training.Optimizer, cfg.Training.LearningRate)

	tr := trainer.New(backend, m, opt, trainLoader, testLoader, d.Classes, cfg.Training.Epochs)
	summary, err := tr.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("final loss=%.4f accuracy=%.4f\n", summary.FinalLoss, summary.FinalAccuracy)
	fmt.Println(summary.Confusion)
	return nil
}

// writePreview saves the first training batch as a montage, then rewinds
// the loader so training still sees every sample.
func writePreview(l *dataset.Loader, path string, cols int) error {
	images, _, err := l.Next()
	if err != nil {
		return err
	}
	if images == nil {
		return fmt.Errorf("preview: training set is empty")
	}
	defer l.Reset()
	return dataset.SaveGrid(path, images, cols, 0.5, 0.5)
}
