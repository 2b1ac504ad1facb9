package main

import (
	"context"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/semparse/exprun/pkg/dataset"
	"github.com/semparse/exprun/pkg/eval"
	"github.com/semparse/exprun/pkg/pipeline"
	"github.com/semparse/exprun/pkg/pipeline/drawer"
	"github.com/semparse/exprun/pkg/pipeline/measure"
	"github.com/semparse/exprun/pkg/pipeline/model"
	"github.com/semparse/exprun/pkg/rerank"
)

func newRerankCmd() *cobra.Command {
	var (
		datasetFile  string
		decodeFile   string
		features     []string
		evaluatorName string
		train        bool
		step         float64
		maxWeight    float64
		workers      int
		modelPath    string
		saveDecodeTo string
		graphPath    string
	)

	cmd := &cobra.Command{
		Use:   "rerank",
		Short: "Rerank decoder hypotheses with feature weights",
		Long: `Rescores every hypothesis list in a decode file with a weighted feature
combination on top of the decoder score. With --train the weight vector is
grid-searched against the evaluator and saved as a model file; otherwise the
weights come from --model and the reranked decode file and its evaluator
score are produced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadEntries(datasetFile, decodeFile)
			if err != nil {
				return err
			}

			ev, err := eval.Get(evaluatorName)
			if err != nil {
				return err
			}

			if train {
				return trainReranker(cmd.Context(), entries, ev, features, rerank.TrainOptions{
					Step:    step,
					Max:     maxWeight,
					Workers: workers,
				}, modelPath)
			}

			if modelPath == "" {
				return errors.New("a model file is required unless --train is set")
			}

			reranker, params, err := rerank.Load(modelPath)
			if err != nil {
				return err
			}

			return runRerankPipeline(cmd.Context(), reranker, params, entries, ev, workers, saveDecodeTo, graphPath)
		},
	}

	cmd.Flags().StringVar(&datasetFile, "dataset-file", "", "dataset file with the reference programs")
	cmd.Flags().StringVar(&decodeFile, "decode-file", "", "decode file holding hypothesis lists")
	cmd.Flags().StringSliceVar(&features, "features", nil, "feature names to train with")
	cmd.Flags().StringVar(&evaluatorName, "evaluator", eval.MatchEvaluatorName, "evaluator name")
	cmd.Flags().BoolVar(&train, "train", false, "grid-search the weight vector instead of applying a model")
	cmd.Flags().Float64Var(&step, "step", 0.01, "grid step per feature weight")
	cmd.Flags().Float64Var(&maxWeight, "max-weight", 1.01, "exclusive upper bound of each feature weight")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent scoring workers (0 = all CPUs)")
	cmd.Flags().StringVar(&modelPath, "model", "", "reranker model file to load, or save with --train")
	cmd.Flags().StringVar(&saveDecodeTo, "save-decode-to", "", "write the reranked decode file here")
	cmd.Flags().StringVar(&graphPath, "graph", "", "write an SVG of the rerank pipeline here")

	_ = cmd.MarkFlagRequired("dataset-file")
	_ = cmd.MarkFlagRequired("decode-file")

	return cmd
}

func loadEntries(datasetFile, decodeFile string) ([]dataset.Entry, error) {
	examples, err := dataset.LoadExamples(datasetFile)
	if err != nil {
		return nil, err
	}

	results, err := dataset.LoadDecodeResults(decodeFile)
	if err != nil {
		return nil, err
	}

	return dataset.Zip(examples, results)
}

func trainReranker(ctx context.Context, entries []dataset.Entry, ev eval.Evaluator, features []string, opts rerank.TrainOptions, modelPath string) error {
	reranker, err := rerank.New(features)
	if err != nil {
		return err
	}

	reranker.InitFeatures(entries)

	baseline, err := reranker.Performance(entries, ev, make([]float64, reranker.FeatureCount()), true)
	if err != nil {
		return err
	}

	result, err := reranker.Train(ctx, entries, ev, opts)
	if err != nil {
		return err
	}

	logger.Info("grid search done",
		zap.Float64("baseline", baseline),
		zap.Float64("score", result.Score),
		zap.Float64s("parameter", result.Parameter),
		zap.Int("evaluated", result.Evaluated),
	)

	if modelPath == "" {
		return nil
	}

	return reranker.Save(modelPath, result.Parameter)
}

// runRerankPipeline streams the entries through the rerank stages: feature
// initialisation, concurrent rescoring, then a fan-out to the decode-file
// sink and the metric sink.
func runRerankPipeline(ctx context.Context, reranker *rerank.Reranker, params []float64, entries []dataset.Entry, ev eval.Evaluator, workers int, saveDecodeTo, graphPath string) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var pipeOpts []model.Option

	meas := measure.NewDefaultMeasure()

	if graphPath != "" {
		pipeOpts = append(pipeOpts,
			measure.PipelineMeasure(meas),
			drawer.PipelineDrawer(drawer.NewSVGDrawer(graphPath), meas),
		)
	}

	p, err := pipeline.New(ctx, pipeOpts...)
	if err != nil {
		return err
	}

	source, err := pipeline.AddSource(p, "entries", func(ctx context.Context, out chan<- dataset.Entry) error {
		for _, entry := range entries {
			select {
			case out <- entry:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	initialized, err := pipeline.AddStage(p, "init features", source, func(ctx context.Context, entry dataset.Entry) (dataset.Entry, error) {
		reranker.InitEntry(entry)

		return entry, nil
	})
	if err != nil {
		return err
	}

	reranked, err := pipeline.AddStage(p, "rescore", initialized, func(ctx context.Context, entry dataset.Entry) (dataset.Entry, error) {
		return entry, reranker.RerankEntry(entry, params, false)
	}, pipeline.Workers[dataset.Entry](workers))
	if err != nil {
		return err
	}

	branches, err := pipeline.AddFanOut(p, "split", reranked, 2)
	if err != nil {
		return err
	}

	var (
		decodeOut []dataset.Entry
		scored    []dataset.Entry
	)

	err = pipeline.AddSink(p, "collect decodes", branches[0], func(ctx context.Context, entry dataset.Entry) error {
		decodeOut = append(decodeOut, entry)

		return nil
	})
	if err != nil {
		return err
	}

	err = pipeline.AddSink(p, "collect metric", branches[1], func(ctx context.Context, entry dataset.Entry) error {
		scored = append(scored, entry)

		return nil
	})
	if err != nil {
		return err
	}

	if err := p.Run(); err != nil {
		return err
	}

	for _, timing := range measure.Ranking(meas) {
		logger.Debug("stage timing",
			zap.String("step", timing.Name),
			zap.Duration("avg", timing.Average),
		)
	}

	score := evaluateEntries(scored, ev)

	logger.Info("rerank done",
		zap.String("evaluator", ev.Name()),
		zap.Float64("score", score),
		zap.Int("examples", len(scored)),
	)

	if saveDecodeTo == "" {
		return nil
	}

	sort.Slice(decodeOut, func(i, j int) bool {
		return decodeOut[i].Example.ID < decodeOut[j].Example.ID
	})

	results := make([]*dataset.DecodeResult, len(decodeOut))
	for i, entry := range decodeOut {
		results[i] = entry.Result
	}

	return errors.Wrap(dataset.SaveDecodeResults(saveDecodeTo, results), "unable to save reranked decodes")
}

func evaluateEntries(entries []dataset.Entry, ev eval.Evaluator) float64 {
	examples := make([]*dataset.Example, len(entries))
	results := make([]*dataset.DecodeResult, len(entries))

	for i, entry := range entries {
		examples[i] = entry.Example
		results[i] = entry.Result
	}

	return ev.EvaluateDataset(examples, results)
}
