package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	mgo "gopkg.in/mgo.v2"

	"github.com/spf13/cobra"

	"github.com/pbanos/pxforest/cache"
	"github.com/pbanos/pxforest/checkpoint"
	"github.com/pbanos/pxforest/checkpoint/filestore"
	"github.com/pbanos/pxforest/checkpoint/redisstore"
	"github.com/pbanos/pxforest/checkpoint/sqlstore"
	"github.com/pbanos/pxforest/checkpoint/sqlstore/pgadapter"
	"github.com/pbanos/pxforest/checkpoint/sqlstore/sqlite3adapter"
	pxconfig "github.com/pbanos/pxforest/config"
	"github.com/pbanos/pxforest/forest"
	"github.com/pbanos/pxforest/logging"
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/pximage/provider"
	"github.com/pbanos/pxforest/pximage/provider/mongoindex"
	"github.com/pbanos/pxforest/queue"
	"github.com/pbanos/pxforest/serialize"
	"github.com/pbanos/pxforest/serialize/binfmt"
	"github.com/pbanos/pxforest/serialize/jsonfmt"
	"github.com/pbanos/pxforest/trainer"
	"github.com/pbanos/pxforest/tree"

	redis "gopkg.in/redis.v5"
)

type trainCmdConfig struct {
	*rootCmdConfig
	providerKind   string
	manifestInput  string
	mongoURL       string
	mongoDB        string
	checkpointKind string
	checkpointDir  string
	dsn            string
	redisAddr      string
	output         string
	outputFormat   string
	seed           int64
	workers        int
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a forest from a set of labeled images",
		Long:  `Train a random forest to predict per-pixel labels from a manifest of labeled images.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.run(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVar(&config.providerKind, "provider", "disk", "image provider: disk, mongo")
	cmd.Flags().StringVarP(&config.manifestInput, "manifest", "m", "", "path to a manifest file (CSV or YAML) of data/label image pairs")
	cmd.Flags().StringVar(&config.mongoURL, "mongo-url", "", "MongoDB connection URL (provider=mongo)")
	cmd.Flags().StringVar(&config.mongoDB, "mongo-db", "pxforest", "MongoDB database name (provider=mongo)")
	cmd.Flags().StringVar(&config.checkpointKind, "checkpoint-store", "file", "checkpoint store: file, sqlite, postgres, redis, none")
	cmd.Flags().StringVar(&config.checkpointDir, "checkpoint-dir", ".", "directory for file checkpoints (checkpoint-store=file)")
	cmd.Flags().StringVar(&config.dsn, "dsn", "", "data source name (checkpoint-store=sqlite,postgres)")
	cmd.Flags().StringVar(&config.redisAddr, "redis-addr", "localhost:6379", "Redis address (checkpoint-store=redis)")
	cmd.Flags().StringVarP(&config.output, "output", "o", "forest.out", "path to write the trained forest to")
	cmd.Flags().StringVar(&config.outputFormat, "format", "binary", "forest output format: json, binary")
	cmd.Flags().Int64Var(&config.seed, "seed", 1, "random seed for bagging and candidate sampling")
	cmd.Flags().IntVar(&config.workers, "workers", 1, "number of tree-growing workers; >1 dispatches trees over an in-memory job queue instead of growing them sequentially")
	return cmd
}

func (tc *trainCmdConfig) run() error {
	cfg, err := pxconfig.NewLoader().LoadWithFile(tc.configFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := tc.logger()

	p, err := tc.buildProvider()
	if err != nil {
		return fmt.Errorf("building image provider: %w", err)
	}

	rng := rand.New(rand.NewSource(tc.seed))
	c := cache.New(p, rng, cache.Params{
		SamplesPerImageFraction: cfg.SamplesPerImageFraction,
		BaggingFraction:         cfg.BaggingFraction,
		BackgroundLabel:         cfg.ResolveBackgroundLabel(),
	}, logger)
	c.PrepareBatches(cfg.NumOfTrees)

	var cp forest.Checkpointer
	if tc.checkpointKind != "none" {
		store, err := tc.buildCheckpointStore(cfg)
		if err != nil {
			return fmt.Errorf("building checkpoint store: %w", err)
		}
		cp = checkpoint.NewTreeCheckpointer(store, jsonfmt.New(), checkpoint.JSONTree)
	}

	fp := forest.Params{
		NumTrees:      cfg.NumOfTrees,
		TrainerParams: trainerParamsFromConfig(cfg),
	}
	var built *forest.Forest
	if tc.workers > 1 {
		built, err = tc.buildForestDistributed(context.Background(), rng, c, fp, logger, cp)
	} else {
		built, err = forest.Build(context.Background(), rng, c, fp, logger, cp)
	}
	if err != nil {
		return fmt.Errorf("building forest: %w", err)
	}
	built.BackgroundLabel = cfg.ResolveBackgroundLabel()

	return tc.writeForest(built)
}

// buildForestDistributed grows fp.NumTrees trees across tc.workers goroutines
// pulling from an in-memory queue.Queue, the same Dispatch/Work path a
// process-boundary worker pool would use against a shared Redis-backed
// queue (spec.md §5 "Distributed execution"). Every worker shares rng's
// seed via the dispatched job, not rng itself, so a tree's candidate
// sampling does not depend on which worker pulls its job. Bags are loaded
// from the shared cache in pull order; with a SamplesPerImageFraction below
// 1 their pixel subsamples, and so the trees, depend on that order.
func (tc *trainCmdConfig) buildForestDistributed(ctx context.Context, rng *rand.Rand, c *cache.Cache, fp forest.Params, logger logging.Logger, cp forest.Checkpointer) (*forest.Forest, error) {
	q := queue.New()
	defer q.Stop(ctx)

	seed := rng.Int63()
	if err := forest.Dispatch(ctx, q, fp.NumTrees, seed); err != nil {
		return nil, fmt.Errorf("dispatching tree jobs: %w", err)
	}

	trees := make([]*tree.Tree, fp.NumTrees)
	var mu sync.Mutex
	var wg sync.WaitGroup
	errs := make([]error, tc.workers)
	for w := 0; w < tc.workers; w++ {
		wg.Add(1)
		go func(workerIdx int) {
			defer wg.Done()
			errs[workerIdx] = forest.Work(ctx, q, c, fp.TrainerParams, logger, cp, func(treeIndex int, t *tree.Tree) {
				mu.Lock()
				trees[treeIndex] = t
				mu.Unlock()
			})
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return &forest.Forest{Depth: fp.TrainerParams.Depth, Trees: trees}, nil
}

func (tc *trainCmdConfig) buildProvider() (provider.Provider, error) {
	switch tc.providerKind {
	case "disk":
		if tc.manifestInput == "" {
			return nil, fmt.Errorf("--manifest is required for provider=disk")
		}
		m, err := readManifest(tc.manifestInput)
		if err != nil {
			return nil, err
		}
		return provider.NewDisk(m), nil
	case "mongo":
		if tc.mongoURL == "" {
			return nil, fmt.Errorf("--mongo-url is required for provider=mongo")
		}
		session, err := mgo.Dial(tc.mongoURL)
		if err != nil {
			return nil, fmt.Errorf("dialing mongo: %w", err)
		}
		return mongoindex.Open(session, tc.mongoDB)
	default:
		return nil, fmt.Errorf("unknown provider %q", tc.providerKind)
	}
}

func readManifest(path string) (pximage.Manifest, error) {
	if len(path) > 4 && path[len(path)-4:] == ".csv" {
		return pximage.ReadManifestCSVFile(path)
	}
	return pximage.ReadManifestYAMLFile(path)
}

func (tc *trainCmdConfig) buildCheckpointStore(cfg *pxconfig.Config) (checkpoint.Store, error) {
	switch tc.checkpointKind {
	case "file":
		return filestore.New(tc.checkpointDir, cfg.TemporaryJSONTreeFilePrefix, cfg.TemporaryBinaryForestFilePrefix), nil
	case "sqlite":
		return sqlstore.Open("sqlite3", tc.dsn, sqlite3adapter.New())
	case "postgres":
		return sqlstore.Open("postgres", tc.dsn, pgadapter.New())
	case "redis":
		rc := redis.NewClient(&redis.Options{Addr: tc.redisAddr})
		return redisstore.New(rc, "pxforest", 24*time.Hour), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint store %q", tc.checkpointKind)
	}
}

func (tc *trainCmdConfig) writeForest(f *forest.Forest) error {
	out, err := os.Create(tc.output)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tc.output, err)
	}
	defer out.Close()

	wf := serialize.WireForest{BackgroundLabel: f.BackgroundLabel, Trees: make([]serialize.WireTree, len(f.Trees))}
	for i, t := range f.Trees {
		wf.Trees[i] = serialize.TreeToWire(t)
	}

	codec, err := forestCodecFor(tc.outputFormat)
	if err != nil {
		return err
	}
	return codec.EncodeForest(out, wf)
}

func forestCodecFor(format string) (serialize.ForestCodec, error) {
	switch format {
	case "json":
		return jsonfmt.New(), nil
	case "binary":
		return binfmt.New(), nil
	default:
		return nil, fmt.Errorf("unknown forest format %q", format)
	}
}

func trainerParamsFromConfig(cfg *pxconfig.Config) trainer.Params {
	return trainer.Params{
		Depth: cfg.TreeDepth,

		NumFeatures:            cfg.NumOfFeatures,
		NumThresholds:          cfg.NumOfThresholds,
		OffsetXLow:             cfg.FeatureOffsetXRangeLow,
		OffsetXHigh:            cfg.FeatureOffsetXRangeHigh,
		OffsetYLow:             cfg.FeatureOffsetYRangeLow,
		OffsetYHigh:            cfg.FeatureOffsetYRangeHigh,
		ThresholdLow:           cfg.ThresholdRangeLow,
		ThresholdHigh:          cfg.ThresholdRangeHigh,
		AdaptiveThresholdRange: cfg.AdaptiveThresholdRange,
		BinaryImages:           cfg.BinaryImages,

		MinimumNumOfSamples:    cfg.MinimumNumOfSamples,
		MinimumInformationGain: cfg.MinimumInformationGain,

		LevelPartSize: cfg.LevelPartSize,
		NumThreads:    cfg.NumOfThreads,
	}
}
