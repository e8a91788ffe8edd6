package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pbanos/pxforest/forest"
	"github.com/pbanos/pxforest/pximage"
	"github.com/pbanos/pxforest/pximage/provider"
	"github.com/pbanos/pxforest/serialize"
	"github.com/pbanos/pxforest/tree"
)

type predictCmdConfig struct {
	*rootCmdConfig
	forestInput   string
	forestFormat  string
	manifestInput string
	imageIndex    int
	x, y          int
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict a pixel's label with a trained forest",
		Long:  `Load a trained forest and predict the label distribution for one pixel of one image in a manifest.`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.run(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
		},
	}
	cmd.Flags().StringVarP(&config.forestInput, "forest", "f", "", "path to a forest previously written by train (required)")
	cmd.Flags().StringVar(&config.forestFormat, "format", "binary", "forest input format: json, binary")
	cmd.Flags().StringVarP(&config.manifestInput, "manifest", "m", "", "path to a manifest file (CSV or YAML) of data/label image pairs (required)")
	cmd.Flags().IntVar(&config.imageIndex, "image", 0, "index into the manifest of the image to predict from")
	cmd.Flags().IntVar(&config.x, "x", 0, "pixel x-coordinate to predict")
	cmd.Flags().IntVar(&config.y, "y", 0, "pixel y-coordinate to predict")
	return cmd
}

func (pc *predictCmdConfig) run() error {
	if pc.forestInput == "" {
		return fmt.Errorf("required forest flag was not set")
	}
	if pc.manifestInput == "" {
		return fmt.Errorf("required manifest flag was not set")
	}

	f, err := pc.loadForest()
	if err != nil {
		return fmt.Errorf("loading forest: %w", err)
	}

	m, err := readManifest(pc.manifestInput)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	p := provider.NewDisk(m)
	img, err := p.Get(context.Background(), pc.imageIndex)
	if err != nil {
		return fmt.Errorf("loading image %d: %w", pc.imageIndex, err)
	}

	sample := pximage.Sample{Image: img, X: pc.x, Y: pc.y}
	prediction, err := f.Predict(sample)
	if err != nil {
		return fmt.Errorf("predicting: %w", err)
	}
	fmt.Println(prediction)
	return nil
}

func (pc *predictCmdConfig) loadForest() (*forest.Forest, error) {
	in, err := os.Open(pc.forestInput)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pc.forestInput, err)
	}
	defer in.Close()

	codec, err := forestCodecFor(pc.forestFormat)
	if err != nil {
		return nil, err
	}
	wf, err := codec.DecodeForest(in)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", pc.forestInput, err)
	}

	trees := make([]*tree.Tree, len(wf.Trees))
	for i, wt := range wf.Trees {
		t, err := serialize.TreeFromWire(wt)
		if err != nil {
			return nil, fmt.Errorf("decoding tree %d: %w", i, err)
		}
		trees[i] = t
	}
	depth := 0
	if len(trees) > 0 {
		depth = trees[0].Depth
	}
	return &forest.Forest{Depth: depth, BackgroundLabel: wf.BackgroundLabel, Trees: trees}, nil
}
