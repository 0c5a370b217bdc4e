// Package main provides the Strand CLI.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/pkoukk/tiktoken-go"

	"github.com/strand-ml/strand/backend/cpu"
	"github.com/strand-ml/strand/nn"
	"github.com/strand-ml/strand/tensor"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("Strand %s\n", version)
	case "encode":
		if err := runEncode(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "strand encode: %v\n", err)
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("Strand - Transformer Encoders for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  encode     Tokenize text and run it through a randomly initialized encoder")
}

// runEncode tokenizes the input text, runs it through an encoder stack built
// from the given config, and prints summary statistics of the output. With
// random weights the numbers are meaningless; the command exists to sanity
// check configs and to demo the API end to end.
func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML encoder config (default: a small built-in config)")
	encoding := fs.String("encoding", "cl100k_base", "tiktoken encoding used to tokenize the input")
	hidden := fs.Bool("hidden-states", false, "collect and report per-layer hidden states")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: strand encode [flags] <text>")
	}
	text := fs.Arg(0)

	config, err := loadOrDefaultConfig(*configPath)
	if err != nil {
		return err
	}
	config.OutputHiddenStates = *hidden

	enc, err := tiktoken.GetEncoding(*encoding)
	if err != nil {
		return fmt.Errorf("load encoding %q: %w", *encoding, err)
	}
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) == 0 {
		return fmt.Errorf("input produced no tokens")
	}

	ids := make([]int32, len(tokens))
	for i, t := range tokens {
		ids[i] = int32(t % config.VocabSize)
	}

	backend := cpu.New()
	encoder, err := nn.NewEncoder(nn.RootScope(), config, backend)
	if err != nil {
		return err
	}
	embed := nn.NewEmbedding(nn.RootScope().Sub("embed_tokens"), config.VocabSize, config.DModel, backend)

	input, err := tensor.FromSlice(ids, tensor.Shape{1, len(ids)}, backend)
	if err != nil {
		return err
	}

	out, err := encoder.Forward(input, nil, embed, false, nil)
	if err != nil {
		return err
	}

	fmt.Printf("tokens:  %d\n", len(ids))
	fmt.Printf("output:  %v\n", out.LastHiddenState.Shape())
	mean, std := summarize(out.LastHiddenState.Data())
	fmt.Printf("mean:    %+.6f\n", mean)
	fmt.Printf("std:     %.6f\n", std)
	if *hidden {
		fmt.Printf("hidden states collected: %d\n", len(out.HiddenStates))
	}
	return nil
}

func loadOrDefaultConfig(path string) (*nn.EncoderConfig, error) {
	if path != "" {
		return nn.LoadConfig(path)
	}
	return &nn.EncoderConfig{
		DModel:                128,
		EncoderLayers:         2,
		EncoderAttentionHeads: 4,
		EncoderFFNDim:         256,
		VocabSize:             100352,
		MaxPositionEmbeddings: 512,
	}, nil
}

func summarize(data []float32) (mean, std float64) {
	for _, v := range data {
		mean += float64(v)
	}
	mean /= float64(len(data))
	for _, v := range data {
		d := float64(v) - mean
		std += d * d
	}
	return mean, math.Sqrt(std / float64(len(data)))
}
