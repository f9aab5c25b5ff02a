// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package modelfile reads simulation models from JSON or YAML files.
//
// A model may be split across several files, for instance one describing
// the machine and one describing the workload. The top-level objects of the
// files are merged key by key, with later files replacing the keys of
// earlier ones, before the result is decoded.
package modelfile

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/petenewcomb/makespan-go"
	"sigs.k8s.io/yaml"
)

// ErrNoInput is returned by [Load] and [Merge] when given nothing to read.
var ErrNoInput = errors.New("no model input")

// Load reads and merges the named files.
func Load(paths ...string) (*makespan.Model, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}
	docs := make([]document, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		docs[i] = document{name: path, data: data}
	}
	return merge(docs)
}

// Merge decodes and merges in-memory documents in order.
func Merge(data ...[]byte) (*makespan.Model, error) {
	if len(data) == 0 {
		return nil, ErrNoInput
	}
	docs := make([]document, len(data))
	for i, d := range data {
		docs[i] = document{name: fmt.Sprintf("document %d", i), data: d}
	}
	return merge(docs)
}

type document struct {
	name string
	data []byte
}

func merge(docs []document) (*makespan.Model, error) {
	merged := make(map[string]any)
	for _, doc := range docs {
		var top map[string]any
		if err := yaml.Unmarshal(doc.data, &top); err != nil {
			return nil, fmt.Errorf("%s: %w", doc.name, err)
		}
		maps.Copy(merged, top)
	}

	// Round trip so the merged tree decodes through the model's json tags.
	data, err := yaml.Marshal(merged)
	if err != nil {
		return nil, err
	}
	var m makespan.Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding merged model: %w", err)
	}
	return &m, nil
}
