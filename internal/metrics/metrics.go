// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package metrics exports simulation outcomes as Prometheus metrics.
package metrics

import (
	"math"
	"sync"

	"github.com/petenewcomb/makespan-go"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "makespan"

// Recorder accumulates metrics over any number of simulations, which may run
// concurrently.
type Recorder struct {
	runs     prometheus.Counter
	steps    prometheus.Counter
	stalled  prometheus.Counter
	elapsed  prometheus.Histogram
	peakUtil *prometheus.GaugeVec

	mu    sync.Mutex
	peaks map[string]float64
}

// NewRecorder creates a recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Simulations completed.",
		}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Simulation steps taken.",
		}),
		stalled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stalled_runs_total",
			Help:      "Simulations that reached a step in which no job could progress.",
		}),
		elapsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "elapsed_seconds",
			Help:      "Simulated makespan of runs that did not stall.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 12),
		}),
		peakUtil: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resource_peak_utilization",
			Help:      "Highest fraction of throughput claimed on any instance of a resource in any step.",
		}, []string{"resource"}),
		peaks: make(map[string]float64),
	}
	for _, c := range []prometheus.Collector{r.runs, r.steps, r.stalled, r.elapsed, r.peakUtil} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Options returns the simulation options that feed the recorder.
func (r *Recorder) Options() []makespan.Option {
	return []makespan.Option{makespan.WithObserver(r.Step)}
}

// Step records one step report.
func (r *Recorder) Step(rep *makespan.StepReport) {
	r.steps.Inc()
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range rep.Resources {
		// Zero-throughput instances have no defined utilization.
		if math.IsNaN(u.Max) {
			continue
		}
		name := u.Resource.String()
		if prev, ok := r.peaks[name]; ok && prev >= u.Max {
			continue
		}
		r.peaks[name] = u.Max
		r.peakUtil.WithLabelValues(name).Set(u.Max)
	}
}

// Result records the outcome of a finished simulation.
func (r *Recorder) Result(res *makespan.Result) {
	r.runs.Inc()
	if res.Stalled {
		r.stalled.Inc()
		return
	}
	r.elapsed.Observe(res.Elapsed)
}
