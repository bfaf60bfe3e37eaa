// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package parallel runs independent, index-tagged units of work across a pool
// of workers while delivering their results in the original order.
//
// Units are produced sequentially, which lets the producer read from a single
// stream cursor, and consumed sequentially, which lets the consumer write to a
// single output. Only the work in between is concurrent.
package parallel

import (
	"io"
	"runtime"
	"sync"

	"github.com/danjacques/goqres/support/logging"

	"github.com/pkg/errors"
)

// NextFunc produces the input for the next unit. It returns io.EOF when there
// are no more units.
//
// If release is not nil, it is called once the unit's input is no longer
// needed, which lets the producer recycle input buffers.
//
// NextFunc is always called from a single goroutine.
type NextFunc func() (in []byte, release func(), err error)

// WorkFunc transforms the input of the unit at index into its output. It may be
// called concurrently for different units and must not share mutable state
// between calls.
type WorkFunc func(index int, in []byte) ([]byte, error)

// EmitFunc receives the output of the unit at index. Units are emitted strictly
// in index order, from the goroutine that called Run.
type EmitFunc func(index int, out []byte) error

// Pipeline is an ordered fan-out/fan-in executor.
type Pipeline struct {
	// Workers is the number of concurrent WorkFunc calls. If <= 0,
	// runtime.GOMAXPROCS(0) is used.
	Workers int

	// Logger, if not nil, receives debug output.
	Logger logging.L
}

// unit is one index-tagged piece of work.
type unit struct {
	index   int
	in      []byte
	release func()
	out     []byte
	err     error
	done    chan struct{}
}

func (p *Pipeline) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Run drives units from next through work to emit.
//
// At most Workers units are pending beyond the one being emitted, which bounds
// memory to a few unit buffers per worker regardless of input size.
//
// Run returns the first error encountered. Once an error occurs, no further
// units are produced; units already in flight are finished and discarded.
// Errors from work are annotated with the unit's index.
func (p *Pipeline) Run(next NextFunc, work WorkFunc, emit EmitFunc) error {
	log := logging.Must(p.Logger)
	workers := p.workers()

	// pending carries units to the collector in production order. Its capacity
	// is what bounds the number of units in flight.
	pending := make(chan *unit, workers)
	tasks := make(chan *unit)
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for u := range tasks {
				u.out, u.err = work(u.index, u.in)
				if u.release != nil {
					u.release()
				}
				u.in, u.release = nil, nil
				close(u.done)
			}
		}()
	}

	produceErr := make(chan error, 1)
	go func() {
		defer close(tasks)
		defer close(pending)

		for index := 0; ; index++ {
			// A unit may still be queued below after stop closes; check before
			// producing another.
			select {
			case <-stop:
				produceErr <- nil
				return
			default:
			}

			in, release, err := next()
			if err != nil {
				if err == io.EOF {
					err = nil
				}
				produceErr <- err
				return
			}

			u := &unit{index: index, in: in, release: release, done: make(chan struct{})}
			select {
			case pending <- u:
			case <-stop:
				if release != nil {
					release()
				}
				produceErr <- nil
				return
			}

			// Every unit queued in pending must reach a worker, or the collector
			// would wait on it forever.
			tasks <- u
		}
	}()

	var err error
	emitted := 0
	for u := range pending {
		<-u.done
		if err != nil {
			// Draining after a failure.
			continue
		}

		switch {
		case u.err != nil:
			err = errors.Wrapf(u.err, "unit #%d", u.index)
		default:
			err = emit(u.index, u.out)
		}
		u.out = nil

		if err != nil {
			close(stop)
			continue
		}
		emitted++
	}
	wg.Wait()

	if perr := <-produceErr; err == nil {
		err = perr
	}
	log.Debugf("Pipeline finished %d unit(s) on %d worker(s).", emitted, workers)
	return err
}

// SplitCount returns the number of chunks of at most chunkSize bytes needed to
// hold size bytes: ceil(size/chunkSize), and 0 for an empty input.
func SplitCount(size uint64, chunkSize int) uint64 {
	if size == 0 || chunkSize <= 0 {
		return 0
	}
	n := size / uint64(chunkSize)
	if size%uint64(chunkSize) != 0 {
		n++
	}
	return n
}
