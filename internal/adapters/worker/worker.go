// Package worker reads export files concurrently with a bounded pool.
package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/okian/discleague/internal/adapters/source"
	"github.com/okian/discleague/internal/domain/model"
	"github.com/okian/discleague/pkg/logger"
)

// Loader reads one export file into a table.
type Loader interface {
	Load(ctx context.Context, path string) (model.Table, error)
}

// Result is the outcome of loading one file.
type Result struct {
	File  source.ExportFile
	Table model.Table
	Err   error
}

// Pool fans file loads out to a fixed number of workers.
type Pool struct {
	loader  Loader
	workers int
	logger  logger.Logger
}

// NewPool creates a pool with a single worker unless WithWorkers says otherwise.
func NewPool(loader Loader, opts ...Option) *Pool {
	p := &Pool{
		loader:  loader,
		workers: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Component("worker-pool")
	}
	return p
}

// LoadAll loads every file and returns one Result per file in the order the
// files were given, regardless of which worker finished first. Files not yet
// started when ctx is cancelled carry ctx's error.
func (p *Pool) LoadAll(ctx context.Context, files []source.ExportFile) []Result {
	out := make([]Result, len(files))
	if len(files) == 0 {
		return out
	}

	jobs := make(chan int)
	workers := min(p.workers, len(files))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run(ctx, &wg, "worker-"+strconv.Itoa(i), jobs, files, out)
	}

feed:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			for j := i; j < len(files); j++ {
				out[j] = Result{File: files[j], Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return out
}

// Each index is written by exactly one worker, so out needs no lock.
func (p *Pool) run(ctx context.Context, wg *sync.WaitGroup, name string, jobs <-chan int, files []source.ExportFile, out []Result) {
	defer wg.Done()
	log := p.logger.Named(name)

	for i := range jobs {
		f := files[i]
		start := time.Now()
		tbl, err := p.loader.Load(ctx, f.Path)
		out[i] = Result{File: f, Table: tbl, Err: err}
		if err != nil {
			log.Debug(ctx, "load failed", logger.String("file", f.Path), logger.Error(err))
			continue
		}
		log.Debug(ctx, "file loaded",
			logger.String("file", f.Path),
			logger.Int("rows", len(tbl.Rows)),
			logger.Int("ms", int(time.Since(start).Milliseconds())),
		)
	}
}
