package scan

import (
	"bufio"
	"context"
	"os"
	"sync/atomic"

	"github.com/mhalverson/scour/internal/csvio"
	"github.com/mhalverson/scour/internal/entry"
	"github.com/mhalverson/scour/internal/stat"
)

// worker drains tasks from the shared queue and appends rows to its own
// shard file. Shards are single-writer; the coordinator reads them only
// after the worker has exited.
type worker struct {
	id       int
	opts     *Options
	queue    chan task
	stack    []task // overflow when the queue is full
	inFlight *atomic.Int64
	entries  *atomic.Int64
	errs     *atomic.Int64

	staging []byte
	pathBuf []byte
	shard   *bufio.Writer
	file    *os.File
	err     error // first fatal shard write error
}

func newWorker(id int, opts *Options, shardPath string, queue chan task, inFlight, entries, errs *atomic.Int64) (*worker, error) {
	f, err := os.Create(shardPath)
	if err != nil {
		return nil, err
	}
	return &worker{
		id:       id,
		opts:     opts,
		queue:    queue,
		inFlight: inFlight,
		entries:  entries,
		errs:     errs,
		staging:  make([]byte, 0, FlushBytes+64<<10),
		shard:    bufio.NewWriterSize(f, ShardWriterBuffer),
		file:     f,
	}, nil
}

// run processes tasks until shutdown or cancellation. Local overflow tasks
// take priority over the queue; their in-flight accounting is identical.
func (w *worker) run(ctx context.Context) {
	defer w.close()
	for {
		if n := len(w.stack); n > 0 {
			t := w.stack[n-1]
			w.stack = w.stack[:n-1]
			w.handle(ctx, t)
			continue
		}
		select {
		case <-ctx.Done():
			return
		case t := <-w.queue:
			if t.kind == taskShutdown {
				return
			}
			w.handle(ctx, t)
		}
	}
}

// handle decrements the in-flight counter only after the task is fully
// processed, successor tasks included. The watcher relies on that ordering.
func (w *worker) handle(ctx context.Context, t task) {
	switch t.kind {
	case taskDir:
		w.scanDir(ctx, t.dir)
	case taskFiles:
		w.statBatch(t.dir, t.names)
	}
	w.inFlight.Add(-1)
}

func (w *worker) scanDir(ctx context.Context, dir string) {
	if ctx.Err() != nil {
		return
	}
	w.statOne(dir)

	ents, err := os.ReadDir(dir)
	if err != nil {
		w.errs.Add(1)
		return
	}

	var page []string
	for i, de := range ents {
		if i%1024 == 0 && ctx.Err() != nil {
			return
		}
		child := joinPath(dir, de.Name())
		if w.opts.ShouldSkip(child) {
			continue
		}
		// Type bits come from the directory listing, so a symlink to a
		// directory counts as a file and is never expanded.
		if de.IsDir() {
			w.enqueue(task{kind: taskDir, dir: child})
			continue
		}
		page = append(page, de.Name())
		if len(page) == FileBatch {
			w.enqueue(task{kind: taskFiles, dir: dir, names: page})
			page = nil
		}
	}
	if len(page) > 0 {
		w.enqueue(task{kind: taskFiles, dir: dir, names: page})
	}
}

func (w *worker) statBatch(dir string, names []string) {
	for _, name := range names {
		w.statOne(joinPath(dir, name))
	}
}

func (w *worker) statOne(path string) {
	rec, err := stat.Lstat(path)
	if err != nil {
		w.errs.Add(1)
		return
	}
	w.pathBuf = append(w.pathBuf[:0], path...)
	rec.Path = w.pathBuf
	w.emit(&rec)
}

func (w *worker) emit(rec *entry.Record) {
	w.staging = csvio.AppendRecord(w.staging, rec)
	w.entries.Add(1)
	if len(w.staging) >= FlushBytes {
		w.flushStaging()
	}
}

func (w *worker) flushStaging() {
	if w.err == nil && len(w.staging) > 0 {
		if _, err := w.shard.Write(w.staging); err != nil {
			w.err = err
		}
	}
	w.staging = w.staging[:0]
}

// enqueue raises the in-flight counter before the send, so the watcher can
// never observe zero while successor work exists. A full queue spills to the
// worker's local stack instead of deadlocking the pool.
func (w *worker) enqueue(t task) {
	w.inFlight.Add(1)
	select {
	case w.queue <- t:
	default:
		w.stack = append(w.stack, t)
	}
}

func (w *worker) close() {
	w.flushStaging()
	if err := w.shard.Flush(); err != nil && w.err == nil {
		w.err = err
	}
	if err := w.file.Close(); err != nil && w.err == nil {
		w.err = err
	}
}

func joinPath(dir, name string) string {
	if len(dir) > 0 && os.IsPathSeparator(dir[len(dir)-1]) {
		return dir + name
	}
	return dir + string(os.PathSeparator) + name
}
