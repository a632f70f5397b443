package scan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"

	"github.com/mhalverson/scour/internal/csvio"
	"github.com/mhalverson/scour/internal/logger"
	"github.com/mhalverson/scour/internal/stat"
)

var log = logger.GetLogger("scan")

// Scanner coordinates the filesystem scan: it owns the shared queue, seeds
// it with the root, watches the in-flight counter for termination, and
// merges the per-worker shards into the final output.
type Scanner struct {
	opts  *Options
	queue chan task

	inFlight atomic.Int64
	entries  atomic.Int64
	errs     atomic.Int64
}

// Summary reports what a finished scan did.
type Summary struct {
	Root    string
	Output  string
	Entries int64
	Errors  int64
	Elapsed time.Duration
}

// NewScanner creates a scanner. A nil opts means defaults.
func NewScanner(opts *Options) *Scanner {
	if opts == nil {
		opts = DefaultOptions()
	}
	// Deep queues keep workers off the local-stack fallback for all but the
	// widest directories.
	queueSize := opts.Threads * 4096
	if queueSize < 65536 {
		queueSize = 65536
	}
	return &Scanner{opts: opts, queue: make(chan task, queueSize)}
}

// Progress returns entries emitted and errors counted so far. Safe to call
// concurrently with Run.
func (s *Scanner) Progress() (entries, errs int64) {
	return s.entries.Load(), s.errs.Load()
}

// Run scans root and writes the merged CSV to output. Per-entry stat and
// readdir failures are counted and skipped; output I/O errors are fatal.
func (s *Scanner) Run(ctx context.Context, root, output string) (*Summary, error) {
	start := time.Now()

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	root = filepath.Clean(root)
	if rec, err := stat.Lstat(root); err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	} else if !rec.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	shardDir, err := os.MkdirTemp(filepath.Dir(output), ".scour-shards-*")
	if err != nil {
		return nil, fmt.Errorf("create shard dir: %w", err)
	}
	defer os.RemoveAll(shardDir)

	workers := make([]*worker, s.opts.Threads)
	shards := make([]string, s.opts.Threads)
	for i := range workers {
		shards[i] = filepath.Join(shardDir, fmt.Sprintf("shard-%03d.csv", i))
		w, err := newWorker(i, s.opts, shards[i], s.queue, &s.inFlight, &s.entries, &s.errs)
		if err != nil {
			for _, prev := range workers[:i] {
				prev.close()
			}
			return nil, fmt.Errorf("create shard: %w", err)
		}
		workers[i] = w
	}

	log.Debugf("scanning %s with %d workers, queue depth %d", root, s.opts.Threads, cap(s.queue))

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			w.run(ctx)
		}(w)
	}

	s.inFlight.Add(1)
	s.queue <- task{kind: taskDir, dir: root}

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		s.watch(ctx)
	}()

	wg.Wait()
	<-watchDone

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, w := range workers {
		if w.err != nil {
			return nil, fmt.Errorf("write shard: %w", w.err)
		}
	}

	if err := s.merge(shards, output); err != nil {
		return nil, err
	}

	return &Summary{
		Root:    root,
		Output:  output,
		Entries: s.entries.Load(),
		Errors:  s.errs.Load(),
		Elapsed: time.Since(start),
	}, nil
}

// watch samples the in-flight counter and broadcasts one shutdown per
// worker once it observes zero. Every task raises the counter before it is
// enqueued and lowers it only after full processing, so a zero reading
// means no worker holds unenqueued successor work.
func (s *Scanner) watch(ctx context.Context) {
	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.inFlight.Load() != 0 {
				continue
			}
			for i := 0; i < s.opts.Threads; i++ {
				select {
				case s.queue <- task{kind: taskShutdown}:
				case <-ctx.Done():
					return
				}
			}
			return
		}
	}
}

// merge writes the header and concatenates every shard into the output,
// deleting shards as they are consumed. The file lands atomically via a
// rename, so readers never see a partial scan.
func (s *Scanner) merge(shards []string, output string) error {
	pending, err := renameio.TempFile("", output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer pending.Cleanup()

	var w io.Writer = pending
	var finish []func() error
	switch s.opts.Compress {
	case CompressGzip:
		zw := pgzip.NewWriter(pending)
		w, finish = zw, append(finish, zw.Close)
	case CompressZstd:
		zw, err := zstd.NewWriter(pending)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		w, finish = zw, append(finish, zw.Close)
	}

	bw := bufio.NewWriterSize(w, MergeWriterBuffer)
	if _, err := bw.WriteString(csvio.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if s.opts.Sort {
		err = copySorted(bw, shards)
	} else {
		err = copyShards(bw, shards)
	}
	if err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	for _, fn := range finish {
		if err := fn(); err != nil {
			return fmt.Errorf("finish compression: %w", err)
		}
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

func copyShards(bw *bufio.Writer, shards []string) error {
	buf := make([]byte, 1<<20)
	for _, shard := range shards {
		f, err := os.Open(shard)
		if err != nil {
			return fmt.Errorf("open shard: %w", err)
		}
		_, err = io.CopyBuffer(bw, f, buf)
		f.Close()
		if err != nil {
			return fmt.Errorf("copy shard: %w", err)
		}
		if err := os.Remove(shard); err != nil {
			return fmt.Errorf("remove shard: %w", err)
		}
	}
	return nil
}

// copySorted buffers every record in memory and emits them in bytewise
// order. Quoted paths may span physical lines, so records are split with
// quote parity, not on bare newlines.
func copySorted(bw *bufio.Writer, shards []string) error {
	var records [][]byte
	for _, shard := range shards {
		data, err := os.ReadFile(shard)
		if err != nil {
			return fmt.Errorf("read shard: %w", err)
		}
		records = append(records, splitRecords(data)...)
		if err := os.Remove(shard); err != nil {
			return fmt.Errorf("remove shard: %w", err)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return bytes.Compare(records[i], records[j]) < 0
	})
	for _, rec := range records {
		if _, err := bw.Write(rec); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

func splitRecords(data []byte) [][]byte {
	var recs [][]byte
	start := 0
	quoted := false
	for i, c := range data {
		switch c {
		case '"':
			quoted = !quoted
		case '\n':
			if !quoted {
				recs = append(recs, data[start:i+1])
				start = i + 1
			}
		}
	}
	if start < len(data) {
		recs = append(recs, data[start:])
	}
	return recs
}
