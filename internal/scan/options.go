package scan

import (
	"runtime"
	"strings"
	"time"
)

// Tuning constants for the scan pipeline.
const (
	// FileBatch is the number of names statted per file task.
	FileBatch = 16384
	// FlushBytes is the staging-buffer size at which a worker pushes rows
	// into its shard writer.
	FlushBytes = 8 << 20
	// ShardWriterBuffer sizes the buffered writer in front of each shard.
	ShardWriterBuffer = 32 << 20
	// MergeWriterBuffer sizes the buffered writer for the final merge.
	MergeWriterBuffer = 16 << 20

	watchInterval = 10 * time.Millisecond
)

// Compression selects how the merged output is written.
type Compression string

const (
	CompressNone Compression = "none"
	CompressGzip Compression = "gzip"
	CompressZstd Compression = "zstd"
)

// Options configures the scanning behavior.
type Options struct {
	// Threads is the number of concurrent workers.
	Threads int

	// Skip lists substrings; entries whose full path contains any of them
	// are not scanned.
	Skip []string

	// Sort buffers all output lines and emits them in bytewise order.
	// Meant for tests and small runs; it does not scale past memory.
	Sort bool

	// Compress selects compression for the merged output file.
	Compress Compression
}

// DefaultOptions returns sensible defaults for scanning.
func DefaultOptions() *Options {
	return &Options{
		Threads:  DefaultThreads(),
		Compress: CompressNone,
	}
}

// DefaultThreads is min(48, max(4, 2*NumCPU)): metadata scans are latency
// bound on network filesystems, so oversubscribe the CPUs, within reason.
func DefaultThreads() int {
	n := 2 * runtime.NumCPU()
	if n < 4 {
		n = 4
	}
	if n > 48 {
		n = 48
	}
	return n
}

// WithThreads sets the worker count.
func (o *Options) WithThreads(n int) *Options {
	if n > 0 {
		o.Threads = n
	}
	return o
}

// WithSort sets sorted-output mode.
func (o *Options) WithSort(sort bool) *Options {
	o.Sort = sort
	return o
}

// WithCompression sets output compression.
func (o *Options) WithCompression(c Compression) *Options {
	o.Compress = c
	return o
}

// AddSkip adds a skip substring.
func (o *Options) AddSkip(substr string) *Options {
	if substr != "" {
		o.Skip = append(o.Skip, substr)
	}
	return o
}

// ShouldSkip checks whether a path matches any skip substring. The match is
// a plain byte-substring test, so it also behaves on non-UTF-8 paths.
func (o *Options) ShouldSkip(path string) bool {
	for _, s := range o.Skip {
		if strings.Contains(path, s) {
			return true
		}
	}
	return false
}
