package agg

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/renameio"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"

	"github.com/mhalverson/scour/internal/csvio"
	"github.com/mhalverson/scour/internal/logger"
	"github.com/mhalverson/scour/internal/progress"
)

var log = logger.GetLogger("agg")

// Options configures one reduction run.
type Options struct {
	// Now is the reference time in Unix seconds; zero means wall clock.
	Now int64
	// Progress shows a progress bar on stderr. Plain files get a
	// determinate bar from a newline-counting pre-pass; compressed input
	// gets a spinner.
	Progress bool
	// DBPath, when set, additionally writes the rollups to a SQLite
	// database.
	DBPath string
}

// Result summarizes a completed reduction.
type Result struct {
	Records   int64
	Malformed int64
	Groups    int
	Unknown   int
	Elapsed   time.Duration
}

// Run reduces input into a sorted aggregate CSV at output and writes the
// unknown-uid companion file. Malformed rows are skipped and counted;
// output I/O errors are fatal.
func Run(input, output, unknownOut string, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	start := time.Now()

	var total int64 = -1
	if opts.Progress && !isCompressed(input) {
		n, err := countLines(input)
		if err != nil {
			return nil, err
		}
		total = n
	}

	in, err := openInput(input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	bar := progress.New(opts.Progress, total, "reducing")
	defer bar.Finish()

	r := NewReducer(opts.Now)
	cr := csvio.NewReader(in)
	first := true
	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		if first {
			first = false
			if len(fields) > 0 && bytes.Equal(fields[0], []byte("INODE")) {
				continue
			}
		}
		r.Add(fields)
		if n := r.Records(); n%65536 == 0 {
			bar.Set(n)
		}
	}

	if err := r.WriteCSV(output); err != nil {
		return nil, err
	}
	if err := r.WriteUnknown(unknownOut); err != nil {
		return nil, err
	}
	if opts.DBPath != "" {
		if err := r.WriteDB(opts.DBPath, input); err != nil {
			return nil, err
		}
	}

	res := &Result{
		Records:   r.Records(),
		Malformed: r.Malformed(),
		Groups:    r.Groups(),
		Unknown:   len(r.UnknownUIDs()),
		Elapsed:   time.Since(start),
	}
	if res.Malformed > 0 {
		log.Warnf("skipped %d malformed rows", res.Malformed)
	}
	return res, nil
}

// WriteCSV emits the sorted rollups atomically to path.
func (r *Reducer) WriteCSV(path string) error {
	pending, err := renameio.TempFile("", path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer pending.Cleanup()

	bw := bufio.NewWriterSize(pending, 1<<20)
	if _, err := bw.WriteString(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	var line []byte
	err = r.visitSorted(func(folder, owner string, age uint8, st *Stats) error {
		line = line[:0]
		line = csvio.AppendFieldString(line, displayPath(folder))
		line = append(line, ',')
		line = csvio.AppendFieldString(line, owner)
		line = append(line, ',')
		line = strconv.AppendUint(line, uint64(age), 10)
		line = append(line, ',')
		line = strconv.AppendUint(line, st.Files, 10)
		line = append(line, ',')
		line = strconv.AppendUint(line, st.Disk, 10)
		line = append(line, ',')
		line = strconv.AppendInt(line, st.Atime, 10)
		line = append(line, ',')
		line = strconv.AppendInt(line, st.Mtime, 10)
		line = append(line, '\n')
		_, werr := bw.Write(line)
		return werr
	})
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

// WriteUnknown emits the unknown-uid set, one ascending decimal per line.
func (r *Reducer) WriteUnknown(path string) error {
	var b []byte
	for _, uid := range r.UnknownUIDs() {
		b = strconv.AppendUint(b, uid, 10)
		b = append(b, '\n')
	}
	if err := renameio.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write unknown uids: %w", err)
	}
	return nil
}

// openInput opens path, transparently decompressing .gz and .zst.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		rc := zr.IOReadCloser()
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	}
	return f, nil
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".gz") || strings.HasSuffix(path, ".zst")
}

// countLines is the optional progress pre-pass: a straight newline count,
// good enough for a bar total even though quoted paths can span lines.
func countLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	var n int64
	buf := make([]byte, 1<<20)
	for {
		m, err := f.Read(buf)
		n += int64(bytes.Count(buf[:m], []byte{'\n'}))
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("count input: %w", err)
		}
	}
}
