package csvio

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/mhalverson/scour/internal/entry"
)

func TestAppendRecordFormatsNineFields(t *testing.T) {
	rec := entry.Record{
		Dev:   64769,
		Ino:   1234,
		Atime: 1699990000,
		Mtime: 1700000000,
		UID:   1000,
		GID:   100,
		Mode:  0o100644,
		Size:  100,
		Disk:  4096,
		Path:  []byte("/root/a.txt"),
	}
	got := string(AppendRecord(nil, &rec))
	want := "64769-1234,1699990000,1700000000,1000,100,33188,100,4096,/root/a.txt\n"
	if got != want {
		t.Fatalf("row mismatch:\n got %q\nwant %q", got, want)
	}
	if n := strings.Count(got, ","); n != FieldCount-1 {
		t.Fatalf("expected %d commas, got %d", FieldCount-1, n)
	}
}

func TestAppendRecordNegativeTimes(t *testing.T) {
	rec := entry.Record{Atime: -1, Mtime: -62135596800, Path: []byte("/x")}
	got := string(AppendRecord(nil, &rec))
	want := "0-0,-1,-62135596800,0,0,0,0,0,/x\n"
	if got != want {
		t.Fatalf("row mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestAppendFieldQuoting(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/plain/path", "/plain/path"},
		{"/with,comma.txt", `"/with,comma.txt"`},
		{`/with"quote.txt`, `"/with""quote.txt"`},
		{"/with\nnewline", "\"/with\nnewline\""},
		{"/with\rcr", "\"/with\rcr\""},
		{"", ""},
	}
	for _, c := range cases {
		if got := string(AppendField(nil, []byte(c.in))); got != c.want {
			t.Errorf("AppendField(%q) = %q, want %q", c.in, got, c.want)
		}
		if got := string(AppendFieldString(nil, c.in)); got != c.want {
			t.Errorf("AppendFieldString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAppendFieldNonUTF8Bytes(t *testing.T) {
	raw := []byte{'/', 0xff, 0xfe, '/', 'f'}
	got := AppendField(nil, raw)
	if !bytes.Equal(got, raw) {
		t.Fatalf("non-UTF-8 path without CSV specials must pass through verbatim, got %q", got)
	}
}

func TestPathRoundTripThroughReader(t *testing.T) {
	paths := [][]byte{
		[]byte("/plain"),
		[]byte("/with,comma"),
		[]byte(`/with"quote`),
		[]byte("/with\nnewline"),
		[]byte("/with\rcr"),
		{'/', 0xff, 0xfe, ',', 0x00, 'x'},
	}
	var buf []byte
	for _, p := range paths {
		rec := entry.Record{Path: p}
		buf = AppendRecord(buf, &rec)
	}

	r := NewReader(bytes.NewReader(buf))
	for i, p := range paths {
		fields, err := r.Read()
		if err != nil {
			t.Fatalf("read record %d: %v", i, err)
		}
		if len(fields) != FieldCount {
			t.Fatalf("record %d: expected %d fields, got %d", i, FieldCount, len(fields))
		}
		if !bytes.Equal(fields[FieldCount-1], p) {
			t.Fatalf("record %d: path %q did not round-trip, got %q", i, p, fields[FieldCount-1])
		}
	}
	if _, err := r.Read(); err != io.EOF {
		t.Fatalf("expected EOF after %d records, got %v", len(paths), err)
	}
}
