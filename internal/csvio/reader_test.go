package csvio

import (
	"bytes"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func readAll(t *testing.T, input string) [][]string {
	t.Helper()
	r := NewReader(strings.NewReader(input))
	var out [][]string
	for {
		fields, err := r.Read()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		row := make([]string, len(fields))
		for i, f := range fields {
			row[i] = string(f)
		}
		out = append(out, row)
	}
}

func TestReaderSplitsRecords(t *testing.T) {
	got := readAll(t, "a,b,c\nd,,f\n")
	want := [][]string{{"a", "b", "c"}, {"d", "", "f"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderLastRecordWithoutNewline(t *testing.T) {
	got := readAll(t, "a,b\nc,d")
	want := [][]string{{"a", "b"}, {"c", "d"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderQuotedFields(t *testing.T) {
	got := readAll(t, "1,\"a,b\"\n2,\"he said \"\"hi\"\"\"\n3,\"line\nbreak\"\n")
	want := [][]string{
		{"1", "a,b"},
		{"2", `he said "hi"`},
		{"3", "line\nbreak"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderQuoteOpeningMidFieldIsLiteral(t *testing.T) {
	got := readAll(t, "a\"b,c\n")
	want := [][]string{{`a"b`, "c"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderArbitraryBytes(t *testing.T) {
	raw := []byte{'x', ',', 0xff, 0x00, 0xfe, '\n'}
	r := NewReader(bytes.NewReader(raw))
	fields, err := r.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(fields) != 2 || !bytes.Equal(fields[1], []byte{0xff, 0x00, 0xfe}) {
		t.Fatalf("unexpected fields: %q", fields)
	}
}

func TestParseUint(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
	}{
		{"0", 0},
		{"42", 42},
		{"18446744073709551615", math.MaxUint64},
		{"18446744073709551616", 0}, // overflow
		{"", 0},
		{"-1", 0},
		{"12a", 0},
		{" 1", 0},
	}
	for _, c := range cases {
		if got := ParseUint([]byte(c.in)); got != c.want {
			t.Errorf("ParseUint(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"1700000000", 1700000000},
		{"-1", -1},
		{"+7", 7},
		{"9223372036854775807", math.MaxInt64},
		{"9223372036854775808", 0}, // overflow
		{"-9223372036854775808", math.MinInt64},
		{"-9223372036854775809", 0}, // overflow
		{"", 0},
		{"-", 0},
		{"abc", 0},
		{"1.5", 0},
	}
	for _, c := range cases {
		if got := ParseInt([]byte(c.in)); got != c.want {
			t.Errorf("ParseInt(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
