package agg

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/pgzip"

	"github.com/mhalverson/scour/internal/csvio"
)

func writeScanCSV(t *testing.T, path string, rows []string) {
	t.Helper()
	data := csvio.Header
	for _, r := range rows {
		data += r + "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunEndToEnd(t *testing.T) {
	uid := os.Getuid()
	owner := ownerFor(t, uid)

	dir := t.TempDir()
	input := filepath.Join(dir, "scan.csv")
	writeScanCSV(t, input, []string{
		fmt.Sprintf("1-1,0,1700000000,%d,100,33188,10,4096,/x/y/z.bin", uid),
	})

	output := filepath.Join(dir, "scan.agg.csv")
	unknown := filepath.Join(dir, "scan.unk.csv")
	res, err := Run(input, output, unknown, &Options{Now: testNow})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Records != 1 || res.Malformed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	want := []string{
		"path,user,age,files,disk,accessed,modified",
		fmt.Sprintf("/,%s,0,1,4096,0,1700000000", owner),
		fmt.Sprintf("/x,%s,0,1,4096,0,1700000000", owner),
		fmt.Sprintf("/x/y,%s,0,1,4096,0,1700000000", owner),
	}
	if diff := cmp.Diff(want, readLines(t, output)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}

	// The unknown-uid file exists and is empty for a resolvable owner.
	if owner != UnknownOwner {
		data, err := os.ReadFile(unknown)
		if err != nil {
			t.Fatalf("unknown file: %v", err)
		}
		if len(data) != 0 {
			t.Fatalf("expected empty unknown file, got %q", data)
		}
	}
}

func TestRunIsByteIdenticalAcrossRuns(t *testing.T) {
	uid := os.Getuid()
	dir := t.TempDir()
	input := filepath.Join(dir, "scan.csv")
	writeScanCSV(t, input, []string{
		fmt.Sprintf("1-1,5,%d,%d,100,33188,10,100,/p/a", testNow-1000, uid),
		fmt.Sprintf("1-2,6,%d,%d,100,33188,10,200,/p/b", testNow-90*86400, uid),
		fmt.Sprintf("1-3,7,%d,%d,100,16877,10,300,/p/c", testNow-800*86400, uid),
	})

	outs := make([][]byte, 2)
	for i := range outs {
		output := filepath.Join(dir, fmt.Sprintf("out%d.csv", i))
		if _, err := Run(input, output, filepath.Join(dir, fmt.Sprintf("unk%d.csv", i)), &Options{Now: testNow}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		data, err := os.ReadFile(output)
		if err != nil {
			t.Fatal(err)
		}
		outs[i] = data
	}
	if string(outs[0]) != string(outs[1]) {
		t.Fatalf("two reductions of the same input differ")
	}
}

func TestRunReadsGzipInput(t *testing.T) {
	uid := os.Getuid()
	dir := t.TempDir()
	plain := filepath.Join(dir, "scan.csv")
	writeScanCSV(t, plain, []string{
		fmt.Sprintf("1-1,0,1700000000,%d,100,33188,10,64,/g/f", uid),
	})

	gz := filepath.Join(dir, "scan.csv.gz")
	data, err := os.ReadFile(plain)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(gz)
	if err != nil {
		t.Fatal(err)
	}
	zw := pgzip.NewWriter(f)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	res, err := Run(gz, filepath.Join(dir, "gz.agg.csv"), filepath.Join(dir, "gz.unk.csv"), &Options{Now: testNow})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Records != 1 {
		t.Fatalf("expected 1 record from gzip input, got %d", res.Records)
	}
}

func TestRunSkipsMalformedLines(t *testing.T) {
	uid := os.Getuid()
	dir := t.TempDir()
	input := filepath.Join(dir, "scan.csv")
	writeScanCSV(t, input, []string{
		"not,a,scan,row",
		fmt.Sprintf("1-1,0,1700000000,%d,100,33188,10,64,/ok", uid),
	})

	res, err := Run(input, filepath.Join(dir, "out.csv"), filepath.Join(dir, "unk.csv"), &Options{Now: testNow})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Records != 1 || res.Malformed != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestWriteDB(t *testing.T) {
	uid := os.Getuid()
	r := NewReducer(testNow)
	r.Add(mkRow(0, 1700000000, uint64(uid), 0o100644, 4096, "/x/y/z.bin"))

	dbPath := filepath.Join(t.TempDir(), "rollups.db")
	if err := r.WriteDB(dbPath, "scan.csv"); err != nil {
		t.Fatalf("write db: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM rollups`).Scan(&n); err != nil {
		t.Fatalf("count rollups: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rollup rows, got %d", n)
	}

	var files, disk int64
	if err := db.QueryRow(`SELECT files, disk FROM rollups WHERE path = '/x/y'`).Scan(&files, &disk); err != nil {
		t.Fatalf("query /x/y: %v", err)
	}
	if files != 1 || disk != 4096 {
		t.Fatalf("unexpected /x/y stats: files=%d disk=%d", files, disk)
	}

	var refTime int64
	if err := db.QueryRow(`SELECT ref_time FROM run_meta WHERE id = 1`).Scan(&refTime); err != nil {
		t.Fatalf("query run_meta: %v", err)
	}
	if refTime != testNow {
		t.Fatalf("ref_time = %d, want %d", refTime, testNow)
	}
}
