package pathutil

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ancestors(p string, selfIsFolder bool) []string {
	var out []string
	rooted := Rooted(nil, NormalizeSeparators([]byte(p)))
	Ancestors(rooted, selfIsFolder, func(folder []byte) {
		out = append(out, string(folder))
	})
	return out
}

func TestAncestorsFile(t *testing.T) {
	got := ancestors("/a/b/file", false)
	want := []string{"/", "/a", "/a/b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ancestors mismatch (-want +got):\n%s", diff)
	}
}

func TestAncestorsDirectoryIncludesSelf(t *testing.T) {
	got := ancestors("/a/b", true)
	want := []string{"/", "/a", "/a/b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ancestors mismatch (-want +got):\n%s", diff)
	}
}

func TestAncestorsRoot(t *testing.T) {
	if diff := cmp.Diff([]string{"/"}, ancestors("/", true)); diff != "" {
		t.Fatalf("root ancestors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"/"}, ancestors("/", false)); diff != "" {
		t.Fatalf("root ancestors mismatch (-want +got):\n%s", diff)
	}
}

func TestAncestorsDriveLetter(t *testing.T) {
	got := ancestors(`C:\x\y`, false)
	want := []string{"/", "/C:", "/C:/x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ancestors mismatch (-want +got):\n%s", diff)
	}
	got = ancestors(`C:\x\y`, true)
	want = []string{"/", "/C:", "/C:/x", "/C:/x/y"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ancestors mismatch (-want +got):\n%s", diff)
	}
}

func TestAncestorsDoubledSeparators(t *testing.T) {
	got := ancestors("//a//b", false)
	want := []string{"/", "//a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ancestors mismatch (-want +got):\n%s", diff)
	}
}

func TestAncestorsNonUTF8(t *testing.T) {
	p := append([]byte("/"), 0xff, 0xfe, '/', 'f')
	var got [][]byte
	Ancestors(Rooted(nil, p), false, func(folder []byte) {
		got = append(got, append([]byte(nil), folder...))
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 ancestors, got %d: %q", len(got), got)
	}
	if string(got[1]) != string([]byte{'/', 0xff, 0xfe}) {
		t.Fatalf("non-UTF-8 ancestor bytes not preserved: %q", got[1])
	}
}

func TestRootedTrailingSlash(t *testing.T) {
	if got := string(Rooted(nil, []byte("/a/b/"))); got != "/a/b" {
		t.Fatalf("Rooted(/a/b/) = %q", got)
	}
	if got := string(Rooted(nil, []byte("/"))); got != "/" {
		t.Fatalf("Rooted(/) = %q", got)
	}
	if got := string(Rooted(nil, []byte("rel/x"))); got != "/rel/x" {
		t.Fatalf("Rooted(rel/x) = %q", got)
	}
}

func TestOutputName(t *testing.T) {
	cases := []struct {
		root string
		want string
	}{
		{"/home/projects", "-home-projects.csv"},
		{"/", "-.csv"},
		{`C:\data`, "C-data.csv"},
	}
	for _, c := range cases {
		if got := OutputName(c.root); got != c.want {
			t.Errorf("OutputName(%q) = %q, want %q", c.root, got, c.want)
		}
	}
}
