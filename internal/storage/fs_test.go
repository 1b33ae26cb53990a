package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dagrev/xmap/internal/apperr"
	"github.com/dagrev/xmap/internal/archive"
)

func tempFS(t *testing.T) (string, *FS) {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS([]string{dir})
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return dir, fs
}

// encodedArchive returns minimal valid archive bytes with the given
// root topic title.
func encodedArchive(t *testing.T, title string) []byte {
	t.Helper()
	data, err := archive.Encode([]archive.Sheet{
		{ID: "s1", Class: "sheet", Title: "Sheet", RootTopic: &archive.Topic{ID: "t1", Title: title}},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

func TestWriteAndRead(t *testing.T) {
	dir, s := tempFS(t)
	p := filepath.Join(dir, "map.xmind")
	content := encodedArchive(t, "Root")
	if err := s.Write(p, content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Error("content mismatch")
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	dir, s := tempFS(t)
	p := filepath.Join(dir, "a", "b", "deep.xmind")
	if err := s.Write(p, []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := s.Read(p); err != nil {
		t.Fatalf("Read: %v", err)
	}
}

func TestAccessDenied(t *testing.T) {
	dir, s := tempFS(t)

	cases := []string{
		"/etc/passwd",
		filepath.Join(dir, "..", "outside.xmind"),
		dir + "-evil/trick.xmind", // shares the root's string prefix only
	}
	for _, p := range cases {
		if s.IsPathAllowed(p) {
			t.Errorf("IsPathAllowed(%q) = true", p)
		}
		if _, err := s.Read(p); !errors.Is(err, apperr.ErrAccessDenied) {
			t.Errorf("Read(%q) err = %v, want ErrAccessDenied", p, err)
		}
		if err := s.Write(p, []byte("x")); !errors.Is(err, apperr.ErrAccessDenied) {
			t.Errorf("Write(%q) err = %v, want ErrAccessDenied", p, err)
		}
	}
}

func TestExists(t *testing.T) {
	dir, s := tempFS(t)
	p := filepath.Join(dir, "here.xmind")

	ok, err := s.Exists(p)
	if err != nil || ok {
		t.Fatalf("Exists before write = %v, %v", ok, err)
	}
	_ = s.Write(p, []byte("x"))
	ok, err = s.Exists(p)
	if err != nil || !ok {
		t.Fatalf("Exists after write = %v, %v", ok, err)
	}
}

func TestListArchives(t *testing.T) {
	dir, s := tempFS(t)
	_ = s.Write(filepath.Join(dir, "b.xmind"), []byte("x"))
	_ = s.Write(filepath.Join(dir, "sub", "a.xmind"), []byte("x"))
	_ = s.Write(filepath.Join(dir, "note.txt"), []byte("not an archive"))
	_ = s.Write(filepath.Join(dir, "upper.XMIND"), []byte("x"))

	paths, err := s.ListArchives("")
	if err != nil {
		t.Fatalf("ListArchives: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("paths = %v", paths)
	}
	// Sorted.
	for i := 1; i < len(paths); i++ {
		if paths[i] < paths[i-1] {
			t.Errorf("not sorted: %v", paths)
		}
	}
}

func TestListArchives_MultipleRoots(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	s, err := NewFS([]string{dir1, dir2})
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Write(filepath.Join(dir1, "one.xmind"), []byte("x"))
	_ = s.Write(filepath.Join(dir2, "two.xmind"), []byte("x"))

	paths, err := s.ListArchives("")
	if err != nil {
		t.Fatalf("ListArchives: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("paths = %v", paths)
	}
}

func TestListArchives_SubdirScoped(t *testing.T) {
	dir, s := tempFS(t)
	_ = s.Write(filepath.Join(dir, "top.xmind"), []byte("x"))
	_ = s.Write(filepath.Join(dir, "sub", "in.xmind"), []byte("x"))

	paths, err := s.ListArchives(filepath.Join(dir, "sub"))
	if err != nil {
		t.Fatalf("ListArchives: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "in.xmind" {
		t.Errorf("paths = %v", paths)
	}
}

func TestFindFiles_NameBeforeContent(t *testing.T) {
	dir, s := tempFS(t)
	// Content match: archive whose topic mentions "roadmap".
	_ = s.Write(filepath.Join(dir, "a-content.xmind"), encodedArchive(t, "Team roadmap"))
	// Name match.
	_ = s.Write(filepath.Join(dir, "z-roadmap.xmind"), encodedArchive(t, "Nothing here"))
	// No match.
	_ = s.Write(filepath.Join(dir, "other.xmind"), encodedArchive(t, "Unrelated"))

	got, err := s.FindFiles("roadmap")
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got = %v", got)
	}
	// Name match sorts after the content match alphabetically, but the
	// name group still comes first.
	if filepath.Base(got[0]) != "z-roadmap.xmind" || filepath.Base(got[1]) != "a-content.xmind" {
		t.Errorf("order = %v", got)
	}
}

func TestFindFiles_SkipsUnreadableArchives(t *testing.T) {
	dir, s := tempFS(t)
	_ = s.Write(filepath.Join(dir, "broken.xmind"), []byte("not a zip"))
	_ = s.Write(filepath.Join(dir, "good.xmind"), encodedArchive(t, "findme"))

	got, err := s.FindFiles("findme")
	if err != nil {
		t.Fatalf("FindFiles: %v", err)
	}
	if len(got) != 1 || filepath.Base(got[0]) != "good.xmind" {
		t.Errorf("got = %v", got)
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	dir, s := tempFS(t)
	p := filepath.Join(dir, "atomic.xmind")
	_ = s.Write(p, []byte("first"))
	if err := s.Write(p, []byte("second")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read(p)
	if string(got) != "second" {
		t.Errorf("content = %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, ".xmap-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_Errors(t *testing.T) {
	if _, err := NewFS(nil); err == nil {
		t.Error("expected error for empty root list")
	}
	if _, err := NewFS([]string{"/tmp/xmap-does-not-exist-" + t.Name()}); err == nil {
		t.Error("expected error for non-existent dir")
	}
	f, _ := os.CreateTemp("", "xmap-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS([]string{f.Name()}); err == nil {
		t.Error("expected error when root is a file")
	}
}
