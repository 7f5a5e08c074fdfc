package staging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/jobs-etl/constants"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
}

func TestListFilesNaturalOrder(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"10.txt", "2.txt", "1.txt", "b.txt", "a.txt", ".hidden", "0.txt"} {
		touch(t, dir, n)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	touch(t, filepath.Join(dir, "nested"), "3.txt")

	files, err := ListFiles(dir)
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	require.Equal(t, []string{"0.txt", "1.txt", "2.txt", "10.txt", "a.txt", "b.txt"}, names)
}

func TestListFilesMissingDir(t *testing.T) {
	_, err := ListFiles(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)

	_, err = ListFiles(" ")
	require.Error(t, err)
}

func TestStem(t *testing.T) {
	require.Equal(t, "12", Stem("/x/y/12.txt"))
	require.Equal(t, "test_file", Stem("test_file.txt"))
	require.Equal(t, "a", Stem("a.b.c"))
	require.Equal(t, "noext", Stem("noext"))
}

func TestDirStats(t *testing.T) {
	var s DirStats
	s.Add(FileResult{Path: "a"})
	s.Add(FileResult{Path: "b", Skipped: true})
	s.Add(FileResult{Path: "c", Err: "boom"})
	require.Equal(t, DirStats{Scanned: 3, Succeeded: 1, Skipped: 1, Failed: 1}, s)
}

func TestRejecterDropWritesNothing(t *testing.T) {
	dir := t.TempDir()
	r := NewRejecter(constants.RejectDrop, dir, nil)
	require.NoError(t, r.Reject(constants.StageTransform, "/in/3.txt", []byte("{bad"), errors.New("parse error")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRejecterQuarantine(t *testing.T) {
	dir := t.TempDir()
	r := NewRejecter(constants.RejectQuarantine, dir, nil)
	require.NoError(t, r.Reject(constants.StageTransform, "/in/3.txt", []byte("{bad"), errors.New("parse error")))

	got, err := os.ReadFile(filepath.Join(dir, "transform", "3.txt"))
	require.NoError(t, err)
	require.Equal(t, "{bad", string(got))

	reason, err := os.ReadFile(filepath.Join(dir, "transform", "3.txt.reason"))
	require.NoError(t, err)
	require.Equal(t, "parse error\n", string(reason))
}
