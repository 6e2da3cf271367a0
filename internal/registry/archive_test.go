package registry

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type archiveFile struct {
	name string
	body string
	mode int64
}

func buildTarGz(t *testing.T, files []archiveFile) string {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, f := range files {
		mode := f.mode
		if mode == 0 {
			mode = 0644
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     f.name,
			Typeflag: tar.TypeReg,
			Mode:     mode,
			Size:     int64(len(f.body)),
		}))
		_, err := tw.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	path := filepath.Join(t.TempDir(), "archive.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func buildZip(t *testing.T, files []archiveFile) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(f.body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestExtractTarGz(t *testing.T) {
	archive := buildTarGz(t, []archiveFile{
		{name: "template.json", body: `{"name": "t", "project_type": "vue"}`},
		{name: "src/main.ts", body: "export {}"},
		{name: "bin/run.sh", body: "#!/bin/sh", mode: 0755},
	})

	dest := t.TempDir()
	require.NoError(t, extractArchive(archive, dest, ""))

	data, err := os.ReadFile(filepath.Join(dest, "src", "main.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export {}", string(data))

	info, err := os.Stat(filepath.Join(dest, "bin", "run.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestExtractTarGzStripPrefix(t *testing.T) {
	archive := buildTarGz(t, []archiveFile{
		{name: "package/template.json", body: `{"name": "t", "project_type": "vue"}`},
		{name: "package/src/index.js", body: "module.exports = {}"},
		{name: "stray.txt", body: "outside the prefix"},
	})

	dest := t.TempDir()
	require.NoError(t, extractArchive(archive, dest, "package"))

	_, err := os.Stat(filepath.Join(dest, "template.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "src", "index.js"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "stray.txt"))
	assert.True(t, os.IsNotExist(err), "entries outside the prefix are dropped")
}

func TestExtractZip(t *testing.T) {
	archive := buildZip(t, []archiveFile{
		{name: "template.json", body: `{"name": "t", "project_type": "vue"}`},
		{name: "docs/guide.md", body: "# guide"},
	})

	dest := t.TempDir()
	require.NoError(t, extractArchive(archive, dest, ""))

	data, err := os.ReadFile(filepath.Join(dest, "docs", "guide.md"))
	require.NoError(t, err)
	assert.Equal(t, "# guide", string(data))
}

func TestExtractRejectsPathTraversal(t *testing.T) {
	archive := buildTarGz(t, []archiveFile{
		{name: "../escape.txt", body: "should never land"},
	})

	dest := t.TempDir()
	err := extractArchive(archive, dest, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes extraction directory")

	_, statErr := os.Stat(filepath.Join(filepath.Dir(dest), "escape.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		name   string
		strip  string
		want   string
		wantOK bool
	}{
		{"package/src/a.js", "package", "src/a.js", true},
		{"package", "package", "", false},
		{"other/a.js", "package", "", false},
		{"src/a.js", "", "src/a.js", true},
		{"", "", "", false},
	}
	for _, tc := range tests {
		got, ok := entryName(tc.name, tc.strip)
		assert.Equal(t, tc.wantOK, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}
