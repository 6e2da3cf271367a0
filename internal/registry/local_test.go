package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTemplate lays down a minimal template directory with a JSON
// descriptor under root.
func writeTemplate(t *testing.T, root, name, projectType string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeDescriptor(t, dir, name, projectType)
	return dir
}

func writeDescriptor(t *testing.T, dir, name, projectType string) {
	t.Helper()
	descriptor := `{"name": "` + name + `", "version": "1.0.0", "project_type": "` + projectType + `"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "template.json"), []byte(descriptor), 0644))
}

func localSource(path string) Source {
	return Source{Kind: KindLocal, Local: &LocalSource{Path: path}}
}

func TestLocalFetchList(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "vue-basic", "vue")
	writeTemplate(t, root, "spring-api", "java")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-template"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("docs"), 0644))

	listed, err := localAdapter{}.FetchList(context.Background(), localSource(root))
	require.NoError(t, err)
	require.Len(t, listed, 2, "plain directories and files are not templates")

	names := []string{listed[0].Name, listed[1].Name}
	assert.ElementsMatch(t, []string{"vue-basic", "spring-api"}, names)
}

func TestLocalFetchListMissingRoot(t *testing.T) {
	_, err := localAdapter{}.FetchList(context.Background(), localSource(filepath.Join(t.TempDir(), "absent")))
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestLocalFetchListMalformedDescriptor(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "template.json"), []byte("{oops"), 0644))

	_, err := localAdapter{}.FetchList(context.Background(), localSource(root))
	require.ErrorIs(t, err, ErrTemplateProcessing)
}

func TestLocalFetchOne(t *testing.T) {
	root := t.TempDir()
	want := writeTemplate(t, root, "vue-basic", "vue")

	path, md, err := localAdapter{}.FetchOne(context.Background(), localSource(root), "vue-basic")
	require.NoError(t, err)
	assert.Equal(t, want, path)
	assert.Equal(t, "vue", md.ProjectType)
}

func TestLocalFetchOneNotFound(t *testing.T) {
	root := t.TempDir()
	writeTemplate(t, root, "vue-basic", "vue")

	_, _, err := localAdapter{}.FetchOne(context.Background(), localSource(root), "missing")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestLocalFetchOneDirectoryWithoutDescriptor(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bare"), 0755))

	_, _, err := localAdapter{}.FetchOne(context.Background(), localSource(root), "bare")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestSingleTemplateRoot(t *testing.T) {
	// Archive and package sources extract to a root that is itself the
	// template directory.
	root := t.TempDir()
	writeDescriptor(t, root, "vue-basic", "vue")

	listed, err := scanTemplates(root)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "vue-basic", listed[0].Name)

	path, md, err := resolveTemplate(root, "vue-basic")
	require.NoError(t, err)
	assert.Equal(t, root, path)
	assert.Equal(t, "vue-basic", md.Name)

	_, _, err = resolveTemplate(root, "other")
	require.ErrorIs(t, err, ErrTemplateNotFound)
}
