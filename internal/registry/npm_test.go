package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRegistry serves a packument for one package plus the tarballs for
// its published versions.
func fakeRegistry(t *testing.T, pkg string, versions map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	tarballs := make(map[string][]byte)
	for version, templateName := range versions {
		archive := buildTarGz(t, []archiveFile{
			{name: "package/template.json", body: `{"name": "` + templateName + `", "version": "` + version + `", "project_type": "vue"}`},
			{name: "package/index.js", body: "module.exports = {}"},
		})
		data, err := os.ReadFile(archive)
		require.NoError(t, err)
		tarballs[version] = data
	}

	var downloads atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/"+pkg {
			doc := packument{
				Name:     pkg,
				DistTags: map[string]string{"latest": highestKey(versions)},
				Versions: make(map[string]packageVersion),
			}
			for version := range versions {
				var pv packageVersion
				pv.Version = version
				pv.Dist.Tarball = srv.URL + "/tarballs/" + version + ".tgz"
				doc.Versions[version] = pv
			}
			json.NewEncoder(w).Encode(doc)
			return
		}
		for version, data := range tarballs {
			if r.URL.Path == "/tarballs/"+version+".tgz" {
				downloads.Add(1)
				w.Write(data)
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(http.DefaultClient.CloseIdleConnections)
	return srv, &downloads
}

func highestKey(versions map[string]string) string {
	best := ""
	for v := range versions {
		if best == "" || v > best {
			best = v
		}
	}
	return best
}

func pkgSource(registryURL, pkg, version string) Source {
	return Source{Kind: KindPackage, Package: &PackageSource{
		Package:     pkg,
		Version:     version,
		RegistryURL: registryURL,
	}}
}

func TestPackageFetchOneLatest(t *testing.T) {
	srv, _ := fakeRegistry(t, "vue-starter", map[string]string{
		"1.0.0": "vue-starter",
		"1.2.0": "vue-starter",
	})

	p := newPackageAdapter(t.TempDir(), http.DefaultClient, zap.NewNop())
	path, md, err := p.FetchOne(context.Background(), pkgSource(srv.URL, "vue-starter", ""), "vue-starter")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", md.Version, "empty version resolves to the latest dist-tag")
	assert.DirExists(t, path)
}

func TestPackageFetchOneExactVersion(t *testing.T) {
	srv, _ := fakeRegistry(t, "vue-starter", map[string]string{
		"1.0.0": "vue-starter",
		"1.2.0": "vue-starter",
	})

	p := newPackageAdapter(t.TempDir(), http.DefaultClient, zap.NewNop())
	_, md, err := p.FetchOne(context.Background(), pkgSource(srv.URL, "vue-starter", "1.0.0"), "vue-starter")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", md.Version)
}

func TestPackageFetchOneSemverRange(t *testing.T) {
	srv, _ := fakeRegistry(t, "vue-starter", map[string]string{
		"1.0.0": "vue-starter",
		"1.4.2": "vue-starter",
		"2.0.0": "vue-starter",
	})

	p := newPackageAdapter(t.TempDir(), http.DefaultClient, zap.NewNop())
	_, md, err := p.FetchOne(context.Background(), pkgSource(srv.URL, "vue-starter", "^1.0.0"), "vue-starter")
	require.NoError(t, err)
	assert.Equal(t, "1.4.2", md.Version, "a range resolves to the highest satisfying version")
}

func TestPackageReusesExtractedVersion(t *testing.T) {
	srv, downloads := fakeRegistry(t, "vue-starter", map[string]string{
		"1.0.0": "vue-starter",
	})

	p := newPackageAdapter(t.TempDir(), http.DefaultClient, zap.NewNop())
	ctx := context.Background()
	src := pkgSource(srv.URL, "vue-starter", "1.0.0")

	_, _, err := p.FetchOne(ctx, src, "vue-starter")
	require.NoError(t, err)
	_, _, err = p.FetchOne(ctx, src, "vue-starter")
	require.NoError(t, err)
	assert.Equal(t, int32(1), downloads.Load(), "published versions are immutable and reused")
}

func TestPackageNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	t.Cleanup(srv.Close)
	t.Cleanup(http.DefaultClient.CloseIdleConnections)

	p := newPackageAdapter(t.TempDir(), http.DefaultClient, zap.NewNop())
	_, _, err := p.FetchOne(context.Background(), pkgSource(srv.URL, "no-such-pkg", ""), "t")
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestPickVersion(t *testing.T) {
	doc := &packument{
		DistTags: map[string]string{"latest": "1.2.0", "next": "2.0.0-rc.1"},
		Versions: map[string]packageVersion{
			"1.0.0":      {Version: "1.0.0"},
			"1.2.0":      {Version: "1.2.0"},
			"2.0.0-rc.1": {Version: "2.0.0-rc.1"},
		},
	}

	tests := []struct {
		requested string
		want      string
		wantErr   bool
	}{
		{"", "1.2.0", false},
		{"latest", "1.2.0", false},
		{"next", "2.0.0-rc.1", false},
		{"1.0.0", "1.0.0", false},
		{"^1.0.0", "1.2.0", false},
		{"^3.0.0", "", true},
		{"not-a-version", "", true},
	}
	for _, tc := range tests {
		got, err := pickVersion(doc, tc.requested)
		if tc.wantErr {
			assert.Error(t, err, tc.requested)
			continue
		}
		require.NoError(t, err, tc.requested)
		assert.Equal(t, tc.want, got.Version, tc.requested)
	}
}

func TestPackageNames(t *testing.T) {
	assert.Equal(t, "@scope%2Ftemplates", escapePackage("@scope/templates"))
	assert.Equal(t, "plain", escapePackage("plain"))
	assert.Equal(t, "scope-templates", sanitizePackage("@scope/templates"))
}
