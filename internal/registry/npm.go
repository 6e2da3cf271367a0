package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/zap"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// defaultRegistryURL is the package registry consulted when none is
// configured.
const defaultRegistryURL = "https://registry.npmjs.org"

// packument is the registry metadata document for a package. Only the
// fields the adapter consumes are mapped.
type packument struct {
	Name     string                    `json:"name"`
	DistTags map[string]string         `json:"dist-tags"`
	Versions map[string]packageVersion `json:"versions"`
}

type packageVersion struct {
	Version string `json:"version"`
	Dist    struct {
		Tarball string `json:"tarball"`
	} `json:"dist"`
}

// packageAdapter serves templates from an npm-compatible package registry.
// The requested version may be exact, a dist-tag, or a semver range; ranges
// resolve to the highest satisfying published version. Extracted artifacts
// are immutable per version, so existing content is reused as-is.
type packageAdapter struct {
	cacheDir string
	client   *http.Client
	log      *zap.Logger
	mu       sync.Mutex
}

func newPackageAdapter(cacheDir string, client *http.Client, log *zap.Logger) *packageAdapter {
	return &packageAdapter{cacheDir: cacheDir, client: client, log: log}
}

func (p *packageAdapter) FetchList(ctx context.Context, src Source) ([]manifest.Metadata, error) {
	root, err := p.materialize(ctx, src.Package)
	if err != nil {
		return nil, err
	}
	return scanTemplates(root)
}

func (p *packageAdapter) FetchOne(ctx context.Context, src Source, templateName string) (string, *manifest.Metadata, error) {
	root, err := p.materialize(ctx, src.Package)
	if err != nil {
		return "", nil, err
	}
	return resolveTemplate(root, templateName)
}

// materialize resolves the version, downloads the artifact, and extracts
// it. The extracted root is the template root.
func (p *packageAdapter) materialize(ctx context.Context, src *PackageSource) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, err := p.fetchPackument(ctx, src)
	if err != nil {
		return "", err
	}

	version, err := pickVersion(doc, src.Version)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, src.Package, err)
	}

	dest := filepath.Join(p.cacheDir, "npm", sanitizePackage(src.Package)+"-"+version.Version)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	archivePath, err := p.downloadTarball(ctx, version.Dist.Tarball)
	if err != nil {
		return "", err
	}
	defer os.Remove(archivePath)

	tmpDir := dest + tmpSuffix
	_ = os.RemoveAll(tmpDir)
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating extraction dir: %v", ErrSourceUnavailable, err)
	}
	// npm tarballs nest all content under package/.
	if err := extractArchive(archivePath, tmpDir, "package"); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("%w: extracting %s: %v", ErrSourceUnavailable, version.Dist.Tarball, err)
	}
	if err := os.Rename(tmpDir, dest); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("%w: finalizing extraction: %v", ErrSourceUnavailable, err)
	}
	return dest, nil
}

// fetchPackument retrieves the registry metadata document for the package.
func (p *packageAdapter) fetchPackument(ctx context.Context, src *PackageSource) (*packument, error) {
	base := src.RegistryURL
	if base == "" {
		base = defaultRegistryURL
	}
	url := strings.TrimSuffix(base, "/") + "/" + escapePackage(src.Package)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrSourceUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: package %q not found in registry", ErrSourceUnavailable, src.Package)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: registry returned status %d for %s", ErrSourceUnavailable, resp.StatusCode, src.Package)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading registry response: %v", ErrSourceUnavailable, err)
	}

	var doc packument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing registry metadata: %v", ErrSourceUnavailable, err)
	}
	return &doc, nil
}

// downloadTarball fetches the artifact tarball to a temporary file.
func (p *packageAdapter) downloadTarball(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: downloading %s: %v", ErrSourceUnavailable, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", ErrSourceUnavailable, url, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Join(p.cacheDir, "npm"), 0755); err != nil {
		return "", fmt.Errorf("%w: creating download dir: %v", ErrSourceUnavailable, err)
	}
	f, err := os.CreateTemp(filepath.Join(p.cacheDir, "npm"), "artifact-*.tgz")
	if err != nil {
		return "", fmt.Errorf("%w: creating download file: %v", ErrSourceUnavailable, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: reading download stream: %v", ErrSourceUnavailable, err)
	}
	f.Close()
	return f.Name(), nil
}

// pickVersion resolves the requested version against the packument.
// Resolution order: dist-tag ("" means "latest"), exact version, semver
// range (highest satisfying wins).
func pickVersion(doc *packument, requested string) (*packageVersion, error) {
	if requested == "" {
		requested = "latest"
	}

	if tagged, ok := doc.DistTags[requested]; ok {
		requested = tagged
	}
	if v, ok := doc.Versions[requested]; ok {
		return &v, nil
	}

	constraint, err := semver.NewConstraint(requested)
	if err != nil {
		return nil, fmt.Errorf("version %q not published and not a valid range", requested)
	}

	var candidates []*semver.Version
	for raw := range doc.Versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if constraint.Check(v) {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no published version satisfies %q", requested)
	}
	sort.Sort(semver.Collection(candidates))

	best := doc.Versions[candidates[len(candidates)-1].Original()]
	return &best, nil
}

// escapePackage encodes a package name for use in a registry URL. Scoped
// packages keep the @ but escape the separating slash.
func escapePackage(name string) string {
	return strings.ReplaceAll(name, "/", "%2F")
}

// sanitizePackage flattens a package name into a filesystem-safe component.
func sanitizePackage(name string) string {
	name = strings.TrimPrefix(name, "@")
	return strings.ReplaceAll(name, "/", "-")
}
