package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// userAgent identifies projgen downloads to remote servers.
const userAgent = "projgen-registry"

// checksumMarker records the verified checksum of extracted content so a
// later fetch of the same descriptor can reuse it.
const checksumMarker = ".projgen-checksum"

// httpAdapter serves templates from a downloadable archive. The archive is
// verified against the configured sha256 checksum before extraction; a
// mismatch fails with ErrIntegrity and leaves nothing cached.
type httpAdapter struct {
	cacheDir string
	client   *http.Client
	log      *zap.Logger
	mu       sync.Mutex
}

func newHTTPAdapter(cacheDir string, client *http.Client, log *zap.Logger) *httpAdapter {
	return &httpAdapter{cacheDir: cacheDir, client: client, log: log}
}

func (h *httpAdapter) FetchList(ctx context.Context, src Source) ([]manifest.Metadata, error) {
	root, err := h.materialize(ctx, src.HTTP)
	if err != nil {
		return nil, err
	}
	return scanTemplates(root)
}

func (h *httpAdapter) FetchOne(ctx context.Context, src Source, templateName string) (string, *manifest.Metadata, error) {
	root, err := h.materialize(ctx, src.HTTP)
	if err != nil {
		return "", nil, err
	}
	return resolveTemplate(root, templateName)
}

// materialize downloads, verifies, and extracts the archive, reusing
// previously extracted content when the recorded checksum still matches.
func (h *httpAdapter) materialize(ctx context.Context, src *HTTPSource) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dest := filepath.Join(h.cacheDir, "http", urlID(src.URL))
	if reusable(dest, src.Checksum) {
		return dest, nil
	}

	archivePath, err := h.download(ctx, src)
	if err != nil {
		return "", err
	}
	defer os.Remove(archivePath)

	actual, err := fileChecksum(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if src.Checksum != "" && actual != normalizeChecksum(src.Checksum) {
		return "", fmt.Errorf("%w: %s: expected %s, got %s",
			ErrIntegrity, src.URL, normalizeChecksum(src.Checksum), actual)
	}

	tmpDir := dest + tmpSuffix
	_ = os.RemoveAll(tmpDir)
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return "", fmt.Errorf("%w: creating extraction dir: %v", ErrSourceUnavailable, err)
	}
	if err := extractArchive(archivePath, tmpDir, ""); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("%w: extracting %s: %v", ErrSourceUnavailable, src.URL, err)
	}
	writeMarker(tmpDir, actual)

	_ = os.RemoveAll(dest)
	if err := os.Rename(tmpDir, dest); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", fmt.Errorf("%w: finalizing extraction: %v", ErrSourceUnavailable, err)
	}
	return dest, nil
}

// download fetches the archive to a temporary file and returns its path.
func (h *httpAdapter) download(ctx context.Context, src *HTTPSource) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", userAgent)
	applyHTTPAuth(req, src.Auth)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: downloading %s: %v", ErrSourceUnavailable, src.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s returned status %d", ErrSourceUnavailable, src.URL, resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Join(h.cacheDir, "http"), 0755); err != nil {
		return "", fmt.Errorf("%w: creating download dir: %v", ErrSourceUnavailable, err)
	}
	f, err := os.CreateTemp(filepath.Join(h.cacheDir, "http"), "download-*"+archiveExt(src.URL))
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

// applyHTTPAuth sets the Authorization header from the configured
// credentials. Bearer wins when both are set.
func applyHTTPAuth(req *http.Request, auth *HTTPAuth) {
	if auth == nil {
		return
	}
	if auth.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+auth.BearerToken)
		return
	}
	if auth.Username != "" {
		req.SetBasicAuth(auth.Username, auth.Password)
	}
}

// reusable reports whether previously extracted content at dest can serve
// the request. Without a configured checksum any extracted content counts;
// with one, the recorded marker must match.
func reusable(dest, checksum string) bool {
	data, err := os.ReadFile(filepath.Join(dest, checksumMarker))
	if err != nil {
		return false
	}
	if checksum == "" {
		return true
	}
	return strings.TrimSpace(string(data)) == normalizeChecksum(checksum)
}

func writeMarker(dir, checksum string) {
	_ = os.WriteFile(filepath.Join(dir, checksumMarker), []byte(checksum), 0644)
}

// fileChecksum computes the hex sha256 of a file.
func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening archive for checksum: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("computing checksum: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// normalizeChecksum strips an optional algorithm prefix and lowercases.
func normalizeChecksum(checksum string) string {
	return strings.ToLower(strings.TrimPrefix(checksum, "sha256:"))
}

// archiveExt preserves the archive extension on temp files so the
// extractor can pick the right format.
func archiveExt(rawURL string) string {
	base := path.Base(rawURL)
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	switch {
	case strings.HasSuffix(base, ".zip"):
		return ".zip"
	case strings.HasSuffix(base, ".tgz"):
		return ".tgz"
	default:
		return ".tar.gz"
	}
}

// urlID derives the deterministic cache path component for a URL.
func urlID(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(h[:])[:16]
}
