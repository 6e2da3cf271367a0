package registry

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// Adapter materializes a template source. Implementations must be safe for
// concurrent use; repeated fetches of the same descriptor either reuse
// existing unpacked content or re-fetch, but never serve content from a
// different ref or version than requested.
type Adapter interface {
	// FetchList returns metadata for every template the source offers.
	FetchList(ctx context.Context, src Source) ([]manifest.Metadata, error)

	// FetchOne materializes the named template and returns its on-disk
	// root plus parsed metadata.
	FetchOne(ctx context.Context, src Source, templateName string) (string, *manifest.Metadata, error)
}

// defaultHTTPClient is shared by the network-backed adapters. Timeout
// policy lives here at the transport, not in the registry itself.
func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// defaultAdapters builds the production adapter set, one per source kind.
func defaultAdapters(cacheDir string, log *zap.Logger) map[SourceKind]Adapter {
	client := defaultHTTPClient()
	return map[SourceKind]Adapter{
		KindLocal:   &localAdapter{},
		KindGit:     newGitAdapter(cacheDir, log),
		KindHTTP:    newHTTPAdapter(cacheDir, client, log),
		KindPackage: newPackageAdapter(cacheDir, client, log),
	}
}
