package registry

import (
	"fmt"
	"time"
)

// SourceKind discriminates the template source variants.
type SourceKind string

const (
	KindLocal   SourceKind = "local"
	KindGit     SourceKind = "git"
	KindHTTP    SourceKind = "http"
	KindPackage SourceKind = "npm"
)

// LocalSource points at a directory whose subdirectories are templates.
type LocalSource struct {
	Path string
}

// GitAuth carries transport credentials for a git source.
type GitAuth struct {
	Username string
	Token    string
}

// GitSource points at a git repository. Branch defaults to the repository
// default branch; Subfolder, when set, is the template root within the
// checkout.
type GitSource struct {
	URL       string
	Branch    string
	Subfolder string
	Auth      *GitAuth
}

// HTTPAuth carries bearer or basic credentials for an HTTP source.
type HTTPAuth struct {
	BearerToken string
	Username    string
	Password    string
}

// HTTPSource points at a downloadable archive (tar.gz or zip). Checksum,
// when set, is the expected sha256 of the archive (optionally prefixed
// "sha256:").
type HTTPSource struct {
	URL      string
	Checksum string
	Auth     *HTTPAuth
}

// PackageSource points at a package-registry artifact (npm wire protocol).
// Version may be exact or a semver range; RegistryURL defaults to the
// public npm registry.
type PackageSource struct {
	Package     string
	Version     string
	RegistryURL string
}

// Source is a tagged variant: exactly one payload matching Kind is set.
// The variant determines which adapter handles it.
type Source struct {
	Kind    SourceKind
	Local   *LocalSource
	Git     *GitSource
	HTTP    *HTTPSource
	Package *PackageSource
}

// Validate checks that exactly one payload is set, that it matches Kind,
// and that required fields are present.
func (s Source) Validate() error {
	set := 0
	if s.Local != nil {
		set++
	}
	if s.Git != nil {
		set++
	}
	if s.HTTP != nil {
		set++
	}
	if s.Package != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("%w: source must have exactly one variant, got %d", ErrConfiguration, set)
	}

	switch s.Kind {
	case KindLocal:
		if s.Local == nil {
			return fmt.Errorf("%w: kind %q without local payload", ErrConfiguration, s.Kind)
		}
		if s.Local.Path == "" {
			return fmt.Errorf("%w: local source requires a path", ErrConfiguration)
		}
	case KindGit:
		if s.Git == nil {
			return fmt.Errorf("%w: kind %q without git payload", ErrConfiguration, s.Kind)
		}
		if s.Git.URL == "" {
			return fmt.Errorf("%w: git source requires a url", ErrConfiguration)
		}
	case KindHTTP:
		if s.HTTP == nil {
			return fmt.Errorf("%w: kind %q without http payload", ErrConfiguration, s.Kind)
		}
		if s.HTTP.URL == "" {
			return fmt.Errorf("%w: http source requires a url", ErrConfiguration)
		}
	case KindPackage:
		if s.Package == nil {
			return fmt.Errorf("%w: kind %q without package payload", ErrConfiguration, s.Kind)
		}
		if s.Package.Package == "" {
			return fmt.Errorf("%w: package source requires a package name", ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown source kind %q", ErrConfiguration, s.Kind)
	}
	return nil
}

// Describe returns a short human-readable identifier for logs.
func (s Source) Describe() string {
	switch s.Kind {
	case KindLocal:
		return fmt.Sprintf("local:%s", s.Local.Path)
	case KindGit:
		return fmt.Sprintf("git:%s", s.Git.URL)
	case KindHTTP:
		return fmt.Sprintf("http:%s", s.HTTP.URL)
	case KindPackage:
		return fmt.Sprintf("npm:%s@%s", s.Package.Package, s.Package.Version)
	}
	return string(s.Kind)
}

// Entry is one configured, prioritized binding between a name and a
// template source. Lower priority number means tried first. Entries are
// immutable once loaded.
type Entry struct {
	Name     string
	Source   Source
	Enabled  bool
	Priority uint32
}

// Config is the process-wide registry configuration, loaded once at
// startup and read-only thereafter.
type Config struct {
	Entries  []Entry
	CacheDir string
	CacheTTL time.Duration
}

// Defaults for an unconfigured registry.
const (
	DefaultTemplatesDir = "./templates"
	DefaultCacheDir     = "./.template_cache"
	DefaultCacheTTL     = 3600 * time.Second
)

// DefaultConfig returns the configuration used when none is supplied:
// a single enabled local entry pointing at ./templates.
func DefaultConfig() Config {
	return Config{
		Entries: []Entry{
			{
				Name:     "local",
				Source:   Source{Kind: KindLocal, Local: &LocalSource{Path: DefaultTemplatesDir}},
				Enabled:  true,
				Priority: 0,
			},
		},
		CacheDir: DefaultCacheDir,
		CacheTTL: DefaultCacheTTL,
	}
}

// Validate checks the whole configuration: entry names must be unique and
// every source descriptor must be well-formed.
func (c *Config) Validate() error {
	if c.CacheDir == "" {
		return fmt.Errorf("%w: cache_dir must not be empty", ErrConfiguration)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("%w: cache_ttl must not be negative", ErrConfiguration)
	}
	seen := make(map[string]bool, len(c.Entries))
	for _, e := range c.Entries {
		if e.Name == "" {
			return fmt.Errorf("%w: registry entry with empty name", ErrConfiguration)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: duplicate registry entry %q", ErrConfiguration, e.Name)
		}
		seen[e.Name] = true
		if err := e.Source.Validate(); err != nil {
			return fmt.Errorf("entry %q: %w", e.Name, err)
		}
	}
	return nil
}
