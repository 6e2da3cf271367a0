package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/projgen-labs/projgen/internal/registry"
)

const (
	fileName  = "projgen"
	fileType  = "yaml"
	envPrefix = "PROJGEN"
	homeDir   = ".projgen"
)

// Dir returns the path to the projgen config directory (~/.projgen/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", homeDir)
	}
	return filepath.Join(home, homeDir)
}

// FilePath returns the full path to the user-level config file
// (~/.projgen/projgen.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// fileConfig is the on-disk shape of the configuration. It is decoded
// separately from registry.Config so the file format can stay flat and
// human-editable.
type fileConfig struct {
	Registry struct {
		Entries  []fileEntry `mapstructure:"entries"`
		CacheDir string      `mapstructure:"cache_dir"`
		CacheTTL *int64      `mapstructure:"cache_ttl"`
	} `mapstructure:"registry"`
}

// fileEntry is one registry entry in the file. Type discriminates the
// source; the remaining fields are a union across the variants.
type fileEntry struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Enabled  *bool  `mapstructure:"enabled"`
	Priority uint32 `mapstructure:"priority"`

	// local
	Path string `mapstructure:"path"`

	// git
	URL       string `mapstructure:"url"`
	Branch    string `mapstructure:"branch"`
	Subfolder string `mapstructure:"subfolder"`

	// http
	Checksum string `mapstructure:"checksum"`

	// npm
	Package     string `mapstructure:"package"`
	Version     string `mapstructure:"version"`
	RegistryURL string `mapstructure:"registry_url"`

	Auth struct {
		Username    string `mapstructure:"username"`
		Password    string `mapstructure:"password"`
		Token       string `mapstructure:"token"`
		BearerToken string `mapstructure:"bearer_token"`
	} `mapstructure:"auth"`
}

// Load reads the configuration and returns the registry config. Explicit
// paths must exist; otherwise ./projgen.yaml and ~/.projgen/projgen.yaml
// are searched and a missing file yields the defaults. Environment
// variables prefixed PROJGEN_ override file values.
func Load(path string) (registry.Config, error) {
	v := viper.New()
	v.SetConfigType(fileType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return registry.Config{}, fmt.Errorf("%w: reading %s: %v", registry.ErrConfiguration, path, err)
		}
		return build(v)
	}

	v.SetConfigName(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath(Dir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return registry.DefaultConfig(), nil
		}
		return registry.Config{}, fmt.Errorf("%w: reading config: %v", registry.ErrConfiguration, err)
	}
	return build(v)
}

// build decodes the loaded file into a validated registry configuration.
func build(v *viper.Viper) (registry.Config, error) {
	var file fileConfig
	if err := v.Unmarshal(&file); err != nil {
		return registry.Config{}, fmt.Errorf("%w: decoding config: %v", registry.ErrConfiguration, err)
	}

	cfg := registry.Config{
		CacheDir: file.Registry.CacheDir,
		CacheTTL: registry.DefaultCacheTTL,
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = registry.DefaultCacheDir
	}
	if file.Registry.CacheTTL != nil {
		cfg.CacheTTL = time.Duration(*file.Registry.CacheTTL) * time.Second
	}

	if len(file.Registry.Entries) == 0 {
		cfg.Entries = registry.DefaultConfig().Entries
	}
	for _, fe := range file.Registry.Entries {
		entry, err := convertEntry(fe)
		if err != nil {
			return registry.Config{}, err
		}
		cfg.Entries = append(cfg.Entries, entry)
	}

	if err := cfg.Validate(); err != nil {
		return registry.Config{}, err
	}
	return cfg, nil
}

// convertEntry maps a file entry onto a registry entry. Entries are
// enabled unless the file says otherwise.
func convertEntry(fe fileEntry) (registry.Entry, error) {
	entry := registry.Entry{
		Name:     fe.Name,
		Enabled:  fe.Enabled == nil || *fe.Enabled,
		Priority: fe.Priority,
	}

	switch fe.Type {
	case string(registry.KindLocal):
		entry.Source = registry.Source{
			Kind:  registry.KindLocal,
			Local: &registry.LocalSource{Path: fe.Path},
		}
	case string(registry.KindGit):
		src := &registry.GitSource{
			URL:       fe.URL,
			Branch:    fe.Branch,
			Subfolder: fe.Subfolder,
		}
		if fe.Auth.Token != "" {
			src.Auth = &registry.GitAuth{Username: fe.Auth.Username, Token: fe.Auth.Token}
		}
		entry.Source = registry.Source{Kind: registry.KindGit, Git: src}
	case string(registry.KindHTTP):
		src := &registry.HTTPSource{URL: fe.URL, Checksum: fe.Checksum}
		if fe.Auth.BearerToken != "" || fe.Auth.Username != "" {
			src.Auth = &registry.HTTPAuth{
				BearerToken: fe.Auth.BearerToken,
				Username:    fe.Auth.Username,
				Password:    fe.Auth.Password,
			}
		}
		entry.Source = registry.Source{Kind: registry.KindHTTP, HTTP: src}
	case string(registry.KindPackage):
		entry.Source = registry.Source{
			Kind: registry.KindPackage,
			Package: &registry.PackageSource{
				Package:     fe.Package,
				Version:     fe.Version,
				RegistryURL: fe.RegistryURL,
			},
		}
	default:
		return registry.Entry{}, fmt.Errorf("%w: entry %q has unknown source type %q",
			registry.ErrConfiguration, fe.Name, fe.Type)
	}
	return entry, nil
}
