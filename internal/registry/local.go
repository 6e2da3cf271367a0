package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// localAdapter serves templates from a directory tree: each immediate
// subdirectory holding a descriptor is one template. A descriptor at the
// root makes the root itself a single template, which is how archive and
// package sources expose one-template trees.
type localAdapter struct{}

func (localAdapter) FetchList(ctx context.Context, src Source) ([]manifest.Metadata, error) {
	return scanTemplates(src.Local.Path)
}

func (localAdapter) FetchOne(ctx context.Context, src Source, templateName string) (string, *manifest.Metadata, error) {
	return resolveTemplate(src.Local.Path, templateName)
}

// checkTemplateRoot verifies that root exists and is a directory.
func checkTemplateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceUnavailable, root)
	}
	return nil
}

// scanTemplates scans root one level deep and returns metadata for every
// template found. A malformed descriptor fails the whole scan so the
// manager can attribute the failure to this source.
func scanTemplates(root string) ([]manifest.Metadata, error) {
	if err := checkTemplateRoot(root); err != nil {
		return nil, err
	}

	// Root-level descriptor: the root is a single template.
	if md, err := manifest.Load(root); err == nil {
		return []manifest.Metadata{*md}, nil
	} else if !errors.Is(err, manifest.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrTemplateProcessing, err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrSourceUnavailable, root, err)
	}

	var result []manifest.Metadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		md, err := manifest.Load(filepath.Join(root, entry.Name()))
		if errors.Is(err, manifest.ErrNotFound) {
			continue // plain directory, not a template
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTemplateProcessing, err)
		}
		result = append(result, *md)
	}
	return result, nil
}

// resolveTemplate locates a single named template under root. The template
// directory is root/<name>, or root itself when its descriptor declares the
// requested name.
func resolveTemplate(root, templateName string) (string, *manifest.Metadata, error) {
	if err := checkTemplateRoot(root); err != nil {
		return "", nil, err
	}

	dir := filepath.Join(root, templateName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		md, err := manifest.Load(dir)
		if errors.Is(err, manifest.ErrNotFound) {
			return "", nil, fmt.Errorf("%w: %s has no descriptor", ErrTemplateNotFound, dir)
		}
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrTemplateProcessing, err)
		}
		return dir, md, nil
	}

	// Single-template root (archive/package sources).
	md, err := manifest.Load(root)
	if errors.Is(err, manifest.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: %q in %s", ErrTemplateNotFound, templateName, root)
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrTemplateProcessing, err)
	}
	if md.Name != templateName {
		return "", nil, fmt.Errorf("%w: %q in %s", ErrTemplateNotFound, templateName, root)
	}
	return root, md, nil
}
