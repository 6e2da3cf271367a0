package registry

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// extractArchive unpacks a tar.gz or zip archive into destDir. The format
// is picked from the archive filename. stripPrefix, when non-empty, removes
// a leading path component from every entry (npm tarballs nest everything
// under "package/").
func extractArchive(archivePath, destDir, stripPrefix string) error {
	if strings.HasSuffix(archivePath, ".zip") {
		return extractZip(archivePath, destDir, stripPrefix)
	}
	return extractTarGz(archivePath, destDir, stripPrefix)
}

func extractTarGz(archivePath, destDir, stripPrefix string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}

		name, ok := entryName(hdr.Name, stripPrefix)
		if !ok {
			continue
		}
		target, err := securePath(destDir, name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("creating directory for %s: %w", target, err)
			}
			mode := os.FileMode(hdr.Mode) & 0777
			if mode == 0 {
				mode = 0644
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
			if err != nil {
				return fmt.Errorf("creating file %s: %w", target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extracting %s: %w", target, err)
			}
			out.Close()
		}
		// Symlinks and other special entries are skipped.
	}
	return nil
}

func extractZip(archivePath, destDir, stripPrefix string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip archive: %w", err)
	}
	defer r.Close()

	for _, f := range r.File {
		name, ok := entryName(f.Name, stripPrefix)
		if !ok {
			continue
		}
		target, err := securePath(destDir, name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", target, err)
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("opening zip entry %s: %w", f.Name, err)
		}
		mode := f.Mode() & 0777
		if mode == 0 {
			mode = 0644
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
		if err != nil {
			rc.Close()
			return fmt.Errorf("creating file %s: %w", target, err)
		}
		if _, err := io.Copy(out, rc); err != nil {
			out.Close()
			rc.Close()
			return fmt.Errorf("extracting %s: %w", target, err)
		}
		out.Close()
		rc.Close()
	}
	return nil
}

// entryName normalizes an archive entry name, applying the strip prefix.
// Returns false for entries outside the prefix or with empty names.
func entryName(name, stripPrefix string) (string, bool) {
	name = filepath.ToSlash(name)
	if stripPrefix != "" {
		if !strings.HasPrefix(name, stripPrefix+"/") && name != stripPrefix {
			return "", false
		}
		name = strings.TrimPrefix(strings.TrimPrefix(name, stripPrefix), "/")
	}
	if name == "" {
		return "", false
	}
	return name, true
}

// securePath joins name under destDir, rejecting entries that would escape
// the destination via path traversal.
func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))
	rel, err := filepath.Rel(destDir, target)
	if err != nil || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return target, nil
}
