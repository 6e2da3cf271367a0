package generator

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// tmplExt marks files rendered through text/template. The extension is
// stripped from the output filename.
const tmplExt = ".tmpl"

// excludedNames are files and directories never copied into a generated
// project.
var excludedNames = map[string]bool{
	"node_modules": true,
	".git":         true,
	".DS_Store":    true,
}

// Result holds the outcome of a generation run.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// Generate materializes templateDir into outputDir using the resolved
// variable data. Files ending in .tmpl are rendered; template descriptors
// and VCS litter are skipped; everything else is copied byte for byte.
// The output directory must be empty or absent.
func Generate(templateDir, outputDir string, data map[string]any) (*Result, error) {
	if err := checkOutputDir(outputDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	result := &Result{OutputDir: outputDir}
	err := filepath.WalkDir(templateDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == templateDir {
			return nil
		}
		name := d.Name()
		if excludedNames[name] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(templateDir, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			return os.MkdirAll(filepath.Join(outputDir, rel), 0755)
		}
		// The descriptor describes the template; it is not part of the
		// generated project.
		if filepath.Dir(rel) == "." && manifest.IsDescriptorFile(name) {
			return nil
		}

		if strings.HasSuffix(name, tmplExt) {
			outRel := strings.TrimSuffix(rel, tmplExt)
			if err := renderFile(path, filepath.Join(outputDir, outRel), data); err != nil {
				return err
			}
			result.Files = append(result.Files, outRel)
			return nil
		}

		if err := copyFile(path, filepath.Join(outputDir, rel)); err != nil {
			return err
		}
		result.Files = append(result.Files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(result.Files)
	return result, nil
}

// checkOutputDir refuses to generate over existing content.
func checkOutputDir(outputDir string) error {
	entries, err := os.ReadDir(outputDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading output directory: %w", err)
	}
	if len(entries) > 0 {
		return fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}
	return nil
}

// renderFile parses src as a Go template and writes the rendered output,
// preserving the source file's permissions.
func renderFile(src, dst string, data map[string]any) error {
	raw, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", src, err)
	}

	tmpl, err := template.New(filepath.Base(src)).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parsing template %s: %w", src, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing template %s: %w", src, err)
	}

	mode, err := fileMode(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}

// copyFile copies src to dst byte for byte, preserving permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	mode, err := fileMode(src)
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}

func fileMode(path string) (os.FileMode, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Mode().Perm(), nil
}
