package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"

	"github.com/projgen-labs/projgen/internal/manifest"
)

// tmpSuffix is appended to the target dir during atomic materialization.
const tmpSuffix = ".tmp"

// gitAdapter serves templates from a git repository. Checkouts live under
// <cacheDir>/git/<hash(url|branch|subfolder)> so the same descriptor always
// maps to the same path. An existing clone is refreshed with a shallow pull
// of the requested branch; a pull failure serves the existing checkout of
// that same branch, never a different ref.
type gitAdapter struct {
	cacheDir string
	log      *zap.Logger

	// Serializes clone/pull per checkout path so concurrent resolutions
	// do not race on the same working tree.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGitAdapter(cacheDir string, log *zap.Logger) *gitAdapter {
	return &gitAdapter{
		cacheDir: cacheDir,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

func (g *gitAdapter) FetchList(ctx context.Context, src Source) ([]manifest.Metadata, error) {
	root, err := g.materialize(ctx, src.Git)
	if err != nil {
		return nil, err
	}
	return scanTemplates(root)
}

func (g *gitAdapter) FetchOne(ctx context.Context, src Source, templateName string) (string, *manifest.Metadata, error) {
	root, err := g.materialize(ctx, src.Git)
	if err != nil {
		return "", nil, err
	}
	return resolveTemplate(root, templateName)
}

// materialize ensures a checkout of the source exists and returns the
// template root (the subfolder within the checkout, when configured).
func (g *gitAdapter) materialize(ctx context.Context, src *GitSource) (string, error) {
	checkout := filepath.Join(g.cacheDir, "git", checkoutID(src))

	lock := g.pathLock(checkout)
	lock.Lock()
	defer lock.Unlock()

	if _, err := os.Stat(filepath.Join(checkout, git.GitDirName)); err == nil {
		g.refresh(ctx, checkout, src)
	} else if err := g.clone(ctx, checkout, src); err != nil {
		return "", err
	}

	root := checkout
	if src.Subfolder != "" {
		root = filepath.Join(checkout, filepath.FromSlash(src.Subfolder))
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: subfolder %q not present in %s", ErrTemplateNotFound, src.Subfolder, src.URL)
		}
	}
	return root, nil
}

// clone performs a shallow, single-branch clone. The clone is atomic: it
// writes to a .tmp directory first and renames on success.
func (g *gitAdapter) clone(ctx context.Context, checkout string, src *GitSource) error {
	tmpDir := checkout + tmpSuffix
	_ = os.RemoveAll(tmpDir)
	if err := os.MkdirAll(filepath.Dir(tmpDir), 0755); err != nil {
		return fmt.Errorf("%w: creating checkout parent: %v", ErrSourceUnavailable, err)
	}

	opts := &git.CloneOptions{
		URL:          src.URL,
		Depth:        1,
		SingleBranch: true,
		Auth:         gitAuth(src.Auth),
	}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
	}

	if _, err := git.PlainCloneContext(ctx, tmpDir, false, opts); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("%w: cloning %s: %v", ErrSourceUnavailable, src.URL, err)
	}

	if err := os.Rename(tmpDir, checkout); err != nil {
		_ = os.RemoveAll(tmpDir)
		return fmt.Errorf("%w: finalizing checkout: %v", ErrSourceUnavailable, err)
	}
	return nil
}

// refresh pulls the latest commits on the already-checked-out branch.
// Failures are logged and the existing checkout is served.
func (g *gitAdapter) refresh(ctx context.Context, checkout string, src *GitSource) {
	repo, err := git.PlainOpen(checkout)
	if err != nil {
		g.log.Warn("cannot open cached checkout, serving as-is",
			zap.String("path", checkout), zap.Error(err))
		return
	}
	wt, err := repo.Worktree()
	if err != nil {
		g.log.Warn("cannot open worktree, serving as-is",
			zap.String("path", checkout), zap.Error(err))
		return
	}

	opts := &git.PullOptions{
		Depth:        1,
		SingleBranch: true,
		Force:        true,
		Auth:         gitAuth(src.Auth),
	}
	if src.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Branch)
	}
	if err := wt.PullContext(ctx, opts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		g.log.Warn("git pull failed, using cached checkout",
			zap.String("url", src.URL), zap.Error(err))
	}
}

// pathLock returns the mutex guarding a checkout path.
func (g *gitAdapter) pathLock(path string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.locks[path]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[path] = lock
	}
	return lock
}

// gitAuth converts configured credentials into a transport auth method.
func gitAuth(auth *GitAuth) *githttp.BasicAuth {
	if auth == nil || auth.Token == "" {
		return nil
	}
	username := auth.Username
	if username == "" {
		// GitHub-style token auth requires a non-empty username.
		username = "x-access-token"
	}
	return &githttp.BasicAuth{Username: username, Password: auth.Token}
}

// checkoutID derives the deterministic cache path component for a source.
func checkoutID(src *GitSource) string {
	h := sha256.Sum256([]byte(src.URL + "|" + src.Branch + "|" + src.Subfolder))
	return hex.EncodeToString(h[:])[:16]
}
