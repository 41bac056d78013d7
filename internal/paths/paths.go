package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// CanonicalizePath returns absolutePath relative to repoRoot with forward
// slashes. Symlinks are resolved on both sides when absolutePath exists.
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	switch {
	case os.IsNotExist(err):
		// Compare lexically so a symlinked root still contains missing paths.
		resolved = absolutePath
	case err != nil:
		return "", err
	default:
		if root, err := filepath.EvalSymlinks(repoRoot); err == nil {
			repoRoot = root
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(repoRoot, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// NormalizePath converts separators to forward slashes and strips "./" and
// trailing slashes, so "./internal/core/" and "internal/core" compare equal.
// The repository root normalizes to ".".
func NormalizePath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "."
	}
	return p
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}

// HasDirPrefix reports whether p equals dir or lies beneath it.
// Both arguments are canonical repo-relative paths; "." contains everything.
func HasDirPrefix(p, dir string) bool {
	p, dir = NormalizePath(p), NormalizePath(dir)
	if dir == "." || p == dir {
		return true
	}
	return strings.HasPrefix(p, dir+"/")
}

// LongestDirPrefix returns the entry of dirs that is the deepest directory
// containing p, or "" when none does.
func LongestDirPrefix(p string, dirs []string) string {
	best := ""
	bestLen := -1
	for _, d := range dirs {
		if !HasDirPrefix(p, d) {
			continue
		}
		n := len(NormalizePath(d))
		if NormalizePath(d) == "." {
			n = 0
		}
		if n > bestLen {
			best, bestLen = d, n
		}
	}
	return best
}
