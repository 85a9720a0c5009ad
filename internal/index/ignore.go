package index

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	ig "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName is the per-directory ignore file, gitignore syntax.
const IgnoreFileName = ".sync_ignore"

// CoreIgnores are always skipped, whatever the ignore files say.
var CoreIgnores = []string{".sync_temp", "packsync.yaml", IgnoreFileName}

type dirMatcher struct {
	ignore  *ig.GitIgnore // nil when no pattern applies
	include *ig.GitIgnore // negated patterns, stripped of their "!"
}

// IgnoreCache caches compiled .sync_ignore matchers per directory and
// provides cascading ancestor matching similar to .gitignore semantics. It
// is safe for concurrent use.
type IgnoreCache struct {
	Root  string
	extra []string

	mu    sync.Mutex
	cache map[string]*dirMatcher
	// rawLines stores the preprocessed lines of one directory's
	// .sync_ignore (not cumulative); nil when the file is absent.
	rawLines map[string][]string
}

// NewIgnoreCache creates an IgnoreCache rooted at absRoot. extra patterns
// apply at the root as if they were in its .sync_ignore.
func NewIgnoreCache(absRoot string, extra ...string) *IgnoreCache {
	return &IgnoreCache{
		Root:     filepath.Clean(absRoot),
		extra:    preprocess(extra),
		cache:    map[string]*dirMatcher{},
		rawLines: map[string][]string{},
	}
}

// ClearCache invalidates all cached matchers, forcing a reload on the next
// Match call.
func (c *IgnoreCache) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = map[string]*dirMatcher{}
	c.rawLines = map[string][]string{}
}

// IsCore reports whether path is covered by CoreIgnores.
func (c *IgnoreCache) IsCore(path string) bool {
	rel, err := filepath.Rel(c.Root, path)
	if err != nil {
		rel = path
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		for _, core := range CoreIgnores {
			if strings.EqualFold(seg, core) {
				return true
			}
		}
	}
	return false
}

// Match returns true if the given path (absolute, under Root) should be
// ignored. isDir indicates whether the path refers to a directory.
func (c *IgnoreCache) Match(path string, isDir bool) bool {
	path = filepath.Clean(path)
	if path == c.Root {
		return false
	}
	if c.IsCore(path) {
		return true
	}

	dir := path
	if !isDir {
		dir = filepath.Dir(path)
	}
	m := c.matcher(dir)

	rel, err := filepath.Rel(c.Root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)
	if runtime.GOOS == "windows" {
		rel, base = strings.ToLower(rel), strings.ToLower(base)
	}

	matches := func(g *ig.GitIgnore) bool {
		if g == nil {
			return false
		}
		if g.MatchesPath(rel) || g.MatchesPath(base) {
			return true
		}
		return isDir && g.MatchesPath(rel+"/")
	}

	// Negations win over any ignore in an ancestor.
	if matches(m.include) {
		return false
	}
	return matches(m.ignore)
}

func (c *IgnoreCache) matcher(dir string) *dirMatcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	if m, ok := c.cache[dir]; ok {
		return m
	}

	cumulative := append([]string(nil), c.extra...)
	for _, d := range c.ancestors(dir) {
		cumulative = append(cumulative, c.linesFor(d)...)
	}

	var ignores, includes []string
	for _, l := range cumulative {
		if strings.HasPrefix(l, "!") {
			includes = append(includes, strings.TrimPrefix(l, "!"))
		} else {
			ignores = append(ignores, l)
		}
	}
	m := &dirMatcher{}
	if len(ignores) > 0 {
		m.ignore = ig.CompileIgnoreLines(ignores...)
	}
	if len(includes) > 0 {
		m.include = ig.CompileIgnoreLines(includes...)
	}
	c.cache[dir] = m
	return m
}

// ancestors lists Root -> dir, both inclusive. Directories outside Root
// yield only Root.
func (c *IgnoreCache) ancestors(dir string) []string {
	var out []string
	cur := filepath.Clean(dir)
	for {
		out = append(out, cur)
		if cur == c.Root {
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return []string{c.Root}
		}
		cur = parent
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// linesFor must be called with mu held.
func (c *IgnoreCache) linesFor(dir string) []string {
	if lines, ok := c.rawLines[dir]; ok {
		return lines
	}
	data, err := os.ReadFile(filepath.Join(dir, IgnoreFileName))
	if err != nil {
		c.rawLines[dir] = nil
		return nil
	}
	lines := preprocess(strings.Split(string(data), "\n"))
	c.rawLines[dir] = lines
	return lines
}

// preprocess drops blanks and comments, and adds a "**/" form of simple
// patterns like "*.log" so they match in every subdirectory.
func preprocess(raw []string) []string {
	lines := make([]string, 0, len(raw)*2)
	for _, ln := range raw {
		l := strings.TrimSpace(ln)
		if l == "" || strings.HasPrefix(l, "#") {
			continue
		}
		prefix := ""
		if strings.HasPrefix(l, "!") {
			prefix = "!"
			l = strings.TrimPrefix(l, "!")
		}
		l = filepath.ToSlash(l)
		if strings.Contains(l, "/") || strings.Contains(l, "**") {
			lines = append(lines, prefix+l)
			continue
		}
		lines = append(lines, prefix+l, prefix+"**/"+l)
	}
	return lines
}

// Patterns returns every preprocessed pattern that applies somewhere under
// Root, sorted and deduplicated.
func (c *IgnoreCache) Patterns() []string {
	found := map[string]struct{}{}
	for _, d := range CoreIgnores {
		found[d] = struct{}{}
	}
	for _, l := range c.extra {
		found[l] = struct{}{}
	}
	_ = filepath.WalkDir(c.Root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && c.IsCore(p) {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), IgnoreFileName) {
			c.mu.Lock()
			lines := c.linesFor(filepath.Dir(p))
			c.mu.Unlock()
			for _, l := range lines {
				found[l] = struct{}{}
			}
		}
		return nil
	})

	out := make([]string, 0, len(found))
	for k := range found {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
