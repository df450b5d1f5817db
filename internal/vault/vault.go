// Package vault provides read access to a directory of markdown documents.
//
// Documents are identified by their slash-separated path relative to the
// vault root:
//
//	root/
//	  index.md            ← "index.md"
//	  projects/
//	    plan.md           ← "projects/plan.md"
//	  .templates/
//	    meeting.md        ← ".templates/meeting.md"
//	  .obsidian/          ← ignored
//
// Dot-directories are not part of the vault, with the exception of
// .templates which conventionally holds template documents.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of document bodies kept in memory.
const DefaultCacheSize = 512

// Document is a handle to a markdown document in the vault.
type Document struct {
	Path string // vault-relative, slash-separated, e.g. "notes/a.md"
	Name string // basename without extension, e.g. "a"
}

// NewDocument returns the document handle for a vault-relative path.
func NewDocument(p string) Document {
	p = path.Clean(strings.TrimLeft(filepath.ToSlash(p), "/"))
	base := path.Base(p)
	return Document{Path: p, Name: strings.TrimSuffix(base, path.Ext(base))}
}

// IsMarkdown reports whether p names a markdown document.
func IsMarkdown(p string) bool {
	switch strings.ToLower(path.Ext(p)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

type entry struct {
	content  string
	modified time.Time
	size     int64
}

// Vault reads documents from a content directory. Document bodies are
// cached and revalidated against the file's modification time and size.
type Vault struct {
	root  string
	cache *lru.Cache[string, entry]
}

// New creates a vault rooted at the given directory.
func New(root string, cacheSize int) (*Vault, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", root)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, entry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create content cache: %w", err)
	}
	return &Vault{root: root, cache: cache}, nil
}

// Root returns the content directory path.
func (v *Vault) Root() string {
	return v.root
}

// Read returns the full content of a document.
func (v *Vault) Read(doc Document) (string, error) {
	filePath, err := v.resolve(doc.Path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", doc.Path)
	}

	if e, ok := v.cache.Get(doc.Path); ok && e.modified.Equal(info.ModTime()) && e.size == info.Size() {
		return e.content, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", err
	}
	content := string(data)
	v.cache.Add(doc.Path, entry{content: content, modified: info.ModTime(), size: info.Size()})
	return content, nil
}

// Lookup returns the document at a vault-relative path.
// Returns os.ErrNotExist if no markdown document exists there.
func (v *Vault) Lookup(p string) (Document, error) {
	doc := NewDocument(p)
	if !IsMarkdown(doc.Path) {
		return Document{}, os.ErrNotExist
	}
	filePath, err := v.resolve(doc.Path)
	if err != nil {
		return Document{}, err
	}
	info, err := os.Stat(filePath)
	if err != nil {
		return Document{}, err
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%s is a directory", p)
	}
	return doc, nil
}

// List returns every markdown document in the vault, sorted by path.
func (v *Vault) List() ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if p != v.root && strings.HasPrefix(name, ".") && name != ".templates" {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsMarkdown(name) {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		docs = append(docs, NewDocument(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list vault: %w", err)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Templates filters docs down to those that look like prompt templates:
// those under a templates folder or whose name starts with "template".
func Templates(docs []Document) []Document {
	var templates []Document
	for _, d := range docs {
		if IsTemplate(d) {
			templates = append(templates, d)
		}
	}
	return templates
}

// IsTemplate reports whether doc is treated as a template document.
func IsTemplate(doc Document) bool {
	p := strings.ToLower(doc.Path)
	return strings.Contains(p, "template") ||
		strings.HasPrefix(p, "_templates/") ||
		strings.HasPrefix(p, ".templates/") ||
		strings.HasPrefix(strings.ToLower(doc.Name), "template")
}

// Forget drops any cached body for the document at p.
func (v *Vault) Forget(p string) {
	v.cache.Remove(NewDocument(p).Path)
}

// Rel converts an absolute filesystem path inside the vault to a
// vault-relative document path. ok is false for paths outside the vault.
func (v *Vault) Rel(absPath string) (p string, ok bool) {
	absRoot, err := filepath.Abs(v.root)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// resolve validates and resolves a document path to an absolute filesystem
// path within the content directory. Returns os.ErrNotExist for paths that
// escape the root.
func (v *Vault) resolve(reqPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(reqPath))
	cleaned = strings.TrimLeft(cleaned, string(filepath.Separator))
	joined := filepath.Join(v.root, cleaned)

	absRoot, err := filepath.Abs(v.root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve root symlinks: %w", err)
	}
	absRoot = resolved

	absPath, err := filepath.EvalSymlinks(joined)
	if err != nil {
		absPath, err = filepath.Abs(joined)
		if err != nil {
			return "", err
		}
	}

	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return "", os.ErrNotExist
	}
	return absPath, nil
}
