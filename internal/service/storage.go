package service

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileStore writes uploaded files under a root directory and hands back
// repository-relative paths for persistence.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Save writes content under subdir with a collision-free name derived from
// the original filename. Returns the path relative to the store root.
func (s *FileStore) Save(subdir, filename string, content []byte) (string, error) {
	dir := filepath.Join(s.root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", slugify(filename), uuid.NewString()[:8], extensionFor(filename, content))
	if err := os.WriteFile(filepath.Join(dir, name), content, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return filepath.ToSlash(filepath.Join(subdir, name)), nil
}

// Remove deletes a previously saved file. Missing files are not an error.
func (s *FileStore) Remove(relPath string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(relPath)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// slugify reduces a client-supplied filename to a safe base name.
func slugify(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == ' ':
			b.WriteByte('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "upload"
	}
	if len(slug) > 40 {
		slug = slug[:40]
	}
	return slug
}

// extensionFor prefers the client extension when plausible, falling back to
// the sniffed content type.
func extensionFor(filename string, content []byte) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return ext
	}
	switch http.DetectContentType(content) {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".bin"
}
