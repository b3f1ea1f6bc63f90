package disk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"collegeevents/internal/domain"

	"github.com/google/uuid"
)

// sniffLen is how many leading bytes http.DetectContentType looks at.
const sniffLen = 512

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// ImageStore writes uploaded images into a single directory.
// Files are named <unix-ms><ext>; a name already taken gets a random suffix.
type ImageStore struct {
	dir    string
	prefix string
	now    func() time.Time
	suffix func() string
}

// NewImageStore creates dir if needed. References returned by Save are prefix/<name>;
// prefix must be a clean, non-empty URL path so every reference resolves under it.
func NewImageStore(dir, prefix string) (*ImageStore, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" || prefix == "." || prefix == ".." || strings.HasPrefix(prefix, "../") || path.Clean(prefix) != prefix {
		return nil, fmt.Errorf("invalid upload prefix %q", prefix)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &ImageStore{
		dir:    dir,
		prefix: prefix,
		now:    time.Now,
		suffix: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] },
	}, nil
}

// Dir returns the directory files are written to.
func (s *ImageStore) Dir() string { return s.dir }

// Prefix returns the public path prefix used in references, without slashes.
func (s *ImageStore) Prefix() string { return s.prefix }

// Save checks that r holds an image and stores it. Non-image content yields a *domain.ValidationError.
func (s *ImageStore) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return "", domain.NewValidationError("image file is empty")
	}
	if ct := http.DetectContentType(head); !strings.HasPrefix(ct, "image/") {
		return "", domain.NewValidationError(fmt.Sprintf("image must be an image file, got %s", ct))
	}

	f, name, err := s.create(extension(originalName))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, io.MultiReader(bytes.NewReader(head), r)); err != nil {
		f.Close()
		os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return "", fmt.Errorf("close upload: %w", err)
	}
	return s.ref(name), nil
}

// create opens a new file exclusively so an existing upload is never overwritten.
func (s *ImageStore) create(ext string) (*os.File, string, error) {
	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	name := stamp + ext
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err == nil {
		return f, name, nil
	}
	if !errors.Is(err, os.ErrExist) {
		return nil, "", fmt.Errorf("create upload: %w", err)
	}
	for i := 0; i < 3; i++ {
		name = stamp + "-" + s.suffix() + ext
		f, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			break
		}
	}
	return nil, "", fmt.Errorf("create upload: %w", err)
}

// Remove deletes the file behind ref. References that do not point into the store are ignored.
func (s *ImageStore) Remove(ctx context.Context, ref string) error {
	name, ok := s.fileName(ref)
	if !ok {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// List returns every regular file in the store.
func (s *ImageStore) List(ctx context.Context) ([]domain.StoredImage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	images := make([]domain.StoredImage, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		images = append(images, domain.StoredImage{Ref: s.ref(e.Name()), ModTime: info.ModTime()})
	}
	return images, nil
}

func (s *ImageStore) ref(name string) string {
	return s.prefix + "/" + name
}

// Key reduces a reference to the file name it names inside the store. A leading
// slash, backslash separators and an absolute URL all resolve to the same key.
// ok is false for references that do not point into the store.
func (s *ImageStore) Key(ref string) (string, bool) {
	return s.fileName(ref)
}

// fileName maps a reference back to a bare file name inside the store.
func (s *ImageStore) fileName(ref string) (string, bool) {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Host != "" {
		ref = u.Path
	}
	ref = strings.ReplaceAll(ref, `\`, "/")
	rest, ok := strings.CutPrefix(strings.TrimLeft(ref, "/"), s.prefix+"/")
	if !ok {
		return "", false
	}
	if rest == "" || rest != path.Base(rest) || rest == "." || rest == ".." {
		return "", false
	}
	return rest, true
}

// extension returns the lower-cased extension of name, or "" when it looks unsafe.
func extension(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}
