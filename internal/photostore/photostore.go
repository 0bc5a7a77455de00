package photostore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/cjeanneret/FloatCam/internal/debug"
)

// Naming convention shared by the capture pipeline and the album:
// photo_<YYYYMMDD_HHMMSS>.png with an optional photo_<YYYYMMDD_HHMMSS>.txt sibling.
const (
	Prefix          = "photo_"
	ImageExt        = ".png"
	DescriptionExt  = ".txt"
	TimestampLayout = "20060102_150405"
)

// ImageName returns the image file name for a capture taken at t.
// Two captures in the same second get the same name.
func ImageName(t time.Time) string {
	return Prefix + t.Format(TimestampLayout) + ImageExt
}

// DescriptionPath derives the description sibling of an image path.
func DescriptionPath(imagePath string) string {
	return strings.TrimSuffix(imagePath, filepath.Ext(imagePath)) + DescriptionExt
}

// CapturedAt parses the timestamp encoded in an image path.
func CapturedAt(imagePath string) (time.Time, error) {
	base := filepath.Base(imagePath)
	if !strings.HasPrefix(base, Prefix) || filepath.Ext(base) != ImageExt {
		return time.Time{}, fmt.Errorf("photostore: %q does not follow %s<timestamp>%s", base, Prefix, ImageExt)
	}
	stamp := strings.TrimSuffix(strings.TrimPrefix(base, Prefix), ImageExt)
	return time.ParseInLocation(TimestampLayout, stamp, time.Local)
}

// Store is a flat directory of photo/description pairs.
// The directory is the only source of truth; nothing is cached.
type Store struct {
	Root string
}

// New returns a store rooted at dir.
func New(dir string) Store {
	return Store{Root: filepath.Clean(strings.TrimSpace(dir))}
}

// Ensure creates the storage root if needed.
func (s Store) Ensure() error {
	return os.MkdirAll(s.Root, 0o755)
}

// ImagePath returns the path of the image captured at t.
func (s Store) ImagePath(t time.Time) string {
	return filepath.Join(s.Root, ImageName(t))
}

// List returns every photo_*.png under the root, sorted ascending by path
// (which is chronological given the fixed timestamp layout). A missing
// root yields an empty list.
func (s Store) List() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.Root, Prefix+"*"+ImageExt))
	if err != nil {
		return nil, fmt.Errorf("photostore: list %s: %w", s.Root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// ReadImage returns the raw bytes of an image file.
func (s Store) ReadImage(imagePath string) ([]byte, error) {
	return os.ReadFile(imagePath)
}

// ReadDescription returns the description of an image. ok is false when
// the sibling file does not exist.
func (s Store) ReadDescription(imagePath string) (text string, ok bool, err error) {
	data, err := os.ReadFile(DescriptionPath(imagePath))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(data), true, nil
}

// WriteImage writes image bytes to path, replacing an existing file.
func (s Store) WriteImage(imagePath string, data []byte) error {
	return writeFileAtomic(imagePath, data)
}

// WriteDescription writes the description sibling of imagePath.
func (s Store) WriteDescription(imagePath, text string) error {
	return writeFileAtomic(DescriptionPath(imagePath), []byte(text))
}

// Remove deletes an image and its description. Missing files are ignored;
// other failures of both removals are combined.
func (s Store) Remove(imagePath string) error {
	var err error
	for _, p := range []string{imagePath, DescriptionPath(imagePath)} {
		switch rmErr := os.Remove(p); {
		case rmErr == nil:
			debug.Verbose("Store: removed %s", p)
		case !errors.Is(rmErr, fs.ErrNotExist):
			err = multierr.Append(err, rmErr)
		}
	}
	return err
}

// writeFileAtomic writes data next to path under a temporary name and
// renames it into place, so readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Leading '.' keeps the temp file out of the photo_* listing.
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	debug.Verbose("Store: wrote %s (%d bytes)", path, len(data))
	return nil
}
