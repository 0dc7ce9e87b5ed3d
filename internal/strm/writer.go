package strm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned when an operation targets a path that is not
// below the writer's root, or is too close to it for a recursive delete.
var ErrOutsideRoot = errors.New("strm: path outside output root")

// Writer owns one output root (a subscription's movies or series dir).
type Writer struct {
	Root string
}

func NewWriter(root string) *Writer {
	return &Writer{Root: root}
}

// Path joins elements under the root. Callers pass sanitized components;
// the mutating operations below still refuse anything that escapes the root.
func (w *Writer) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Root}, elem...)...)
}

// Depth returns how many components path lies below the root: 0 for the
// root itself, 1 for a category folder, and -1 when path is outside it.
func (w *Writer) Depth(path string) int {
	rel, err := filepath.Rel(filepath.Clean(w.Root), filepath.Clean(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return -1
	}
	if rel == "." {
		return 0
	}
	return len(strings.Split(rel, string(filepath.Separator)))
}

func (w *Writer) require(path string, minDepth int) error {
	if w.Depth(path) < minDepth {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return nil
}

func (w *Writer) EnsureDir(path string) error {
	if err := w.require(path, 1); err != nil {
		return err
	}
	return os.MkdirAll(path, 0o755)
}

// WriteFile replaces the file at path, creating parent directories. The
// file must sit inside a folder below the root.
func (w *Writer) WriteFile(path, content string) error {
	if err := w.require(path, 2); err != nil {
		return err
	}
	if err := w.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

// Remove deletes a file; a missing file is not an error.
func (w *Writer) Remove(path string) error {
	if err := w.require(path, 1); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// RemoveAll deletes a movie or series folder with its contents. The root
// and category folders are refused.
func (w *Writer) RemoveAll(path string) error {
	if err := w.require(path, 2); err != nil {
		return err
	}
	return os.RemoveAll(path)
}

// RemoveDirIfEmpty deletes path when it is an empty directory and reports
// whether it did. The root itself is never removed.
func (w *Writer) RemoveDirIfEmpty(path string) bool {
	if w.require(path, 1) != nil {
		return false
	}
	return os.Remove(path) == nil
}

func (w *Writer) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MovieFiles locates the files of one movie. With a TMDB id the movie gets
// its own folder "{cat}/{name} {tmdb-N}/"; without one both files sit flat
// in the category folder.
type MovieFiles struct {
	CategoryDir string
	Dir         string
	STRM        string
	NFO         string
	OwnDir      bool
}

func (w *Writer) MovieFiles(category, name, tmdbID string) MovieFiles {
	catDir := w.Path(SanitizeName(category))
	base := SanitizeName(name)
	if suffix := TMDBSuffix(tmdbID); suffix != "" {
		base += suffix
		dir := filepath.Join(catDir, base)
		return MovieFiles{
			CategoryDir: catDir,
			Dir:         dir,
			STRM:        filepath.Join(dir, base+".strm"),
			NFO:         filepath.Join(dir, base+".nfo"),
			OwnDir:      true,
		}
	}
	return MovieFiles{
		CategoryDir: catDir,
		Dir:         catDir,
		STRM:        filepath.Join(catDir, base+".strm"),
		NFO:         filepath.Join(catDir, base+".nfo"),
	}
}

// RemoveMovie deletes the files of a movie and its folder when it had one.
func (w *Writer) RemoveMovie(f MovieFiles) error {
	if f.OwnDir {
		return w.RemoveAll(f.Dir)
	}
	if err := w.Remove(f.STRM); err != nil {
		return err
	}
	return w.Remove(f.NFO)
}

// SeriesDir is "{cat}/{name}{ {tmdb-N}}".
func (w *Writer) SeriesDir(category, name, tmdbID string) string {
	return w.Path(SanitizeName(category), SanitizeName(name)+TMDBSuffix(tmdbID))
}

// EpisodeDir is the series folder itself or its season subfolder.
func EpisodeDir(seriesDir string, season int, seasonFolders bool) string {
	if !seasonFolders {
		return seriesDir
	}
	return filepath.Join(seriesDir, SeasonDirName(season))
}
