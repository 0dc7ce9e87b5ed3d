package strm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovieFiles(t *testing.T) {
	w := NewWriter("/media/movies")

	withTMDB := w.MovieFiles("FR: Action", "The Matrix", "603")
	assert.True(t, withTMDB.OwnDir)
	assert.Equal(t, "/media/movies/FR_ Action", withTMDB.CategoryDir)
	assert.Equal(t, "/media/movies/FR_ Action/The Matrix {tmdb-603}", withTMDB.Dir)
	assert.Equal(t, "/media/movies/FR_ Action/The Matrix {tmdb-603}/The Matrix {tmdb-603}.strm", withTMDB.STRM)
	assert.Equal(t, "/media/movies/FR_ Action/The Matrix {tmdb-603}/The Matrix {tmdb-603}.nfo", withTMDB.NFO)

	flat := w.MovieFiles("Kids", "Cars", "0")
	assert.False(t, flat.OwnDir)
	assert.Equal(t, flat.CategoryDir, flat.Dir)
	assert.Equal(t, "/media/movies/Kids/Cars.strm", flat.STRM)
	assert.Equal(t, "/media/movies/Kids/Cars.nfo", flat.NFO)
}

func TestSeriesLayout(t *testing.T) {
	w := NewWriter("/media/series")
	dir := w.SeriesDir("Drama", "Show: Origins", "1399")
	assert.Equal(t, "/media/series/Drama/Show_ Origins {tmdb-1399}", dir)
	assert.Equal(t, dir, EpisodeDir(dir, 1, false))
	assert.Equal(t, dir+"/Season 03", EpisodeDir(dir, 3, true))
	assert.Equal(t, "/media/series/Drama/Plain", w.SeriesDir("Drama", "Plain", ""))
}

func TestWriterFileOperations(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	files := w.MovieFiles("Action", "Movie", "")
	require.NoError(t, w.WriteFile(files.STRM, "http://provider/movie/u/p/1.mkv"))
	require.NoError(t, w.WriteFile(files.NFO, "<movie></movie>"))

	content, err := os.ReadFile(files.STRM)
	require.NoError(t, err)
	assert.Equal(t, "http://provider/movie/u/p/1.mkv", string(content))
	assert.True(t, w.Exists(files.NFO))

	t.Run("Non-empty directories are kept", func(t *testing.T) {
		assert.False(t, w.RemoveDirIfEmpty(files.CategoryDir))
	})

	t.Run("Removing a flat movie deletes both files", func(t *testing.T) {
		require.NoError(t, w.RemoveMovie(files))
		assert.False(t, w.Exists(files.STRM))
		assert.False(t, w.Exists(files.NFO))
		// Removing again is fine.
		require.NoError(t, w.RemoveMovie(files))
		assert.True(t, w.RemoveDirIfEmpty(files.CategoryDir))
		assert.False(t, w.Exists(files.CategoryDir))
	})

	t.Run("Removing a movie folder", func(t *testing.T) {
		own := w.MovieFiles("Action", "Movie", "12")
		require.NoError(t, w.WriteFile(own.STRM, "url"))
		require.NoError(t, w.RemoveMovie(own))
		assert.False(t, w.Exists(own.Dir))
		assert.True(t, w.Exists(filepath.Join(root, "Action")))
	})

	t.Run("Root is never removed", func(t *testing.T) {
		empty := NewWriter(t.TempDir())
		assert.False(t, empty.RemoveDirIfEmpty(empty.Root))
		assert.True(t, empty.Exists(empty.Root))
	})
}

func TestUnsafeNamesStayBelowRoot(t *testing.T) {
	root := t.TempDir()
	w := NewWriter(root)

	files := w.MovieFiles("..", "Escaped", "")
	assert.Equal(t, filepath.Join(root, "_", "Escaped.strm"), files.STRM)
	assert.Equal(t, filepath.Join(root, "_"), files.CategoryDir)

	assert.Equal(t, filepath.Join(root, "Drama", "_"), w.SeriesDir("Drama", "", ""))
	assert.Equal(t, filepath.Join(root, "_", "_"), w.SeriesDir(".", "..", ""))
}

func TestWriterRefusesPathsOutsideRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "movies")
	w := NewWriter(root)

	sibling := filepath.Join(parent, "sibling.strm")
	err := w.WriteFile(sibling, "url")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	assert.NoFileExists(t, sibling)

	// Files go into a folder below the root, never into the root itself.
	assert.ErrorIs(t, w.WriteFile(filepath.Join(root, "loose.strm"), "url"), ErrOutsideRoot)

	require.NoError(t, os.WriteFile(sibling, []byte("keep"), 0o644))
	assert.ErrorIs(t, w.Remove(sibling), ErrOutsideRoot)
	assert.ErrorIs(t, w.Remove(filepath.Join(root, "..", "sibling.strm")), ErrOutsideRoot)
	assert.FileExists(t, sibling)

	show := w.SeriesDir("Drama", "Keep", "")
	require.NoError(t, w.WriteFile(filepath.Join(show, "tvshow.nfo"), "<tvshow/>"))

	t.Run("recursive delete refuses root and category folders", func(t *testing.T) {
		assert.ErrorIs(t, w.RemoveAll(root), ErrOutsideRoot)
		assert.ErrorIs(t, w.RemoveAll(filepath.Join(root, "Drama")), ErrOutsideRoot)
		assert.ErrorIs(t, w.RemoveAll(parent), ErrOutsideRoot)
		assert.FileExists(t, filepath.Join(show, "tvshow.nfo"))
	})

	t.Run("empty-dir cleanup stays inside", func(t *testing.T) {
		empty := filepath.Join(parent, "empty")
		require.NoError(t, os.Mkdir(empty, 0o755))
		assert.False(t, w.RemoveDirIfEmpty(empty))
		assert.DirExists(t, empty)
	})

	t.Run("depth", func(t *testing.T) {
		assert.Equal(t, 0, w.Depth(root))
		assert.Equal(t, 1, w.Depth(filepath.Join(root, "Drama")))
		assert.Equal(t, 2, w.Depth(show))
		assert.Equal(t, -1, w.Depth(parent))
		assert.Equal(t, -1, w.Depth(filepath.Join(root+"-other", "x")))
	})

	require.NoError(t, w.RemoveAll(show))
	assert.NoDirExists(t, show)
}
