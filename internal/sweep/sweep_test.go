package sweep

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/ignore"
	"github.com/fenilsonani/tidyd/internal/mover"
	"github.com/fenilsonani/tidyd/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSweeper(root string) *Sweeper {
	return New(mover.New(quietLogger()), ignore.New(root, nil, false), quietLogger())
}

func TestSweep_ArchivesOnlyStaleFiles(t *testing.T) {
	f := testutil.NewLayoutFixture(t)
	old := f.CreateDownload("Images/a.png", 64, 40)
	fresh := f.CreateDownload("Images/b.png", 64, 10)
	archived := f.CreateDownload("Unused/Images/c.png", 64, 40)

	s := newSweeper(f.RootDir)
	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)

	f.AssertFileNotExists(old)
	f.AssertFileExists(f.Path("Unused/Images/a.png"))
	f.AssertFileExists(fresh)
	f.AssertFileExists(archived)

	assert.Equal(t, 2, res.Visited, "archive tree is not visited")
	assert.Equal(t, 1, res.Archived)
	assert.Equal(t, 1, res.Young)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, category.Images, res.Candidates[0].Category)
	assert.True(t, res.Candidates[0].Archived)
}

func TestSweep_StaleLooseFileAndRerunIsNoOp(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDownload("notes.txt", 12, 40)

	s := newSweeper(f.RootDir)
	first, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Archived)

	want := f.Path("Unused/Documents/notes.txt")
	f.AssertFileExists(want)
	f.AssertFileNotExists(f.Path("notes.txt"))

	second, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Archived)
	assert.Equal(t, 0, second.Visited)
	f.AssertFileExists(want)
}

func TestSweep_SameNameFromTwoFoldersKeepsBoth(t *testing.T) {
	f := testutil.NewLayoutFixture(t)
	f.CreateFileWithAge("Documents/todo.txt", []byte("filed"), 40*testutil.Day)
	f.CreateFileWithAge("todo.txt", []byte("loose"), 41*testutil.Day)

	s := newSweeper(f.RootDir)
	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Archived)
	assert.Empty(t, res.Errors)

	first, err := os.ReadFile(f.Path("Unused/Documents/todo.txt"))
	require.NoError(t, err)
	second, err := os.ReadFile(f.Path("Unused/Documents/todo (1).txt"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"filed", "loose"}, []string{string(first), string(second)})
}

func TestSweep_CutoffBoundaryIsInclusive(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateFile("edge.zip", []byte("zip"))
	stamp := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, stamp, stamp))

	s := newSweeper(f.RootDir)
	s.DryRun = true

	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, time.Hour, stamp.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 1, "age equal to the cutoff is stale")

	res, err = s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, time.Hour, stamp.Add(time.Hour-time.Second))
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 1, res.Young)
}

func TestSweep_NestedDirectoriesAreWalked(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDownload("projects/2023/q1/slides.pptx", 8, 90)
	f.CreateDownload("projects/2023/q1/demo.mkv", 8, 90)
	f.CreateDownload("projects/keep.mp3", 8, 1)

	s := newSweeper(f.RootDir)
	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Archived)
	f.AssertFileExists(f.Path("Unused/Documents/slides.pptx"))
	f.AssertFileExists(f.Path("Unused/Videos/demo.mkv"))
	f.AssertFileExists(f.Path("projects/keep.mp3"))
}

func TestSweep_NestedArchiveNameOutsideRootArchiveIsWalked(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDownload("Images/Unused/old.gif", 8, 60)

	s := newSweeper(f.RootDir)
	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Archived)
	f.AssertFileExists(f.Path("Unused/Images/old.gif"))
}

func TestSweep_SkipsTransientAndIgnored(t *testing.T) {
	f := testutil.NewFixture(t)
	draft := f.CreateDownload("draft.tmp", 8, 365)
	partial := f.CreateDownload("movie.mkv.part", 8, 365)
	thumbs := f.CreateDownload("Thumbs.db", 8, 365)

	s := newSweeper(f.RootDir)
	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Visited)
	f.AssertFileExists(draft)
	f.AssertFileExists(partial)
	f.AssertFileExists(thumbs)
}

func TestSweep_DryRunMovesNothing(t *testing.T) {
	f := testutil.NewFixture(t)
	path := f.CreateDownload("setup.iso", 2048, 45)
	f.CreateDownload("song.flac", 1024, 45)

	s := newSweeper(f.RootDir)
	s.DryRun = true
	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)

	f.AssertFileExists(path)
	assert.Equal(t, 0, res.Archived)
	assert.Len(t, res.Candidates, 2)
	assert.Equal(t, int64(3072), res.TotalSize)

	grouped := res.GroupByCategory()
	require.Len(t, grouped, 2)
	assert.Equal(t, category.Archives, grouped[0].Category)
	assert.Equal(t, int64(2048), grouped[0].Size)
	assert.Equal(t, category.Audio, grouped[1].Category)
	assert.Equal(t, filepath.Join(f.ArchiveDir, "Archives", "setup.iso"), res.Candidates[0].Target)
}

func TestSweep_UnreadableSubdirIsRecorded(t *testing.T) {
	testutil.SkipIfRoot(t)

	f := testutil.NewFixture(t)
	f.CreateUnreadableDir("locked")
	f.CreateDownload("old.csv", 4, 40)

	s := newSweeper(f.RootDir)
	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Archived)
	assert.Len(t, res.Errors, 1)
}

type failingPlacer struct{ err error }

func (p failingPlacer) Place(context.Context, string, string, category.Category) (mover.Result, error) {
	return mover.Result{}, p.err
}

func TestSweep_MoveErrorsAreCollected(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDownload("a.doc", 4, 40)
	f.CreateDownload("b.doc", 4, 40)

	boom := errors.New("read-only file system")
	s := New(failingPlacer{err: boom}, nil, quietLogger())
	res, err := s.Sweep(context.Background(), f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	require.NoError(t, err)
	assert.Len(t, res.Errors, 2)
	assert.ErrorIs(t, res.Errors[0], boom)
	assert.Equal(t, 0, res.Archived)
}

func TestSweep_MissingRootFails(t *testing.T) {
	f := testutil.NewFixture(t)
	s := newSweeper(f.RootDir)

	_, err := s.Sweep(context.Background(), f.Path("nope"), f.ArchiveDir, DefaultCutoff, time.Now())
	require.Error(t, err)
}

func TestSweep_CancelledContext(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDownload("a.pdf", 4, 40)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newSweeper(f.RootDir)
	_, err := s.Sweep(ctx, f.RootDir, f.ArchiveDir, DefaultCutoff, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	f.AssertFileExists(f.Path("a.pdf"))
}

func TestArchiveRoot(t *testing.T) {
	assert.Equal(t, filepath.Join("/dl", "Unused"), ArchiveRoot("/dl"))
}
