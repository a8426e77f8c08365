package mover

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fenilsonani/tidyd/internal/category"
)

type recordingNotifier struct {
	calls []string
	err   error
}

func (n *recordingNotifier) Notify(_ context.Context, fileName string, cat category.Category) error {
	n.calls = append(n.calls, fileName+"|"+cat.String())
	return n.err
}

type recordingJournal struct {
	moves []Move
	err   error
}

func (r *recordingJournal) RecordMove(_ context.Context, m Move) error {
	r.moves = append(r.moves, m)
	return r.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestPlace_MovesIntoCategoryFolder(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "photo.jpg")
	writeFile(t, src, "jpeg bytes")

	notifier := &recordingNotifier{}
	journal := &recordingJournal{}
	m := New(quietLogger(), WithNotifier(notifier), WithRecorder(journal))

	res, err := m.Place(context.Background(), src, root, category.Images)
	require.NoError(t, err)

	want := filepath.Join(root, "Images", "photo.jpg")
	assert.Equal(t, Moved, res.Outcome)
	assert.Equal(t, want, res.NewPath)
	assert.FileExists(t, want)
	assert.NoFileExists(t, src)
	assert.Equal(t, []string{"photo.jpg|Images"}, notifier.calls)

	require.Len(t, journal.moves, 1)
	assert.Equal(t, src, journal.moves[0].From)
	assert.Equal(t, want, journal.moves[0].To)
	assert.Equal(t, int64(len("jpeg bytes")), journal.moves[0].Size)
	assert.Equal(t, category.Images, journal.moves[0].Category)
}

func TestPlace_SecondCallIsNoOp(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "report.pdf")
	writeFile(t, src, "pdf")

	notifier := &recordingNotifier{}
	m := New(quietLogger(), WithNotifier(notifier))

	first, err := m.Place(context.Background(), src, root, category.Documents)
	require.NoError(t, err)
	require.Equal(t, Moved, first.Outcome)

	second, err := m.Place(context.Background(), first.NewPath, root, category.Documents)
	require.NoError(t, err)
	assert.Equal(t, NoOp, second.Outcome)
	assert.Equal(t, first.NewPath, second.NewPath)
	assert.Len(t, notifier.calls, 1, "no second notification")
	assert.FileExists(t, first.NewPath)
}

func TestPlace_CreatesMissingIntermediateDirectories(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "notes.txt")
	writeFile(t, src, "old notes")

	archive := filepath.Join(root, "Unused")
	m := New(quietLogger())

	res, err := m.Place(context.Background(), src, archive, category.Documents)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Unused", "Documents", "notes.txt"), res.NewPath)
	assert.FileExists(t, res.NewPath)
}

func TestPlace_NotificationFailureDoesNotRollBack(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "song.mp3")
	writeFile(t, src, "id3")

	notifier := &recordingNotifier{err: errors.New("dbus unavailable")}
	journal := &recordingJournal{err: errors.New("database is locked")}
	m := New(quietLogger(), WithNotifier(notifier), WithRecorder(journal))

	res, err := m.Place(context.Background(), src, root, category.Audio)
	require.NoError(t, err)
	assert.Equal(t, Moved, res.Outcome)
	assert.FileExists(t, filepath.Join(root, "Audio", "song.mp3"))
}

func TestPlace_MissingSourceReturnsMoveError(t *testing.T) {
	root := t.TempDir()
	m := New(quietLogger())

	_, err := m.Place(context.Background(), filepath.Join(root, "ghost.zip"), root, category.Archives)
	require.Error(t, err)

	var moveErr *MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, "rename", moveErr.Op)
	assert.Equal(t, ErrorFileNotFound, moveErr.Reason)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlace_MkdirFailure(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "clip.mp4")
	writeFile(t, src, "mp4")
	// A regular file where the category folder should be
	writeFile(t, filepath.Join(root, "Videos"), "not a dir")

	m := New(quietLogger())
	_, err := m.Place(context.Background(), src, root, category.Videos)
	require.Error(t, err)

	var moveErr *MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, "mkdir", moveErr.Op)
	assert.FileExists(t, src, "source untouched")
}

func TestPlace_KeepsExistingFileWithSameName(t *testing.T) {
	root := t.TempDir()
	filed := filepath.Join(root, "Documents", "invoice.pdf")
	writeFile(t, filed, "JANUARY")
	writeFile(t, filepath.Join(root, "Documents", "invoice (1).pdf"), "FEBRUARY")
	src := filepath.Join(root, "invoice.pdf")
	writeFile(t, src, "MARCH")

	notifier := &recordingNotifier{}
	journal := &recordingJournal{}
	m := New(quietLogger(), WithNotifier(notifier), WithRecorder(journal))

	res, err := m.Place(context.Background(), src, root, category.Documents)
	require.NoError(t, err)

	want := filepath.Join(root, "Documents", "invoice (2).pdf")
	assert.Equal(t, Moved, res.Outcome)
	assert.Equal(t, want, res.NewPath)
	assert.NoFileExists(t, src)

	data, err := os.ReadFile(filed)
	require.NoError(t, err)
	assert.Equal(t, "JANUARY", string(data), "earlier download untouched")
	data, err = os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "MARCH", string(data))

	assert.Equal(t, []string{"invoice (2).pdf|Documents"}, notifier.calls)
	require.Len(t, journal.moves, 1)
	assert.Equal(t, want, journal.moves[0].To)
}

func TestPlace_NoFreeNameIsMoveError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Archives", "backup"), "first")
	for n := 1; n <= maxSuffix; n++ {
		writeFile(t, filepath.Join(root, "Archives", fmt.Sprintf("backup (%d)", n)), "x")
	}
	src := filepath.Join(root, "backup")
	writeFile(t, src, "latest")

	m := New(quietLogger())
	_, err := m.Place(context.Background(), src, root, category.Archives)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoFreeName)

	var moveErr *MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, ErrorDestinationExists, moveErr.Reason)
	assert.Contains(t, moveErr.UserMessage(), "No free name")
	assert.FileExists(t, src, "source untouched")
}

func TestTarget(t *testing.T) {
	assert.Equal(t,
		filepath.Join("/dl", "Unused", "Images", "a.png"),
		Target("/dl/Images/a.png", filepath.Join("/dl", "Unused"), category.Images),
	)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "moved", Moved.String())
	assert.Equal(t, "noop", NoOp.String())
	assert.Equal(t, "unknown", Outcome(9).String())
}
