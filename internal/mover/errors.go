package mover

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// ErrNoFreeName is returned when every numbered variant of a name is taken
var ErrNoFreeName = errors.New("no free file name")

// ErrorReason categorizes why a move failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorCrossDevice
	ErrorFileInUse
	ErrorFileNotFound
	ErrorInvalidPath
	ErrorDestinationExists
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorCrossDevice:
		return "Cross-device move"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorDestinationExists:
		return "Destination exists"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// MoveError describes a failed relocation. The underlying filesystem error is kept
// intact and reachable through errors.Is and errors.As.
type MoveError struct {
	Op     string // "mkdir" or "rename"
	Path   string
	Target string
	Reason ErrorReason
	Err    error
}

// Error implements the error interface
func (e *MoveError) Error() string {
	return fmt.Sprintf("%s %s -> %s: %s (%v)", e.Op, e.Path, e.Target, e.Reason, e.Err)
}

// Unwrap returns the underlying filesystem error
func (e *MoveError) Unwrap() error {
	return e.Err
}

// UserMessage returns a short message suitable for a notification or CLI output
func (e *MoveError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("Permission denied moving %s", e.Path)
	case ErrorCrossDevice:
		return fmt.Sprintf("Cannot move %s across filesystems to %s", e.Path, e.Target)
	case ErrorFileInUse:
		return fmt.Sprintf("%s is in use (close the application and it will be retried on the next change)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("%s disappeared before it could be moved", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("Invalid path: %s", e.Path)
	case ErrorDestinationExists:
		return fmt.Sprintf("No free name for %s in %s", e.Path, filepath.Dir(e.Target))
	default:
		return fmt.Sprintf("Error moving %s: %v", e.Path, e.Err)
	}
}

// CategorizeError wraps err in a MoveError with the matching reason
func CategorizeError(op, path, target string, err error) *MoveError {
	if err == nil {
		return nil
	}

	moveErr := &MoveError{
		Op:     op,
		Path:   path,
		Target: target,
		Err:    err,
		Reason: ErrorUnknown,
	}

	if errors.Is(err, ErrNoFreeName) {
		moveErr.Reason = ErrorDestinationExists
		return moveErr
	}

	if os.IsNotExist(err) {
		moveErr.Reason = ErrorFileNotFound
		return moveErr
	}

	if os.IsPermission(err) {
		moveErr.Reason = ErrorPermissionDenied
		return moveErr
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EXDEV:
			moveErr.Reason = ErrorCrossDevice
		case syscall.EACCES, syscall.EPERM, syscall.EROFS:
			moveErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			moveErr.Reason = ErrorFileInUse
		case syscall.ENOENT:
			moveErr.Reason = ErrorFileNotFound
		case syscall.EISDIR, syscall.ENOTDIR, syscall.ENAMETOOLONG:
			moveErr.Reason = ErrorInvalidPath
		}
	}

	return moveErr
}
