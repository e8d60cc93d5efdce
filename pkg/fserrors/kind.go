// Package fserrors centralizes the error taxonomy shared by every
// component of the filesystem core. Errors that cross a component
// boundary are gRPC status errors, so a caller can recover the kind with
// Is(err, Kind) instead of matching on message text — the same
// convention the teacher repository applies throughout pkg/util and its
// storage packages.
package fserrors

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies why a filesystem operation failed.
type Kind int

const (
	// OutOfSpace indicates the sector allocator could not satisfy a
	// request. Surfaced by inode creation as a plain failure and by
	// write_at as a short write.
	OutOfSpace Kind = iota
	// FileTooLarge indicates a byte offset fell outside the maximum
	// addressable range of the indexed inode layout.
	FileTooLarge
	// DeviceIOError indicates the block device adapter hit an
	// unrecoverable I/O failure.
	DeviceIOError
	// WriteDenied indicates a write was attempted while the inode's
	// deny-write count was nonzero.
	WriteDenied
)

var kindCodes = map[Kind]codes.Code{
	OutOfSpace:    codes.ResourceExhausted,
	FileTooLarge:  codes.OutOfRange,
	DeviceIOError: codes.Unavailable,
	WriteDenied:   codes.PermissionDenied,
}

// New creates an error of the given kind with a static message.
func New(kind Kind, msg string) error {
	return status.Error(kindCodes[kind], msg)
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) error {
	return status.Errorf(kindCodes[kind], format, args...)
}

// Wrap prepends a formatted message to an existing error while
// classifying it under kind, discarding whatever code the original
// error carried.
func Wrap(err error, kind Kind, format string, args ...interface{}) error {
	return status.Errorf(kindCodes[kind], "%s: %s", fmt.Sprintf(format, args...), err)
}

// Is reports whether err was classified under kind.
func Is(err error, kind Kind) bool {
	return status.Code(err) == kindCodes[kind]
}
