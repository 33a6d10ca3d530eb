package main

import (
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"syscall"
)

// ErrorKind is the single failure taxonomy shared by the router, the file
// responder and server startup.
type ErrorKind uint8

const (
	KindOther ErrorKind = iota
	KindNotFound
	KindPermissionDenied
	KindConnectionRefused
	KindConnectionReset
	KindConnectionAborted
	KindNotConnected
	KindAddrInUse
	KindAddrNotAvailable
	KindBrokenPipe
	KindAlreadyExists
	KindWouldBlock
	KindInvalidInput
	KindInvalidData
	KindTimedOut
	KindWriteZero
	KindInterrupted
	KindUnsupported
	KindUnexpectedEOF
	KindOutOfMemory
)

type kindInfo struct {
	message string
	status  int
}

var kindTable = map[ErrorKind]kindInfo{
	KindNotFound:          {"entity not found", http.StatusNotFound},
	KindPermissionDenied:  {"permission denied", http.StatusForbidden},
	KindConnectionRefused: {"connection refused", http.StatusBadGateway},
	KindConnectionReset:   {"connection reset", http.StatusServiceUnavailable},
	KindConnectionAborted: {"connection aborted", http.StatusServiceUnavailable},
	KindNotConnected:      {"not connected", http.StatusServiceUnavailable},
	KindAddrInUse:         {"address in use", http.StatusConflict},
	KindAddrNotAvailable:  {"address not available", http.StatusNotFound},
	KindBrokenPipe:        {"broken pipe", http.StatusInternalServerError},
	KindAlreadyExists:     {"entity already exists", http.StatusConflict},
	KindWouldBlock:        {"operation would block", http.StatusForbidden},
	KindInvalidInput:      {"invalid input parameter", http.StatusBadRequest},
	KindInvalidData:       {"invalid data", http.StatusUnprocessableEntity},
	KindTimedOut:          {"timed out", http.StatusGatewayTimeout},
	KindWriteZero:         {"write zero", http.StatusInternalServerError},
	KindInterrupted:       {"operation interrupted", http.StatusInternalServerError},
	KindUnsupported:       {"unsupported", http.StatusNotImplemented},
	KindUnexpectedEOF:     {"unexpected end of file", http.StatusInternalServerError},
	KindOutOfMemory:       {"out of memory", http.StatusInternalServerError},
	KindOther:             {"other error", http.StatusInternalServerError},
}

func (k ErrorKind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.message
	}
	return kindTable[KindOther].message
}

// Status returns the HTTP status code a failure of this kind is reported with.
func (k ErrorKind) Status() int {
	if info, ok := kindTable[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

// serveError attaches an explicit kind to an error produced by this server
// (containment violations, directories handed to the file responder).
type serveError struct {
	Kind ErrorKind
	Err  error
}

func (e *serveError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *serveError) Unwrap() error { return e.Err }

func newServeError(kind ErrorKind, err error) error {
	return &serveError{Kind: kind, Err: err}
}

var errOutsideRoot = newServeError(KindPermissionDenied, errors.New("path escapes serve root"))

// classifyError maps an arbitrary error onto the shared taxonomy.
func classifyError(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	var se *serveError
	if errors.As(err, &se) {
		return se.Kind
	}

	// Platform errno values are more precise than the fs sentinels, so they go first.
	var errno syscall.Errno
	if errors.As(err, &errno) {
		for _, m := range errnoKinds {
			if errno == m.errno {
				return m.kind
			}
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return KindAlreadyExists
	case errors.Is(err, fs.ErrInvalid):
		return KindInvalidInput
	case errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimedOut
	case errors.Is(err, io.ErrUnexpectedEOF):
		return KindUnexpectedEOF
	case errors.Is(err, io.ErrShortWrite):
		return KindWriteZero
	case errors.Is(err, io.ErrClosedPipe):
		return KindBrokenPipe
	case errors.Is(err, net.ErrClosed):
		return KindNotConnected
	case errors.Is(err, errors.ErrUnsupported):
		return KindUnsupported
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimedOut
	}
	return KindOther
}

type errnoKind struct {
	errno syscall.Errno
	kind  ErrorKind
}
