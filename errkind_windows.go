//go:build windows

package main

import "golang.org/x/sys/windows"

var errnoKinds = []errnoKind{
	{windows.ERROR_FILE_NOT_FOUND, KindNotFound},
	{windows.ERROR_PATH_NOT_FOUND, KindNotFound},
	{windows.ERROR_INVALID_NAME, KindNotFound},
	{windows.ERROR_ACCESS_DENIED, KindPermissionDenied},
	{windows.ERROR_SHARING_VIOLATION, KindPermissionDenied},
	{windows.WSAECONNREFUSED, KindConnectionRefused},
	{windows.WSAECONNRESET, KindConnectionReset},
	{windows.WSAECONNABORTED, KindConnectionAborted},
	{windows.WSAENOTCONN, KindNotConnected},
	{windows.WSAEADDRINUSE, KindAddrInUse},
	{windows.WSAEADDRNOTAVAIL, KindAddrNotAvailable},
	{windows.ERROR_BROKEN_PIPE, KindBrokenPipe},
	{windows.ERROR_NO_DATA, KindBrokenPipe},
	{windows.ERROR_ALREADY_EXISTS, KindAlreadyExists},
	{windows.ERROR_FILE_EXISTS, KindAlreadyExists},
	{windows.WSAEWOULDBLOCK, KindWouldBlock},
	{windows.ERROR_INVALID_PARAMETER, KindInvalidInput},
	{windows.WSAETIMEDOUT, KindTimedOut},
	{windows.WSAEINTR, KindInterrupted},
	{windows.ERROR_OPERATION_ABORTED, KindInterrupted},
	{windows.ERROR_NOT_SUPPORTED, KindUnsupported},
	{windows.ERROR_NOT_ENOUGH_MEMORY, KindOutOfMemory},
	{windows.ERROR_OUTOFMEMORY, KindOutOfMemory},
}
