//go:build unix

package main

import "golang.org/x/sys/unix"

// EAGAIN/EWOULDBLOCK and ENOTSUP/EOPNOTSUPP share values on some platforms,
// which is why this is a slice and not a map.
var errnoKinds = []errnoKind{
	{unix.ENOENT, KindNotFound},
	{unix.ENOTDIR, KindNotFound},
	{unix.EACCES, KindPermissionDenied},
	{unix.EPERM, KindPermissionDenied},
	{unix.EROFS, KindPermissionDenied},
	{unix.ECONNREFUSED, KindConnectionRefused},
	{unix.ECONNRESET, KindConnectionReset},
	{unix.ECONNABORTED, KindConnectionAborted},
	{unix.ENOTCONN, KindNotConnected},
	{unix.EADDRINUSE, KindAddrInUse},
	{unix.EADDRNOTAVAIL, KindAddrNotAvailable},
	{unix.EPIPE, KindBrokenPipe},
	{unix.EEXIST, KindAlreadyExists},
	{unix.EAGAIN, KindWouldBlock},
	{unix.EWOULDBLOCK, KindWouldBlock},
	{unix.EINVAL, KindInvalidInput},
	{unix.ENAMETOOLONG, KindInvalidInput},
	{unix.ETIMEDOUT, KindTimedOut},
	{unix.EINTR, KindInterrupted},
	{unix.ENOSYS, KindUnsupported},
	{unix.ENOTSUP, KindUnsupported},
	{unix.EOPNOTSUPP, KindUnsupported},
	{unix.ENOMEM, KindOutOfMemory},
}
