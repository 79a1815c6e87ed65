package face

import (
	"golang.org/x/sys/unix"
)

// Send writes msg to the face's fd, deferring any unsent tail to the
// face's outbound buffer rather than blocking when a non-blocking send
// would block. FIFO order per face is preserved: if a deferred buffer is
// already pending, msg is appended behind it instead of written directly.
func (f *Face) Send(msg []byte) error {
	if f.closed {
		return unix.EBADF
	}
	if f.PeerAddr != nil {
		// Datagram child: one send, no partial-write bookkeeping - a UDP
		// write either lands whole or doesn't; a short datagram send is
		// silently treated as dropped rather than retried.
		err := unix.Sendto(f.Fd, msg, 0, f.PeerAddr)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil
		}
		return err
	}
	if f.HasPendingWrite() {
		f.QueueWrite(msg)
		return nil
	}
	n, err := unix.Write(f.Fd, msg)
	if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
		f.QueueWrite(msg)
		return nil
	}
	if err != nil {
		return err
	}
	if n < len(msg) {
		f.QueueWrite(msg[n:])
	}
	return nil
}

// DrainWrite is called on write-readiness: it tries to finish sending the
// deferred buffer, returning whether the face should be considered dead
// (a fatal send errno on a stream face).
func (f *Face) DrainWrite() (dead bool) {
	for f.HasPendingWrite() {
		n, err := unix.Write(f.Fd, f.Out[f.OutOffset:])
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return false
		}
		if err != nil {
			return f.Kind.String() == "stream"
		}
		f.OutOffset += n
	}
	f.Out = f.Out[:0]
	f.OutOffset = 0
	return false
}

// RecvStream reads available bytes from a stream face into its inbound
// accumulation buffer, returning the number of bytes read and whether the
// peer is gone (EOF or a fatal read errno).
func (f *Face) RecvStream(scratch []byte) (n int, peerGone bool) {
	n, err := unix.Read(f.Fd, scratch)
	switch {
	case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
		return 0, false
	case err != nil:
		return 0, true
	case n == 0:
		return 0, true
	}
	f.In = append(f.In, scratch[:n]...)
	return n, false
}

// RecvDatagram reads one pending datagram from the listener fd, returning
// its payload and the sender's sockaddr. ok is false once nothing more is
// queued (EAGAIN) or the read failed outright.
func RecvDatagram(fd int, scratch []byte) (payload []byte, from unix.Sockaddr, ok bool) {
	n, from, err := unix.Recvfrom(fd, scratch, 0)
	if err != nil || n == 0 {
		return nil, nil, false
	}
	return scratch[:n], from, true
}
