package fw

import (
	"errors"
	"io"
	"time"

	"github.com/ccnfwd/ccnfwd/fw/core"
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/face"
	enc "github.com/ccnfwd/ccnfwd/std/encoding"
	"golang.org/x/sys/unix"
)

const maxEpollEvents = 64

// Run drives the event loop: block in epoll with a timeout equal to the
// scheduler's next deadline, dispatch whatever fds woke up, then run
// every event whose deadline has now passed. It returns once stop is
// closed, after tearing down the listeners.
func (fw *Forwarder) Run(stop <-chan struct{}) error {
	events := make([]unix.EpollEvent, maxEpollEvents)
	lastReal := time.Now()
	zeroStreak := 0

	for {
		select {
		case <-stop:
			fw.Shutdown()
			return nil
		default:
		}

		now := time.Now()
		fw.Sched.Advance(now.Sub(lastReal).Microseconds())
		lastReal = now

		waitMillis := clampWait(fw.Sched.RunDue(), &zeroStreak)

		n, err := unix.EpollWait(fw.epfd, events, waitMillis)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return err
		}
		// Accept new stream clients before dispatching other readiness.
		for i := 0; i < n; i++ {
			if int(events[i].Fd) == fw.streamListenFd {
				fw.acceptStream()
			}
		}
		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == fw.streamListenFd {
				continue
			}
			fw.dispatch(fd, events[i].Events)
		}
	}
}

// clampWait converts a scheduler deadline (μs, or -1 if none pending) into
// an epoll_wait timeout in milliseconds, clamping to >=1ms once two
// consecutive zero-timeouts occur so a tight run of due events can't spin
// the loop.
func clampWait(waitMicros int64, zeroStreak *int) int {
	if waitMicros < 0 {
		return 1000
	}
	if waitMicros == 0 {
		*zeroStreak++
		if *zeroStreak >= 2 {
			return 1
		}
		return 0
	}
	*zeroStreak = 0
	ms := int(waitMicros / 1000)
	if ms == 0 {
		ms = 1
	}
	if ms > 1000 {
		ms = 1000
	}
	return ms
}

func (fw *Forwarder) acceptStream() {
	for {
		fd, _, err := unix.Accept4(fw.streamListenFd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err != nil {
			if err != unix.EAGAIN && err != unix.EWOULDBLOCK {
				core.Log.Error(fw, "accept failed", "err", err)
			}
			return
		}
		f := &face.Face{Fd: fd, Kind: defn.KindStream, Scope: defn.Local}
		if _, err := fw.Faces.Enroll(f); err != nil {
			core.Log.Error(fw, "face table full, dropping new client", "err", err)
			unix.Close(fd)
			continue
		}
		if err := fw.epollAdd(fd, unix.EPOLLIN); err != nil {
			core.Log.Error(fw, "epoll_ctl add failed for new client", "err", err)
			fw.Faces.ShutdownFace(f)
			unix.Close(fd)
		}
	}
}

func (fw *Forwarder) dispatch(fd int, ev uint32) {
	if fd == fw.udpFd {
		if ev&unix.EPOLLIN != 0 {
			fw.readDatagrams()
		}
		return
	}

	f := fw.Faces.LookupByFd(fd)
	if f == nil {
		return
	}

	if ev&unix.EPOLLOUT != 0 {
		if dead := f.DrainWrite(); dead {
			fw.closeStreamFace(f)
			return
		}
		if !f.HasPendingWrite() {
			fw.epollMod(fd, unix.EPOLLIN)
		}
	}

	if ev&(unix.EPOLLHUP|unix.EPOLLERR) != 0 && !f.HasPendingWrite() {
		fw.closeStreamFace(f)
		return
	}

	if ev&unix.EPOLLIN != 0 {
		fw.readStreamFace(f)
	}
}

func (fw *Forwarder) readStreamFace(f *face.Face) {
	scratch := make([]byte, 4096)
	for {
		n, peerGone := f.RecvStream(scratch)
		if peerGone {
			fw.closeStreamFace(f)
			return
		}
		if n == 0 {
			break
		}
	}
	fw.drainMessages(f, true)
	if f.HasPendingWrite() {
		fw.epollMod(f.Fd, unix.EPOLLIN|unix.EPOLLOUT)
	}
}

func (fw *Forwarder) readDatagrams() {
	scratch := make([]byte, defn.MaxPacketSize)
	for {
		payload, from, ok := face.RecvDatagram(fw.udpFd, scratch)
		if !ok {
			return
		}
		key := sockaddrKey(from)
		child, existed := fw.Faces.LookupByAddress(key)
		if !existed {
			child = &face.Face{
				Fd:         fw.udpFd,
				Kind:       defn.KindDatagram,
				Scope:      defn.NonLocal,
				LinkFramed: true,
				PeerKey:    key,
				PeerAddr:   from,
			}
			if _, err := fw.Faces.Enroll(child); err != nil {
				core.Log.Error(fw, "face table full, dropping datagram peer", "err", err)
				continue
			}
		}
		child.RecvCount++
		child.In = append(child.In[:0], payload...)
		fw.drainMessages(child, false)
	}
}

// drainMessages decodes as many complete framed messages as are buffered
// in f.In, dispatching each to the Interest or ContentObject path. A
// truncated trailing record is left in f.In for the next read - stream
// only, since a datagram is always exactly one message. A malformed (not
// merely truncated) record closes a stream face, since nothing past it
// can be trusted to resync; on datagram it's just dropped.
func (fw *Forwarder) drainMessages(f *face.Face, stream bool) {
	for len(f.In) > 0 {
		msg, consumed, err := enc.ParseMessage(f.In, true)
		if err != nil {
			if stream && incomplete(err) {
				return
			}
			fw.Counters.Dropped++
			core.Log.Warn(fw, "dropping malformed message", "face", f, "err", err)
			if stream {
				fw.closeStreamFace(f)
			} else {
				f.In = f.In[:0]
			}
			return
		}
		raw := f.In[:consumed]
		if msg.LinkFramed {
			f.LinkFramed = true
			// Hand on the bare message; sends to link-framed faces wrap it.
			c := enc.NewCursor(raw)
			if _, inner, err := c.ReadTL(); err == nil {
				raw = inner
			}
		}
		switch msg.Kind {
		case enc.KindInterest:
			fw.HandleInterest(f, raw, msg.Interest)
		case enc.KindContentObject:
			fw.HandleContentObject(f, msg.Content)
		}
		if !stream {
			f.In = f.In[:0]
			return
		}
		f.In = f.In[consumed:]
	}
}

func incomplete(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, enc.ErrBufferOverflow)
}

func (fw *Forwarder) closeStreamFace(f *face.Face) {
	fw.epollDel(f.Fd)
	unix.Close(f.Fd)
	fw.Faces.ShutdownFace(f)
}

// sockaddrKey renders a datagram peer's address as a stable map key for
// the by-address lookup.
func sockaddrKey(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return string(append(append([]byte(nil), a.Addr[:]...), byte(a.Port>>8), byte(a.Port))) + ":4"
	case *unix.SockaddrInet6:
		return string(append(append([]byte(nil), a.Addr[:]...), byte(a.Port>>8), byte(a.Port))) + ":6"
	default:
		return ""
	}
}
