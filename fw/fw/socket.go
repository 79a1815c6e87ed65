package fw

import (
	"net"
	"os"
	"time"

	"github.com/ccnfwd/ccnfwd/fw/core"
	"github.com/ccnfwd/ccnfwd/fw/defn"
	"github.com/ccnfwd/ccnfwd/fw/face"
	"golang.org/x/sys/unix"
)

const (
	listenBacklog    = 42
	staleSocketGrace = 9 * time.Second
)

// Listen opens the local-stream listener and the UDP listener, registers
// both with a fresh epoll set, and enrolls the UDP socket itself as a
// face with no peer address - child faces materialize on first receive.
// Must be called exactly once, before Run.
func (fw *Forwarder) Listen() error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	fw.epfd = epfd

	path := fw.Cfg.Faces.UnixSocketPath
	fw.socketPath = path
	if err := fw.unlinkStaleSocket(path); err != nil {
		return err
	}
	lfd, err := openStreamListener(path)
	if err != nil {
		return err
	}
	fw.streamListenFd = lfd
	if err := fw.epollAdd(lfd, unix.EPOLLIN); err != nil {
		return err
	}
	core.Log.Info(fw, "local stream listener up", "path", path)

	fw.udpFd = -1
	if fw.Cfg.Faces.UDPPort > 0 {
		ufd, err := openUDPListener(fw.Cfg.Faces.UDPHost, fw.Cfg.Faces.UDPPort)
		if err != nil {
			return err
		}
		fw.udpFd = ufd
		udpFace := &face.Face{Fd: ufd, Kind: defn.KindDatagram, Scope: defn.NonLocal}
		if _, err := fw.Faces.Enroll(udpFace); err != nil {
			unix.Close(ufd)
			return err
		}
		if err := fw.epollAdd(ufd, unix.EPOLLIN); err != nil {
			return err
		}
		core.Log.Info(fw, "udp listener up", "host", fw.Cfg.Faces.UDPHost, "port", fw.Cfg.Faces.UDPPort)
	}
	return nil
}

// unlinkStaleSocket removes a leftover socket file from a previous run
// and sleeps ~9s only when the unlink actually found something to
// remove - giving a just-killed prior daemon's clients time to notice
// before this process starts accepting on the same path.
func (fw *Forwarder) unlinkStaleSocket(path string) error {
	err := os.Remove(path)
	switch {
	case err == nil:
		core.Log.Info(fw, "removed stale socket file, waiting out grace period", "path", path)
		time.Sleep(staleSocketGrace)
	case os.IsNotExist(err):
	default:
		return err
	}
	return nil
}

func openStreamListener(path string) (int, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func openUDPListener(host string, port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return -1, err
	}
	addr := &unix.SockaddrInet4{Port: port}
	ip := net.ParseIP(host)
	if ip == nil {
		unix.Close(fd)
		return -1, &net.AddrError{Err: "invalid udp host", Addr: host}
	}
	if v4 := ip.To4(); v4 != nil {
		copy(addr.Addr[:], v4)
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// Shutdown unlinks the local socket path and closes both listener fds.
// The teardown runs from the event loop once it observes the shutdown
// signal, rather than directly from a SIGTERM/SIGINT/SIGHUP handler.
func (fw *Forwarder) Shutdown() {
	if fw.streamListenFd >= 0 {
		fw.epollDel(fw.streamListenFd)
		unix.Close(fw.streamListenFd)
	}
	if fw.udpFd >= 0 {
		fw.epollDel(fw.udpFd)
		unix.Close(fw.udpFd)
	}
	if fw.socketPath != "" {
		if err := os.Remove(fw.socketPath); err != nil && !os.IsNotExist(err) {
			core.Log.Error(fw, "failed to unlink socket file on shutdown", "path", fw.socketPath, "err", err)
		}
	}
	if fw.epfd >= 0 {
		unix.Close(fw.epfd)
	}
}

func (fw *Forwarder) epollAdd(fd int, events uint32) error {
	return unix.EpollCtl(fw.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{Fd: int32(fd), Events: events})
}

func (fw *Forwarder) epollMod(fd int, events uint32) error {
	return unix.EpollCtl(fw.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{Fd: int32(fd), Events: events})
}

func (fw *Forwarder) epollDel(fd int) error {
	return unix.EpollCtl(fw.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}
