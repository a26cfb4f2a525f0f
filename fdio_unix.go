//go:build unix

package evpoll

import "golang.org/x/sys/unix"

func readFd(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func writeFd(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
}

func closeFd(fd int) error {
	return unix.Close(fd)
}
