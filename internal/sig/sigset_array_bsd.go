//go:build freebsd || dragonfly

package sig

import "golang.org/x/sys/unix"

// sigsetFor builds a sigset_t for set. FreeBSD and DragonFly represent
// sigset_t as an array of 32-bit words.
func sigsetFor(set SignalSet) unix.Sigset_t {
	var mask unix.Sigset_t
	for _, raw := range set.rawSignals() {
		bit := uint(raw) - 1
		mask.Bits[bit/32] |= 1 << (bit % 32)
	}
	return mask
}
