//go:build darwin

package sig

import "golang.org/x/sys/unix"

// sigsetFor builds a sigset_t for set. Darwin represents sigset_t as a
// single 32-bit word, wide enough for every signal this package names.
func sigsetFor(set SignalSet) unix.Sigset_t {
	var mask unix.Sigset_t
	for _, raw := range set.rawSignals() {
		mask |= unix.Sigset_t(1) << (uint(raw) - 1)
	}
	return mask
}
