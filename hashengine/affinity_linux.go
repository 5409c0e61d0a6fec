//go:build linux

package hashengine

import "golang.org/x/sys/unix"

// pinToCore binds the calling OS thread to core.  The caller must have locked
// its goroutine to the thread.
func pinToCore(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
