//go:build !linux

package hashengine

// pinToCore is a no-op where thread affinity is not supported.
func pinToCore(core int) error {
	return nil
}
