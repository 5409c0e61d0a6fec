package hashengine

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// AvailableCores returns the number of logical cores usable for hashing.
func AvailableCores() int {
	n := cpuid.CPU.LogicalCores
	if n <= 0 || n > runtime.NumCPU() {
		n = runtime.NumCPU()
	}
	return n
}

// CoreIDs returns the core each of n workers is pinned to.  Workers wrap
// around when more workers than cores are requested.
func CoreIDs(n int) []int {
	avail := runtime.NumCPU()
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i % avail
	}
	return ids
}

// CPUDescription describes the processor for the startup banner.
func CPUDescription() string {
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = runtime.GOARCH
	}
	return brand
}
