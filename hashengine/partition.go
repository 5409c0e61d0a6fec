package hashengine

import (
	"fmt"
	"math"

	"github.com/regolith-labs/ore-cli-sub000/errcode"
)

// Range is a half open interval [Start, End) of the nonce space.  The full
// space is represented with End = math.MaxUint64, so the final nonce is never
// searched; that is the truncation the partitioning accepts.
type Range struct {
	Start uint64
	End   uint64
}

// FullRange is the whole nonce space.
var FullRange = Range{Start: 0, End: math.MaxUint64}

// Width returns the number of nonces in the range.
func (r Range) Width() uint64 {
	return r.End - r.Start
}

// Split divides r into k contiguous, non-overlapping slices of equal width.
// Any remainder left by the integer division is folded into the last slice,
// so the union of the slices is exactly r.
func (r Range) Split(k int) []Range {
	if k < 1 {
		k = 1
	}
	unit := r.Width() / uint64(k)
	res := make([]Range, k)
	for i := 0; i < k; i++ {
		start := r.Start + unit*uint64(i)
		res[i] = Range{Start: start, End: start + unit}
	}
	res[k-1].End = r.End
	return res
}

// Starts returns the start nonce of every range.
func Starts(ranges []Range) []uint64 {
	res := make([]uint64, len(ranges))
	for i, r := range ranges {
		res[i] = r.Start
	}
	return res
}

// SoloStartNonces evenly partitions the nonce space among workers.
func SoloStartNonces(workers int) []uint64 {
	return Starts(FullRange.Split(workers))
}

// PoolAssignment describes the slice of the nonce space a pool hands to one
// device of one member.
type PoolAssignment struct {
	// Members is the total number of members of the pool.
	Members uint64

	// MemberIndex is the index of this member, below Members.
	MemberIndex uint64

	// Devices is the number of devices this member mines with.
	Devices uint64

	// DeviceID is the index of this device, below Devices.
	DeviceID uint64
}

// DeviceRange returns the slice of the nonce space assigned to the device.
// The space is split into Members member slices, the member slice is split
// into Devices device slices.
func (a PoolAssignment) DeviceRange() (Range, error) {
	if a.DeviceID >= a.Devices {
		return Range{}, fmt.Errorf("%w: device %d, devices %d",
			errcode.ErrTooManyDevices, a.DeviceID, a.Devices)
	}
	if a.Members == 0 || a.MemberIndex >= a.Members {
		return Range{}, fmt.Errorf("member index %d out of range for %d members",
			a.MemberIndex, a.Members)
	}

	memberSlice := FullRange.Width() / a.Members
	memberStart := memberSlice * a.MemberIndex
	member := Range{Start: memberStart, End: memberStart + memberSlice}

	deviceSlice := member.Width() / a.Devices
	deviceStart := member.Start + deviceSlice*a.DeviceID
	return Range{Start: deviceStart, End: deviceStart + deviceSlice}, nil
}

// PoolStartNonces returns the start nonce of each local worker for the
// assignment.  It fails with errcode.ErrTooManyDevices before any work is
// scheduled when the device id does not fit.
func PoolStartNonces(a PoolAssignment, workers int) ([]uint64, error) {
	device, err := a.DeviceRange()
	if err != nil {
		return nil, err
	}
	return Starts(device.Split(workers)), nil
}
