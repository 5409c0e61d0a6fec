package hashengine

import (
	"errors"
	"math"
	"testing"

	"github.com/regolith-labs/ore-cli-sub000/errcode"
)

func TestRangeSplit(t *testing.T) {
	ranges := []Range{
		FullRange,
		{Start: 1000, End: 1003},
		{Start: 1 << 40, End: 1<<40 + 999_983},
	}
	for _, r := range ranges {
		for k := 1; k <= 17; k++ {
			parts := r.Split(k)
			if len(parts) != k {
				t.Fatalf("Split(%d) returned %d parts", k, len(parts))
			}
			if parts[0].Start != r.Start {
				t.Errorf("Split(%d) starts at %d, want %d", k, parts[0].Start, r.Start)
			}
			if parts[k-1].End != r.End {
				t.Errorf("Split(%d) ends at %d, want %d", k, parts[k-1].End, r.End)
			}
			for i := 1; i < k; i++ {
				if parts[i].Start != parts[i-1].End {
					t.Errorf("Split(%d): part %d starts at %d, previous ends at %d",
						k, i, parts[i].Start, parts[i-1].End)
				}
				if parts[i].Start < parts[i-1].Start {
					t.Errorf("Split(%d): part %d overlaps part %d", k, i, i-1)
				}
			}
		}
	}
}

func TestSoloStartNonces(t *testing.T) {
	t.Run("test_1", func(t *testing.T) {
		starts := SoloStartNonces(4)
		unit := uint64(math.MaxUint64) / 4
		want := []uint64{0, unit, 2 * unit, 3 * unit}
		for i := range want {
			if starts[i] != want[i] {
				t.Errorf("start[%d] = %d, want %d", i, starts[i], want[i])
			}
		}
	})

	t.Run("zero_workers", func(t *testing.T) {
		starts := SoloStartNonces(0)
		if len(starts) != 1 || starts[0] != 0 {
			t.Errorf("SoloStartNonces(0) = %v", starts)
		}
	})
}

func TestPoolStartNonces(t *testing.T) {
	t.Run("member_1_device_1", func(t *testing.T) {
		a := PoolAssignment{Members: 4, MemberIndex: 1, Devices: 2, DeviceID: 1}
		starts, err := PoolStartNonces(a, 1)
		if err != nil {
			t.Fatal(err.Error())
		}
		memberSlice := uint64(math.MaxUint64) / 4
		deviceSlice := memberSlice / 2
		want := 1*memberSlice + 1*deviceSlice
		if starts[0] != want {
			t.Errorf("start = %d, want %d", starts[0], want)
		}
	})

	t.Run("workers_stay_inside_device", func(t *testing.T) {
		a := PoolAssignment{Members: 3, MemberIndex: 2, Devices: 5, DeviceID: 4}
		device, err := a.DeviceRange()
		if err != nil {
			t.Fatal(err.Error())
		}
		starts, err := PoolStartNonces(a, 7)
		if err != nil {
			t.Fatal(err.Error())
		}
		for i, s := range starts {
			if s < device.Start || s >= device.End {
				t.Errorf("worker %d start %d outside device range %v", i, s, device)
			}
		}
	})

	t.Run("devices_never_overlap", func(t *testing.T) {
		var prev Range
		for member := uint64(0); member < 3; member++ {
			for dev := uint64(0); dev < 4; dev++ {
				r, err := PoolAssignment{Members: 3, MemberIndex: member, Devices: 4, DeviceID: dev}.DeviceRange()
				if err != nil {
					t.Fatal(err.Error())
				}
				if (member > 0 || dev > 0) && r.Start < prev.End {
					t.Errorf("member %d device %d range %v overlaps %v", member, dev, r, prev)
				}
				prev = r
			}
		}
	})

	t.Run("device_id_equal_to_devices", func(t *testing.T) {
		a := PoolAssignment{Members: 4, MemberIndex: 0, Devices: 2, DeviceID: 2}
		_, err := PoolStartNonces(a, 4)
		if !errors.Is(err, errcode.ErrTooManyDevices) {
			t.Errorf("err = %v, want ErrTooManyDevices", err)
		}
	})

	t.Run("member_out_of_range", func(t *testing.T) {
		a := PoolAssignment{Members: 2, MemberIndex: 2, Devices: 1, DeviceID: 0}
		if _, err := PoolStartNonces(a, 1); err == nil {
			t.Error("expected error for member index beyond members")
		}
	})
}
