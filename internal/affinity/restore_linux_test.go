//go:build linux

package affinity

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

func restore(cores []int) {
	var set unix.CPUSet
	for _, c := range cores {
		set.Set(c)
	}
	entries, _ := os.ReadDir("/proc/self/task")
	for _, e := range entries {
		if tid, err := strconv.Atoi(e.Name()); err == nil {
			_ = unix.SchedSetaffinity(tid, &set)
		}
	}
}
