//go:build linux

package affinity

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// pin applies the mask to every task under /proc/self/task. Threads the Go
// runtime starts later inherit the mask from the thread that creates them.
func pin(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)

	entries, err := os.ReadDir("/proc/self/task")
	if err != nil {
		// Without procfs only the calling thread can be pinned.
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			return fmt.Errorf("sched_setaffinity(core %d): %w", core, err)
		}
		return nil
	}

	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if err := unix.SchedSetaffinity(tid, &set); err != nil {
			if err == unix.ESRCH {
				// Thread exited between listing and pinning.
				continue
			}
			return fmt.Errorf("sched_setaffinity(tid %d, core %d): %w", tid, core, err)
		}
	}
	return nil
}

// Current returns the cores the calling thread may run on.
func Current() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("sched_getaffinity: %w", err)
	}
	var cores []int
	for i := range 1024 {
		if set.IsSet(i) {
			cores = append(cores, i)
		}
	}
	return cores, nil
}
