package mixer

import "syscall"

// renice nudges the mixer process to a higher scheduling priority so
// wall-clock-paced emission jitters less under load. Failure (no
// CAP_SYS_NICE) is ignored.
func renice() {
	_ = syscall.Setpriority(syscall.PRIO_PROCESS, 0, -5)
}
