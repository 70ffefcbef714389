// Package sysmetrics samples process-level CPU and memory usage.
package sysmetrics

import (
	"runtime"
	"sync"
	"syscall"
	"time"
)

// Sampler measures CPU usage between successive calls. The zero value is
// not usable; create one with NewSampler, which records the baseline.
type Sampler struct {
	mu       sync.Mutex
	lastWall time.Time
	lastUser time.Duration
	lastSys  time.Duration
	lastCPU  float64
}

// NewSampler creates a Sampler with the current process times as baseline.
func NewSampler() *Sampler {
	user, sys := processTimes()
	return &Sampler{
		lastWall: time.Now(),
		lastUser: user,
		lastSys:  sys,
	}
}

// CPUPercent returns the process CPU usage as a percentage (0–100+) since
// the previous call (or since construction). Multi-core processes can
// exceed 100%.
func (s *Sampler) CPUPercent() float64 {
	now := time.Now()
	user, sys := processTimes()

	s.mu.Lock()
	defer s.mu.Unlock()

	wall := now.Sub(s.lastWall)
	if wall <= 0 {
		return s.lastCPU
	}

	cpuDelta := (user - s.lastUser) + (sys - s.lastSys)
	pct := float64(cpuDelta) / float64(wall) * 100.0

	s.lastWall = now
	s.lastUser = user
	s.lastSys = sys
	s.lastCPU = pct

	return pct
}

// MemoryInuse returns the memory actively in use by the Go runtime, in
// bytes: live heap spans plus goroutine stacks, excluding address space
// reserved but not committed.
func MemoryInuse() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.HeapInuse + m.StackInuse)
}

func processTimes() (user, sys time.Duration) {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0, 0
	}
	return time.Duration(rusage.Utime.Nano()), time.Duration(rusage.Stime.Nano())
}
