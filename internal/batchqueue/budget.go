package batchqueue

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/procfs"
)

// unlimitedCeiling substitutes for hosts without a configured memory limit,
// so the fractional rule still produces a finite threshold.
const unlimitedCeiling = 32 << 30 // 32 GiB

// Budget holds the cooperative stopping conditions for one processing pass.
// Both predicates are consulted between items and between batches; neither
// cancels in-flight work.
type Budget struct {
	start     time.Time
	timeLimit time.Duration
	fraction  float64

	memUsage   func() (uint64, error)
	memCeiling func() (uint64, error)
}

// NewBudget starts a budget clock. A timeLimit of zero (or less) means the
// time budget is exceeded immediately after the first item, which degrades
// a pass to one item per trigger. fraction defaults to 0.9 when zero.
func NewBudget(timeLimit time.Duration, fraction float64) *Budget {
	if fraction <= 0 {
		fraction = 0.9
	}
	return &Budget{
		start:      time.Now(),
		timeLimit:  timeLimit,
		fraction:   fraction,
		memUsage:   residentMemory,
		memCeiling: memoryCeiling,
	}
}

// TimeExceeded reports whether the wall-clock budget has lapsed.
func (b *Budget) TimeExceeded() bool {
	return time.Since(b.start) >= b.timeLimit
}

// MemoryExceeded reports whether resident memory reached the configured
// fraction of the host ceiling. Estimation failures never stop a pass.
func (b *Budget) MemoryExceeded() bool {
	used, err := b.memUsage()
	if err != nil {
		return false
	}
	ceiling, err := b.memCeiling()
	if err != nil || ceiling == 0 {
		ceiling = unlimitedCeiling
	}
	return float64(used) >= b.fraction*float64(ceiling)
}

// residentMemory reads this process's RSS.
func residentMemory() (uint64, error) {
	p, err := procfs.Self()
	if err != nil {
		return 0, err
	}
	stat, err := p.Stat()
	if err != nil {
		return 0, err
	}
	return uint64(stat.ResidentMemory()), nil
}

// memoryCeiling reads the cgroup memory limit, preferring v2. Unlimited or
// implausibly large limits fall back to unlimitedCeiling.
func memoryCeiling() (uint64, error) {
	for _, path := range []string{
		"/sys/fs/cgroup/memory.max",
		"/sys/fs/cgroup/memory/memory.limit_in_bytes",
	} {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		s := strings.TrimSpace(string(raw))
		if s == "max" {
			return unlimitedCeiling, nil
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			continue
		}
		if n == 0 || n > unlimitedCeiling {
			return unlimitedCeiling, nil
		}
		return n, nil
	}
	return unlimitedCeiling, nil
}
