package sysmon

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// probeFunc measures one utilization percentage. Delta-based probes keep
// their baseline in the closure and re-anchor it on every call; they are
// only invoked under the sampler's lock.
type probeFunc func() (float64, error)

type probes struct {
	cpuPercent     probeFunc
	memoryPercent  probeFunc
	networkPercent probeFunc
	diskPercent    probeFunc
}

func newProbes(cfg *Config) probes {
	p := probes{
		cpuPercent:    newProcessCPUProbe(),
		memoryPercent: memoryUsedPercent,
	}
	if cfg.DemoMode {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		p.networkPercent = newPlaceholderProbe(rng, 10, 40)
		p.diskPercent = newPlaceholderProbe(rng, 20, 60)
		return p
	}
	capacity := cfg.LinkCapacityMbps
	if capacity <= 0 {
		capacity = DefaultLinkCapacityMbps
	}
	p.networkPercent = newNetworkRateProbe(capacity * 1e6 / 8)
	p.diskPercent = newDiskBusyProbe()
	return p
}

// newProcessCPUProbe measures this process's CPU share: accumulated CPU
// time consumed since the previous call, divided by the wall-clock
// interval. The first call anchors the baseline and reports zero.
func newProcessCPUProbe() probeFunc {
	proc, procErr := process.NewProcess(int32(os.Getpid()))

	var lastTotal float64
	var lastAt time.Time

	return func() (float64, error) {
		if procErr != nil {
			return 0, fmt.Errorf("open own process: %w", procErr)
		}

		times, err := proc.Times()
		if err != nil {
			return 0, fmt.Errorf("read cpu times: %w", err)
		}

		total := times.User + times.System
		now := time.Now()
		anchored := !lastAt.IsZero()
		elapsed := now.Sub(lastAt).Seconds()
		prev := lastTotal

		lastTotal = total
		lastAt = now

		if !anchored || elapsed <= 0 {
			return 0, nil
		}
		return (total - prev) / elapsed * 100, nil
	}
}

// memoryUsedPercent reports (total - free) / total of physical memory.
func memoryUsedPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("read virtual memory: %w", err)
	}
	if vm.Total == 0 {
		return 0, fmt.Errorf("zero total physical memory")
	}
	return float64(vm.Total-vm.Free) / float64(vm.Total) * 100, nil
}

// newNetworkRateProbe measures the host-wide send+receive byte rate since
// the previous call, scaled against the link capacity in bytes/second.
func newNetworkRateProbe(capacityBytesPerSec float64) probeFunc {
	var lastBytes uint64
	var lastAt time.Time

	return func() (float64, error) {
		counters, err := psnet.IOCounters(false)
		if err != nil {
			return 0, fmt.Errorf("read network counters: %w", err)
		}
		if len(counters) == 0 {
			return 0, fmt.Errorf("no aggregated network counters")
		}

		total := counters[0].BytesSent + counters[0].BytesRecv
		now := time.Now()
		anchored := !lastAt.IsZero()
		elapsed := now.Sub(lastAt).Seconds()
		prev := lastBytes

		lastBytes = total
		lastAt = now

		if !anchored || elapsed <= 0 {
			return 0, nil
		}
		rate := float64(total-prev) / elapsed
		return rate / capacityBytesPerSec * 100, nil
	}
}

// newDiskBusyProbe measures the fraction of wall-clock time the busiest
// aggregate of block devices spent doing IO since the previous call.
func newDiskBusyProbe() probeFunc {
	var lastIOTimeMs uint64
	var lastAt time.Time

	return func() (float64, error) {
		counters, err := disk.IOCounters()
		if err != nil {
			return 0, fmt.Errorf("read disk counters: %w", err)
		}

		var ioTimeMs uint64
		for _, c := range counters {
			ioTimeMs += c.IoTime
		}

		now := time.Now()
		anchored := !lastAt.IsZero()
		elapsedMs := float64(now.Sub(lastAt).Milliseconds())
		prev := lastIOTimeMs

		lastIOTimeMs = ioTimeMs
		lastAt = now

		if !anchored || elapsedMs <= 0 {
			return 0, nil
		}
		return float64(ioTimeMs-prev) / elapsedMs * 100, nil
	}
}

// newPlaceholderProbe returns a bounded pseudo-random utilization in
// [low, high], the demo-mode stand-in for real instrumentation.
func newPlaceholderProbe(rng *rand.Rand, low, high float64) probeFunc {
	return func() (float64, error) {
		return low + rng.Float64()*(high-low), nil
	}
}
