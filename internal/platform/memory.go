package platform

import (
	"runtime"
)

// MemoryStats reports process memory usage in bytes.
type MemoryStats struct {
	// Used is the heap memory currently in use.
	Used uint64
	// Total is the total memory obtained from the host.
	Total uint64
}

// MemoryProbe samples memory usage. Sample reports ok=false when the host
// does not expose memory figures; absence is a capability gap, not an error.
type MemoryProbe interface {
	Sample() (MemoryStats, bool)
}

// RuntimeProbe reads memory figures from the Go runtime.
type RuntimeProbe struct{}

// NewRuntimeProbe creates a memory probe backed by runtime.ReadMemStats.
func NewRuntimeProbe() *RuntimeProbe {
	return &RuntimeProbe{}
}

// Sample reads the current runtime memory statistics.
func (p *RuntimeProbe) Sample() (MemoryStats, bool) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return MemoryStats{
		Used:  ms.HeapInuse,
		Total: ms.Sys,
	}, true
}

// NoMemoryProbe is a probe for hosts without a memory capability.
type NoMemoryProbe struct{}

// Sample always reports the capability as absent.
func (NoMemoryProbe) Sample() (MemoryStats, bool) {
	return MemoryStats{}, false
}
