// Package core provides the cycle-counting CPU core model.
// It observes a functional emulator and charges each retired instruction
// its latency, plus the data cache penalty of its memory access.
package core

import (
	"github.com/sarchlab/armsim/emu"
	"github.com/sarchlab/armsim/insts"
	"github.com/sarchlab/armsim/timing/cache"
	"github.com/sarchlab/armsim/timing/latency"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Cycles is the total number of cycles charged.
	Cycles uint64
	// Instructions is the number of instructions retired.
	Instructions uint64
	// Skipped is the number of instructions whose condition failed.
	Skipped uint64
	// MemStalls is the number of cycles added by the data cache.
	MemStalls uint64

	// Loads, Stores and Branches count executed instructions by class.
	Loads    uint64
	Stores   uint64
	Branches uint64
}

// CPI returns cycles per instruction, or 0 before the first instruction.
func (s Stats) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// Core counts cycles for the instructions an emulator retires.
type Core struct {
	table  *latency.Table
	dcache *cache.Cache

	stats   Stats
	pending uint64
}

// CoreOption is a functional option for configuring the Core.
type CoreOption func(*Core)

// WithLatencyTable sets the latency table.
func WithLatencyTable(table *latency.Table) CoreOption {
	return func(c *Core) {
		c.table = table
	}
}

// WithDataCache enables the data cache model.
func WithDataCache(dcache *cache.Cache) CoreOption {
	return func(c *Core) {
		c.dcache = dcache
	}
}

// NewCore creates a Core with the default latency table and no cache.
func NewCore(opts ...CoreOption) *Core {
	c := &Core{table: latency.NewTable()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Accessed implements emu.Observer. The cache penalty is held until the
// instruction retires.
func (c *Core) Accessed(access emu.MemAccess) {
	if c.dcache == nil {
		return
	}

	var result cache.AccessResult
	if access.Write {
		result = c.dcache.Write(access.Addr)
	} else {
		result = c.dcache.Read(access.Addr)
	}
	c.pending += result.Latency
}

// Retired implements emu.Observer.
func (c *Core) Retired(info emu.StepInfo) {
	c.stats.Instructions++
	if !info.Executed {
		c.stats.Skipped++
	} else {
		c.countClass(info.Inst)
	}

	c.stats.Cycles += c.table.GetStepLatency(info.Inst, info.Executed) + c.pending
	c.stats.MemStalls += c.pending
	c.pending = 0
}

func (c *Core) countClass(inst *insts.Instruction) {
	switch {
	case c.table.IsMemoryOp(inst):
		if c.table.IsLoadOp(inst) {
			c.stats.Loads++
		} else if c.table.IsStoreOp(inst) {
			c.stats.Stores++
		}
	case c.table.IsBranchOp(inst):
		c.stats.Branches++
	}
}

// Finish ends a run. Dirty cache lines are flushed so that the cache
// statistics include their writebacks.
func (c *Core) Finish() {
	if c.dcache != nil {
		c.dcache.Flush()
	}
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	return c.stats
}

// CacheStats returns the data cache statistics, and false when no cache
// is modelled.
func (c *Core) CacheStats() (cache.Statistics, bool) {
	if c.dcache == nil {
		return cache.Statistics{}, false
	}
	return c.dcache.Stats(), true
}

// ResetStats clears the counters but keeps the cache contents, so the
// next run starts with a warm cache.
func (c *Core) ResetStats() {
	c.stats = Stats{}
	c.pending = 0
	if c.dcache != nil {
		c.dcache.ResetStats()
	}
}

// Reset clears all core state.
func (c *Core) Reset() {
	c.stats = Stats{}
	c.pending = 0
	if c.dcache != nil {
		c.dcache.Reset()
	}
}
