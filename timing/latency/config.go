package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds cycle costs for the instruction classes.
// Values follow the ARM7TDMI cycle counts (S, N and I cycles folded into
// a single figure per class).
type TimingConfig struct {
	// DataProcLatency is the cost of a data processing instruction with an
	// immediate or immediate-shifted operand. Default: 1 cycle.
	DataProcLatency uint64 `json:"data_proc_latency" yaml:"data_proc_latency"`

	// RegisterShiftPenalty is added when the shift amount comes from Rs.
	// Default: 1 cycle.
	RegisterShiftPenalty uint64 `json:"register_shift_penalty" yaml:"register_shift_penalty"`

	// PCWritePenalty is added when a data processing instruction writes
	// R15 and refills the pipeline. Default: 2 cycles.
	PCWritePenalty uint64 `json:"pc_write_penalty" yaml:"pc_write_penalty"`

	// MultiplyLatency is the cost of MUL. Default: 2 cycles.
	MultiplyLatency uint64 `json:"multiply_latency" yaml:"multiply_latency"`

	// MultiplyAccumulateLatency is the cost of MLA. Default: 3 cycles.
	MultiplyAccumulateLatency uint64 `json:"multiply_accumulate_latency" yaml:"multiply_accumulate_latency"`

	// LoadLatency is the cost of LDR and LDRB. Default: 3 cycles.
	LoadLatency uint64 `json:"load_latency" yaml:"load_latency"`

	// LoadPCPenalty is added when a load targets R15. Default: 2 cycles.
	LoadPCPenalty uint64 `json:"load_pc_penalty" yaml:"load_pc_penalty"`

	// StoreLatency is the cost of STR and STRB. Default: 2 cycles.
	StoreLatency uint64 `json:"store_latency" yaml:"store_latency"`

	// BranchLatency is the cost of B and BL. Default: 3 cycles.
	BranchLatency uint64 `json:"branch_latency" yaml:"branch_latency"`

	// SkippedLatency is the cost of an instruction whose condition failed.
	// Default: 1 cycle.
	SkippedLatency uint64 `json:"skipped_latency" yaml:"skipped_latency"`
}

// DefaultTimingConfig returns a TimingConfig with ARM7TDMI default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		DataProcLatency:           1,
		RegisterShiftPenalty:      1,
		PCWritePenalty:            2,
		MultiplyLatency:           2,
		MultiplyAccumulateLatency: 3,
		LoadLatency:               3,
		LoadPCPenalty:             2,
		StoreLatency:              2,
		BranchLatency:             3,
		SkippedLatency:            1,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that every base latency is > 0. Penalties may be zero.
func (c *TimingConfig) Validate() error {
	if c.DataProcLatency == 0 {
		return fmt.Errorf("data_proc_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.MultiplyAccumulateLatency < c.MultiplyLatency {
		return fmt.Errorf("multiply_accumulate_latency must be >= multiply_latency")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.SkippedLatency == 0 {
		return fmt.Errorf("skipped_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
