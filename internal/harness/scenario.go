package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/asyncfifo/internal/domain"
)

// Scenario defines one queue test: the queue configuration, the two clock
// domains, the steps to drive and the assertions to check afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario. Used for golden file names.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Capacity is the number of queue slots, a power of two >= 2.
	Capacity int `yaml:"capacity" json:"capacity"`

	// SyncStages is the synchronizer depth. Zero means cdc.DefaultStages.
	SyncStages int `yaml:"sync_stages,omitempty" json:"sync_stages,omitempty"`

	// Seed drives the random steps.
	Seed int64 `yaml:"seed,omitempty" json:"seed,omitempty"`

	// ResetCycles is the number of edges each domain is held in reset
	// before the first step.
	ResetCycles int `yaml:"reset_cycles,omitempty" json:"reset_cycles,omitempty"`

	Domains Domains `yaml:"domains" json:"domains"`

	// UART, if set, passes every dequeued byte through a serial line.
	UART *UARTConfig `yaml:"uart,omitempty" json:"uart,omitempty"`

	Steps      []Step      `yaml:"steps" json:"steps,omitempty"`
	Assertions []Assertion `yaml:"assertions" json:"assertions,omitempty"`

	// Source is the raw YAML the scenario was parsed from.
	Source []byte `yaml:"-" json:"-"`
}

// Domains holds the write and read clocks.
type Domains struct {
	Write domain.Domain `yaml:"write" json:"write"`
	Read  domain.Domain `yaml:"read" json:"read"`
}

// UARTConfig configures the serial line on the read side.
type UARTConfig struct {
	ClksPerBit int `yaml:"clks_per_bit" json:"clks_per_bit"`
}

// Step is one scenario action. Exactly one field is set.
type Step struct {
	// Write enqueues each byte in order, one attempt per write edge.
	Write []int `yaml:"write,omitempty" json:"write,omitempty"`

	// Read attempts this many dequeues, one per read edge.
	Read *int `yaml:"read,omitempty" json:"read,omitempty"`

	// Random runs randomized write and read bursts.
	Random *RandomStep `yaml:"random,omitempty" json:"random,omitempty"`

	// Reset issues a reset from "write", "read" or "both" domains.
	Reset string `yaml:"reset,omitempty" json:"reset,omitempty"`

	// Idle advances both domains by this many edges without operations.
	Idle *int `yaml:"idle,omitempty" json:"idle,omitempty"`

	// Drain reads until the model is empty.
	Drain bool `yaml:"drain,omitempty" json:"drain,omitempty"`
}

// RandomStep configures randomized bursts. Each round writes a random count
// in [0, capacity) of random bytes, stopping early once full, then reads a
// random count in [0, capacity), stopping early once empty.
type RandomStep struct {
	Rounds int `yaml:"rounds" json:"rounds"`
}

// Step kinds returned by Step.Kind.
const (
	StepWrite  = "write"
	StepRead   = "read"
	StepRandom = "random"
	StepReset  = "reset"
	StepIdle   = "idle"
	StepDrain  = "drain"
)

// Kind returns the kind of the single action set on s, or "" if none or
// several are set.
func (s Step) Kind() string {
	kind, n := "", 0
	if len(s.Write) > 0 {
		kind, n = StepWrite, n+1
	}
	if s.Read != nil {
		kind, n = StepRead, n+1
	}
	if s.Random != nil {
		kind, n = StepRandom, n+1
	}
	if s.Reset != "" {
		kind, n = StepReset, n+1
	}
	if s.Idle != nil {
		kind, n = StepIdle, n+1
	}
	if s.Drain {
		kind, n = StepDrain, n+1
	}
	if n != 1 {
		return ""
	}
	return kind
}

// Assertion validates the outcome of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_empty": the queue is empty and the read port reports it
	// - "accepted_count": Side accepted exactly Count operations
	// - "rejected_count": Side rejected at least Min operations
	// - "full_reached": a write was rejected with the queue full
	// - "exclusive_monitor": the trace replays cleanly against a fresh model
	Type string `yaml:"type" json:"type"`

	// Side is "write" or "read" (used by accepted_count, rejected_count).
	Side string `yaml:"side,omitempty" json:"side,omitempty"`

	// Count is the expected number of accepted operations.
	Count *int `yaml:"count,omitempty" json:"count,omitempty"`

	// Min is the minimum number of rejected operations.
	Min int `yaml:"min,omitempty" json:"min,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalEmpty       = "final_empty"
	AssertAcceptedCount    = "accepted_count"
	AssertRejectedCount    = "rejected_count"
	AssertFullReached      = "full_reached"
	AssertExclusiveMonitor = "exclusive_monitor"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	scenario.Domains.Write.Name = DomainWrite
	scenario.Domains.Read.Name = DomainRead
	scenario.Source = data
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Capacity < 2 || s.Capacity&(s.Capacity-1) != 0 {
		return fmt.Errorf("capacity must be a power of two >= 2, got %d", s.Capacity)
	}

	if s.SyncStages < 0 {
		return fmt.Errorf("sync_stages must be non-negative, got %d", s.SyncStages)
	}

	if s.ResetCycles < 0 {
		return fmt.Errorf("reset_cycles must be non-negative, got %d", s.ResetCycles)
	}

	if err := s.Domains.Write.Validate(); err != nil {
		return fmt.Errorf("domains.write: %w", err)
	}
	if err := s.Domains.Read.Validate(); err != nil {
		return fmt.Errorf("domains.read: %w", err)
	}

	if s.UART != nil && s.UART.ClksPerBit < 1 {
		return fmt.Errorf("uart.clks_per_bit must be >= 1, got %d", s.UART.ClksPerBit)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its kind.
func validateStep(index int, s Step) error {
	switch s.Kind() {
	case StepWrite:
		for j, v := range s.Write {
			if v < 0 || v > 255 {
				return fmt.Errorf("steps[%d].write[%d]: %d is not a byte", index, j, v)
			}
		}
	case StepRead:
		if *s.Read < 1 {
			return fmt.Errorf("steps[%d]: read count must be >= 1", index)
		}
	case StepRandom:
		if s.Random.Rounds < 1 {
			return fmt.Errorf("steps[%d]: random rounds must be >= 1", index)
		}
	case StepReset:
		switch s.Reset {
		case DomainWrite, DomainRead, "both":
		default:
			return fmt.Errorf("steps[%d]: reset must be write, read or both, got %q", index, s.Reset)
		}
	case StepIdle:
		if *s.Idle < 1 {
			return fmt.Errorf("steps[%d]: idle count must be >= 1", index)
		}
	case StepDrain:
	default:
		return fmt.Errorf("steps[%d]: exactly one of write, read, random, reset, idle, drain is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFinalEmpty, AssertFullReached, AssertExclusiveMonitor:
	case AssertAcceptedCount:
		if err := validateSide(index, a); err != nil {
			return err
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for accepted_count", index)
		}
	case AssertRejectedCount:
		if err := validateSide(index, a); err != nil {
			return err
		}
		if a.Min < 0 {
			return fmt.Errorf("assertions[%d]: min must be non-negative for rejected_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func validateSide(index int, a *Assertion) error {
	if a.Side != DomainWrite && a.Side != DomainRead {
		return fmt.Errorf("assertions[%d]: side must be write or read for %s", index, a.Type)
	}
	return nil
}
