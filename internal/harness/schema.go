package harness

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// scenarioSchema constrains the JSON shape of a Scenario. It is stricter
// than validateScenario on shape (closed structs, one action per step) and
// is checked by ValidateSchema.
const scenarioSchema = `
#Side: "write" | "read"
#Byte: int & >=0 & <=255

#Domain: {
	name?:        string
	frequency_hz: number & >0 & <=1e9
}

#Step: {write: [#Byte, ...#Byte]} |
	{read: int & >=1} |
	{random: {rounds: int & >=1}} |
	{reset: "write" | "read" | "both"} |
	{idle: int & >=1} |
	{drain: true}

#Assertion: {type: "final_empty" | "full_reached" | "exclusive_monitor"} |
	{type: "accepted_count", side: #Side, count: int & >=0} |
	{type: "rejected_count", side: #Side, min?: int & >=0}

#Scenario: {
	name:          =~"^[A-Za-z0-9_-]+$"
	description:   string & !=""
	capacity:      int & >=2 & <=1073741824
	sync_stages?:  int & >=1 & <=16
	seed?:         int
	reset_cycles?: int & >=0
	domains: {
		write: #Domain
		read:  #Domain
	}
	uart?: {clks_per_bit: int & >=1}
	steps: [#Step, ...#Step]
	assertions?: [...#Assertion]
}
`

// ValidateSchema checks s against the CUE scenario schema.
func ValidateSchema(s *Scenario) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(scenarioSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile scenario schema: %w", err)
	}

	v := ctx.Encode(s)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode scenario: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Scenario"))
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("scenario %q does not match schema: %w", s.Name, err)
	}
	return nil
}
