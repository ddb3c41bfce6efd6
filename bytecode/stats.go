package bytecode

// Stats summarizes the size of one compiled unit. Nested units are not
// included.
type Stats struct {
	InstructionCount int `json:"instructions"`
	ConstantCount    int `json:"constants"`
	GlobalCount      int `json:"globals"`
	FunctionCount    int `json:"functions"`
	SourceBytes      int `json:"source_bytes,omitempty"`
}
