package debug

// StartDebugInput is the input for start_debug.
type StartDebugInput struct {
	FilePath        string `json:"file_path" jsonschema:"description=Path to the Python script or test file to debug (absolute or relative to the server's working directory)"`
	UsePytest       bool   `json:"use_pytest,omitempty" jsonschema:"description=Run the file under pytest instead of plain pdb,default=false"`
	Args            string `json:"args,omitempty" jsonschema:"description=Extra arguments appended after the file path (split on whitespace)"`
	PytestDebugMode string `json:"pytest_debug_mode,omitempty" jsonschema:"description=How pytest enters pdb: 'pdb' stops on failures (--pdb) 'trace' stops at the start of each test (--trace) 'manual' runs pytest under pdb,enum=pdb,enum=trace,enum=manual,default=pdb"`
}

// SendCommandInput is the input for send_pdb_command.
type SendCommandInput struct {
	Command string `json:"command" jsonschema:"description=One line of pdb syntax (e.g. 'n' 's' 'c' 'p x' 'w' 'where' 'l .')"`
}

// BreakpointInput is the input for set_breakpoint and clear_breakpoint.
type BreakpointInput struct {
	FilePath   string `json:"file_path" jsonschema:"description=Source file of the breakpoint"`
	LineNumber int    `json:"line_number" jsonschema:"description=1-based line number,minimum=1"`
}

// ExamineVariableInput is the input for examine_variable.
type ExamineVariableInput struct {
	VariableName string `json:"variable_name" jsonschema:"description=Variable name or expression visible in the current frame"`
}
