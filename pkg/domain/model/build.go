package model

// Phase is one pass/fail boundary of the build executor
type Phase string

const (
	PhaseCompile Phase = "compile"
	PhaseTest    Phase = "test"
	PhaseLint    Phase = "lint"
)

// Phases is the fixed execution order of build phases
var Phases = []Phase{PhaseCompile, PhaseTest, PhaseLint}

// Command is an external program invocation
type Command struct {
	Name string
	Args []string
	Env  map[string]string
}

// CommandResult holds the outcome of a finished command
type CommandResult struct {
	ExitCode int
	Output   []byte // Combined stdout and stderr
}

// PhaseCommand binds a build phase to the command implementing it
type PhaseCommand struct {
	Phase   Phase
	Command Command
}

// BuildOutput describes where the build executor left its output
type BuildOutput struct {
	Dir   string   // Build output directory
	Files []string // Files expected in Dir, relative paths
}
