// Package process runs external command line tools and streams their stdout
// to a handler while the caller waits for exit.
package process

// StartInfo describes a process to run.
type StartInfo struct {
	// Name is used in log entries, e.g. "ggp ssh init".
	Name string
	// Command is the full command line. Arguments containing whitespace or
	// shell special characters must be quoted.
	Command string
	// StdoutHandler receives stdout in chunks. It is called from a goroutine
	// other than the one that called RunUntilExit, never concurrently with
	// itself, and never after RunUntilExit has returned.
	StdoutHandler func(data []byte) error
	// ForwardOutputToLog mirrors stdout and stderr into the log, line by line.
	ForwardOutputToLog bool
}

// Process is a single run of an external command.
type Process interface {
	// Start launches the process.
	Start() error
	// RunUntilExit blocks until the process has exited and all of its stdout
	// has been delivered to the handler. A non-zero exit status is not an
	// error; see ExitCode.
	RunUntilExit() error
	// ExitCode is valid after RunUntilExit returned nil.
	ExitCode() int
}

// Factory creates processes. It exists so that callers can be tested
// without spawning real tools.
type Factory interface {
	Create(info StartInfo) Process
}
