package process

import (
	"fmt"
	"io"
	"time"

	"github.com/mattn/go-shellwords"
)

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// Stdin provides input to the process. May be nil.
	Stdin io.Reader
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
}

// Parse splits a configured command line such as "nice -n 10 ffmpeg" into a
// Command. Quoting and environment references follow shell rules.
func Parse(line string) (Command, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = true
	words, err := parser.Parse(line)
	if err != nil {
		return Command{}, fmt.Errorf("process: parse %q: %w", line, err)
	}
	if len(words) == 0 {
		return Command{}, fmt.Errorf("process: empty command line")
	}
	return Command{Binary: words[0], Args: words[1:]}, nil
}

// With returns a copy of c with extra arguments appended.
func (c Command) With(args ...string) Command {
	out := c
	out.Args = append(append([]string(nil), c.Args...), args...)
	return out
}
