// Package maincmd implements lorevm's command-line surface: loading a
// function from its on-disk `.func`/`.cst` pair, running it, or
// disassembling it. This is the external collaborator spec.md places
// out of scope for the core's own tests — it only consumes the core's
// public surface (an environment, a function loader, a context).
package maincmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/rs/zerolog/log"
)

const binName = "lorevm"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <command> <path> [<arg>...]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s run <path> [<arg>...]
       %[1]s disasm <path>
       %[1]s -h|--help
       %[1]s -v|--version

Loads a function from "<path>.func" and its constant table from
the file it names, then either runs it or prints its disassembly.

The <command> can be one of:
       run                       Run the function, passing <arg>...
                                 as its arguments (parsed as signed
                                 64-bit integers), and print its
                                 return values.
       disasm                    Print the function's header and
                                 instruction listing.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is lorevm's root command, parsed by mainer.Parser from os.Args.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

// Validate resolves the subcommand name against the known commands
// and checks that a path argument was given.
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errors.New("no command specified")
	}

	switch c.args[0] {
	case "run":
		c.cmdFn = c.Run
	case "disasm":
		c.cmdFn = c.Disasm
	default:
		return fmt.Errorf("unknown command: %s", c.args[0])
	}

	if len(c.args) < 2 {
		return fmt.Errorf("%s: a function path is required", c.args[0])
	}
	return nil
}

// Main parses args, dispatches to the resolved subcommand, and
// returns the process exit code.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	log.Debug().Str("command", c.args[0]).Strs("args", c.args[1:]).Msg("dispatching")
	if err := c.cmdFn(ctx, stdio, c.args[1:]); err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", c.args[0], err)
		return mainer.Failure
	}
	return mainer.Success
}
