package maincmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mna/mainer"

	"github.com/marcopennekamp/lorevm/pkg/environment"
	"github.com/marcopennekamp/lorevm/pkg/function"
	"github.com/marcopennekamp/lorevm/pkg/vm"
)

// defaultStackCells is the operand/local stack capacity given to the
// context a CLI invocation runs against. There is no flag to
// configure it; a function whose sizes exceed it fails with a
// StackOverflow error, same as any embedder's context would.
const defaultStackCells = 4096

// Run loads the function at args[0] and executes it with args[1:]
// parsed as signed 64-bit integers, printing its return values.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	rawArgs := args[1:]

	env := environment.New()
	fn, err := function.FromFile(env, path)
	if err != nil {
		return fmt.Errorf("loading %q: %w", path, err)
	}
	if _, err := env.RegisterFunction(fn); err != nil {
		return fmt.Errorf("registering %q: %w", path, err)
	}

	fn, err = env.FetchFunctionByID(fn.ID())
	if err != nil {
		return fmt.Errorf("loading body of %q: %w", path, err)
	}

	arguments := make([]uint64, len(rawArgs))
	for i, raw := range rawArgs {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("argument %d (%q): %w", i, raw, err)
		}
		arguments[i] = uint64(v)
	}

	execCtx := vm.NewContext(defaultStackCells)
	execCtx.Output = stdio.Stdout

	returns, err := execCtx.Run(fn, arguments)
	if err != nil {
		return fmt.Errorf("running %q: %w", fn.Name(), err)
	}

	for _, r := range returns {
		fmt.Fprintf(stdio.Stdout, "%d\n", int64(r))
	}
	return nil
}
