package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"

	"github.com/marcopennekamp/lorevm/pkg/environment"
	"github.com/marcopennekamp/lorevm/pkg/function"
	"github.com/marcopennekamp/lorevm/pkg/vm"
)

// Disasm loads the function at args[0], forces its body resident, and
// prints its header and instruction listing.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]

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

	return vm.Disassemble(stdio.Stdout, fn)
}
