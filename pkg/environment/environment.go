// Package environment registers functions under dense, monotonically
// increasing ids, maps their unique names back to those ids, and
// caches constant tables by the path they were loaded from so that
// functions compiled against the same pool share one handle.
//
// Environment is not safe for concurrent registration or fetch calls;
// see SPEC_FULL.md's concurrency notes. Read-only lookups
// (GetFunctionByID/GetFunctionByName) may be shared across
// goroutines once registration has settled, because the functions and
// tables themselves are never mutated after they become resident.
package environment

import (
	"fmt"
	"os"

	"github.com/dolthub/swiss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
	"github.com/marcopennekamp/lorevm/pkg/function"
)

// Environment owns every registered Function and every loaded
// ConstantTable for the lifetime of a run.
type Environment struct {
	functions []*function.Function

	// name -> id, for O(1) lookup by name.
	namesToIDs *swiss.Map[string, uint32]

	// constant-table key (path without extension) -> shared handle.
	constantTables *swiss.Map[string, *bytecode.ConstantTable]

	log zerolog.Logger
}

// New returns an empty environment.
func New() *Environment {
	return &Environment{
		namesToIDs:     swiss.NewMap[string, uint32](16),
		constantTables: swiss.NewMap[string, *bytecode.ConstantTable](16),
		log:            log.With().Str("component", "environment").Logger(),
	}
}

// RegisterFunction assigns f the next dense id and indexes it by
// name. It rejects a function that already carries an id, or whose
// name is already registered.
func (e *Environment) RegisterFunction(f *function.Function) (uint32, error) {
	if f.Registered() {
		return 0, fmt.Errorf("%w: function %q already has id %d", ErrAlreadyRegistered, f.Name(), f.ID())
	}
	if _, ok := e.namesToIDs.Get(f.Name()); ok {
		return 0, fmt.Errorf("%w: name %q", ErrAlreadyRegistered, f.Name())
	}

	id := uint32(len(e.functions))
	f.SetID(id)
	e.functions = append(e.functions, f)
	e.namesToIDs.Put(f.Name(), id)

	e.log.Debug().Uint32("id", id).Str("name", f.Name()).Msg("registered function")
	return id, nil
}

// GetFunctionByID returns the function at id without forcing its body
// resident. It does not bounds-check id against the dense array; that
// is the caller's responsibility, mirroring the untrusted-bounds
// stance documented for Cst indices in pkg/bytecode.
func (e *Environment) GetFunctionByID(id uint32) *function.Function {
	return e.functions[id]
}

// GetFunctionByName returns the function registered under name, or
// false if no such function exists. It does not force the body
// resident.
func (e *Environment) GetFunctionByName(name string) (*function.Function, bool) {
	id, ok := e.namesToIDs.Get(name)
	if !ok {
		return nil, false
	}
	return e.functions[id], true
}

// FetchFunctionByID returns the function at id after ensuring its
// body is resident, loading it from disk on first fetch. Subsequent
// fetches of the same id are cheap: the body is already resident and
// no I/O happens.
func (e *Environment) FetchFunctionByID(id uint32) (*function.Function, error) {
	f := e.functions[id]
	if f.Body().IsResident() {
		return f, nil
	}

	instrs, err := loadDeferredBody(f.Body())
	if err != nil {
		return nil, fmt.Errorf("environment: loading body of function %q: %w: %w", f.Name(), function.ErrLoadFailed, err)
	}

	f.Resolve(instrs)
	e.log.Debug().Uint32("id", id).Str("name", f.Name()).Str("path", f.Body().Path()).
		Msg("function body transitioned from deferred to resident")
	return f, nil
}

// FetchConstantTable returns the cached handle for key, or loads
// "<key>.cst" and caches the result on a miss. Every caller that
// fetches the same key within this environment's lifetime receives
// the identical handle.
func (e *Environment) FetchConstantTable(key string) (*bytecode.ConstantTable, error) {
	if table, ok := e.constantTables.Get(key); ok {
		return table, nil
	}

	f, err := os.Open(key + ".cst")
	if err != nil {
		return nil, fmt.Errorf("environment: opening constant table %q: %w", key, err)
	}
	defer f.Close()

	table, err := bytecode.DecodeConstantTable(f)
	if err != nil {
		return nil, fmt.Errorf("environment: decoding constant table %q: %w", key, err)
	}

	e.constantTables.Put(key, table)
	e.log.Debug().Str("key", key).Int("entries", table.Len()).Msg("loaded constant table")
	return table, nil
}

// FunctionCount returns the number of functions registered so far.
func (e *Environment) FunctionCount() int { return len(e.functions) }

func loadDeferredBody(body function.Body) ([]bytecode.Instruction, error) {
	f, err := os.Open(body.Path())
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", body.Path(), err)
	}
	defer f.Close()

	if _, err := f.Seek(body.Offset(), 0); err != nil {
		return nil, fmt.Errorf("seeking to offset %d in %q: %w", body.Offset(), body.Path(), err)
	}

	instrs, err := bytecode.DecodeInstructions(f)
	if err != nil {
		return nil, fmt.Errorf("decoding instructions in %q: %w", body.Path(), err)
	}
	return instrs, nil
}
