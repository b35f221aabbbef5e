// Package function defines the loaded representation of a single
// lorevm function: its metadata, its shared constant-pool handle, and
// its instruction body, which starts life as a file+offset
// placeholder and becomes resident on first use.
package function

import (
	"fmt"
	"path"
	"strings"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
)

// InvalidID is the sentinel id every Function carries before an
// Environment assigns it a dense id on registration.
const InvalidID = 0xFFFFFFFF

// ConstantTableFetcher resolves a constant-table key (a path without
// extension) to a shared handle, loading and caching it on first use.
// github.com/marcopennekamp/lorevm/pkg/environment.Environment
// implements this; it is expressed as an interface here so that
// FromFile does not need to import the environment package back.
type ConstantTableFetcher interface {
	FetchConstantTable(key string) (*bytecode.ConstantTable, error)
}

// Body is the tagged Resident/Deferred instruction-body variant. The
// zero value is not meaningful; construct with ResidentBody or
// DeferredBody. The transition from Deferred to Resident is one-way.
type Body struct {
	resident bool
	instrs   []bytecode.Instruction
	path     string
	offset   int64
}

// ResidentBody wraps an already-decoded instruction stream. instrs
// may legitimately be empty (a function with no instructions at all),
// so residency is tracked by an explicit tag rather than by a nil
// check.
func ResidentBody(instrs []bytecode.Instruction) Body {
	return Body{resident: true, instrs: instrs}
}

// DeferredBody wraps a file+offset placeholder: the instruction body
// has not been read yet.
func DeferredBody(path string, offset int64) Body {
	return Body{path: path, offset: offset}
}

// IsResident reports whether the body has already been decoded.
func (b Body) IsResident() bool { return b.resident }

// Instructions returns the decoded body. Callers must check
// IsResident first; it panics on a Deferred body.
func (b Body) Instructions() []bytecode.Instruction {
	if !b.resident {
		panic("function: Instructions called on a deferred body")
	}
	return b.instrs
}

// Path returns the backing file path of a Deferred body.
func (b Body) Path() string { return b.path }

// Offset returns the byte offset of the instruction stream within
// Path, for a Deferred body.
func (b Body) Offset() int64 { return b.offset }

// Function is a loaded function: name, sizes, a shared constant-table
// handle, and a body that is either resident or a load placeholder.
//
// The id is assigned exactly once, by an Environment's
// RegisterFunction; name is unique within that environment.
type Function struct {
	id   uint32
	name string

	sizes         bytecode.Sizes
	constantTable *bytecode.ConstantTable

	body Body
}

// New constructs an unregistered function (id = InvalidID) with the
// given body (resident or deferred), for use by the scribe or by tests
// that build functions in memory.
func New(name string, sizes bytecode.Sizes, constantTable *bytecode.ConstantTable, body Body) *Function {
	return &Function{
		id:            InvalidID,
		name:          name,
		sizes:         sizes,
		constantTable: constantTable,
		body:          body,
	}
}

func (f *Function) ID() uint32                             { return f.id }
func (f *Function) Name() string                           { return f.name }
func (f *Function) Sizes() bytecode.Sizes                  { return f.sizes }
func (f *Function) ConstantTable() *bytecode.ConstantTable { return f.constantTable }
func (f *Function) Body() Body                             { return f.body }

// Registered reports whether an Environment has already assigned this
// function a dense id.
func (f *Function) Registered() bool { return f.id != InvalidID }

// SetID is called exactly once by Environment.RegisterFunction to
// assign the dense id.
func (f *Function) SetID(id uint32) { f.id = id }

// Resolve transitions a Deferred body to Resident. It is a one-way
// operation; calling it again on an already-resident body is a no-op.
func (f *Function) Resolve(instrs []bytecode.Instruction) {
	if f.body.IsResident() {
		return
	}
	f.body = ResidentBody(instrs)
}

// FromFile reads a function's header from "<path>.func" without
// loading its instruction body: name, Sizes, and the constant-table
// key, from which the body offset is computed directly rather than
// tracked by the reader's cursor. The constant table itself is
// resolved (or loaded) through fetcher. The returned function's body
// is Deferred and its id is InvalidID.
func FromFile(fetcher ConstantTableFetcher, filePath string) (*Function, error) {
	f, err := openFile(filePath + ".func")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %v", ErrLoadFailed, filePath+".func", err)
	}
	defer f.Close()

	name, err := bytecode.ReadString(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading name: %v", ErrLoadFailed, err)
	}

	sizes, err := readSizes(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sizes: %v", ErrLoadFailed, err)
	}

	tableName, err := bytecode.ReadString(f)
	if err != nil {
		return nil, fmt.Errorf("%w: reading constant table name: %v", ErrLoadFailed, err)
	}

	bodyOffset := int64(bytecode.StringDiskSize(name)) +
		int64(bytecode.SizesEncodedLen) +
		int64(bytecode.StringDiskSize(tableName))

	tableKey := constantTableKey(path.Dir(filePath), tableName)
	table, err := fetcher.FetchConstantTable(tableKey)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching constant table %q: %v", ErrLoadFailed, tableKey, err)
	}

	return &Function{
		id:            InvalidID,
		name:          name,
		sizes:         sizes,
		constantTable: table,
		body:          DeferredBody(filePath+".func", bodyOffset),
	}, nil
}

// constantTableKey joins dir and name into a fetcher key. path.Join
// cleans its result, so a dir of "." yields the plain "<name>" key
// used by in-memory tests and the scribe; any leading "./" is trimmed.
func constantTableKey(dir, name string) string {
	joined := path.Join(dir, name)
	return strings.TrimPrefix(joined, "./")
}
