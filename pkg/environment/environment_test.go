package environment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
	"github.com/marcopennekamp/lorevm/pkg/function"
)

func TestRegisterFunctionAssignsDenseIDs(t *testing.T) {
	env := New()

	f0 := function.New("a", bytecode.Sizes{}, bytecode.NewConstantTable(nil), function.ResidentBody(nil))
	f1 := function.New("b", bytecode.Sizes{}, bytecode.NewConstantTable(nil), function.ResidentBody(nil))

	id0, err := env.RegisterFunction(f0)
	require.NoError(t, err)
	id1, err := env.RegisterFunction(f1)
	require.NoError(t, err)

	assert.Equal(t, uint32(0), id0)
	assert.Equal(t, uint32(1), id1)
	assert.Equal(t, 2, env.FunctionCount())
}

func TestRegisterFunctionRejectsDuplicateName(t *testing.T) {
	env := New()
	f0 := function.New("dup", bytecode.Sizes{}, bytecode.NewConstantTable(nil), function.ResidentBody(nil))
	f1 := function.New("dup", bytecode.Sizes{}, bytecode.NewConstantTable(nil), function.ResidentBody(nil))

	_, err := env.RegisterFunction(f0)
	require.NoError(t, err)

	_, err = env.RegisterFunction(f1)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestRegisterFunctionRejectsAlreadyRegistered(t *testing.T) {
	env := New()
	f := function.New("f", bytecode.Sizes{}, bytecode.NewConstantTable(nil), function.ResidentBody(nil))

	_, err := env.RegisterFunction(f)
	require.NoError(t, err)

	_, err = env.RegisterFunction(f)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestGetFunctionDoesNotForceLoad(t *testing.T) {
	env := New()
	f := function.New("deferred", bytecode.Sizes{}, bytecode.NewConstantTable(nil), function.DeferredBody("/nonexistent/path.func", 0))
	_, err := env.RegisterFunction(f)
	require.NoError(t, err)

	byID := env.GetFunctionByID(0)
	assert.False(t, byID.Body().IsResident())

	byName, ok := env.GetFunctionByName("deferred")
	require.True(t, ok)
	assert.False(t, byName.Body().IsResident())
}

func TestFetchConstantTableDedupesByPath(t *testing.T) {
	dir := t.TempDir()
	key := filepath.Join(dir, "consts")

	f, err := os.Create(key + ".cst")
	require.NoError(t, err)
	table := bytecode.NewConstantTable([]bytecode.Constant{bytecode.ConstantI64(-25), bytecode.ConstantI64(20)})
	require.NoError(t, bytecode.EncodeConstantTable(f, table))
	require.NoError(t, f.Close())

	env := New()

	first, err := env.FetchConstantTable(key)
	require.NoError(t, err)

	second, err := env.FetchConstantTable(key)
	require.NoError(t, err)

	// Same handle on both fetches: this is a pointer identity check,
	// not merely an equal-contents check.
	assert.Same(t, first, second)
	assert.Equal(t, 2, first.Len())
}

func TestFetchFunctionByIDLoadsBodyExactlyOnce(t *testing.T) {
	dir := t.TempDir()
	key := filepath.Join(dir, "consts")

	cf, err := os.Create(key + ".cst")
	require.NoError(t, err)
	require.NoError(t, bytecode.EncodeConstantTable(cf, bytecode.NewConstantTable([]bytecode.Constant{bytecode.ConstantU64(20)})))
	require.NoError(t, cf.Close())

	funcPath := filepath.Join(dir, "add_immediate")
	ff, err := os.Create(funcPath + ".func")
	require.NoError(t, err)
	require.NoError(t, bytecode.WriteString(ff, "add_immediate"))
	require.NoError(t, function.WriteSizes(ff, bytecode.Sizes{ReturnCount: 1, ArgumentCount: 1, LocalsCount: 1, MaxOperands: 2}))
	require.NoError(t, bytecode.WriteString(ff, "consts"))
	instrs := []bytecode.Instruction{
		bytecode.InstrLoad(0),
		bytecode.InstrCst(0),
		bytecode.InstrAdd(bytecode.U64),
		bytecode.InstrRet(1),
	}
	require.NoError(t, bytecode.EncodeInstructions(ff, instrs))
	require.NoError(t, ff.Close())

	env := New()
	fn, err := function.FromFile(env, funcPath)
	require.NoError(t, err)
	_, err = env.RegisterFunction(fn)
	require.NoError(t, err)

	require.False(t, fn.Body().IsResident())

	loaded, err := env.FetchFunctionByID(fn.ID())
	require.NoError(t, err)
	require.True(t, loaded.Body().IsResident())
	assert.Len(t, loaded.Body().Instructions(), len(instrs))

	// Second fetch observes the already-resident body; no reload
	// happens. The .func file is removed first, so a second read from
	// disk would fail.
	require.NoError(t, os.Remove(funcPath+".func"))
	again, err := env.FetchFunctionByID(fn.ID())
	require.NoError(t, err)
	assert.True(t, again.Body().IsResident())
}
