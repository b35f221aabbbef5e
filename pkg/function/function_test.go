package function

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
)

type fakeFetcher struct {
	calls int
	table *bytecode.ConstantTable
}

func (f *fakeFetcher) FetchConstantTable(key string) (*bytecode.ConstantTable, error) {
	f.calls++
	return f.table, nil
}

func writeTestFuncFile(t *testing.T, dir, name string, sizes bytecode.Sizes, constantTableName string, instrs []bytecode.Instruction) string {
	t.Helper()

	funcPath := filepath.Join(dir, name)
	f, err := os.Create(funcPath + ".func")
	if err != nil {
		t.Fatalf("creating func file: %v", err)
	}
	defer f.Close()

	if err := bytecode.WriteString(f, name); err != nil {
		t.Fatalf("writing name: %v", err)
	}
	if err := WriteSizes(f, sizes); err != nil {
		t.Fatalf("writing sizes: %v", err)
	}
	if err := bytecode.WriteString(f, constantTableName); err != nil {
		t.Fatalf("writing constant table name: %v", err)
	}
	if err := bytecode.EncodeInstructions(f, instrs); err != nil {
		t.Fatalf("writing instructions: %v", err)
	}
	return funcPath
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()
	sizes := bytecode.Sizes{ReturnCount: 1, ArgumentCount: 1, LocalsCount: 1, MaxOperands: 2}
	instrs := []bytecode.Instruction{
		bytecode.InstrLoad(0),
		bytecode.InstrCst(0),
		bytecode.InstrAdd(bytecode.U64),
		bytecode.InstrRet(1),
	}
	funcPath := writeTestFuncFile(t, dir, "add_immediate", sizes, "consts", instrs)

	fetcher := &fakeFetcher{table: bytecode.NewConstantTable([]bytecode.Constant{bytecode.ConstantU64(20)})}

	fn, err := FromFile(fetcher, funcPath)
	if err != nil {
		t.Fatalf("FromFile failed: %v", err)
	}

	if fn.Name() != "add_immediate" {
		t.Errorf("Name() = %q, want %q", fn.Name(), "add_immediate")
	}
	if fn.Sizes() != sizes {
		t.Errorf("Sizes() = %+v, want %+v", fn.Sizes(), sizes)
	}
	if fn.Body().IsResident() {
		t.Error("body should be Deferred immediately after FromFile")
	}
	if fn.Registered() {
		t.Error("function should not be registered yet")
	}
	if fetcher.calls != 1 {
		t.Errorf("FetchConstantTable called %d times, want 1", fetcher.calls)
	}

	// Simulate what Environment.FetchFunctionByID does: open the
	// deferred body's file at its offset and decode the instructions.
	raw, err := os.Open(fn.Body().Path())
	if err != nil {
		t.Fatalf("opening deferred body path: %v", err)
	}
	defer raw.Close()
	if _, err := raw.Seek(fn.Body().Offset(), 0); err != nil {
		t.Fatalf("seeking to body offset: %v", err)
	}
	decoded, err := bytecode.DecodeInstructions(raw)
	if err != nil {
		t.Fatalf("decoding deferred body: %v", err)
	}
	if len(decoded) != len(instrs) {
		t.Fatalf("decoded %d instructions, want %d", len(decoded), len(instrs))
	}
	for i := range instrs {
		if decoded[i] != instrs[i] {
			t.Errorf("instruction %d mismatch: got %v, want %v", i, decoded[i], instrs[i])
		}
	}
}

func TestResolveIsOneWay(t *testing.T) {
	fn := New("f", bytecode.Sizes{}, bytecode.NewConstantTable(nil), DeferredBody("f.func", 10))
	if fn.Body().IsResident() {
		t.Fatal("new deferred function should not be resident")
	}

	first := []bytecode.Instruction{bytecode.InstrNop()}
	fn.Resolve(first)
	if !fn.Body().IsResident() {
		t.Fatal("expected resident body after Resolve")
	}

	second := []bytecode.Instruction{bytecode.InstrNop(), bytecode.InstrNop()}
	fn.Resolve(second)
	if len(fn.Body().Instructions()) != 1 {
		t.Error("Resolve should be a one-way transition; second call must be a no-op")
	}
}

func TestSizesRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	want := bytecode.Sizes{ReturnCount: 2, ArgumentCount: 1, LocalsCount: 5, MaxOperands: 21}
	if err := WriteSizes(&buf, want); err != nil {
		t.Fatalf("WriteSizes failed: %v", err)
	}
	got, err := ReadSizes(&buf)
	if err != nil {
		t.Fatalf("ReadSizes failed: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
