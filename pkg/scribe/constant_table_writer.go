package scribe

import (
	"fmt"
	"io"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
)

// WriteConstantTable writes table to w in the `.cst` layout. Unlike
// FunctionWriter there is no incremental bookkeeping to do — a
// constant table has no stack effect — so this is a direct pass
// through to bytecode.EncodeConstantTable.
func WriteConstantTable(w io.Writer, table *bytecode.ConstantTable) error {
	if err := bytecode.EncodeConstantTable(w, table); err != nil {
		return fmt.Errorf("scribe: writing constant table: %w", err)
	}
	return nil
}
