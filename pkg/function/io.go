package function

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/marcopennekamp/lorevm/pkg/bytecode"
)

// openFile opens the `.func` file FromFile reads a header from. The
// environment's lazy body fetch opens files on its own and does not
// go through it.
func openFile(path string) (*os.File, error) {
	return os.Open(path)
}

// ReadSizes reads a Sizes record in the fixed u8,u8,u16,u16 layout.
func ReadSizes(r io.Reader) (bytecode.Sizes, error) {
	return readSizes(r)
}

func readSizes(r io.Reader) (bytecode.Sizes, error) {
	var s bytecode.Sizes
	if err := binary.Read(r, binary.BigEndian, &s.ReturnCount); err != nil {
		return bytecode.Sizes{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &s.ArgumentCount); err != nil {
		return bytecode.Sizes{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &s.LocalsCount); err != nil {
		return bytecode.Sizes{}, err
	}
	if err := binary.Read(r, binary.BigEndian, &s.MaxOperands); err != nil {
		return bytecode.Sizes{}, err
	}
	return s, nil
}

// WriteSizes writes a Sizes record in the fixed u8,u8,u16,u16 layout.
func WriteSizes(w io.Writer, s bytecode.Sizes) error {
	if err := binary.Write(w, binary.BigEndian, s.ReturnCount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, s.ArgumentCount); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, s.LocalsCount); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, s.MaxOperands)
}
