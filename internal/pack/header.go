package pack

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dmtools/thinpack/internal/meta"
)

// Pack stream header: four little-endian u64 words.
//
// Version 3 streams carry delta-encoded node payloads; this format
// compresses raw blocks, so it claims its own version word.
const (
	magic       uint64 = 0xa537a0aa6309ef77
	packVersion uint64 = 4
)

func writeHeader(w io.Writer, nrBlocks uint64) error {
	for _, v := range [4]uint64{magic, packVersion, meta.BlockSize, nrBlocks} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	return nil
}

func readHeader(r io.Reader) (nrBlocks uint64, err error) {
	var h [4]uint64
	for i := range h {
		if err := binary.Read(r, binary.LittleEndian, &h[i]); err != nil {
			return 0, fmt.Errorf("read header: %w", err)
		}
	}
	switch {
	case h[0] != magic:
		return 0, fmt.Errorf("bad magic %#x: not a thinpack stream", h[0])
	case h[1] != packVersion:
		return 0, fmt.Errorf("unsupported pack version %d (want %d)", h[1], packVersion)
	case h[2] != meta.BlockSize:
		return 0, fmt.Errorf("unsupported block size %d (want %d)", h[2], meta.BlockSize)
	case h[3] == 0:
		return 0, fmt.Errorf("header declares zero blocks")
	}
	return h[3], nil
}
