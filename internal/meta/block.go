// Package meta identifies device-mapper thin-provisioning metadata blocks.
//
// Every metadata block carries a crc32c checksum in its first four bytes,
// XOR'd with a salt specific to the block kind. Classifying a block is a
// matter of recomputing the checksum and seeing which salt falls out.
package meta

import (
	"encoding/binary"
	"hash/crc32"
)

// BlockSize is the fixed size of a thin metadata block.
const BlockSize = 4096

const (
	superblockCsumXor uint32 = 160774
	bitmapCsumXor     uint32 = 240779
	indexCsumXor      uint32 = 160478
	btreeCsumXor      uint32 = 121107
)

// BlockType is the kind of a metadata block, or Unknown for anything that
// does not checksum as metadata.
type BlockType int

const (
	Superblock BlockType = iota
	BTree
	Index
	Bitmap
	Unknown
)

func (t BlockType) String() string {
	switch t {
	case Superblock:
		return "superblock"
	case BTree:
		return "btree"
	case Index:
		return "index"
	case Bitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the metadata checksum of a block: crc32c over
// everything after the stored checksum word, XOR'd with all ones.
func Checksum(block []byte) uint32 {
	return crc32.Checksum(block[4:], castagnoli) ^ 0xffffffff
}

// TypeOf classifies a block by its checksum. Blocks of the wrong size are
// Unknown.
func TypeOf(block []byte) BlockType {
	if len(block) != BlockSize {
		return Unknown
	}

	stored := binary.LittleEndian.Uint32(block[:4])
	switch Checksum(block) ^ stored {
	case superblockCsumXor:
		return Superblock
	case btreeCsumXor:
		return BTree
	case bitmapCsumXor:
		return Bitmap
	case indexCsumXor:
		return Index
	default:
		return Unknown
	}
}

// Stamp writes the checksum word for the given block type into the first
// four bytes of block, making TypeOf classify it as t. Used by tests and
// by tools that synthesize metadata images.
func Stamp(t BlockType, block []byte) {
	var xor uint32
	switch t {
	case Superblock:
		xor = superblockCsumXor
	case BTree:
		xor = btreeCsumXor
	case Bitmap:
		xor = bitmapCsumXor
	case Index:
		xor = indexCsumXor
	default:
		panic("meta: cannot stamp an unknown block")
	}
	binary.LittleEndian.PutUint32(block[:4], Checksum(block)^xor)
}
