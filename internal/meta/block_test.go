package meta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeOfRoundTrip(t *testing.T) {
	for _, bt := range []BlockType{Superblock, BTree, Index, Bitmap} {
		block := make([]byte, BlockSize)
		for i := range block {
			block[i] = byte(i * 7)
		}
		Stamp(bt, block)
		require.Equal(t, bt, TypeOf(block), "type %v", bt)
	}
}

func TestTypeOfUnknown(t *testing.T) {
	block := make([]byte, BlockSize)
	require.Equal(t, Unknown, TypeOf(block), "all zeroes is not metadata")

	block[100] = 0xff
	require.Equal(t, Unknown, TypeOf(block), "random data is not metadata")

	require.Equal(t, Unknown, TypeOf(block[:100]), "short blocks are never metadata")
}

func TestStampCorruptionDetected(t *testing.T) {
	block := make([]byte, BlockSize)
	Stamp(BTree, block)
	block[2048] ^= 1
	require.Equal(t, Unknown, TypeOf(block), "a flipped bit must break classification")
}

func TestBlockTypeString(t *testing.T) {
	require.Equal(t, "superblock", Superblock.String())
	require.Equal(t, "btree", BTree.String())
	require.Equal(t, "index", Index.String())
	require.Equal(t, "bitmap", Bitmap.String())
	require.Equal(t, "unknown", Unknown.String())
}

func TestStampUnknownPanics(t *testing.T) {
	block := make([]byte, BlockSize)
	require.Panics(t, func() { Stamp(Unknown, block) })
}
