// Package pack reads and writes compressed images of device-mapper thin
// metadata. Only blocks that checksum as metadata are carried; everything
// else on the device is noise and is reconstructed as zeroes on unpack.
//
// Stream layout: a fixed header (magic, version, block size, nr_blocks)
// followed by frames, each a u64 payload length plus a zlib stream of
// (u64 block index, raw block) pairs.
package pack

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dmtools/thinpack/internal/meta"
	"github.com/dmtools/thinpack/runlist"
)

// frameBlocks is how many metadata blocks a worker accumulates before
// flushing a compressed frame to the output.
const frameBlocks = 1024

// Result reports which blocks an operation touched.
type Result struct {
	NrBlocks uint64
	Blocks   *runlist.List[uint64]
}

// Gaps returns the runs of blocks within the device that the operation
// did not touch.
func (r *Result) Gaps() *runlist.List[uint64] {
	gaps := new(runlist.List[uint64])
	if r.NrBlocks > 0 {
		gaps.AddRange(0, r.NrBlocks)
		gaps.Subtract(r.Blocks)
	}
	return gaps
}

// Pack compresses the metadata blocks of inputFile into outputFile and
// reports which blocks were packed.
func Pack(ctx context.Context, inputFile, outputFile string, opts Options) (*Result, error) {
	in, err := os.Open(inputFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, err
	}
	nrBlocks := uint64(info.Size()) / meta.BlockSize
	if nrBlocks == 0 {
		return nil, fmt.Errorf("pack: %s holds no complete %d-byte blocks", inputFile, meta.BlockSize)
	}

	out, err := os.OpenFile(outputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	bw := bufio.NewWriterSize(out, 1<<20)
	if err := writeHeader(bw, nrBlocks); err != nil {
		return nil, err
	}

	limiter := opts.limiter()
	fw := &frameWriter{w: bw}
	result := &Result{NrBlocks: nrBlocks, Blocks: new(runlist.List[uint64])}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, chunks := range chunkPlan(nrBlocks, opts.jobs(nrBlocks)) {
		if len(chunks) == 0 {
			continue
		}
		w := &packWorker{in: in, out: fw, limiter: limiter, chunks: chunks}
		g.Go(func() error {
			if err := w.run(ctx); err != nil {
				return err
			}
			mu.Lock()
			result.Blocks.Union(&w.packed)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, err
	}
	if err := out.Sync(); err != nil {
		return nil, err
	}

	log.Debug().
		Uint64("nr_blocks", nrBlocks).
		Uint64("packed", result.Blocks.Size()).
		Int("runs", result.Blocks.Len()).
		Msg("pack complete")
	return result, nil
}

// frameWriter serializes frame writes from the pack workers.
type frameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (fw *frameWriter) writeFrame(p []byte) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if err := binary.Write(fw.w, binary.LittleEndian, uint64(len(p))); err != nil {
		return err
	}
	_, err := fw.w.Write(p)
	return err
}

type packWorker struct {
	in      io.ReaderAt
	out     *frameWriter
	limiter *rate.Limiter
	chunks  []runlist.Run[uint64]

	buf     bytes.Buffer
	z       *zlib.Writer
	pending int
	packed  runlist.List[uint64]
	spans   spanAccum
}

func (w *packWorker) run(ctx context.Context) error {
	w.z = zlib.NewWriter(&w.buf)
	w.spans.list = &w.packed
	err := scanChunks(ctx, w.in, w.chunks, w.limiter, func(b uint64, block []byte) error {
		if meta.TypeOf(block) == meta.Unknown {
			return nil
		}
		return w.pack(b, block)
	})
	if err != nil {
		return err
	}
	w.spans.flush()
	return w.flush()
}

func (w *packWorker) pack(b uint64, block []byte) error {
	if err := binary.Write(w.z, binary.LittleEndian, b); err != nil {
		return err
	}
	if _, err := w.z.Write(block); err != nil {
		return err
	}
	w.spans.add(b)
	w.pending++
	if w.pending == frameBlocks {
		return w.flush()
	}
	return nil
}

func (w *packWorker) flush() error {
	if w.pending == 0 {
		return nil
	}
	if err := w.z.Close(); err != nil {
		return err
	}
	err := w.out.writeFrame(w.buf.Bytes())
	w.buf.Reset()
	w.z.Reset(&w.buf)
	w.pending = 0
	return err
}
