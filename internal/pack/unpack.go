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
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dmtools/thinpack/internal/meta"
	"github.com/dmtools/thinpack/runlist"
)

// Unpack reconstructs a metadata device image from a pack stream. Blocks
// absent from the stream come out as zeroes. The result reports which
// blocks the stream provided.
func Unpack(ctx context.Context, inputFile, outputFile string, opts Options) (*Result, error) {
	in, err := os.Open(inputFile)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	br := bufio.NewReaderSize(in, 1<<20)
	nrBlocks, err := readHeader(br)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", inputFile, err)
	}

	out, err := os.OpenFile(outputFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	// Zero the last block so the image has its full size up front.
	zeroes := make([]byte, meta.BlockSize)
	if _, err := out.WriteAt(zeroes, int64(nrBlocks-1)*meta.BlockSize); err != nil {
		return nil, err
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	result := &Result{NrBlocks: nrBlocks, Blocks: new(runlist.List[uint64])}
	frames := make(chan []byte, jobs)

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < jobs; i++ {
		g.Go(func() error {
			w := &unpackWorker{out: out, nrBlocks: nrBlocks}
			w.spans.list = &w.written
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case frame, ok := <-frames:
					if !ok {
						w.spans.flush()
						mu.Lock()
						result.Blocks.Union(&w.written)
						mu.Unlock()
						return nil
					}
					if err := w.decode(frame); err != nil {
						return err
					}
				}
			}
		})
	}

	readErr := func() error {
		defer close(frames)
		for {
			var length uint64
			err := binary.Read(br, binary.LittleEndian, &length)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("unpack: frame length: %w", err)
			}
			frame := make([]byte, length)
			if _, err := io.ReadFull(br, frame); err != nil {
				return fmt.Errorf("unpack: frame body: %w", err)
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}()

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}
	if err := out.Sync(); err != nil {
		return nil, err
	}

	log.Debug().
		Uint64("nr_blocks", nrBlocks).
		Uint64("written", result.Blocks.Size()).
		Int("runs", result.Blocks.Len()).
		Msg("unpack complete")
	return result, nil
}

type unpackWorker struct {
	out      io.WriterAt
	nrBlocks uint64
	block    []byte
	written  runlist.List[uint64]
	spans    spanAccum
}

func (w *unpackWorker) decode(frame []byte) error {
	if w.block == nil {
		w.block = make([]byte, meta.BlockSize)
	}
	zr, err := zlib.NewReader(bytes.NewReader(frame))
	if err != nil {
		return fmt.Errorf("unpack: inflate frame: %w", err)
	}
	defer zr.Close()

	for {
		var b uint64
		err := binary.Read(zr, binary.LittleEndian, &b)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("unpack: block index: %w", err)
		}
		if b >= w.nrBlocks {
			return fmt.Errorf("unpack: block %d out of range (nr_blocks %d)", b, w.nrBlocks)
		}
		if _, err := io.ReadFull(zr, w.block); err != nil {
			return fmt.Errorf("unpack: block %d: %w", b, err)
		}
		if meta.TypeOf(w.block) == meta.Unknown {
			return fmt.Errorf("unpack: block %d does not checksum as metadata", b)
		}
		if _, err := w.out.WriteAt(w.block, int64(b)*meta.BlockSize); err != nil {
			return fmt.Errorf("unpack: write block %d: %w", b, err)
		}
		w.spans.add(b)
	}
}
