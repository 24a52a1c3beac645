package pack

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"runtime"

	"golang.org/x/time/rate"

	"github.com/dmtools/thinpack/internal/meta"
	"github.com/dmtools/thinpack/runlist"
)

// readBlocks is how many blocks a worker pulls off the device in one
// ReadAt, to keep per-block overhead down.
const readBlocks = 1024

// Options tune how pack, unpack and inspect drive the device.
type Options struct {
	// Jobs is the worker count. Zero picks one per CPU, capped so that
	// every worker has at least 128 blocks to chew on.
	Jobs int

	// RateLimit throttles device reads, in bytes per second. Zero means
	// unlimited.
	RateLimit int64
}

func (o Options) jobs(nrBlocks uint64) int {
	n := o.Jobs
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if max := nrBlocks / 128; uint64(n) > max {
		n = int(max)
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (o Options) limiter() *rate.Limiter {
	if o.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(o.RateLimit), readBlocks*meta.BlockSize)
}

// chunkPlan splits [0, nrBlocks) into contiguous runs of blocks and deals
// them out to workers in shuffled order, so each worker sees chunks
// spread across the device even when large regions hold no metadata.
func chunkPlan(nrBlocks uint64, jobs int) [][]runlist.Run[uint64] {
	chunkSize := nrBlocks / (uint64(jobs) * 64)
	if chunkSize < 128 {
		chunkSize = 128
	}
	if chunkSize > 4*1024 {
		chunkSize = 4 * 1024
	}

	chunks := make([]runlist.Run[uint64], 0, nrBlocks/chunkSize+1)
	for b := uint64(0); b < nrBlocks; b += chunkSize {
		e := b + chunkSize
		if e > nrBlocks {
			e = nrBlocks
		}
		chunks = append(chunks, runlist.Run[uint64]{Start: b, End: e})
	}
	rand.Shuffle(len(chunks), func(i, j int) {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	})

	plan := make([][]runlist.Run[uint64], jobs)
	for i, c := range chunks {
		plan[i%jobs] = append(plan[i%jobs], c)
	}
	return plan
}

// spanAccum folds consecutive block indices into ranges before handing
// them to a run list, so a scan over n contiguous metadata blocks costs
// one AddRange instead of n single-point inserts.
type spanAccum struct {
	list *runlist.List[uint64]
	run  runlist.Run[uint64]
	open bool
}

func (a *spanAccum) add(b uint64) {
	if a.open && b == a.run.End {
		a.run.End++
		return
	}
	a.flush()
	a.run = runlist.Run[uint64]{Start: b, End: b + 1}
	a.open = true
}

func (a *spanAccum) flush() {
	if a.open {
		a.list.AddRange(a.run.Start, a.run.End)
		a.open = false
	}
}

// scanChunks reads every block of the given chunks in large batches and
// hands each one to fn along with its block index.
func scanChunks(
	ctx context.Context,
	in io.ReaderAt,
	chunks []runlist.Run[uint64],
	limiter *rate.Limiter,
	fn func(b uint64, block []byte) error,
) error {
	data := make([]byte, readBlocks*meta.BlockSize)
	for _, chunk := range chunks {
		for b := chunk.Start; b < chunk.End; b += readBlocks {
			e := b + readBlocks
			if e > chunk.End {
				e = chunk.End
			}
			n := int(e-b) * meta.BlockSize
			if limiter != nil {
				if err := limiter.WaitN(ctx, n); err != nil {
					return err
				}
			} else if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := in.ReadAt(data[:n], int64(b)*meta.BlockSize); err != nil {
				return fmt.Errorf("read blocks [%v,%v): %w", b, e, err)
			}
			for i := b; i < e; i++ {
				off := int(i-b) * meta.BlockSize
				if err := fn(i, data[off:off+meta.BlockSize]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
