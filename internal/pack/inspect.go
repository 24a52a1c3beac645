package pack

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmtools/thinpack/internal/meta"
	"github.com/dmtools/thinpack/runlist"
)

// KindCoverage describes where one kind of block lives on the device.
type KindCoverage struct {
	Kind   string   `yaml:"kind"`
	Blocks uint64   `yaml:"blocks"`
	Runs   []string `yaml:"runs,omitempty"`
}

// Report summarizes a metadata device: how many blocks of each kind it
// holds and the runs they occupy.
type Report struct {
	NrBlocks       uint64         `yaml:"nr_blocks"`
	MetadataBlocks uint64         `yaml:"metadata_blocks"`
	Kinds          []KindCoverage `yaml:"kinds"`
}

// Text renders the report for terminal output.
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "blocks: %d, metadata: %d\n", r.NrBlocks, r.MetadataBlocks)
	for _, k := range r.Kinds {
		fmt.Fprintf(&b, "%-10s %8d  %s\n", k.Kind, k.Blocks, strings.Join(k.Runs, " "))
	}
	return b.String()
}

// Inspect classifies every block of a metadata device and reports the
// coverage of each block kind as runs of block indices.
func Inspect(ctx context.Context, inputFile string, opts Options) (*Report, error) {
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
		return nil, fmt.Errorf("inspect: %s holds no complete %d-byte blocks", inputFile, meta.BlockSize)
	}

	limiter := opts.limiter()

	var (
		mu     sync.Mutex
		totals [meta.Unknown + 1]runlist.List[uint64]
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, chunks := range chunkPlan(nrBlocks, opts.jobs(nrBlocks)) {
		if len(chunks) == 0 {
			continue
		}
		chunks := chunks
		g.Go(func() error {
			var local [meta.Unknown + 1]runlist.List[uint64]
			var spans [meta.Unknown + 1]spanAccum
			for i := range spans {
				spans[i].list = &local[i]
			}
			err := scanChunks(ctx, in, chunks, limiter, func(b uint64, block []byte) error {
				spans[meta.TypeOf(block)].add(b)
				return nil
			})
			if err != nil {
				return err
			}
			for i := range spans {
				spans[i].flush()
			}
			mu.Lock()
			for i := range totals {
				totals[i].Union(&local[i])
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{NrBlocks: nrBlocks}
	for bt := meta.Superblock; bt <= meta.Unknown; bt++ {
		l := totals[bt].Coalesced()
		kc := KindCoverage{Kind: bt.String(), Blocks: l.Size()}
		for _, r := range l.Runs() {
			kc.Runs = append(kc.Runs, r.String())
		}
		if bt != meta.Unknown {
			rep.MetadataBlocks += l.Size()
		}
		rep.Kinds = append(rep.Kinds, kc)
	}
	return rep, nil
}
