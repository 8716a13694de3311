package wallet

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Klingon-tech/hdwallet/internal/log"
)

// DerivedKey is one result of DeriveRange. Err is set instead of Key when
// the index yields no valid key (ErrInvalidChildKey).
type DerivedKey struct {
	Index uint32
	Key   *ExtendedKey
	Err   error
}

// DeriveRange derives count consecutive children of parent starting at
// start, using up to workers goroutines (GOMAXPROCS when workers <= 0).
// Results are ordered by index. Per-index derivation failures are reported
// in DerivedKey.Err; the returned error is reserved for bad arguments and
// context cancellation.
func DeriveRange(ctx context.Context, parent *ExtendedKey, start, count uint32, hardened bool, workers int) ([]DerivedKey, error) {
	if count == 0 {
		return nil, nil
	}
	limit := uint64(HardenedKeyStart)
	if start >= HardenedKeyStart {
		limit = 1 << 32
	}
	if uint64(start)+uint64(count) > limit {
		return nil, fmt.Errorf("%w: range %d+%d crosses the hardened boundary", ErrInvalidPath, start, count)
	}
	if hardened && !parent.IsPrivate() {
		return nil, ErrHardenedFromPublic
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	defer log.Benchmark("derive_range")()

	results := make([]DerivedKey, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := uint32(0); i < count; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			index := start + i
			child, err := parent.DeriveChild(index, hardened)
			results[i] = DerivedKey{Index: index, Key: child, Err: err}
			if err != nil {
				log.Wallet.Warn().Str("index", formatIndex(index)).Err(err).Msg("Skipping invalid child key")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
