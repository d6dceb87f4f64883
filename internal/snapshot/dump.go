package snapshot

import (
	"bufio"
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/coregraph/typegraph/internal/storage"
)

// DumpOptions toggles which of the eight streams a dump includes,
// mirroring the `snapshot dump --no-X` CLI flags.
type DumpOptions struct {
	SkipDataTypes     bool
	SkipPropertyTypes bool
	SkipEntityTypes   bool
	SkipWebs          bool
	SkipActors        bool
	SkipRoles         bool
	SkipEntities      bool
	SkipPolicies      bool
}

// Dump reads every included stream from src concurrently and writes
// each record as one framed SnapshotEntry line to w. Streams interleave
// freely on the wire; Restore does not require or reconstruct
// their relative order. A write failure or a stream error cancels the
// remaining streams and drains whatever they already queued so none of
// them blocks forever on a full channel.
func Dump(ctx context.Context, src storage.SnapshotSource, w io.Writer, opts DumpOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan []byte, DefaultChunkSize)
	g, gctx := errgroup.WithContext(ctx)

	pump(gctx, g, lines, EntryDataType, opts.SkipDataTypes, src.AllDataTypes)
	pump(gctx, g, lines, EntryPropertyType, opts.SkipPropertyTypes, src.AllPropertyTypes)
	pump(gctx, g, lines, EntryEntityType, opts.SkipEntityTypes, src.AllEntityTypes)
	pump(gctx, g, lines, EntryWeb, opts.SkipWebs, src.AllWebs)
	pump(gctx, g, lines, EntryActor, opts.SkipActors, src.AllActors)
	pump(gctx, g, lines, EntryRole, opts.SkipRoles, src.AllRoles)
	pump(gctx, g, lines, EntryEntity, opts.SkipEntities, src.AllEntities)
	pump(gctx, g, lines, EntryPolicy, opts.SkipPolicies, src.AllPolicies)

	go func() {
		g.Wait()
		close(lines)
	}()

	bw := bufio.NewWriterSize(w, 64*1024)
	var writeErr error
	for line := range lines {
		if writeErr != nil {
			continue // keep draining so producers never block on a dead writer
		}
		if _, err := bw.Write(line); err != nil {
			writeErr = err
			cancel()
		}
	}
	if writeErr == nil {
		writeErr = bw.Flush()
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return writeErr
}

// pump drains one storage.SnapshotSource stream, tagging and framing
// each record onto lines. skip makes the call a no-op, the Go shape of
// the dump CLI's `--no-X` flags.
func pump[T any](ctx context.Context, g *errgroup.Group, lines chan<- []byte, tag EntryType, skip bool, stream func(context.Context) (<-chan T, <-chan error)) {
	if skip {
		return
	}
	g.Go(func() error {
		out, errc := stream(ctx)
		for v := range out {
			line, err := marshalEntry(tag, v)
			if err != nil {
				return err
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := <-errc; err != nil {
			return err
		}
		return nil
	})
}
