package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/coregraph/typegraph/internal/entity"
	"github.com/coregraph/typegraph/internal/storage"
)

// maxLineSize bounds a single NDJSON line. A restored entity's
// properties object is the largest record on the wire; this is
// generous enough for that without letting one corrupt line exhaust
// memory.
const maxLineSize = 64 * 1024 * 1024

// RestoreOptions mirrors the `snapshot restore` CLI flags.
type RestoreOptions struct {
	// ChunkSize caps the batch size passed to each RestoreTx.WriteX
	// call. Zero means DefaultChunkSize.
	ChunkSize int
	// SkipValidation skips the post-commit link-endpoint check entirely.
	SkipValidation bool
	// IgnoreValidationErrors downgrades a validation failure to a
	// warning returned as ValidationWarning rather than failing the
	// restore outright; the commit still merges every batch.
	IgnoreValidationErrors bool
}

// ValidationWarning is returned by Restore when IgnoreValidationErrors
// downgraded a KindValidation commit failure: the restore's data is
// already committed, but the caller should still surface Err to an
// operator.
type ValidationWarning struct{ Err error }

func (w *ValidationWarning) Error() string { return w.Err.Error() }
func (w *ValidationWarning) Unwrap() error { return w.Err }

// Restore decodes NDJSON SnapshotEntry lines from r, routes each to its
// stream's typed channel, and fans each stream in chunkSize batches
// into sink's staged RestoreTx. Nothing is visible in sink until every
// stream finishes decoding and Commit runs.
func Restore(ctx context.Context, r io.Reader, sink storage.SnapshotSink, opts RestoreOptions) error {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	tx, err := sink.BeginRestore(ctx)
	if err != nil {
		return fmt.Errorf("snapshot: beginning restore: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback(ctx)
		}
	}()

	dataTypes := make(chan storage.DataTypeWithMetadata, chunkSize)
	propertyTypes := make(chan storage.PropertyTypeWithMetadata, chunkSize)
	entityTypes := make(chan storage.EntityTypeWithMetadata, chunkSize)
	webs := make(chan storage.WebRecord, chunkSize)
	actors := make(chan storage.ActorRecord, chunkSize)
	roles := make(chan storage.RoleRecord, chunkSize)
	entities := make(chan entity.Entity, chunkSize)
	policies := make(chan storage.PolicyRecord, chunkSize)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return decodeEntries(gctx, r, dataTypes, propertyTypes, entityTypes, webs, actors, roles, entities, policies)
	})

	g.Go(func() error { return batchWrite(gctx, dataTypes, chunkSize, tx.WriteDataTypes) })
	g.Go(func() error { return batchWrite(gctx, propertyTypes, chunkSize, tx.WritePropertyTypes) })
	g.Go(func() error { return batchWrite(gctx, entityTypes, chunkSize, tx.WriteEntityTypes) })
	g.Go(func() error { return batchWrite(gctx, webs, chunkSize, tx.WriteWebs) })
	g.Go(func() error { return batchWrite(gctx, actors, chunkSize, tx.WriteActors) })
	g.Go(func() error { return batchWrite(gctx, roles, chunkSize, tx.WriteRoles) })
	g.Go(func() error { return batchWrite(gctx, entities, chunkSize, tx.WriteEntities) })
	g.Go(func() error { return batchWrite(gctx, policies, chunkSize, tx.WritePolicies) })

	if err := g.Wait(); err != nil {
		return err
	}

	commitErr := tx.Commit(ctx, !opts.SkipValidation)
	if commitErr == nil {
		committed = true
		return nil
	}

	var storeErr *storage.StoreError
	if opts.IgnoreValidationErrors && errors.As(commitErr, &storeErr) && storeErr.Kind == storage.KindValidation {
		if err := tx.Commit(ctx, false); err != nil {
			return fmt.Errorf("snapshot: committing after ignored validation failure: %w", err)
		}
		committed = true
		return &ValidationWarning{Err: commitErr}
	}
	return commitErr
}

// decodeEntries reads r line by line, unmarshals each SnapshotEntry,
// and routes its value onto the channel matching its tag. It closes
// every destination channel once r is exhausted or ctx is cancelled,
// so every batchWrite goroutine observes a clean end of stream.
func decodeEntries(
	ctx context.Context,
	r io.Reader,
	dataTypes chan<- storage.DataTypeWithMetadata,
	propertyTypes chan<- storage.PropertyTypeWithMetadata,
	entityTypes chan<- storage.EntityTypeWithMetadata,
	webs chan<- storage.WebRecord,
	actors chan<- storage.ActorRecord,
	roles chan<- storage.RoleRecord,
	entities chan<- entity.Entity,
	policies chan<- storage.PolicyRecord,
) error {
	defer close(dataTypes)
	defer close(propertyTypes)
	defer close(entityTypes)
	defer close(webs)
	defer close(actors)
	defer close(roles)
	defer close(entities)
	defer close(policies)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e SnapshotEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return storage.Wrap(storage.KindValidation, "restore_decode", fmt.Errorf("decoding snapshot entry: %w", err))
		}

		var sendErr error
		switch e.Type {
		case EntryDataType:
			sendErr = decodeAndSend(ctx, e.Value, dataTypes)
		case EntryPropertyType:
			sendErr = decodeAndSend(ctx, e.Value, propertyTypes)
		case EntryEntityType:
			sendErr = decodeAndSend(ctx, e.Value, entityTypes)
		case EntryWeb:
			sendErr = decodeAndSend(ctx, e.Value, webs)
		case EntryActor:
			sendErr = decodeAndSend(ctx, e.Value, actors)
		case EntryRole:
			sendErr = decodeAndSend(ctx, e.Value, roles)
		case EntryEntity:
			sendErr = decodeAndSend(ctx, e.Value, entities)
		case EntryPolicy:
			sendErr = decodeAndSend(ctx, e.Value, policies)
		default:
			sendErr = storage.Wrap(storage.KindValidation, "restore_decode", fmt.Errorf("unknown snapshot entry type %q", e.Type))
		}
		if sendErr != nil {
			return sendErr
		}
	}
	if err := scanner.Err(); err != nil {
		return storage.Wrap(storage.KindTransient, "restore_decode", err)
	}
	return nil
}

func decodeAndSend[T any](ctx context.Context, raw json.RawMessage, dst chan<- T) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return storage.Wrap(storage.KindValidation, "restore_decode", fmt.Errorf("decoding snapshot entry value: %w", err))
	}
	select {
	case dst <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// batchWrite accumulates values from in into chunkSize batches and
// hands each to write, the in-memory side of spec.md §4.9's
// `ready_chunks(chunk_size)` restore fan-in.
func batchWrite[T any](ctx context.Context, in <-chan T, chunkSize int, write func(context.Context, []T) error) error {
	batch := make([]T, 0, chunkSize)
	for v := range in {
		batch = append(batch, v)
		if len(batch) >= chunkSize {
			if err := write(ctx, batch); err != nil {
				return err
			}
			batch = make([]T, 0, chunkSize)
		}
	}
	if len(batch) > 0 {
		return write(ctx, batch)
	}
	return nil
}
