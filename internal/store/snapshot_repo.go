package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/cadre-games/ordercore/internal/domain"
)

const snapshotCodec = "zstd"

// SnapshotRepo persists zstd-compressed world snapshots.
type SnapshotRepo struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewSnapshotRepo() (*SnapshotRepo, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &SnapshotRepo{enc: enc, dec: dec}, nil
}

// Save compresses the payload and inserts it as the snapshot for the tick.
func (r *SnapshotRepo) Save(ctx context.Context, db *sql.DB, tick int64, payload []byte, now int64) error {
	blob := r.enc.EncodeAll(payload, nil)

	const q = `INSERT INTO world_snapshots (tick, codec, blob, created_at)
VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, q, tick, snapshotCodec, blob, now)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// GetLatest returns the most recent snapshot with its payload decompressed
// into Blob. Returns nil if no snapshot exists.
func (r *SnapshotRepo) GetLatest(ctx context.Context, db *sql.DB) (*domain.WorldSnapshot, error) {
	const q = `SELECT id, tick, codec, blob, created_at
FROM world_snapshots
ORDER BY id DESC
LIMIT 1`

	row := db.QueryRowContext(ctx, q)

	var s domain.WorldSnapshot
	var blob []byte
	err := row.Scan(&s.ID, &s.Tick, &s.Codec, &blob, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}

	if s.Codec != snapshotCodec {
		return nil, domain.ErrSnapshotCorrupt.WithDetail("unknown codec " + s.Codec)
	}
	payload, err := r.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, domain.ErrSnapshotCorrupt.WithDetail(err.Error())
	}
	s.Blob = payload
	return &s, nil
}

// Prune deletes all but the newest keep snapshots.
func (r *SnapshotRepo) Prune(ctx context.Context, db *sql.DB, keep int) error {
	const q = `DELETE FROM world_snapshots
WHERE id NOT IN (SELECT id FROM world_snapshots ORDER BY id DESC LIMIT ?)`
	_, err := db.ExecContext(ctx, q, keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}
