package sql

import (
	"context"
	"database/sql"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
)

func (s *SQL) InsertBadBlock(ctx context.Context, hash model.FixedHash, height uint64, reason string) error {
	q := `
		INSERT INTO bad_blocks (hash, height, reason)
		VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO UPDATE
		SET reason = excluded.reason
	`

	if _, err := s.db.ExecContext(ctx, q, hash[:], int64(height), reason); err != nil {
		return errors.NewStorageError("failed to insert bad block %s", hash, err)
	}

	return nil
}

func (s *SQL) IsBadBlock(ctx context.Context, hash model.FixedHash) (bool, error) {
	q := `SELECT height FROM bad_blocks WHERE hash = $1`

	var height uint64
	if err := s.db.QueryRowContext(ctx, q, hash[:]).Scan(&height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, errors.NewStorageError("failed to check bad block %s", hash, err)
	}

	return true, nil
}

func (s *SQL) GetBadBlocks(ctx context.Context) ([]model.FixedHash, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hash FROM bad_blocks`)
	if err != nil {
		return nil, errors.NewStorageError("failed to get bad blocks", err)
	}

	defer rows.Close()

	hashes := make([]model.FixedHash, 0)

	for rows.Next() {
		var b []byte
		if err = rows.Scan(&b); err != nil {
			return nil, errors.NewStorageError("failed to scan bad block", err)
		}

		var hash model.FixedHash
		copy(hash[:], b)
		hashes = append(hashes, hash)
	}

	if err = rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to read bad blocks", err)
	}

	return hashes, nil
}

func (s *SQL) GetMoneroSeedHeight(ctx context.Context, seed []byte) (uint64, bool, error) {
	q := `SELECT first_seen_height FROM monero_seeds WHERE seed = $1`

	var height uint64
	if err := s.db.QueryRowContext(ctx, q, seed).Scan(&height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}

		return 0, false, errors.NewStorageError("failed to get monero seed height", err)
	}

	return height, true, nil
}
