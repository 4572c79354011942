package sql

import (
	"context"
	"database/sql"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/tracing"
	"github.com/tari-project/tari-sub016/util/usql"
)

func (s *SQL) GetState(ctx context.Context, key string) ([]byte, error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetState")

	var err error
	defer func() { deferFn(err) }()

	q := `
		SELECT data
		FROM state
		WHERE key = $1
	`

	var data []byte

	if err = s.db.QueryRowContext(ctx, q, key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.NewNotFoundError("state %s not found", key)
			return nil, err
		}

		err = errors.NewStorageError("failed to get state %s", key, err)

		return nil, err
	}

	return data, nil
}

func setState(ctx context.Context, tx *usql.Tx, key string, data []byte) error {
	q := `
		INSERT INTO state (key, data)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`

	if _, err := tx.ExecContext(ctx, q, key, data); err != nil {
		return errors.NewStorageError("failed to set state %s", key, err)
	}

	return nil
}

func (s *SQL) GetTipHash(ctx context.Context) (model.FixedHash, error) {
	data, err := s.GetState(ctx, tipStateKey)
	if err != nil {
		return model.FixedHash{}, err
	}

	var hash model.FixedHash
	if len(data) != len(hash) {
		return model.FixedHash{}, errors.NewStorageError("stored tip has %d bytes", len(data))
	}

	copy(hash[:], data)

	return hash, nil
}
