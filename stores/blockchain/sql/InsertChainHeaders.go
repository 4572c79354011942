package sql

import (
	"context"
	"database/sql"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/stores/blockchain/options"
	"github.com/tari-project/tari-sub016/tracing"
)

// InsertChainHeaders writes headers, their monero seeds and the new tip in one transaction.
func (s *SQL) InsertChainHeaders(ctx context.Context, headers []*model.ChainHeader, opts ...options.InsertHeadersOption) error {
	if len(headers) == 0 {
		return nil
	}

	o := options.ProcessInsertHeadersOptions(opts...)

	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:InsertChainHeaders")

	var err error
	defer func() { deferFn(err) }()

	if err = s.insertChainHeaders(ctx, headers, o); err != nil {
		return err
	}

	for _, ch := range headers {
		s.headersCache.Add(ch.Hash(), ch)
	}

	return nil
}

func (s *SQL) insertChainHeaders(ctx context.Context, headers []*model.ChainHeader, o *options.InsertHeadersOptions) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStorageUnavailableError("failed to begin transaction", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	existsQ := `SELECT height FROM headers WHERE hash = $1`

	insertQ := `
		INSERT INTO headers (hash, previous_hash, height, header, accumulated_data)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, ch := range headers {
		hash := ch.Hash()

		var height uint64

		scanErr := tx.QueryRowContext(ctx, existsQ, hash[:]).Scan(&height)
		if scanErr == nil {
			err = errors.NewHeaderAlreadyExistsError("header %s already exists", hash)
			return err
		} else if !errors.Is(scanErr, sql.ErrNoRows) {
			err = errors.NewStorageError("failed to check header %s", hash, scanErr)
			return err
		}

		header := ch.Header()

		if _, err = tx.ExecContext(ctx, insertQ,
			hash[:],
			header.PrevHash[:],
			int64(header.Height),
			header.Bytes(),
			ch.AccumulatedData().Bytes(),
		); err != nil {
			err = errors.NewStorageError("failed to insert header %s", hash, err)
			return err
		}
	}

	seedQ := `
		INSERT INTO monero_seeds (seed, first_seen_height)
		VALUES ($1, $2)
		ON CONFLICT (seed) DO UPDATE
		SET first_seen_height = excluded.first_seen_height
		WHERE excluded.first_seen_height < monero_seeds.first_seen_height
	`

	for _, seed := range o.MoneroSeeds {
		if _, err = tx.ExecContext(ctx, seedQ, seed.Key, int64(seed.Height)); err != nil {
			err = errors.NewStorageError("failed to insert monero seed", err)
			return err
		}
	}

	if !o.SkipTipUpdate {
		tip := headers[len(headers)-1].Hash()
		if err = setState(ctx, tx, tipStateKey, tip[:]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = errors.NewStorageError("failed to commit headers", err)
		return err
	}

	return nil
}
