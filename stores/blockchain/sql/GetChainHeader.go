package sql

import (
	"context"
	"database/sql"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/tracing"
)

func (s *SQL) GetChainHeader(ctx context.Context, hash model.FixedHash) (*model.ChainHeader, error) {
	if ch, ok := s.headersCache.Get(hash); ok {
		return ch, nil
	}

	ctx, _, deferFn := tracing.StartTracing(ctx, "sql:GetChainHeader")

	var err error
	defer func() { deferFn(err) }()

	q := `
		SELECT
		 h.header
		,h.accumulated_data
		FROM headers h
		WHERE h.hash = $1
	`

	var headerBytes, accumulatedBytes []byte

	if err = s.db.QueryRowContext(ctx, q, hash[:]).Scan(&headerBytes, &accumulatedBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = errors.NewNotFoundError("header %s not found", hash)
			return nil, err
		}

		err = errors.NewStorageError("failed to get header %s", hash, err)

		return nil, err
	}

	var ch *model.ChainHeader

	if ch, err = decodeChainHeader(headerBytes, accumulatedBytes); err != nil {
		return nil, err
	}

	s.headersCache.Add(hash, ch)

	return ch, nil
}

func (s *SQL) HeaderExists(ctx context.Context, hash model.FixedHash) (bool, error) {
	if s.headersCache.Contains(hash) {
		return true, nil
	}

	start, stat, ctx := tracing.StartStatFromContext(ctx, "HeaderExists")
	defer func() {
		stat.AddTime(start)
	}()

	q := `
		SELECT h.height
		FROM headers h
		WHERE h.hash = $1
	`

	var height uint64
	if err := s.db.QueryRowContext(ctx, q, hash[:]).Scan(&height); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}

		return false, errors.NewStorageError("failed to check header %s", hash, err)
	}

	return true, nil
}

func decodeChainHeader(headerBytes, accumulatedBytes []byte) (*model.ChainHeader, error) {
	header, err := model.NewBlockHeaderFromBytes(headerBytes)
	if err != nil {
		return nil, errors.NewStorageError("stored header is corrupt", err)
	}

	accumulatedData, err := model.NewBlockHeaderAccumulatedDataFromBytes(accumulatedBytes)
	if err != nil {
		return nil, errors.NewStorageError("stored accumulated data is corrupt", err)
	}

	return model.TryConstructChainHeader(header, accumulatedData)
}
