// Package sql is the relational blockchain backend. It runs on sqlite (file or shared memory) and on
// postgres with the same schema and queries.
package sql

import (
	"context"
	"net/url"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/lib/pq"
	"github.com/ordishs/gocore"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/model"
	"github.com/tari-project/tari-sub016/settings"
	"github.com/tari-project/tari-sub016/ulogger"
	"github.com/tari-project/tari-sub016/util"
	"github.com/tari-project/tari-sub016/util/usql"
	_ "modernc.org/sqlite"
)

const tipStateKey = "tip"

type SQL struct {
	db           *usql.DB
	engine       util.SQLEngine
	logger       ulogger.Logger
	headersCache *lru.Cache[model.FixedHash, *model.ChainHeader]
}

func init() {
	gocore.NewStat("blockchain")
}

func New(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (*SQL, error) {
	logger = logger.New("bcsql")

	db, err := util.InitSQLDB(logger, storeURL, tSettings)
	if err != nil {
		return nil, errors.NewStorageUnavailableError("failed to init sql db", err)
	}

	engine := util.SQLEngine(storeURL.Scheme)

	switch engine {
	case util.Postgres:
		err = createSchema(db, "BYTEA")
	case util.Sqlite, util.SqliteMemory:
		err = createSchema(db, "BLOB")
	default:
		err = errors.NewConfigurationError("unknown database engine: %s", storeURL.Scheme)
	}

	if err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheSize := tSettings.BlockChain.HeaderCacheSize
	if cacheSize <= 0 {
		cacheSize = 1
	}

	headersCache, err := lru.New[model.FixedHash, *model.ChainHeader](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, errors.NewConfigurationError("failed to create header cache", err)
	}

	return &SQL{
		db:           db,
		engine:       engine,
		logger:       logger,
		headersCache: headersCache,
	}, nil
}

func (s *SQL) GetDB() *usql.DB {
	return s.db
}

func (s *SQL) GetDBEngine() util.SQLEngine {
	return s.engine
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func createSchema(db *usql.DB, blobType string) error {
	ctx := context.Background()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS state (
			key        VARCHAR(32) PRIMARY KEY,
			data       ` + blobType + ` NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS headers (
			hash             ` + blobType + ` PRIMARY KEY,
			previous_hash    ` + blobType + ` NOT NULL,
			height           BIGINT NOT NULL,
			header           ` + blobType + ` NOT NULL,
			accumulated_data ` + blobType + ` NOT NULL,
			inserted_at      TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_headers_height ON headers (height);`,
		`CREATE TABLE IF NOT EXISTS bad_blocks (
			hash        ` + blobType + ` PRIMARY KEY,
			height      BIGINT NOT NULL,
			reason      TEXT NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS monero_seeds (
			seed              ` + blobType + ` PRIMARY KEY,
			first_seen_height BIGINT NOT NULL
		);`,
	}

	for _, q := range statements {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return errors.NewStorageError("could not create blockchain schema", err)
		}
	}

	return nil
}
