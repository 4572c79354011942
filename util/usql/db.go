package usql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ordishs/gocore"
)

var (
	stat = gocore.NewStat("SQL")
)

// DB wraps *sql.DB and records the duration of every statement in the gocore SQL stat, keyed by the
// first word of the statement.
type DB struct {
	*sql.DB
	engine string
}

func Open(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, engine: driverName}, nil
}

// Engine is the driver name the database was opened with.
func (db *DB) Engine() string {
	return db.engine
}

func statName(query string) string {
	query = strings.TrimSpace(query)
	if i := strings.IndexAny(query, " \n\t"); i > 0 {
		return strings.ToUpper(query[:i])
	}

	return strings.ToUpper(query)
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat(statName(query)).AddTime(start)
	}()

	return db.DB.QueryContext(ctx, query, args...)
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat(statName(query)).AddTime(start)
	}()

	return db.DB.QueryRowContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat(statName(query)).AddTime(start)
	}()

	return db.DB.ExecContext(ctx, query, args...)
}

// BeginTx starts an instrumented transaction.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.DB.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}

	return &Tx{Tx: tx, start: gocore.CurrentTime()}, nil
}

// Tx wraps *sql.Tx. Statement durations go to the SQL stat, the whole transaction is recorded under
// COMMIT or ROLLBACK.
type Tx struct {
	*sql.Tx
	start time.Time
}

func (tx *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := gocore.CurrentTime()
	defer func() {
		stat.NewStat(statName(query)).AddTime(start)
	}()

	return tx.Tx.ExecContext(ctx, query, args...)
}

func (tx *Tx) Commit() error {
	defer stat.NewStat("COMMIT").AddTime(tx.start)

	return tx.Tx.Commit()
}

func (tx *Tx) Rollback() error {
	defer stat.NewStat("ROLLBACK").AddTime(tx.start)

	return tx.Tx.Rollback()
}
