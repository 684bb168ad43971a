package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"
	"github.com/Temutjin2k/fieldtrack/pkg/metrics"
	"github.com/Temutjin2k/fieldtrack/pkg/trm"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

func TxorDB(ctx context.Context, db Querier) Querier {
	tx, ok := ctx.Value(trm.TxKey).(pgx.Tx)
	if !ok {
		return db
	}
	return tx
}

// persistence hides the driver error behind ErrPersistence; only its text is kept.
func persistence(ctx context.Context, op string, err error) error {
	ctx = wrap.WithAction(ctx, types.ActionDatabaseTransactionFailed)
	return wrap.Error(ctx, fmt.Errorf("%s: %w: %v", op, types.ErrPersistence, err))
}

func observe(op string, start time.Time, err error) {
	metrics.RecordDatabaseQuery(string(types.JourneyService), op, err, time.Since(start))
}
