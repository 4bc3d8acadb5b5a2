package ledger

import (
	"context"
	"time"

	"github.com/arnie-db/arnie/internal/retry"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type ConnectOptions struct {
	MaxAttempts int
	MaxTimeout  time.Duration
	Step        time.Duration
}

func NewDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: 60,
		MaxTimeout:  60 * time.Second,
		Step:        1 * time.Second,
	}
}

// Connect obtains a dedicated connection from the pool, retrying while the
// database comes up. This is connection bootstrap only: once a run is in
// flight nothing is ever retried.
func Connect(db *sqlx.DB, options *ConnectOptions) (*sqlx.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), options.MaxTimeout)
	defer cancel()

	var conn *sqlx.Conn
	if err := retry.Incremental(ctx, options.Step, options.MaxAttempts, func(attempt int) error {
		c, err := db.Connx(ctx)
		if err != nil {
			return errors.Wrap(err, "could not establish database connection")
		}

		conn = c
		return nil
	}); err != nil {
		return nil, err
	}

	return conn, nil
}
