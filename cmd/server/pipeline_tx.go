package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"launchpad/internal/pipeline"
	pipelinestore "launchpad/internal/pipeline/store"
	dErrors "launchpad/pkg/domain-errors"
)

const defaultPipelineTxTimeout = 5 * time.Second

// pipelinePostgresTx runs position-ledger mutations inside one database
// transaction. A mid-sequence failure rolls everything back so stage
// positions never end up gapped or duplicated.
type pipelinePostgresTx struct {
	db      *sql.DB
	logger  *slog.Logger
	timeout time.Duration
}

func newPipelinePostgresTx(db *sql.DB, logger *slog.Logger) *pipelinePostgresTx {
	return &pipelinePostgresTx{db: db, logger: logger}
}

func (t *pipelinePostgresTx) RunInTx(ctx context.Context, fn func(store pipeline.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultPipelineTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(pipelinestore.NewPostgresTx(tx, t.logger)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}
