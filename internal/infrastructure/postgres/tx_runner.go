package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sisfac/sisfac-api/internal/application/billing"
	"github.com/sisfac/sisfac-api/internal/domain/repository"
)

var _ billing.SunatTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunSunat inicia una transacción, ejecuta fn con repos de comprobantes y envíos atados a la tx
// y hace Commit o Rollback.
func (r *TxRunner) RunSunat(ctx context.Context, fn func(
	docRepo repository.SunatDocumentRepository,
	subRepo repository.SunatSubmissionRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	docRepo := NewSunatDocumentRepository(tx)
	subRepo := NewSunatSubmissionRepository(tx)

	if err := fn(docRepo, subRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
