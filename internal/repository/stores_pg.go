package repository

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scanreview/reconciler/internal/common"
	"github.com/scanreview/reconciler/internal/entity"
)

type pgStoreRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewStoreRepository(pool *pgxpool.Pool, logger *slog.Logger) StoreRepository {
	return &pgStoreRepo{pool: pool, logger: logger}
}

func (r *pgStoreRepo) ResolveStores(ctx context.Context, nameFragment string) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM stores WHERE name ILIKE '%' || $1 || '%'`, nameFragment)
	if err != nil {
		r.logger.Error("failed to resolve stores", "fragment", nameFragment, "error", err)
		return nil, common.WrapError(err, "resolve stores")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, common.WrapError(err, "scan store id")
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *pgStoreRepo) CreateStore(ctx context.Context, store *entity.StoreIdentity) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO stores (id, name) VALUES ($1, $2)`, store.ID, store.Name)
	if err != nil {
		r.logger.Error("failed to create store", "store_id", store.ID, "error", err)
		return common.WrapError(err, "create store")
	}
	return nil
}
