// Package rbac resolves permissions for auditor operators. This is about
// who may look at the audit output; the audited site's own roles live in
// the snapshot package and are never consulted here.
package rbac

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Service resolves operator permissions from PostgreSQL.
type Service struct {
	pool *pgxpool.Pool
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

var _ PermissionSource = (*Service)(nil)

// EffectivePermissions returns the permission names granted to an operator.
func (s *Service) EffectivePermissions(ctx context.Context, operatorID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT permission FROM operator_permissions WHERE operator_id = $1 ORDER BY permission`, operatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}
