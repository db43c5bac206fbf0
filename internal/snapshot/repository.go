package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TABARC-Code/wp-user-capability-drift-auditor/internal/shared"
)

// Repository reads the host's role and user state from the mirror tables
// in PostgreSQL. It implements Source.
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{pool: pool, logger: logger}
}

// ListRoles returns the full role snapshot keyed by role key.
func (r *Repository) ListRoles(ctx context.Context) (map[string]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_key, display_name, capabilities FROM roles ORDER BY role_key`)
	if err != nil {
		return nil, describeQueryError("list roles", err)
	}
	defer rows.Close()

	roles := make(map[string]Role)
	for rows.Next() {
		var key, name string
		var rawCaps []byte
		if err := rows.Scan(&key, &name, &rawCaps); err != nil {
			return nil, fmt.Errorf("snapshot: scan role: %w", err)
		}
		roles[key] = Role{Name: name, Capabilities: r.decodeCapMap(rawCaps, "role", key)}
	}
	if err := rows.Err(); err != nil {
		return nil, describeQueryError("list roles", err)
	}
	return roles, nil
}

// ListUserIDs enumerates every account id, ordered for reproducible audit
// output.
func (r *Repository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM site_users ORDER BY id`)
	if err != nil {
		return nil, describeQueryError("list user ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("snapshot: scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, describeQueryError("list user ids", err)
	}
	return ids, nil
}

// ResolveUser fetches full capability detail for one account. The bulk
// enumeration does not include it, so this is a secondary per-user read.
func (r *Repository) ResolveUser(ctx context.Context, id int64) (*User, error) {
	var login, email string
	var rawCaps, rawEffective []byte
	err := r.pool.QueryRow(ctx,
		`SELECT login, email, caps, effective_caps FROM site_users WHERE id = $1`, id,
	).Scan(&login, &email, &rawCaps, &rawEffective)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, describeQueryError("resolve user", err)
	}

	roles, err := r.userRoles(ctx, id)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:            id,
		Login:         login,
		Email:         email,
		Roles:         roles,
		Caps:          r.decodeCapMap(rawCaps, "user", login),
		EffectiveCaps: r.decodeCapMap(rawEffective, "user", login),
	}, nil
}

func (r *Repository) userRoles(ctx context.Context, id int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_key FROM site_user_roles WHERE user_id = $1`, id)
	if err != nil {
		return nil, describeQueryError("user roles", err)
	}
	defer rows.Close()

	// Empty, not nil: role lists end up in JSON exports as arrays.
	roles := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("snapshot: scan user role: %w", err)
		}
		roles = append(roles, key)
	}
	if err := rows.Err(); err != nil {
		return nil, describeQueryError("user roles", err)
	}
	sort.Strings(roles)
	return roles, nil
}

// decodeCapMap tolerates malformed capability JSON: a broken blob for one
// entity degrades to an empty set instead of aborting the whole audit.
func (r *Repository) decodeCapMap(raw []byte, kind, key string) map[string]bool {
	if len(raw) == 0 {
		return map[string]bool{}
	}
	caps := make(map[string]bool)
	if err := json.Unmarshal(raw, &caps); err != nil {
		r.logger.Warn("malformed capability data, treating as empty",
			slog.String("kind", kind),
			slog.String("key", key),
			slog.Any("error", err),
		)
		return map[string]bool{}
	}
	return caps
}

func describeQueryError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("snapshot: %s: %s (%s)", op, pgErr.Message, pgErr.Code)
	}
	return fmt.Errorf("snapshot: %s: %w", op, err)
}

var _ Source = (*Repository)(nil)
