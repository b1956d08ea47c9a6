package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
)

type PgxEntityRepository struct {
	BaseRepository
}

// newPgxEntityRepository creates a new repository for entity data.
func newPgxEntityRepository(pool *pgxpool.Pool) portsrepo.EntityRepositoryWithTx {
	return &PgxEntityRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxEntityRepository implements portsrepo.EntityRepositoryWithTx
var _ portsrepo.EntityRepositoryWithTx = (*PgxEntityRepository)(nil)

var FULL_ENTITY_SELECT_QUERY = `
SELECT
	e.entity_id, e.name, e.slug, e.description, e.last_closing_date,
	e.version, e.created_at, e.created_by, e.last_updated_at, e.last_updated_by
FROM entities e
`

// getEntities private func to get entities from the select query filters
func (r *PgxEntityRepository) getEntities(ctx context.Context, filterQuery string, args ...any) ([]domain.Entity, error) {
	query := FULL_ENTITY_SELECT_QUERY + filterQuery
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query entities", err)
	}
	defer rows.Close()
	domainEntities, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Entity])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) { // It's possible to get no rows, which is not an error for a list.
			return []domain.Entity{}, nil
		}
		return nil, apperrors.NewAppError(500, "failed to collect entity rows", err)
	}

	return domainEntities, nil
}

func (r *PgxEntityRepository) SaveEntity(ctx context.Context, entity domain.Entity) error {
	query := `
		INSERT INTO entities (
			entity_id, name, slug, description, last_closing_date,
			version, created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		entity.EntityID,
		entity.Name,
		entity.Slug,
		entity.Description,
		entity.LastClosingDate,
		entity.Version,
		entity.CreatedAt,
		entity.CreatedBy,
		entity.LastUpdatedAt,
		entity.LastUpdatedBy,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" { // unique_violation, entity_id or slug
				return apperrors.NewConflictError("entity " + entity.EntityID + " or slug " + entity.Slug + " already exists")
			}
		}
		return apperrors.NewAppError(500, "failed to save entity "+entity.EntityID, err)
	}
	return nil
}

func (r *PgxEntityRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	query := `WHERE e.entity_id = $1`
	entities, err := r.getEntities(ctx, query, entityID)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &entities[0], nil
}

func (r *PgxEntityRepository) FindEntityBySlug(ctx context.Context, slug string) (*domain.Entity, error) {
	query := `WHERE e.slug = $1`
	entities, err := r.getEntities(ctx, query, slug)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &entities[0], nil
}

// GetEntityClosingDate reads only the closing date column. The closed-period
// check runs on every journal entry write, so this avoids loading the full row.
func (r *PgxEntityRepository) GetEntityClosingDate(ctx context.Context, entityID string) (*time.Time, error) {
	query := `SELECT last_closing_date FROM entities WHERE entity_id = $1;`
	var closingDate *time.Time
	err := r.Pool.QueryRow(ctx, query, entityID).Scan(&closingDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("entity " + entityID + " not found")
		}
		return nil, apperrors.NewAppError(500, "failed to read closing date for entity "+entityID, err)
	}
	return closingDate, nil
}

func (r *PgxEntityRepository) ListEntitiesByUserID(ctx context.Context, userID string) ([]domain.Entity, error) {
	query := `
		JOIN user_entities ue ON e.entity_id = ue.entity_id
		WHERE ue.user_id = $1 AND ue.role != $2
		ORDER BY e.name;
	`
	entities, err := r.getEntities(ctx, query, userID, domain.RoleRemoved)
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// UpdateEntityClosingDate moves the closing date boundary using optimistic
// locking. A stale version means a concurrent close happened, which surfaces
// as a conflict rather than a silent overwrite.
func (r *PgxEntityRepository) UpdateEntityClosingDate(ctx context.Context, entity domain.Entity) error {
	query := `
		UPDATE entities
		SET last_closing_date = $1, last_updated_at = $2, last_updated_by = $3, version = version + 1
		WHERE entity_id = $4 AND version = $5;
	`
	result, err := r.Pool.Exec(ctx, query,
		entity.LastClosingDate,
		entity.LastUpdatedAt,
		entity.LastUpdatedBy,
		entity.EntityID,
		entity.Version,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update closing date for entity "+entity.EntityID, err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NewConflictError("entity " + entity.EntityID + " was modified concurrently")
	}

	return nil
}

func (r *PgxEntityRepository) AddUserToEntity(ctx context.Context, membership domain.UserEntity) error {
	query := `
		INSERT INTO user_entities (user_id, entity_id, role, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, entity_id) DO UPDATE SET role = EXCLUDED.role;
	` // Upsert: Add user or update their role if they already exist
	_, err := r.Pool.Exec(ctx, query,
		membership.UserID,
		membership.EntityID,
		membership.Role,
		membership.JoinedAt,
	)

	if err != nil {
		return apperrors.NewAppError(500, "failed to add/update user "+membership.UserID+" in entity "+membership.EntityID, err)
	}
	return nil
}

func (r *PgxEntityRepository) FindUserEntityRole(ctx context.Context, userID, entityID string) (*domain.UserEntity, error) {
	query := `
		SELECT user_id, entity_id, role, joined_at
		FROM user_entities
		WHERE user_id = $1 AND entity_id = $2;
	`
	var ue domain.UserEntity
	err := r.Pool.QueryRow(ctx, query, userID, entityID).Scan(
		&ue.UserID,
		&ue.EntityID,
		&ue.Role,
		&ue.JoinedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user " + userID + " is not a member of entity " + entityID)
		}
		return nil, apperrors.NewAppError(500, "failed to find role for user "+userID+" in entity "+entityID, err)
	}
	return &ue, nil
}

// ListUsersByEntityID retrieves the memberships of an entity, excluding
// users whose role was flipped to REMOVED.
func (r *PgxEntityRepository) ListUsersByEntityID(ctx context.Context, entityID string) ([]domain.UserEntity, error) {
	query := `
		SELECT ue.user_id, u.name as user_name, ue.entity_id, ue.role, ue.joined_at
		FROM user_entities ue
		JOIN users u ON ue.user_id = u.user_id
		WHERE ue.entity_id = $1 AND ue.role != $2
		ORDER BY ue.joined_at DESC;
	`
	rows, err := r.Pool.Query(ctx, query, entityID, domain.RoleRemoved)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query users for entity "+entityID, err)
	}
	defer rows.Close()

	var memberships []domain.UserEntity
	for rows.Next() {
		var ue domain.UserEntity
		err := rows.Scan(
			&ue.UserID,
			&ue.UserName,
			&ue.EntityID,
			&ue.Role,
			&ue.JoinedAt,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan user entity row", err)
		}
		memberships = append(memberships, ue)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating user entity rows", err)
	}

	return memberships, nil
}
