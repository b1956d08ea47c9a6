package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/ledgerkeep/ledgerkeep/internal/apperrors"
	"github.com/ledgerkeep/ledgerkeep/internal/core/domain"
	portsrepo "github.com/ledgerkeep/ledgerkeep/internal/core/ports/repositories"
)

type SQLiteEntityRepository struct {
	db *sql.DB
}

// newSQLiteEntityRepository creates a new repository for entity data.
func newSQLiteEntityRepository(db *sql.DB) portsrepo.EntityRepositoryFacade {
	return &SQLiteEntityRepository{db: db}
}

// Ensure SQLiteEntityRepository implements portsrepo.EntityRepositoryFacade
var _ portsrepo.EntityRepositoryFacade = (*SQLiteEntityRepository)(nil)

const entityColumns = `entity_id, name, slug, description, last_closing_date, version,
	       created_at, created_by, last_updated_at, last_updated_by`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntityRow(row rowScanner) (domain.Entity, error) {
	var e domain.Entity
	err := row.Scan(
		&e.EntityID,
		&e.Name,
		&e.Slug,
		&e.Description,
		&e.LastClosingDate,
		&e.Version,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	return e, err
}

func (r *SQLiteEntityRepository) SaveEntity(ctx context.Context, entity domain.Entity) error {
	query := `
		INSERT INTO entities (` + entityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, query,
		entity.EntityID,
		entity.Name,
		entity.Slug,
		entity.Description,
		utcOrNil(entity.LastClosingDate),
		entity.Version,
		utc(entity.CreatedAt),
		entity.CreatedBy,
		utc(entity.LastUpdatedAt),
		entity.LastUpdatedBy,
	)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
			return apperrors.NewConflictError("entity " + entity.EntityID + " or slug " + entity.Slug + " already exists")
		}
		return fmt.Errorf("failed to save entity %s: %w", entity.EntityID, err)
	}
	return nil
}

func (r *SQLiteEntityRepository) FindEntityByID(ctx context.Context, entityID string) (*domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE entity_id = ?;`
	entity, err := scanEntityRow(r.db.QueryRowContext(ctx, query, entityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entity by ID %s: %w", entityID, err)
	}
	return &entity, nil
}

func (r *SQLiteEntityRepository) FindEntityBySlug(ctx context.Context, slug string) (*domain.Entity, error) {
	query := `SELECT ` + entityColumns + ` FROM entities WHERE slug = ?;`
	entity, err := scanEntityRow(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find entity by slug %s: %w", slug, err)
	}
	return &entity, nil
}

func (r *SQLiteEntityRepository) GetEntityClosingDate(ctx context.Context, entityID string) (*time.Time, error) {
	query := `SELECT last_closing_date FROM entities WHERE entity_id = ?;`
	var closingDate *time.Time
	err := r.db.QueryRowContext(ctx, query, entityID).Scan(&closingDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("entity " + entityID + " not found")
		}
		return nil, fmt.Errorf("failed to read closing date for entity %s: %w", entityID, err)
	}
	return closingDate, nil
}

func (r *SQLiteEntityRepository) ListEntitiesByUserID(ctx context.Context, userID string) ([]domain.Entity, error) {
	query := `
		SELECT e.entity_id, e.name, e.slug, e.description, e.last_closing_date, e.version,
		       e.created_at, e.created_by, e.last_updated_at, e.last_updated_by
		FROM entities e
		JOIN user_entities ue ON e.entity_id = ue.entity_id
		WHERE ue.user_id = ? AND ue.role != ?
		ORDER BY e.name;
	`
	rows, err := r.db.QueryContext(ctx, query, userID, domain.RoleRemoved)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities for user %s: %w", userID, err)
	}
	defer rows.Close()

	entities := []domain.Entity{}
	for rows.Next() {
		entity, scanErr := scanEntityRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", scanErr)
		}
		entities = append(entities, entity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entity rows: %w", err)
	}

	return entities, nil
}

func (r *SQLiteEntityRepository) UpdateEntityClosingDate(ctx context.Context, entity domain.Entity) error {
	query := `
		UPDATE entities
		SET last_closing_date = ?, last_updated_at = ?, last_updated_by = ?, version = version + 1
		WHERE entity_id = ? AND version = ?;
	`
	result, err := r.db.ExecContext(ctx, query,
		utcOrNil(entity.LastClosingDate),
		utc(entity.LastUpdatedAt),
		entity.LastUpdatedBy,
		entity.EntityID,
		entity.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update closing date for entity %s: %w", entity.EntityID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected for entity %s: %w", entity.EntityID, err)
	}
	if affected == 0 {
		return apperrors.NewConflictError("entity " + entity.EntityID + " was modified concurrently")
	}

	return nil
}

func (r *SQLiteEntityRepository) AddUserToEntity(ctx context.Context, membership domain.UserEntity) error {
	query := `
		INSERT INTO user_entities (user_id, entity_id, role, joined_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, entity_id) DO UPDATE SET role = excluded.role;
	` // Upsert: Add user or update their role if they already exist
	_, err := r.db.ExecContext(ctx, query,
		membership.UserID,
		membership.EntityID,
		membership.Role,
		utc(membership.JoinedAt),
	)

	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return apperrors.NewValidationFailedError("user or entity does not exist")
		}
		return fmt.Errorf("failed to add/update user %s in entity %s: %w", membership.UserID, membership.EntityID, err)
	}
	return nil
}

func (r *SQLiteEntityRepository) FindUserEntityRole(ctx context.Context, userID, entityID string) (*domain.UserEntity, error) {
	query := `
		SELECT user_id, entity_id, role, joined_at
		FROM user_entities
		WHERE user_id = ? AND entity_id = ?;
	`
	var ue domain.UserEntity
	err := r.db.QueryRowContext(ctx, query, userID, entityID).Scan(
		&ue.UserID,
		&ue.EntityID,
		&ue.Role,
		&ue.JoinedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("user " + userID + " is not a member of entity " + entityID)
		}
		return nil, fmt.Errorf("failed to find role for user %s in entity %s: %w", userID, entityID, err)
	}
	return &ue, nil
}

func (r *SQLiteEntityRepository) ListUsersByEntityID(ctx context.Context, entityID string) ([]domain.UserEntity, error) {
	query := `
		SELECT ue.user_id, u.name as user_name, ue.entity_id, ue.role, ue.joined_at
		FROM user_entities ue
		JOIN users u ON ue.user_id = u.user_id
		WHERE ue.entity_id = ? AND ue.role != ?
		ORDER BY ue.joined_at DESC;
	`
	rows, err := r.db.QueryContext(ctx, query, entityID, domain.RoleRemoved)
	if err != nil {
		return nil, fmt.Errorf("failed to query users for entity %s: %w", entityID, err)
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
			return nil, fmt.Errorf("failed to scan user entity row: %w", err)
		}
		memberships = append(memberships, ue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user entity rows: %w", err)
	}

	return memberships, nil
}
