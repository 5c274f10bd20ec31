package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"messageboard/internal/microservices/http-api/models"
)

// undefined_table
const pgUndefinedTable = "42P01"

type postgresMessageRepository struct {
	db    *gorm.DB
	table string
}

// NewPostgresMessageRepository maps one tenant to one PostgreSQL table.
func NewPostgresMessageRepository(db *gorm.DB, table string) MessageRepository {
	return &postgresMessageRepository{db: db, table: table}
}

// PostgresFactory returns a StoreFactory sharing one connection pool across tables.
func PostgresFactory(db *gorm.DB) StoreFactory {
	return func(table string) MessageRepository {
		return NewPostgresMessageRepository(db, table)
	}
}

func (r *postgresMessageRepository) Table() string {
	return r.table
}

func (r *postgresMessageRepository) Exists(ctx context.Context) (bool, error) {
	defer observe("postgres", "describe", time.Now())

	var exists bool
	err := r.db.WithContext(ctx).
		Raw("SELECT to_regclass(?) IS NOT NULL", pgx.Identifier{r.table}.Sanitize()).
		Scan(&exists).Error
	if err != nil {
		return false, r.wrap(err)
	}
	return exists, nil
}

func (r *postgresMessageRepository) Get(ctx context.Context, id string) (*models.Message, error) {
	defer observe("postgres", "get", time.Now())

	var m models.Message
	err := r.db.WithContext(ctx).Table(r.table).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, r.wrap(err)
	}
	return &m, nil
}

func (r *postgresMessageRepository) Put(ctx context.Context, message *models.Message) error {
	defer observe("postgres", "put", time.Now())

	err := r.db.WithContext(ctx).Table(r.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(message).Error
	if err != nil {
		return r.wrap(err)
	}
	return nil
}

func (r *postgresMessageRepository) Delete(ctx context.Context, id string) error {
	defer observe("postgres", "delete", time.Now())

	if err := r.db.WithContext(ctx).Table(r.table).Where("id = ?", id).Delete(&models.Message{}).Error; err != nil {
		return r.wrap(err)
	}
	return nil
}

func (r *postgresMessageRepository) RangeQuery(ctx context.Context, roomID string, start, end int64) ([]models.Message, error) {
	defer observe("postgres", "query", time.Now())

	messages := make([]models.Message, 0)
	err := r.db.WithContext(ctx).Table(r.table).
		Where(`room_id = ? AND "timestamp" BETWEEN ? AND ?`, roomID, start, end).
		Order(`"timestamp" ASC`).
		Find(&messages).Error
	if err != nil {
		return nil, r.wrap(err)
	}
	return messages, nil
}

func (r *postgresMessageRepository) wrap(err error) error {
	return mapPostgresError(r.table, err)
}

func mapPostgresError(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedTable {
		return fmt.Errorf("%w: %s", ErrStoreNotFound, table)
	}
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
