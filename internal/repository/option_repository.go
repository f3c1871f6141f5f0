package repository

import (
	"context"
	"database/sql"
	"errors"

	"portal/internal/models"
)

var ErrOptionNotFound = errors.New("option not found")

type OptionRepository interface {
	List(ctx context.Context, autoLoadOnly bool) ([]models.Option, error)
	GetByName(ctx context.Context, name string) (*models.Option, error)
}

type optionRepository struct {
	db *sql.DB
}

func NewOptionRepository(db *sql.DB) OptionRepository {
	return &optionRepository{db: db}
}

func (r *optionRepository) List(ctx context.Context, autoLoadOnly bool) ([]models.Option, error) {
	query := `SELECT option_id, option_name, option_value, auto_load, option_group FROM options`
	if autoLoadOnly {
		query += ` WHERE auto_load = TRUE`
	}
	query += ` ORDER BY option_name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.Name, &o.Value, &o.AutoLoad, &o.Group); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (r *optionRepository) GetByName(ctx context.Context, name string) (*models.Option, error) {
	query := `SELECT option_id, option_name, option_value, auto_load, option_group FROM options WHERE option_name = $1`

	var o models.Option
	err := r.db.QueryRowContext(ctx, query, name).Scan(&o.ID, &o.Name, &o.Value, &o.AutoLoad, &o.Group)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOptionNotFound
		}
		return nil, err
	}
	return &o, nil
}
