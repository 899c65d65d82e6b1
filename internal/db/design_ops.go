package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"mycase/internal/models"
)

const designColumns = `id, title, slug, image_url, category, brand, is_active, created_at`

// ListDesigns возвращает дизайны каталога по фильтру.
// ListDesigns returns catalog designs matching the filter.
func (s *Store) ListDesigns(ctx context.Context, f models.DesignFilter) ([]models.Design, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.ActiveOnly {
		where = append(where, "is_active")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Brand != "" {
		args = append(args, f.Brand)
		where = append(where, fmt.Sprintf("brand = $%d", len(args)))
	}

	query := `SELECT ` + designColumns + ` FROM designs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	if f.Random {
		query += ` ORDER BY random()`
	} else {
		query += ` ORDER BY created_at DESC, id DESC`
	}
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	designs := []models.Design{}
	if err := s.db.SelectContext(ctx, &designs, query, args...); err != nil {
		return nil, fmt.Errorf("list designs: %w", classify(err))
	}
	return designs, nil
}

// ListCategories - непустые категории активных дизайнов.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	categories := []string{}
	err := s.db.SelectContext(ctx, &categories,
		`SELECT DISTINCT category FROM designs WHERE is_active AND category <> '' ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", classify(err))
	}
	return categories, nil
}

// ListBrands - бренды активных дизайнов внутри категории (пустая категория - все).
// ListBrands lists brands of active designs inside a category (empty category means all).
func (s *Store) ListBrands(ctx context.Context, category string) ([]string, error) {
	brands := []string{}
	query := `SELECT DISTINCT brand FROM designs WHERE is_active AND brand <> ''`
	var args []interface{}
	if category != "" {
		query += ` AND category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY brand`
	if err := s.db.SelectContext(ctx, &brands, query, args...); err != nil {
		return nil, fmt.Errorf("list brands: %w", classify(err))
	}
	return brands, nil
}

// GetDesignBySlug возвращает дизайн по slug. activeOnly скрывает выключенные дизайны.
func (s *Store) GetDesignBySlug(ctx context.Context, slug string, activeOnly bool) (models.Design, error) {
	query := `SELECT ` + designColumns + ` FROM designs WHERE slug = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	var design models.Design
	if err := s.db.GetContext(ctx, &design, query, slug); err != nil {
		return models.Design{}, fmt.Errorf("get design %q: %w", slug, classify(err))
	}
	return design, nil
}

// GetDesign возвращает дизайн по ID.
func (s *Store) GetDesign(ctx context.Context, id int64) (models.Design, error) {
	var design models.Design
	if err := s.db.GetContext(ctx, &design, `SELECT `+designColumns+` FROM designs WHERE id = $1`, id); err != nil {
		return models.Design{}, fmt.Errorf("get design %d: %w", id, classify(err))
	}
	return design, nil
}

// CreateDesign добавляет дизайн. Повтор slug дает ErrConstraint.
// CreateDesign inserts a design. A duplicate slug yields ErrConstraint.
func (s *Store) CreateDesign(ctx context.Context, d *models.Design) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, `
			INSERT INTO designs (title, slug, image_url, category, brand, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			d.Title, d.Slug, d.ImageURL, d.Category, d.Brand, d.IsActive,
		).Scan(&d.ID, &d.CreatedAt)
	})
	if err != nil {
		return fmt.Errorf("create design %q: %w", d.Slug, classify(err))
	}
	s.log.Info("design created", zap.Int64("design_id", d.ID), zap.String("slug", d.Slug))
	return nil
}

// UpdateDesign перезаписывает редактируемые поля дизайна.
func (s *Store) UpdateDesign(ctx context.Context, d models.Design) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE designs SET title = $1, slug = $2, image_url = $3, category = $4, brand = $5, is_active = $6
			WHERE id = $7`,
			d.Title, d.Slug, d.ImageURL, d.Category, d.Brand, d.IsActive, d.ID)
		if err != nil {
			return err
		}
		return requireOneRow(res)
	})
	if err != nil {
		return fmt.Errorf("update design %d: %w", d.ID, classify(err))
	}
	s.log.Info("design updated", zap.Int64("design_id", d.ID))
	return nil
}

// DeleteDesign удаляет дизайн. Если на него ссылаются заказы - ErrConstraint.
// DeleteDesign removes a design. Designs referenced by orders yield ErrConstraint.
func (s *Store) DeleteDesign(ctx context.Context, id int64) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM designs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		return requireOneRow(res)
	})
	if err != nil {
		return fmt.Errorf("delete design %d: %w", id, classify(err))
	}
	s.log.Info("design deleted", zap.Int64("design_id", id))
	return nil
}
