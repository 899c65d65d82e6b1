package models

import "time"

// Design - готовый дизайн из каталога.
// Design is a ready-made catalog design.
type Design struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Slug      string    `db:"slug" json:"slug"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	Category  string    `db:"category" json:"category"`
	Brand     string    `db:"brand" json:"brand"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DesignFilter - фильтр каталога. Пустые поля не фильтруют.
type DesignFilter struct {
	Category   string
	Brand      string
	ActiveOnly bool
	Limit      int
	Random     bool
}
