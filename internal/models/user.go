package models

import "time"

// BotUser - пользователь Telegram, хотя бы раз запускавший бота.
// BotUser is a Telegram user who has started the bot at least once.
type BotUser struct {
	TgID        int64     `db:"tg_id" json:"tg_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Username    string    `db:"username" json:"username"`
	Language    string    `db:"language" json:"language"`
	TotalOrders int       `db:"total_orders" json:"total_orders"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
