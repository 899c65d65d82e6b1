package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"mycase/internal/models"
)

// UpsertBotUser регистрирует пользователя бота или обновляет его имя и язык.
// UpsertBotUser registers a bot user or refreshes their name and language.
func (s *Store) UpsertBotUser(ctx context.Context, u models.BotUser) error {
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO bot_users (tg_id, display_name, username, language)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tg_id) DO UPDATE
			SET display_name = EXCLUDED.display_name,
			    username = EXCLUDED.username,
			    language = EXCLUDED.language`,
			u.TgID, u.DisplayName, u.Username, u.Language)
		return err
	})
	if err != nil {
		return fmt.Errorf("upsert bot user %d: %w", u.TgID, classify(err))
	}
	return nil
}

// GetBotUser возвращает пользователя вместе с числом его заказов.
func (s *Store) GetBotUser(ctx context.Context, tgID int64) (models.BotUser, error) {
	var u models.BotUser
	err := s.db.GetContext(ctx, &u, `
		SELECT u.tg_id, u.display_name, u.username, u.language, u.created_at,
		       (SELECT COUNT(*) FROM orders o WHERE o.user_id = u.tg_id) AS total_orders
		FROM bot_users u
		WHERE u.tg_id = $1`, tgID)
	if err != nil {
		return models.BotUser{}, fmt.Errorf("get bot user %d: %w", tgID, classify(err))
	}
	return u, nil
}
