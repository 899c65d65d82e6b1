// Файл: internal/utils/formatters.go

package utils

import (
	"strings"
	"time"

	"mycase/internal/constants"
)

// FormatOrderDate форматирует дату заказа для сообщений.
func FormatOrderDate(t time.Time) string {
	if t.IsZero() {
		return "не указана"
	}
	return t.Local().Format(constants.ORDER_DATE_LAYOUT)
}

// DisplayName собирает имя из имени и фамилии Telegram; при их отсутствии - username.
// DisplayName joins a Telegram first and last name, falling back to the username.
func DisplayName(firstName, lastName, username string) string {
	name := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	if name != "" {
		return name
	}
	if username != "" {
		return "@" + username
	}
	return "клиент"
}

// MentionUsername возвращает "@username" или запасной текст.
func MentionUsername(username, fallback string) string {
	if username == "" {
		return fallback
	}
	return "@" + username
}
