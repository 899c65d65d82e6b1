package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy удаляет любую разметку и экранирует спецсимволы HTML.
var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText готовит пользовательский текст для сообщений с ParseMode HTML.
// SanitizeText prepares user text for messages sent with the HTML parse mode.
func SanitizeText(text string) string {
	return strictPolicy.Sanitize(strings.TrimSpace(text))
}
