package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// phoneRegex: необязательный "+" и только цифры.
var phoneRegex = regexp.MustCompile(`^\+?\d+$`)

// phoneNoise - символы, которые люди ставят в номер для читаемости.
var phoneNoise = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// NormalizePhone убирает пробелы, дефисы и скобки.
func NormalizePhone(phone string) string {
	return phoneNoise.Replace(strings.TrimSpace(phone))
}

// IsValidPhone проверяет нормализованный номер: 6-16 символов, "+" только в начале.
// IsValidPhone checks a normalized number: 6-16 chars, optional leading "+".
func IsValidPhone(phone string) bool {
	n := len(phone)
	return n >= 6 && n <= 16 && phoneRegex.MatchString(phone)
}

// ParseOrderID разбирает номер заказа, введенный пользователем ("123" или "#123").
// ParseOrderID parses an order number typed by a user ("123" or "#123").
func ParseOrderID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if s == "" {
		return 0, errors.New("пустой номер заказа")
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректный номер заказа %q: %w", s, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("некорректный номер заказа %d", id)
	}
	return id, nil
}

// TrimRunes обрезает строку до max символов (не байт).
func TrimRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}

// SafeName превращает имя клиента в безопасное имя папки: буквы, цифры, "_" и "-".
// SafeName turns a customer name into a filesystem-safe directory name.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	safe := strings.Trim(b.String(), "_")
	if safe == "" {
		return "client"
	}
	return TrimRunes(safe, 40)
}
