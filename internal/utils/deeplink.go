package utils

import (
	"errors"
	"fmt"

	"github.com/skip2/go-qrcode"

	"mycase/internal/constants"
)

// OrderDeepLink генерирует ссылку, которая открывает бота и показывает заказ владельцу.
// OrderDeepLink builds a link that opens the bot and shows the order to its owner.
func OrderDeepLink(botUsername string, orderID int64) (string, error) {
	if botUsername == "" {
		return "", errors.New("имя пользователя бота не настроено")
	}
	if orderID <= 0 {
		return "", fmt.Errorf("невалидный ID заказа: %d", orderID)
	}
	return fmt.Sprintf("https://t.me/%s?start=%s%d", botUsername, constants.DEEP_LINK_CHECK_PREFIX, orderID), nil
}

// OrderQRCode генерирует PNG с QR-кодом ссылки на заказ.
// size - сторона картинки в пикселях.
func OrderQRCode(botUsername string, orderID int64, size int) ([]byte, error) {
	link, err := OrderDeepLink(botUsername, orderID)
	if err != nil {
		return nil, err
	}
	// qrcode.Medium - уровень коррекции ошибок.
	png, err := qrcode.Encode(link, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("ошибка кодирования QR-кода для ссылки '%s': %w", link, err)
	}
	return png, nil
}
