// internal/utils/media_utils.go
package utils

import (
	"path"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// IsImage проверяет, является ли MIME-тип изображением.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// LargestPhotoID возвращает file_id самого большого варианта фото.
// Telegram присылает варианты по возрастанию размера, но на порядок не полагаемся.
// LargestPhotoID returns the file_id of the highest-resolution photo variant.
func LargestPhotoID(photos []tgbotapi.PhotoSize) string {
	best := -1
	bestArea := -1
	for i, p := range photos {
		if area := p.Width * p.Height; area >= bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return ""
	}
	return photos[best].FileID
}

// IsRemoteURL сообщает, указывает ли ссылка на внешний ресурс (http/https).
func IsRemoteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

// BaseFilename извлекает имя файла из пути или URL ("/uploads/a/b.png" -> "b.png").
func BaseFilename(ref string) string {
	if strings.Contains(ref, "/") {
		return path.Base(ref)
	}
	return ref
}
