package api

import (
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UploadsHandler раздает файлы заказов из папки загрузок.
// Путь вида <папка>/<файл>, без выхода за корень.
// UploadsHandler serves order files from the upload directory.
func (a *API) UploadsHandler(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")

	// Проверяем, что путь не пустой и не содержит переходов вверх
	if rel == "" || strings.Contains(rel, "..") || strings.Contains(rel, `\`) || path.IsAbs(rel) {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	filePath := a.deps.Uploads.Path(path.Clean(rel))
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "File not found", http.StatusNotFound)
		} else {
			a.deps.Log.Error("upload stat failed", zap.String("file", rel), zap.Error(err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	// Проверяем, что это файл, а не директория
	if fileInfo.IsDir() {
		http.Error(w, "Not a file", http.StatusBadRequest)
		return
	}

	// Тип определяем по содержимому: расширение задает клиент.
	if mime, err := mimetype.DetectFile(filePath); err == nil {
		w.Header().Set("Content-Type", mime.String())
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")

	// Устанавливаем заголовки кэширования
	w.Header().Set("Cache-Control", "public, max-age=86400") // Кэшировать на 1 день
	w.Header().Set("Expires", time.Now().Add(24*time.Hour).Format(http.TimeFormat))

	http.ServeFile(w, r, filePath)
}
