// Package uploads хранит файлы заказов с сайта: отдельная папка на заказ,
// запись потоком блоками по constants.UPLOAD_CHUNK_SIZE.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"mycase/internal/constants"
	"mycase/internal/utils"
)

// ErrNotImage - загруженный файл не является изображением.
var ErrNotImage = errors.New("file is not an image")

const maxNameAttempts = 100

// Storage - корневая папка загрузок.
type Storage struct {
	root string
	now  func() time.Time
}

// NewStorage создает корневую папку, если ее нет.
func NewStorage(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка создания папки загрузок %q: %w", root, err)
	}
	return &Storage{root: root, now: time.Now}, nil
}

func (s *Storage) Root() string { return s.root }

// NewOrderDir создает папку заказа "<имя>_<время>_<uuid8>" и возвращает ее относительное имя.
// NewOrderDir creates an order directory "<name>_<timestamp>_<uuid8>" and returns its relative name.
func (s *Storage) NewOrderDir(customerName string) (string, error) {
	dir := fmt.Sprintf("%s_%s_%s",
		utils.SafeName(customerName),
		s.now().Format("20060102_150405"),
		uuid.NewString()[:8])
	if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		return "", fmt.Errorf("ошибка создания папки заказа: %w", err)
	}
	return dir, nil
}

// Save записывает src в папку заказа блоками и возвращает относительный путь файла.
// Существующие файлы не перезаписываются: к имени добавляется номер.
// Save streams src into the order directory in chunks and returns the file's relative path.
// Existing files are never overwritten: a counter is appended to the name.
func (s *Storage) Save(dir, filename string, src io.Reader) (string, error) {
	name := safeFilename(filename)
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	var (
		f   *os.File
		err error
		rel string
	)
	for i := 0; i < maxNameAttempts; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		rel = path.Join(dir, candidate)
		f, err = os.OpenFile(s.Path(rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil || !errors.Is(err, os.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("ошибка создания файла %q: %w", name, err)
	}

	buf := make([]byte, constants.UPLOAD_CHUNK_SIZE)
	if _, err := io.CopyBuffer(f, src, buf); err != nil {
		f.Close()
		os.Remove(s.Path(rel))
		return "", fmt.Errorf("ошибка записи файла %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("ошибка закрытия файла %q: %w", name, err)
	}
	return rel, nil
}

// Path - абсолютный путь по относительному.
func (s *Storage) Path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// RemoveDir удаляет папку заказа (откат при ошибке сохранения заказа).
func (s *Storage) RemoveDir(dir string) error {
	if dir == "" || strings.Contains(dir, "..") {
		return fmt.Errorf("некорректная папка %q", dir)
	}
	return os.RemoveAll(s.Path(dir))
}

// PublicURL - адрес файла для раздачи через /uploads/.
func PublicURL(baseURL, rel string) string {
	return strings.TrimSuffix(baseURL, "/") + "/uploads/" + rel
}

// DetectImage определяет MIME-тип по содержимому и возвращает позицию чтения в начало.
// DetectImage sniffs the MIME type from content and rewinds the reader.
func DetectImage(r io.ReadSeeker) (string, error) {
	mime, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("ошибка определения типа файла: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	if !utils.IsImage(mime.String()) {
		return mime.String(), fmt.Errorf("%w: %s", ErrNotImage, mime.String())
	}
	return mime.String(), nil
}

func safeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	cleanStem := strings.Trim(b.String(), ".")
	if cleanStem == "" {
		cleanStem = "file"
	}

	var e strings.Builder
	for _, r := range ext {
		if r == '.' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			e.WriteRune(r)
		}
	}
	return cleanStem + e.String()
}
