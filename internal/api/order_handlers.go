package api

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mycase/internal/constants"
	"mycase/internal/db"
	"mycase/internal/models"
	"mycase/internal/notifier"
	"mycase/internal/uploads"
	"mycase/internal/utils"
)

// multipartMemory - сколько формы держать в памяти, остальное уходит во временные файлы.
const multipartMemory = 1 << 20

const uploadsPrefix = "/uploads/"

// contactForm - общие поля всех форм заказа с сайта.
type contactForm struct {
	Name    string `validate:"min=2,max=50"`
	Phone   string `validate:"phone"`
	Address string `validate:"min=2,max=250"`
}

type customOrderForm struct {
	contactForm
	Brand   string `validate:"max=64"`
	Model   string `validate:"required,max=100"`
	Comment string `validate:"max=2000"`
}

type termosOrderForm struct {
	contactForm
	Size      string `validate:"oneof=500 750"`
	Color     string `validate:"max=50"`
	Text      string `validate:"max=64"`
	Font      string `validate:"max=50"`
	TextColor string `validate:"max=50"`
}

type readyOrderForm struct {
	contactForm
	DesignID     int64  `validate:"gt=0"`
	Brand        string `validate:"required,max=64"`
	PhoneModel   string `validate:"required,max=100"`
	PersonalText string
}

// requestError - ошибка, которую можно показать клиенту как есть.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...interface{}) error {
	return &requestError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// savedUploads - файлы одного заказа в папке загрузок (пути относительные).
type savedUploads struct {
	dir   string
	image string
	files []string
}

func (s savedUploads) imageRef() string {
	if s.image == "" {
		return ""
	}
	return uploadsPrefix + s.image
}

func (a *API) parseOrderForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, a.deps.Config.HTTP.MaxUploadMB<<20)
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return &requestError{status: http.StatusRequestEntityTooLarge, msg: "Upload is too large"}
		}
		return badRequest("Invalid form data")
	}
	return nil
}

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.FormValue(key))
}

func readContact(r *http.Request) contactForm {
	return contactForm{
		Name:    formValue(r, "name"),
		Phone:   utils.NormalizePhone(formValue(r, "phone")),
		Address: formValue(r, "address"),
	}
}

// saveUploads сохраняет design_image (только изображение) и files/files[] в новую папку заказа.
// Папка создается только если есть хотя бы один файл.
func (a *API) saveUploads(r *http.Request, customerName string) (savedUploads, error) {
	var out savedUploads
	if r.MultipartForm == nil {
		return out, nil
	}

	ensureDir := func() error {
		if out.dir != "" {
			return nil
		}
		dir, err := a.deps.Uploads.NewOrderDir(customerName)
		if err != nil {
			return err
		}
		out.dir = dir
		return nil
	}

	if headers := r.MultipartForm.File["design_image"]; len(headers) > 0 {
		if err := ensureDir(); err != nil {
			return out, err
		}
		rel, err := a.saveFile(out.dir, headers[0], true)
		if err != nil {
			return out, err
		}
		out.image = rel
	}

	extra := append(append([]*multipart.FileHeader{}, r.MultipartForm.File["files"]...), r.MultipartForm.File["files[]"]...)
	for _, fh := range extra {
		if fh.Filename == "" {
			continue
		}
		if err := ensureDir(); err != nil {
			return out, err
		}
		rel, err := a.saveFile(out.dir, fh, false)
		if err != nil {
			return out, err
		}
		out.files = append(out.files, rel)
	}
	return out, nil
}

func (a *API) saveFile(dir string, fh *multipart.FileHeader, imageOnly bool) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	if imageOnly {
		if _, err := uploads.DetectImage(f); err != nil {
			if errors.Is(err, uploads.ErrNotImage) {
				return "", badRequest("design_image must be an image")
			}
			return "", err
		}
	}
	return a.deps.Uploads.Save(dir, fh.Filename, f)
}

// discard откатывает загруженные файлы, если заказ не сохранился.
func (a *API) discard(saved savedUploads) {
	if saved.dir == "" {
		return
	}
	if err := a.deps.Uploads.RemoveDir(saved.dir); err != nil {
		a.deps.Log.Warn("failed to remove upload dir", zap.String("dir", saved.dir), zap.Error(err))
	}
}

// localImageRef превращает ссылку на изображение в то, что может отправить Telegram:
// "/uploads/..." - локальный путь, URL - как есть.
func (a *API) localImageRef(ref string) string {
	switch {
	case ref == "":
		return ""
	case strings.HasPrefix(ref, uploadsPrefix):
		return a.deps.Uploads.Path(strings.TrimPrefix(ref, uploadsPrefix))
	case utils.IsRemoteURL(ref):
		return ref
	case a.deps.Config.HTTP.PublicURL != "":
		return strings.TrimSuffix(a.deps.Config.HTTP.PublicURL, "/") + "/" + strings.TrimPrefix(ref, "/")
	default:
		return ""
	}
}

// persistOrder сохраняет заказ и синхронно уведомляет сотрудников (ошибка уведомления только логируется).
func (a *API) persistOrder(ctx context.Context, order *models.Order, saved savedUploads, design *models.Design, imageRef string) (int64, error) {
	id, err := a.deps.Store.CreateOrder(ctx, order)
	if err != nil {
		a.discard(saved)
		return 0, err
	}
	order.ID = id

	files := make([]string, 0, len(saved.files))
	for _, rel := range saved.files {
		files = append(files, a.deps.Uploads.Path(rel))
	}
	notice := notifier.OrderNotice{Order: *order, Design: design, ImageRef: a.localImageRef(imageRef), Files: files}
	if a.deps.Notifier != nil {
		if err := a.deps.Notifier.NotifyOrder(context.WithoutCancel(ctx), notice); err != nil {
			a.deps.Log.Warn("staff notification failed", zap.Int64("order_id", id), zap.Error(err))
		}
	}
	a.deps.Log.Info("web order created", zap.Int64("order_id", id), zap.String("kind", string(order.Kind)))
	return id, nil
}

func (a *API) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeJSONError(w, reqErr.status, reqErr.msg)
	case db.IsPersistenceError(err):
		writeJSONError(w, http.StatusBadRequest, "Order data rejected")
	default:
		a.deps.Log.Error("order intake failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (a *API) checkForm(form interface{}) error {
	if err := a.validate.Struct(form); err != nil {
		return badRequest("%s", validationMessage(err))
	}
	return nil
}

// CreateCustomOrder - заказ со своим дизайном (POST /api/orders/custom).
func (a *API) CreateCustomOrder(w http.ResponseWriter, r *http.Request) {
	if err := a.parseOrderForm(w, r); err != nil {
		a.writeOrderError(w, r, err)
		return
	}
	form := customOrderForm{
		contactForm: readContact(r),
		Brand:       formValue(r, "brand"),
		Model:       formValue(r, "model"),
		Comment:     formValue(r, "comment"),
	}
	if err := a.checkForm(form); err != nil {
		a.writeOrderError(w, r, err)
		return
	}

	saved, err := a.saveUploads(r, form.Name)
	if err != nil {
		a.discard(saved)
		a.writeOrderError(w, r, err)
		return
	}

	order := &models.Order{
		Kind:          models.OrderKindCustom,
		CustomerName:  form.Name,
		PhoneNumber:   form.Phone,
		Address:       form.Address,
		Brand:         form.Brand,
		PhoneModel:    form.Model,
		AttachmentRef: models.NewNullString(saved.imageRef()),
		Comment:       models.NewNullString(form.Comment),
	}
	if saved.image != "" && a.deps.Config.HTTP.PublicURL != "" {
		order.DesignURL = models.NewNullString(uploads.PublicURL(a.deps.Config.HTTP.PublicURL, saved.image))
	}

	id, err := a.persistOrder(r.Context(), order, saved, nil, saved.imageRef())
	if err != nil {
		a.writeOrderError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Order created", map[string]int64{"order_id": id})
}

// CreateTermosOrder - персонализированный термос (POST /api/orders/termos).
func (a *API) CreateTermosOrder(w http.ResponseWriter, r *http.Request) {
	if err := a.parseOrderForm(w, r); err != nil {
		a.writeOrderError(w, r, err)
		return
	}
	form := termosOrderForm{
		contactForm: readContact(r),
		Size:        formValue(r, "size"),
		Color:       formValue(r, "color"),
		Text:        formValue(r, "text"),
		Font:        formValue(r, "font"),
		TextColor:   formValue(r, "text_color"),
	}
	if form.Size == "" {
		form.Size = "500"
	}
	if err := a.checkForm(form); err != nil {
		a.writeOrderError(w, r, err)
		return
	}

	saved, err := a.saveUploads(r, form.Name)
	if err != nil {
		a.discard(saved)
		a.writeOrderError(w, r, err)
		return
	}

	var details []string
	for _, kv := range [][2]string{{"Цвет", form.Color}, {"Шрифт", form.Font}, {"Цвет текста", form.TextColor}} {
		if kv[1] != "" {
			details = append(details, kv[0]+": "+kv[1])
		}
	}
	order := &models.Order{
		Kind:          models.OrderKindTermos,
		CustomerName:  form.Name,
		PhoneNumber:   form.Phone,
		Address:       form.Address,
		PhoneModel:    fmt.Sprintf("Термос %s мл", form.Size),
		AttachmentRef: models.NewNullString(saved.imageRef()),
		PersonalText:  models.NewNullString(form.Text),
		Comment:       models.NewNullString(strings.Join(details, "; ")),
	}

	id, err := a.persistOrder(r.Context(), order, saved, nil, saved.imageRef())
	if err != nil {
		a.writeOrderError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Order created", map[string]int64{"order_id": id})
}

// CreateReadyOrder - готовый дизайн из каталога (POST /api/orders/ready).
// Браузер получает 303 на страницу дизайна, JSON-клиент - обычный ответ.
func (a *API) CreateReadyOrder(w http.ResponseWriter, r *http.Request) {
	if err := a.parseOrderForm(w, r); err != nil {
		a.writeOrderError(w, r, err)
		return
	}
	designID, _ := strconv.ParseInt(formValue(r, "design_id"), 10, 64)
	form := readyOrderForm{
		contactForm:  readContact(r),
		DesignID:     designID,
		Brand:        formValue(r, "brand"),
		PhoneModel:   formValue(r, "phone_model"),
		PersonalText: utils.TrimRunes(formValue(r, "personal_text"), constants.PERSONAL_TEXT_MAX_RUNES),
	}
	if err := a.checkForm(form); err != nil {
		a.writeOrderError(w, r, err)
		return
	}

	design, err := a.deps.Store.GetDesign(r.Context(), form.DesignID)
	if errors.Is(err, db.ErrNotFound) || (err == nil && !design.IsActive) {
		a.writeOrderError(w, r, badRequest("Unknown design"))
		return
	}
	if err != nil {
		a.writeOrderError(w, r, err)
		return
	}

	order := &models.Order{
		Kind:         models.OrderKindReady,
		CustomerName: form.Name,
		PhoneNumber:  form.Phone,
		Address:      form.Address,
		Brand:        form.Brand,
		PhoneModel:   form.PhoneModel,
		DesignURL:    models.NewNullString(design.ImageURL),
		DesignID:     models.NewNullInt64(design.ID),
		PersonalText: models.NewNullString(form.PersonalText),
	}

	id, err := a.persistOrder(r.Context(), order, savedUploads{}, &design, design.ImageURL)
	if err != nil {
		a.writeOrderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		writeJSONSuccess(w, "Order created", map[string]int64{"order_id": id})
		return
	}
	http.Redirect(w, r, "/designuri/"+design.Slug+"?ok=1", http.StatusSeeOther)
}
