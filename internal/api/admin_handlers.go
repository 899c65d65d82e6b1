package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mycase/internal/db"
	"mycase/internal/models"
	"mycase/internal/uploads"
	"mycase/internal/utils"
)

const orderQRSize = 256

type loginRequest struct {
	Password string `json:"password"`
}

// designRequest - тело создания и редактирования дизайна.
type designRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Slug     string `json:"slug" validate:"required,max=120,slug"`
	ImageURL string `json:"image_url" validate:"required,max=500"`
	Category string `json:"category" validate:"max=64"`
	Brand    string `json:"brand" validate:"max=64"`
	IsActive bool   `json:"is_active"`
}

func (d designRequest) trimmed() designRequest {
	d.Title = strings.TrimSpace(d.Title)
	d.Slug = strings.TrimSpace(d.Slug)
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	d.Category = strings.TrimSpace(d.Category)
	d.Brand = strings.TrimSpace(d.Brand)
	return d
}

// AdminLogin проверяет пароль (bcrypt) и выдает cookie сессии.
func (a *API) AdminLogin(w http.ResponseWriter, r *http.Request) {
	hash := a.deps.Config.Admin.PasswordHash
	if hash == "" {
		writeJSONError(w, http.StatusServiceUnavailable, "Admin login is disabled")
		return
	}

	var req loginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		req.Password = r.FormValue("password")
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		a.deps.Log.Warn("admin login failed", zap.String("remote_addr", r.RemoteAddr))
		writeJSONError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	ttl := a.deps.Config.Admin.SessionTTL
	token, err := issueAdminToken(a.deps.Config.Admin.SessionSecret, ttl, time.Now())
	if err != nil {
		a.deps.Log.Error("admin token not issued", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     ADMIN_COOKIE_NAME,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   !a.deps.Config.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
	a.deps.Log.Info("admin logged in", zap.String("remote_addr", r.RemoteAddr))
	writeJSONSuccess(w, "Logged in", nil)
}

func (a *API) AdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     ADMIN_COOKIE_NAME,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   !a.deps.Config.IsDev(),
		SameSite: http.SameSiteLaxMode,
	})
	writeJSONSuccess(w, "Logged out", nil)
}

// AdminListOrders - страница заказов (?page=N, новые первыми).
func (a *API) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	result, err := a.deps.Store.ListOrdersPage(r.Context(), page, db.AdminPageSize)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSONSuccess(w, "", result)
}

func (a *API) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}
	order, err := a.deps.Store.GetOrder(r.Context(), id)
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSONSuccess(w, "", order)
}

// AdminOrderQR - PNG с QR-кодом ссылки, открывающей заказ в боте.
func (a *API) AdminOrderQR(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}
	if _, err := a.deps.Store.GetOrder(r.Context(), id); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	png, err := utils.OrderQRCode(a.deps.Config.Telegram.BotUsername, id, orderQRSize)
	if err != nil {
		a.deps.Log.Error("qr code not generated", zap.Int64("order_id", id), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "QR code unavailable")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(png)
}

// AdminExportOrders отдает заказы файлом Excel. ?since=2006-01-02 ограничивает выгрузку датой.
func (a *API) AdminExportOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []models.Order
		err    error
	)
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, perr := time.ParseInLocation("2006-01-02", raw, time.Local)
		if perr != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid since date, expected YYYY-MM-DD")
			return
		}
		orders, err = a.deps.Store.ListOrdersSince(r.Context(), since)
	} else {
		orders, err = a.deps.Store.ListAllOrders(r.Context())
	}
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	f, err := buildOrdersWorkbook(orders)
	if err != nil {
		a.deps.Log.Error("excel export failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	defer f.Close()

	fileName := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	if err := f.Write(w); err != nil {
		a.deps.Log.Error("excel export write failed", zap.Error(err))
	}
}

// AdminListDesigns - все дизайны, включая выключенные.
func (a *API) AdminListDesigns(w http.ResponseWriter, r *http.Request) {
	designs, err := a.deps.Store.ListDesigns(r.Context(), models.DesignFilter{})
	if err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSONSuccess(w, "", designs)
}

func (a *API) decodeDesign(w http.ResponseWriter, r *http.Request) (models.Design, bool) {
	var req designRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return models.Design{}, false
	}
	req = req.trimmed()
	if err := a.validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, validationMessage(err))
		return models.Design{}, false
	}
	return models.Design{
		Title:    req.Title,
		Slug:     req.Slug,
		ImageURL: req.ImageURL,
		Category: req.Category,
		Brand:    req.Brand,
		IsActive: req.IsActive,
	}, true
}

func (a *API) AdminCreateDesign(w http.ResponseWriter, r *http.Request) {
	design, ok := a.decodeDesign(w, r)
	if !ok {
		return
	}
	if err := a.deps.Store.CreateDesign(r.Context(), &design); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Design created", design)
}

func (a *API) AdminUpdateDesign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid design ID")
		return
	}
	design, ok := a.decodeDesign(w, r)
	if !ok {
		return
	}
	design.ID = id
	if err := a.deps.Store.UpdateDesign(r.Context(), design); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Design updated", design)
}

// AdminDeleteDesign удаляет дизайн. Дизайн, на который ссылаются заказы, удалить нельзя (409).
func (a *API) AdminDeleteDesign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid design ID")
		return
	}
	if err := a.deps.Store.DeleteDesign(r.Context(), id); err != nil {
		a.writeStoreError(w, r, err)
		return
	}
	writeJSONSuccess(w, "Design deleted", nil)
}

// AdminUploadDesignImage сохраняет изображение для каталога и возвращает его адрес.
func (a *API) AdminUploadDesignImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.deps.Config.HTTP.MaxUploadMB<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Image is required")
		return
	}
	defer file.Close()

	if _, err := uploads.DetectImage(file); err != nil {
		if errors.Is(err, uploads.ErrNotImage) {
			writeJSONError(w, http.StatusBadRequest, "File must be an image")
			return
		}
		a.deps.Log.Error("design image sniffing failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	dir, err := a.deps.Uploads.NewOrderDir("designs")
	if err == nil {
		var rel string
		rel, err = a.deps.Uploads.Save(dir, header.Filename, file)
		if err == nil {
			writeJSONSuccess(w, "Image uploaded", map[string]string{"image_url": uploadsPrefix + rel})
			return
		}
		a.discard(savedUploads{dir: dir})
	}
	a.deps.Log.Error("design image upload failed", zap.Error(err))
	writeJSONError(w, http.StatusInternalServerError, "Upload failed")
}
