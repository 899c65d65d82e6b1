package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mycase/internal/config"
	"mycase/internal/db"
	"mycase/internal/models"
	"mycase/internal/notifier"
	"mycase/internal/uploads"
	"mycase/internal/utils"
)

// DataStore - операции хранилища, нужные HTTP-обработчикам. Реализуется db.Store.
// DataStore is the persistence surface used by HTTP handlers. Implemented by db.Store.
type DataStore interface {
	Ping(ctx context.Context) error
	CreateOrder(ctx context.Context, order *models.Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (models.Order, error)
	ListOrdersPage(ctx context.Context, page, size int) (models.OrderPage, error)
	ListAllOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersSince(ctx context.Context, since time.Time) ([]models.Order, error)
	ListDesigns(ctx context.Context, f models.DesignFilter) ([]models.Design, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListBrands(ctx context.Context, category string) ([]string, error)
	GetDesignBySlug(ctx context.Context, slug string, activeOnly bool) (models.Design, error)
	GetDesign(ctx context.Context, id int64) (models.Design, error)
	CreateDesign(ctx context.Context, d *models.Design) error
	UpdateDesign(ctx context.Context, d models.Design) error
	DeleteDesign(ctx context.Context, id int64) error
}

// OrderNotifier - уведомление сотрудников о новом заказе. Реализуется notifier.StaffNotifier.
type OrderNotifier interface {
	NotifyOrder(ctx context.Context, notice notifier.OrderNotice) error
}

// ApiDependencies содержит зависимости для обработчиков API.
type ApiDependencies struct {
	Config   *config.Config
	Store    DataStore
	Notifier OrderNotifier
	Uploads  *uploads.Storage
	Log      *zap.Logger
}

// API - HTTP-обработчики сайта и админки.
type API struct {
	deps     ApiDependencies
	validate *validator.Validate
}

var slugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	// Телефон проверяется после нормализации (пробелы, скобки, дефисы убраны).
	// The phone is checked after normalization (spaces, brackets and dashes removed).
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return utils.IsValidPhone(utils.NormalizePhone(fl.Field().String()))
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegex.MatchString(fl.Field().String())
	})
	return v
}

func NewAPI(deps ApiDependencies) *API {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return &API{deps: deps, validate: newValidator()}
}

// jsonResponse - вспомогательная структура для стандартного ответа API
type jsonResponse struct {
	Status  string      `json:"status"` // "success" или "error"
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// --- Вспомогательные функции для JSON-ответов ---
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(jsonResponse{Status: "error", Message: message})
}

func writeJSONSuccess(w http.ResponseWriter, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(jsonResponse{Status: "success", Message: message, Data: data})
}

// writeStoreError переводит ошибки хранилища в HTTP-статусы.
func (a *API) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, db.ErrConstraint):
		writeJSONError(w, http.StatusConflict, "Conflict with existing data")
	case errors.Is(err, db.ErrDataInvalid):
		writeJSONError(w, http.StatusBadRequest, "Invalid data")
	default:
		a.deps.Log.Error("store failure", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// validationMessage собирает имена невалидных полей в одну строку.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid form data"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return "Invalid fields: " + strings.Join(fields, ", ")
}

// wantsJSON - клиент ждет JSON, а не редирект на страницу.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// Healthz проверяет доступность базы.
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := a.deps.Store.Ping(r.Context()); err != nil {
		a.deps.Log.Warn("health check failed", zap.Error(err))
		writeJSONError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSONSuccess(w, "ok", nil)
}
