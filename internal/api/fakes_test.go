package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mycase/internal/config"
	"mycase/internal/db"
	"mycase/internal/models"
	"mycase/internal/notifier"
	"mycase/internal/uploads"
)

// pngBytes - минимальный PNG-заголовок, по которому mimetype узнает изображение.
var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}, make([]byte, 64)...)

type fakeStore struct {
	mu         sync.Mutex
	orders     map[int64]models.Order
	designs    map[int64]models.Design
	nextID     int64
	createErr  error
	pingErr    error
	lastFilter models.DesignFilter
	// referenced - дизайны, на которые ссылаются заказы.
	referenced map[int64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:     map[int64]models.Order{},
		designs:    map[int64]models.Design{},
		referenced: map[int64]bool{},
	}
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) CreateOrder(_ context.Context, o *models.Order) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return 0, s.createErr
	}
	s.nextID++
	o.ID = s.nextID
	o.Status = models.OrderStatusPending
	o.CreatedAt = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	s.orders[o.ID] = *o
	if o.DesignID.Valid {
		s.referenced[o.DesignID.Int64] = true
	}
	return o.ID, nil
}

func (s *fakeStore) GetOrder(_ context.Context, id int64) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, fmt.Errorf("get order %d: %w", id, db.ErrNotFound)
	}
	return o, nil
}

func (s *fakeStore) sortedOrders() []models.Order {
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *fakeStore) ListOrdersPage(_ context.Context, page, size int) (models.OrderPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.sortedOrders()
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start > len(all) {
		start = len(all)
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	pages := (len(all) + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	return models.OrderPage{Orders: all[start:end], Page: page, Pages: pages, Total: len(all)}, nil
}

func (s *fakeStore) ListAllOrders(context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedOrders(), nil
}

func (s *fakeStore) ListOrdersSince(_ context.Context, since time.Time) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Order{}
	for _, o := range s.sortedOrders() {
		if !o.CreatedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *fakeStore) ListDesigns(_ context.Context, f models.DesignFilter) ([]models.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFilter = f
	out := []models.Design{}
	for _, d := range s.designs {
		if f.ActiveOnly && !d.IsActive {
			continue
		}
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if f.Brand != "" && d.Brand != f.Brand {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *fakeStore) ListCategories(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, d := range s.designs {
		if d.IsActive && d.Category != "" && !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStore) ListBrands(_ context.Context, category string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, d := range s.designs {
		if !d.IsActive || d.Brand == "" || seen[d.Brand] {
			continue
		}
		if category != "" && d.Category != category {
			continue
		}
		seen[d.Brand] = true
		out = append(out, d.Brand)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStore) GetDesignBySlug(_ context.Context, slug string, activeOnly bool) (models.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.designs {
		if d.Slug == slug && (!activeOnly || d.IsActive) {
			return d, nil
		}
	}
	return models.Design{}, fmt.Errorf("get design %q: %w", slug, db.ErrNotFound)
}

func (s *fakeStore) GetDesign(_ context.Context, id int64) (models.Design, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.designs[id]
	if !ok {
		return models.Design{}, fmt.Errorf("get design %d: %w", id, db.ErrNotFound)
	}
	return d, nil
}

func (s *fakeStore) slugTaken(slug string, exceptID int64) bool {
	for _, d := range s.designs {
		if d.Slug == slug && d.ID != exceptID {
			return true
		}
	}
	return false
}

func (s *fakeStore) CreateDesign(_ context.Context, d *models.Design) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.slugTaken(d.Slug, 0) {
		return fmt.Errorf("create design: %w: duplicate slug", db.ErrConstraint)
	}
	s.nextID++
	d.ID = s.nextID
	s.designs[d.ID] = *d
	return nil
}

func (s *fakeStore) UpdateDesign(_ context.Context, d models.Design) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.designs[d.ID]; !ok {
		return fmt.Errorf("update design: %w", db.ErrNotFound)
	}
	if s.slugTaken(d.Slug, d.ID) {
		return fmt.Errorf("update design: %w: duplicate slug", db.ErrConstraint)
	}
	s.designs[d.ID] = d
	return nil
}

func (s *fakeStore) DeleteDesign(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.designs[id]; !ok {
		return fmt.Errorf("delete design: %w", db.ErrNotFound)
	}
	if s.referenced[id] {
		return fmt.Errorf("delete design: %w: referenced by orders", db.ErrConstraint)
	}
	delete(s.designs, id)
	return nil
}

func (s *fakeStore) addDesign(d models.Design) models.Design {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	d.ID = s.nextID
	s.designs[d.ID] = d
	return d
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []notifier.OrderNotice
	err     error
}

func (n *fakeNotifier) NotifyOrder(_ context.Context, notice notifier.OrderNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return n.err
}

func (n *fakeNotifier) all() []notifier.OrderNotice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notifier.OrderNotice(nil), n.notices...)
}

const testSecret = "0123456789abcdef-test-secret"

type apiHarness struct {
	t        *testing.T
	store    *fakeStore
	notifier *fakeNotifier
	uploads  *uploads.Storage
	cfg      *config.Config
	handler  http.Handler
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	storage, err := uploads.NewStorage(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{
		AppEnv: "dev",
		HTTP: config.HTTPConfig{
			AllowedOrigins: []string{"https://*"},
			MaxUploadMB:    4,
			PublicURL:      "https://shop.example.md",
		},
		Telegram: config.TelegramConfig{BotUsername: "mycase_bot"},
		Admin:    config.AdminConfig{SessionSecret: testSecret, SessionTTL: time.Hour},
	}
	h := &apiHarness{t: t, store: newFakeStore(), notifier: &fakeNotifier{}, uploads: storage, cfg: cfg}
	h.rebuild()
	return h
}

func (h *apiHarness) rebuild() {
	h.handler = NewRouter(ApiDependencies{
		Config:   h.cfg,
		Store:    h.store,
		Notifier: h.notifier,
		Uploads:  h.uploads,
		Log:      zap.NewNop(),
	})
}

func (h *apiHarness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

// adminRequest - запрос с действующей cookie администратора.
func (h *apiHarness) adminRequest(method, target string, body io.Reader) *http.Request {
	token, err := issueAdminToken(testSecret, time.Hour, time.Now())
	require.NoError(h.t, err)
	req := httptest.NewRequest(method, target, body)
	req.AddCookie(&http.Cookie{Name: ADMIN_COOKIE_NAME, Value: token})
	return req
}

type formFile struct {
	field, name string
	content     []byte
}

func multipartRequest(t *testing.T, target string, fields map[string]string, files ...formFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func formRequest(target string, fields map[string]string) *http.Request {
	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

var errBoom = errors.New("boom")
