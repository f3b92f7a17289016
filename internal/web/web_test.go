package web_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"moocdash/internal/config"
	"moocdash/internal/dataset"
	"moocdash/internal/dataset/datasettest"
	"moocdash/internal/logger"
	"moocdash/internal/quality"
	"moocdash/internal/web"
)

const adminPassword = "s3cret-pass"

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		Server:  config.ServerConfig{Port: "0", Env: "test"},
		Data:    config.DataConfig{Source: "csv", Dir: t.TempDir(), CacheTTL: time.Hour},
		Session: config.SessionConfig{Secret: "test-session-secret", Name: "test_session"},
		Admin:   config.AdminConfig{PasswordHash: string(hash)},
		UI:      config.UIConfig{CatalogPageSize: 12, UserPageSize: 10},
	}
}

// demoServer: сервер на синтетических данных.
func demoServer(t *testing.T, cfg *config.Config) *web.Server {
	t.Helper()
	store, _ := datasettest.NewStore()
	srv, err := web.New(web.Options{Config: cfg, Log: logger.Nop(), Store: store, Quality: quality.DefaultOptions()})
	require.NoError(t, err)
	return srv
}

// client держит cookie сессии между запросами.
type client struct {
	t       *testing.T
	h       http.Handler
	cookies []*http.Cookie
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	if cks := w.Result().Cookies(); len(cks) > 0 {
		c.cookies = cks
	}
	return w
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *client) login() {
	w := c.post("/admin/login", url.Values{"password": {adminPassword}})
	require.Equal(c.t, http.StatusFound, w.Code)
	require.Equal(c.t, "/admin/", w.Header().Get("Location"))
}

func TestDashboardOverview(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Overview")
	assert.Contains(t, body, `id="enrol-trend"`)
	assert.Contains(t, body, `data-chart=`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := c.do(req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestStaticPages(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.get("/?page=intro")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Predicting Student Dropout in MOOC Courses")

	w = c.get("/?page=prediction_results&theme=Dark")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-bs-theme="dark"`)
	assert.Contains(t, w.Body.String(), "Light mode")
}

func TestNavRedirectsToDeepLink(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.post("/nav", url.Values{"page": {"dashboard"}, "action": {"tab"}, "value": {"catalog"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?page=dashboard&tab=catalog", w.Header().Get("Location"))

	w = c.post("/nav", url.Values{"page": {"dashboard"}, "action": {"select_course"}, "value": {datasettest.CourseA}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?course_id="+datasettest.CourseA+"&page=dashboard", w.Header().Get("Location"))
}

func TestNavUnknownAction(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.post("/nav", url.Values{"action": {"explode"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown action")
}

func TestNavRejectedTransitionKeepsState(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	// пользователь без курса недоступен
	w := c.post("/nav", url.Values{"page": {"dashboard"}, "action": {"select_user"}, "value": {"U1"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/?page=dashboard", w.Header().Get("Location"))

	w = c.get(w.Header().Get("Location"))
	assert.Contains(t, w.Body.String(), "This action is not available here.")
}

func TestCatalogSearchLivesInSession(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.post("/nav", url.Values{
		"page": {"dashboard"}, "tab": {"catalog"},
		"action": {"search_catalog"}, "value": {"LINEAR"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	loc := w.Header().Get("Location")
	assert.NotContains(t, loc, "LINEAR")

	body := c.get(loc).Body.String()
	assert.Contains(t, body, "Linear Algebra")
	assert.NotContains(t, body, "Data Structures")

	// без cookie запрос видит весь каталог
	fresh := &client{t: t, h: c.h}
	assert.Contains(t, fresh.get(loc).Body.String(), "Data Structures")
}

func TestUserSearchStaysWithItsCourse(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.post("/nav", url.Values{
		"page": {"dashboard"}, "course_id": {datasettest.CourseA}, "view": {"user_list"},
		"action": {"search_users"}, "value": {datasettest.UserID(datasettest.CourseA, 1)},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	body := c.get(w.Header().Get("Location")).Body.String()
	assert.Contains(t, body, datasettest.UserID(datasettest.CourseA, 1))
	assert.NotContains(t, body, datasettest.UserID(datasettest.CourseA, 2))

	// ссылка на другой курс не наследует поиск
	body = c.get("/?page=dashboard&course_id=" + datasettest.CourseB + "&view=user_list").Body.String()
	assert.NotContains(t, body, "No students match")
	for n := 1; n <= datasettest.UsersInB; n++ {
		assert.Contains(t, body, datasettest.UserID(datasettest.CourseB, n))
	}

	// возврат к первому курсу восстанавливает его поиск
	body = c.get("/?page=dashboard&course_id=" + datasettest.CourseA + "&view=user_list").Body.String()
	assert.NotContains(t, body, datasettest.UserID(datasettest.CourseA, 2))
}

func TestInvalidQualityInputsAreReported(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.get("/?page=dashboard&tab=quality&dq=accdq&f1=7")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Ignored invalid values for: f1.")
}

func TestNotFoundPage(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.get("/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page not found")
}

func TestHealthAndMetrics(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.get("/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","cached":0}`, w.Body.String())

	c.get("/")
	w = c.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `moocdash_http_requests_total{method="GET",route="/",status="200"} 1`)
}

func TestDatasetLoadsAreCounted(t *testing.T) {
	m := web.NewMetrics()
	src := datasettest.Demo()
	store := dataset.NewStore(src, time.Hour, logger.Nop(), dataset.WithObserver(m.ObserveLoad))
	srv, err := web.New(web.Options{Config: testConfig(t), Store: store, Metrics: m})
	require.NoError(t, err)
	c := &client{t: t, h: srv.Handler()}

	c.get("/")
	body := c.get("/metrics").Body.String()
	assert.Contains(t, body, `moocdash_dataset_loads_total{dataset="courses",result="ok"} 1`)
}

func TestAdminDisabledWithoutHash(t *testing.T) {
	cfg := testConfig(t)
	cfg.Admin.PasswordHash = ""
	c := &client{t: t, h: demoServer(t, cfg).Handler()}

	assert.Equal(t, http.StatusNotFound, c.get("/admin/login").Code)
	assert.Equal(t, http.StatusNotFound, c.get("/admin/").Code)
	assert.NotContains(t, c.get("/").Body.String(), `href="/admin/"`)
}

func TestAdminLogin(t *testing.T) {
	c := &client{t: t, h: demoServer(t, testConfig(t)).Handler()}

	w := c.get("/admin/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login", w.Header().Get("Location"))

	w = c.post("/admin/login", url.Values{"password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Wrong password")

	w = c.post("/admin/login", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c.login()
	w = c.get("/admin/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "course_info_final_P5.csv")
	// без Replacer формы загрузки нет
	assert.NotContains(t, w.Body.String(), "Replace a dataset")

	c.get("/admin/logout")
	assert.Equal(t, http.StatusFound, c.get("/admin/").Code)
}

func TestAdminFlush(t *testing.T) {
	store, src := datasettest.NewStore()
	srv, err := web.New(web.Options{Config: testConfig(t), Store: store})
	require.NoError(t, err)
	c := &client{t: t, h: srv.Handler()}
	c.login()

	c.get("/")
	require.Equal(t, 1, src.LoadCount(dataset.Courses))

	w := c.post("/admin/flush", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Empty(t, store.Cached())

	c.get("/")
	assert.Equal(t, 2, src.LoadCount(dataset.Courses))
}

func uploadRequest(t *testing.T, name, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("dataset", name))
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAdminUploadReplacesDataset(t *testing.T) {
	cfg := testConfig(t)
	src := dataset.NewCSVSource(cfg.Data.Dir)
	store := dataset.NewStore(src, time.Hour, logger.Nop())
	srv, err := web.New(web.Options{Config: cfg, Store: store, Replacer: src})
	require.NoError(t, err)
	c := &client{t: t, h: srv.Handler()}
	c.login()

	d, err := store.Get(context.Background(), dataset.Clean)
	require.NoError(t, err)
	require.True(t, d.NotFound)

	w := c.do(uploadRequest(t, dataset.Clean, "clean.csv", "a,b\n1,2\n,3\n"))
	require.Equal(t, http.StatusFound, w.Code)

	raw, err := os.ReadFile(filepath.Join(cfg.Data.Dir, "clean_data.csv"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n,3\n", string(raw))

	// кеш сброшен: следующий Get читает новый файл
	d, err = store.Get(context.Background(), dataset.Clean)
	require.NoError(t, err)
	assert.False(t, d.NotFound)
	assert.Equal(t, 2, d.Table.Len())

	assert.Contains(t, c.get("/admin/").Body.String(), "clean_data.csv replaced: 2 rows, 2 columns.")
}

func TestAdminUploadRejectsBadFiles(t *testing.T) {
	cfg := testConfig(t)
	src := dataset.NewCSVSource(cfg.Data.Dir)
	store := dataset.NewStore(src, time.Hour, logger.Nop())
	srv, err := web.New(web.Options{Config: cfg, Store: store, Replacer: src})
	require.NoError(t, err)
	c := &client{t: t, h: srv.Handler()}
	c.login()

	w := c.do(uploadRequest(t, dataset.Courses, "courses.csv", "x\n1\n"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.NoFileExists(t, filepath.Join(cfg.Data.Dir, "course_info_final_P5.csv"))
	assert.Contains(t, c.get("/admin/").Body.String(), "missing columns course_id, course_name")

	w = c.do(uploadRequest(t, dataset.Courses, "courses.xlsx", "x\n1\n"))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, c.get("/admin/").Body.String(), "only .csv files are accepted")

	w = c.do(uploadRequest(t, "nope", "x.csv", "x\n1\n"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAppError(t *testing.T) {
	cause := errors.New("disk on fire")
	err := web.Internal(cause)
	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.ErrorIs(t, err, cause)

	var ae *web.AppError
	require.ErrorAs(t, error(web.NotFound("no")), &ae)
	assert.Equal(t, http.StatusNotFound, ae.Code)
	assert.Equal(t, "400 bad: x", web.BadRequest("bad", errors.New("x")).Error())
}
