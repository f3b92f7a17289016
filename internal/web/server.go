// Package web: HTTP-слой дашборда: gin, сессии в cookie, шаблоны,
// метрики и админка. Страницы строит view, здесь только ввод-вывод.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"moocdash/internal/config"
	"moocdash/internal/dataset"
	"moocdash/internal/logger"
	"moocdash/internal/nav"
	"moocdash/internal/quality"
	"moocdash/internal/view"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed assets
var assetsFS embed.FS

// MaxUploadBytes: предел размера загружаемого CSV.
const MaxUploadBytes = 64 << 20

// Options: зависимости сервера. Replacer nil: загрузка файлов выключена.
type Options struct {
	Config   *config.Config
	Log      *logger.Logger
	Store    *dataset.Store
	Replacer dataset.Replacer
	Quality  quality.Options
	Metrics  *Metrics
}

type Server struct {
	cfg     *config.Config
	log     *logger.Logger
	store   *dataset.Store
	replace dataset.Replacer
	quality quality.Options
	metrics *Metrics
	engine  *gin.Engine
}

func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Store == nil {
		return nil, errors.New("web: config and store are required")
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	s := &Server{
		cfg:     opts.Config,
		log:     opts.Log,
		store:   opts.Store,
		replace: opts.Replacer,
		quality: opts.Quality,
		metrics: opts.Metrics,
	}

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = MaxUploadBytes
	r.Use(requestID(), requestLogger(s.log), s.metrics.middleware(), s.recovery())

	assets, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		return nil, err
	}
	r.StaticFS("/assets", http.FS(assets))
	if dir := s.cfg.Server.StaticDir; dir != "" {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			r.Static("/static", dir)
		}
	}

	// сессии
	store := cookie.NewStore([]byte(s.cfg.Session.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(s.cfg.Session.Name, store))
	r.Use(s.errorHandler())

	// роуты
	r.GET("/healthz", s.healthHandler)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	s.registerDashboardRoutes(r)
	s.registerAdminRoutes(r)
	r.NoRoute(func(c *gin.Context) { fail(c, NotFound("Page not found")) })

	s.engine = r
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.engine }

// Run слушает cfg.Addr() до отмены ctx, затем даёт запросам 10 секунд.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cached": len(s.store.Cached())})
}

// ---------- шаблоны ----------

// scoped: значение для вложенного шаблона вместе со скрытыми полями
// состояния: каждая кнопка действия: отдельная POST-форма на /nav.
type scoped struct {
	State []view.Field
	V     any
}

var tmplFuncs = template.FuncMap{
	// a + b
	"add": func(a, b int) int {
		return a + b
	},

	// обрезка строки
	"truncate": func(s string, n int) string {
		r := []rune(s)
		if n <= 0 || len(r) <= n {
			return s
		}
		if n <= 1 {
			return string(r[:n])
		}
		return string(r[:n-1]) + "…"
	},

	"scope": func(state []view.Field, v any) scoped {
		return scoped{State: state, V: v}
	},

	// описание графика для data-атрибута; NaN не кодируется: тогда null
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return "null"
		}
		return string(b)
	},

	"btn": func(style string) string {
		if style == "" {
			style = "outline-primary"
		}
		return "btn btn-sm btn-" + style
	},

	"col": func(width int) string {
		if width <= 0 || width > 12 {
			width = 12
		}
		return fmt.Sprintf("col-12 col-lg-%d", width)
	},

	"bsTheme": func(t nav.Theme) string {
		if t == nav.ThemeDark {
			return "dark"
		}
		return "light"
	},

	"themeAction": func(t nav.Theme) view.Action {
		label := "Dark mode"
		if t == nav.ThemeDark {
			label = "Light mode"
		}
		return view.Action{Label: label, Name: nav.ActToggleTheme, Style: "outline-secondary"}
	},
}

func loadTemplates() (*template.Template, error) {
	t, err := template.New("").Funcs(tmplFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

// ---------- flash-сообщения ----------

type Flash struct {
	Kind string // "success" | "warning" | "danger"
	Msg  string
}

func setFlash(c *gin.Context, kind, msg string) {
	sess := sessions.Default(c)
	sess.Set("flash_kind", kind)
	sess.Set("flash_msg", msg)
	_ = sess.Save()
}

func popFlash(c *gin.Context) *Flash {
	sess := sessions.Default(c)
	k, _ := sess.Get("flash_kind").(string)
	m, _ := sess.Get("flash_msg").(string)
	if k == "" || m == "" {
		return nil
	}
	sess.Delete("flash_kind")
	sess.Delete("flash_msg")
	_ = sess.Save()
	return &Flash{Kind: k, Msg: m}
}
