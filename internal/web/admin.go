package web

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"moocdash/internal/dataset"
	"moocdash/internal/table"
)

func (s *Server) registerAdminRoutes(r *gin.Engine) {
	r.GET("/admin/login", s.adminEnabledRequired(), s.adminLoginGetHandler)
	r.POST("/admin/login", s.adminEnabledRequired(), s.adminLoginPostHandler)
	r.GET("/admin/logout", s.adminLogoutHandler)

	admin := r.Group("/admin", s.adminEnabledRequired(), adminRequired())
	{
		admin.GET("/", s.adminIndexHandler)
		admin.POST("/flush", s.adminFlushHandler)
		admin.POST("/upload", s.adminUploadHandler)
	}
}

func (s *Server) adminEnabled() bool { return s.cfg.Admin.PasswordHash != "" }

// без ADMIN_PASSWORD_HASH админки нет совсем
func (s *Server) adminEnabledRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.adminEnabled() {
			fail(c, NotFound("Page not found"))
			return
		}
		c.Next()
	}
}

func isAdmin(c *gin.Context) bool {
	ok, _ := sessions.Default(c).Get(sessAdmin).(bool)
	return ok
}

func adminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isAdmin(c) {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

///////////////////////////////////////////////////////
// LOGIN
///////////////////////////////////////////////////////

type loginForm struct {
	Password string `form:"password" binding:"required"`
}

func (s *Server) adminLoginGetHandler(c *gin.Context) {
	if isAdmin(c) {
		c.Redirect(http.StatusFound, "/admin/")
		return
	}
	c.HTML(http.StatusOK, "admin_login.html", gin.H{})
}

func (s *Server) adminLoginPostHandler(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "admin_login.html", gin.H{
			"Error": "Password is required",
		})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.Admin.PasswordHash), []byte(form.Password)); err != nil {
		s.log.Warn("admin login failed", "ip", c.ClientIP())
		c.HTML(http.StatusUnauthorized, "admin_login.html", gin.H{
			"Error": "Wrong password",
		})
		return
	}

	sess := sessions.Default(c)
	sess.Set(sessAdmin, true)
	if err := sess.Save(); err != nil {
		fail(c, Internal(err))
		return
	}
	s.log.Info("admin logged in", "ip", c.ClientIP())
	c.Redirect(http.StatusFound, "/admin/")
}

func (s *Server) adminLogoutHandler(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Delete(sessAdmin)
	_ = sess.Save()
	c.Redirect(http.StatusFound, "/")
}

///////////////////////////////////////////////////////
// DASHBOARD
///////////////////////////////////////////////////////

// datasetStatus: строка таблицы наборов в админке.
type datasetStatus struct {
	Name     string
	File     string
	Required string
	Status   string
	Kind     string
	Rows     int
	Cols     int
	Loaded   string
}

func (s *Server) adminIndexHandler(c *gin.Context) {
	var rows []datasetStatus
	for _, name := range dataset.Names() {
		spec, _ := dataset.Lookup(name)
		st := datasetStatus{Name: name, File: spec.File, Required: strings.Join(spec.Required, ", ")}

		d, err := s.store.Get(c.Request.Context(), name)
		switch {
		case err != nil:
			st.Status, st.Kind = "error: "+err.Error(), "danger"
		case d.NotFound:
			st.Status, st.Kind = "not found", "warning"
		case len(d.Missing) > 0:
			st.Status, st.Kind = "missing "+strings.Join(d.Missing, ", "), "warning"
		default:
			st.Status, st.Kind = "ok", "success"
		}
		if d != nil {
			st.Rows, st.Cols = d.Table.Len(), d.Table.Width()
			st.Loaded = d.LoadedAt.Format(time.DateTime)
		}
		rows = append(rows, st)
	}

	c.HTML(http.StatusOK, "admin.html", gin.H{
		"Datasets": rows,
		"Names":    dataset.Names(),
		"Upload":   s.replace != nil,
		"Source":   s.cfg.Data.Source,
		"TTL":      s.cfg.Data.CacheTTL,
		"Flash":    popFlash(c),
	})
}

func (s *Server) adminFlushHandler(c *gin.Context) {
	s.store.Flush()
	s.log.Info("dataset cache flushed")
	setFlash(c, "success", "Cache flushed. Datasets will be reloaded on the next request.")
	c.Redirect(http.StatusFound, "/admin/")
}

///////////////////////////////////////////////////////
// UPLOAD
///////////////////////////////////////////////////////

type uploadForm struct {
	Dataset string `form:"dataset" binding:"required"`
}

// adminUploadHandler заменяет набор загруженным CSV. Файл без обязательных
// колонок отклоняется целиком; после замены кеш сбрасывается.
func (s *Server) adminUploadHandler(c *gin.Context) {
	if s.replace == nil {
		fail(c, NotFound("Upload is disabled"))
		return
	}
	var form uploadForm
	if err := c.ShouldBind(&form); err != nil {
		setFlash(c, "danger", "Choose a dataset")
		c.Redirect(http.StatusFound, "/admin/")
		return
	}
	spec, ok := dataset.Lookup(form.Dataset)
	if !ok {
		fail(c, BadRequest("Unknown dataset", fmt.Errorf("%w: %s", dataset.ErrUnknownDataset, form.Dataset)))
		return
	}

	t, err := readUpload(c, spec)
	if err != nil {
		s.metrics.observeUpload(spec.Name, "rejected")
		s.log.Warn("dataset upload rejected", "dataset", spec.Name, "error", err)
		setFlash(c, "danger", err.Error())
		c.Redirect(http.StatusFound, "/admin/")
		return
	}

	if err := s.replace.Replace(c.Request.Context(), spec, t); err != nil {
		s.metrics.observeUpload(spec.Name, "error")
		fail(c, Internal(fmt.Errorf("replace %s: %w", spec.Name, err)))
		return
	}
	s.store.Flush()
	s.metrics.observeUpload(spec.Name, "ok")
	s.log.Info("dataset replaced", "dataset", spec.Name, "rows", t.Len(), "cols", t.Width())

	setFlash(c, "success", fmt.Sprintf("%s replaced: %d rows, %d columns.", spec.File, t.Len(), t.Width()))
	c.Redirect(http.StatusFound, "/admin/")
}

var errNoFile = errors.New("file is required")

func readUpload(c *gin.Context, spec dataset.Spec) (*table.Table, error) {
	file, err := c.FormFile("file")
	if err != nil || file.Filename == "" {
		return nil, errNoFile
	}
	if ext := strings.ToLower(filepath.Ext(file.Filename)); ext != ".csv" {
		return nil, fmt.Errorf("only .csv files are accepted, got %q", ext)
	}
	if file.Size > MaxUploadBytes {
		return nil, fmt.Errorf("file is larger than %d MB", MaxUploadBytes>>20)
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := table.ReadCSV(spec.Name, f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file.Filename, err)
	}
	if err := t.Require(spec.Required...); err != nil {
		return nil, err
	}
	return t, nil
}
