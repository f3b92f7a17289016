package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"moocdash/internal/nav"
	"moocdash/internal/view"
)

// Ключи сессии для состояния, которого нет в ссылке.
const (
	sessCatalogPage  = "catalog_page"
	sessUserPage     = "user_page"
	sessCatalogQuery = "catalog_query"
	sessUserQuery    = "user_query"
	sessUserCourse   = "user_course"
	sessAdmin        = "admin"
)

func (s *Server) registerDashboardRoutes(r *gin.Engine) {
	r.GET("/", s.dashboardHandler)
	r.POST("/nav", s.navHandler)
}

// dashboardHandler рисует страницу по ссылке и сессии.
func (s *Server) dashboardHandler(c *gin.Context) {
	q := c.Request.URL.Query()
	st := nav.FromParams(q)
	restoreSession(sessions.Default(c), &st)

	data, err := view.LoadData(c.Request.Context(), s.store)
	if err != nil {
		// набор с ошибкой остаётся nil, страница покажет его как незагруженный
		s.log.Error("dataset load failed", "request_id", c.GetString(requestIDKey), "error", err)
	}
	data.Quality = s.quality
	data.Inputs = view.ParseInputs(q)
	data.CatalogPageSize = s.cfg.UI.CatalogPageSize
	data.UserPageSize = s.cfg.UI.UserPageSize

	page := view.Render(st, data)
	if len(data.Inputs.Invalid) > 0 {
		page.Alerts = append(page.Alerts, view.Alert{
			Kind: "warning",
			Text: "Ignored invalid values for: " + strings.Join(data.Inputs.Invalid, ", ") + ". Values must be numbers in [0, 1].",
		})
	}

	c.HTML(http.StatusOK, "page.html", gin.H{
		"Page":  page,
		"Flash": popFlash(c),
		"Admin": s.adminEnabled(),
	})
}

// navHandler применяет одно действие к состоянию из скрытых полей формы
// и перенаправляет на ссылку нового состояния (POST-redirect-GET).
func (s *Server) navHandler(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		fail(c, BadRequest("Malformed form", err))
		return
	}
	action := c.PostForm("action")
	value := strings.TrimSpace(c.PostForm("value"))

	sess := sessions.Default(c)
	st := nav.FromParams(c.Request.PostForm)
	restoreSession(sess, &st)

	if err := st.Apply(action, value); err != nil {
		var unknown nav.UnknownActionError
		if errors.As(err, &unknown) {
			s.metrics.observeAction(action, "unknown")
			fail(c, BadRequest("Unknown action", err))
			return
		}
		// недопустимый переход (например, пользователь без курса): остаёмся на месте
		s.metrics.observeAction(action, "rejected")
		s.log.Warn("navigation rejected", "action", action, "value", value, "error", err)
		setFlash(c, "warning", "This action is not available here.")
		c.Redirect(http.StatusSeeOther, st.URL())
		return
	}
	s.metrics.observeAction(action, "ok")

	saveSession(sess, st)
	if err := sess.Save(); err != nil {
		fail(c, Internal(err))
		return
	}
	c.Redirect(http.StatusSeeOther, st.URL())
}

func restoreSession(sess sessions.Session, st *nav.State) {
	if v, ok := sess.Get(sessCatalogPage).(int); ok {
		st.GoToCatalogPage(v)
	}
	if v, ok := sess.Get(sessCatalogQuery).(string); ok {
		st.CatalogQuery = v
	}
	// поиск и страница списка слушателей относятся к своему курсу
	if course, _ := sess.Get(sessUserCourse).(string); course == "" || course != st.CourseID {
		return
	}
	if v, ok := sess.Get(sessUserPage).(int); ok {
		st.GoToUserPage(v)
	}
	if v, ok := sess.Get(sessUserQuery).(string); ok {
		st.UserQuery = v
	}
}

func saveSession(sess sessions.Session, st nav.State) {
	sess.Set(sessCatalogPage, st.CatalogPage)
	sess.Set(sessUserPage, st.UserPage)
	sess.Set(sessCatalogQuery, st.CatalogQuery)
	sess.Set(sessUserQuery, st.UserQuery)
	sess.Set(sessUserCourse, st.CourseID)
}
