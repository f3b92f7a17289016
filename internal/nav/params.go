package nav

import (
	"net/url"
	"strconv"
	"strings"
)

// Имена параметров ссылки.
const (
	ParamPage     = "page"
	ParamCourseID = "course_id"
	ParamUserID   = "user_id"
	ParamTheme    = "theme"
	ParamView     = "view"
	ParamTab      = "tab"
	ParamDQ       = "dq"
	ParamPhase    = "phase"
)

// FromParams восстанавливает состояние из ссылки. Неизвестные значения
// перечислений заменяются значениями по умолчанию; user_id без course_id
// игнорируется, user_id включает экран пользователя.
func FromParams(q url.Values) State {
	s := New()
	s.Page = oneOf(q.Get(ParamPage), pages, PageDashboard)
	s.Theme = oneOf(q.Get(ParamTheme), themes, ThemeLight)
	s.Tab = oneOf(q.Get(ParamTab), tabs, TabOverview)
	s.QualityTab = oneOf(q.Get(ParamDQ), qualityTabs, DQOverview)
	if p, err := strconv.Atoi(q.Get(ParamPhase)); err == nil {
		s.SelectPhase(p)
	}

	if s.Page != PageDashboard {
		return s
	}
	course := strings.TrimSpace(q.Get(ParamCourseID))
	if course == "" {
		return s
	}
	s.SelectCourse(course)
	if user := strings.TrimSpace(q.Get(ParamUserID)); user != "" {
		_ = s.SelectUser(user)
		return s
	}
	if oneOf(q.Get(ParamView), views, ViewDashboard) == ViewUserList {
		_ = s.SwitchView(ViewUserList)
	}
	return s
}

// Params: обратное преобразование. page пишется всегда, остальное только
// если отличается от значения по умолчанию, поэтому
// Params(FromParams(Params(s))) == Params(s).
func (s State) Params() url.Values {
	q := url.Values{}
	q.Set(ParamPage, string(s.Page))
	if s.Theme != ThemeLight {
		q.Set(ParamTheme, string(s.Theme))
	}
	if s.Page != PageDashboard {
		return q
	}
	if s.CourseID != "" {
		q.Set(ParamCourseID, s.CourseID)
		switch s.View {
		case ViewUserDetail:
			q.Set(ParamUserID, s.UserID)
		case ViewUserList:
			q.Set(ParamView, string(ViewUserList))
		}
		// выбранный курс подразумевает tab=catalog
		return q
	}
	if s.Tab != TabOverview {
		q.Set(ParamTab, string(s.Tab))
	}
	if s.Tab == TabQuality && s.QualityTab != DQOverview {
		q.Set(ParamDQ, string(s.QualityTab))
	}
	if s.Tab == TabOverview && s.Phase != MaxPhase {
		q.Set(ParamPhase, strconv.Itoa(s.Phase))
	}
	return q
}

// URL: относительная ссылка на состояние.
func (s State) URL() string {
	return "/?" + s.Params().Encode()
}
