// Package nav: состояние навигации дашборда и переходы между экранами.
//
// Поля меняются только через именованные переходы, чтобы сохранялись
// инварианты: детальный экран пользователя требует выбранного курса и
// пользователя, уход с него сбрасывает пользователя.
package nav

import (
	"errors"
	"strings"
)

type Page string

const (
	PageDashboard   Page = "dashboard"
	PageIntro       Page = "intro"
	PagePredictions Page = "prediction_results"
)

// Tab: раздел боковой панели на странице dashboard.
type Tab string

const (
	TabOverview Tab = "overview"
	TabQuality  Tab = "quality"
	TabCatalog  Tab = "catalog"
)

// View: экран внутри выбранного курса.
type View string

const (
	ViewDashboard  View = "dashboard"
	ViewUserList   View = "user_list"
	ViewUserDetail View = "user_detail"
)

type Theme string

const (
	ThemeLight Theme = "Light"
	ThemeDark  Theme = "Dark"
)

// QualityTab: вкладка отчёта о качестве данных.
type QualityTab string

const (
	DQOverview     QualityTab = "overview"
	DQCompleteness QualityTab = "completeness"
	DQConsistency  QualityTab = "consistency"
	DQTimeliness   QualityTab = "timeliness"
	DQAccDQ        QualityTab = "accdq"
)

var (
	pages       = []Page{PageDashboard, PageIntro, PagePredictions}
	tabs        = []Tab{TabOverview, TabQuality, TabCatalog}
	views       = []View{ViewDashboard, ViewUserList, ViewUserDetail}
	themes      = []Theme{ThemeLight, ThemeDark}
	qualityTabs = []QualityTab{DQOverview, DQCompleteness, DQConsistency, DQTimeliness, DQAccDQ}
)

func QualityTabs() []QualityTab { return append([]QualityTab(nil), qualityTabs...) }

func oneOf[T ~string](v string, allowed []T, def T) T {
	for _, a := range allowed {
		if string(a) == v {
			return a
		}
	}
	return def
}

// MaxPhase: число фаз P1..P5.
const MaxPhase = 5

var (
	ErrNoCourse = errors.New("no course selected")
	ErrNoUser   = errors.New("no user selected")
)

// State: вся навигация одной сессии. Нулевое значение не используется,
// начальное состояние даёт New.
type State struct {
	Page       Page
	Tab        Tab
	CourseID   string
	UserID     string
	View       View
	Theme      Theme
	QualityTab QualityTab
	Phase      int

	CatalogPage  int
	UserPage     int
	CatalogQuery string
	UserQuery    string
}

func New() State {
	return State{
		Page:        PageDashboard,
		Tab:         TabOverview,
		View:        ViewDashboard,
		Theme:       ThemeLight,
		QualityTab:  DQOverview,
		Phase:       MaxPhase,
		CatalogPage: 1,
		UserPage:    1,
	}
}

// InCourse: показывается дашборд конкретного курса.
func (s State) InCourse() bool { return s.Page == PageDashboard && s.CourseID != "" }

// ---------- переходы ----------

// SelectCourse открывает дашборд курса; пользователь и экран сбрасываются.
func (s *State) SelectCourse(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		s.ResetToCatalog()
		return
	}
	s.Page = PageDashboard
	s.Tab = TabCatalog
	if s.CourseID != id {
		s.UserPage = 1
		s.UserQuery = ""
	}
	s.CourseID = id
	s.UserID = ""
	s.View = ViewDashboard
}

// SelectUser открывает детальный экран слушателя выбранного курса.
func (s *State) SelectUser(id string) error {
	id = strings.TrimSpace(id)
	if !s.InCourse() {
		return ErrNoCourse
	}
	if id == "" {
		return ErrNoUser
	}
	s.UserID = id
	s.View = ViewUserDetail
	return nil
}

// SwitchView переключает экран курса. На user_detail без пользователя не пускает.
func (s *State) SwitchView(v View) error {
	if !s.InCourse() {
		return ErrNoCourse
	}
	switch v {
	case ViewUserDetail:
		if s.UserID == "" {
			return ErrNoUser
		}
	case ViewDashboard, ViewUserList:
		s.UserID = ""
	default:
		return errors.New("unknown view " + string(v))
	}
	s.View = v
	return nil
}

// Back уводит с пользователя к списку, из курса в каталог.
func (s *State) Back() {
	switch {
	case s.View == ViewUserDetail:
		s.UserID = ""
		s.View = ViewUserList
	case s.CourseID != "":
		s.ResetToCatalog()
	}
}

// ResetToCatalog: известное корректное состояние для кнопки «назад»
// после неверной ссылки.
func (s *State) ResetToCatalog() {
	s.Page = PageDashboard
	s.Tab = TabCatalog
	s.leaveCourse()
}

func (s *State) leaveCourse() {
	s.CourseID = ""
	s.UserID = ""
	s.View = ViewDashboard
	s.UserPage = 1
	s.UserQuery = ""
}

// SwitchTab выходит из курса и переключает раздел боковой панели.
func (s *State) SwitchTab(t Tab) {
	s.Page = PageDashboard
	s.Tab = oneOf(string(t), tabs, TabOverview)
	s.leaveCourse()
}

// GoToPage: верхнее меню. Страницы intro и prediction_results не знают о курсе.
func (s *State) GoToPage(p Page) {
	s.Page = oneOf(string(p), pages, PageDashboard)
	if s.Page != PageDashboard {
		s.leaveCourse()
	}
}

func (s *State) ToggleTheme() {
	if s.Theme == ThemeDark {
		s.Theme = ThemeLight
	} else {
		s.Theme = ThemeDark
	}
}

func (s *State) SwitchQualityTab(t QualityTab) {
	s.QualityTab = oneOf(string(t), qualityTabs, DQOverview)
}

// SelectPhase ограничивает номер фазы диапазоном 1..MaxPhase.
func (s *State) SelectPhase(p int) {
	s.Phase = clampInt(p, 1, MaxPhase)
}

// SearchCatalog и SearchUsers возвращают список на первую страницу.
func (s *State) SearchCatalog(q string) {
	s.CatalogQuery = strings.TrimSpace(q)
	s.CatalogPage = 1
}

func (s *State) SearchUsers(q string) {
	s.UserQuery = strings.TrimSpace(q)
	s.UserPage = 1
}

// GoToCatalogPage и GoToUserPage не знают размера списка: верхнюю границу
// применяет Paginate при отрисовке.
func (s *State) GoToCatalogPage(n int) { s.CatalogPage = max(n, 1) }

func (s *State) GoToUserPage(n int) { s.UserPage = max(n, 1) }

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
