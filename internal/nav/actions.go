package nav

import (
	"fmt"
	"strconv"
)

// Имена действий формы POST /nav.
const (
	ActSelectCourse  = "select_course"
	ActSelectUser    = "select_user"
	ActSwitchTab     = "tab"
	ActSwitchView    = "view"
	ActBack          = "back"
	ActReset         = "reset"
	ActToggleTheme   = "theme"
	ActQualityTab    = "dq"
	ActPhase         = "phase"
	ActSearchCatalog = "search_catalog"
	ActSearchUsers   = "search_users"
	ActCatalogPage   = "catalog_page"
	ActUserPage      = "user_page"
	ActGoToPage      = "page"
)

// UnknownActionError: такого действия нет.
type UnknownActionError struct{ Action string }

func (e UnknownActionError) Error() string { return fmt.Sprintf("unknown navigation action %q", e.Action) }

// Apply выполняет действие по имени. При ошибке состояние не меняется.
func (s *State) Apply(action, value string) error {
	next := *s
	if err := next.apply(action, value); err != nil {
		return err
	}
	*s = next
	return nil
}

func (s *State) apply(action, value string) error {
	switch action {
	case ActSelectCourse:
		s.SelectCourse(value)
	case ActSelectUser:
		return s.SelectUser(value)
	case ActSwitchTab:
		s.SwitchTab(Tab(value))
	case ActSwitchView:
		return s.SwitchView(View(value))
	case ActBack:
		s.Back()
	case ActReset:
		s.ResetToCatalog()
	case ActToggleTheme:
		s.ToggleTheme()
	case ActQualityTab:
		s.SwitchQualityTab(QualityTab(value))
	case ActPhase:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("phase %q: %w", value, err)
		}
		s.SelectPhase(n)
	case ActSearchCatalog:
		s.SearchCatalog(value)
	case ActSearchUsers:
		s.SearchUsers(value)
	case ActCatalogPage, ActUserPage:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("page %q: %w", value, err)
		}
		if action == ActCatalogPage {
			s.GoToCatalogPage(n)
		} else {
			s.GoToUserPage(n)
		}
	case ActGoToPage:
		s.GoToPage(Page(value))
	default:
		return UnknownActionError{Action: action}
	}
	return nil
}
