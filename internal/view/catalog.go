package view

import (
	"fmt"
	"strconv"

	"moocdash/internal/dataset"
	"moocdash/internal/nav"
	"moocdash/internal/table"
)

func catalogSections(s nav.State, d Data) []Section {
	sec := Section{Title: "Course catalog", Width: 12, Alerts: datasetAlerts(d.Courses)}
	sec.Form = searchForm(nav.ActSearchCatalog, "Search by course id or name", s.CatalogQuery)

	courses := table.Empty(dataset.Courses)
	if d.Courses != nil {
		courses = d.Courses.Table
	}
	found := courses.Search(s.CatalogQuery, "course_id", "course_name")
	pg := nav.Paginate(found.Len(), d.CatalogPageSize, s.CatalogPage)
	page := found.Slice(pg.Start, pg.End)

	for _, c := range dataset.CoursesFrom(page) {
		school := c.School
		if school == "" {
			school = "N/A"
		}
		open := act("Open dashboard", nav.ActSelectCourse, c.ID)
		open.Style = "primary"
		sec.Items = append(sec.Items, Item{
			Title:    c.Name,
			Subtitle: c.ID,
			Badge:    school,
			Fields: []Field{
				{Label: "Period", Value: fmtDate(c.Start.V, c.Start.Valid) + " - " + fmtDate(c.End.V, c.End.Valid)},
				{Label: "Enrolled", Value: fmtInt(c.UserCount)},
			},
			Action: open,
		})
	}
	switch {
	case found.Len() == 0 && s.CatalogQuery != "":
		sec.Alerts = append(sec.Alerts, alert("info", "No courses match %q.", s.CatalogQuery))
	case found.Len() > 0:
		sec.Subtitle = fmt.Sprintf("%s courses", fmtInt(found.Len()))
	}
	sec.Pager = pager(nav.ActCatalogPage, pg)
	return []Section{sec}
}

// searchForm: POST-форма поиска; значение уходит в поле value действия.
func searchForm(action, placeholder, query string) *Form {
	return &Form{
		Method: "post",
		Target: "/nav",
		Hidden: map[string]string{"action": action},
		Fields: []FormField{{Name: "value", Label: "Search", Type: "text", Value: query, Hint: placeholder}},
		Submit: "Search",
	}
}

func pager(action string, pg nav.Pager) *Pager {
	p := &Pager{
		Label: fmt.Sprintf("Page %d of %d", pg.Page, pg.Pages),
		Prev:  act("Previous", action, strconv.Itoa(pg.Page-1)),
		Next:  act("Next", action, strconv.Itoa(pg.Page+1)),
	}
	p.Prev.Disabled = !pg.HasPrev()
	p.Next.Disabled = !pg.HasNext()
	return p
}
