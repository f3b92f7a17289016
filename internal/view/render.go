package view

import (
	"fmt"
	"sort"
	"strings"

	"moocdash/internal/dataset"
	"moocdash/internal/nav"
	"moocdash/internal/quality"
)

// Data: всё, что нужно для отрисовки. Наборы уже загружены; nil-набор
// показывается так же, как отсутствующий файл.
type Data struct {
	Courses     *dataset.Dataset
	Users       *dataset.Dataset
	Train       *dataset.Dataset
	Clean       *dataset.Dataset
	Predictions [dataset.Phases]*dataset.Dataset

	// Quality: правила и параметры отчёта; Refs дополняются наборами из Data.
	Quality quality.Options
	Inputs  Inputs

	CatalogPageSize int
	UserPageSize    int
}

// Render: чистая функция состояния и данных.
func Render(s nav.State, d Data) Page {
	p := Page{
		Title:    "MOOC Dropout Dashboard",
		Theme:    s.Theme,
		State:    s,
		ShareURL: s.URL(),
		Menu:     menu(s),
	}
	if d.CatalogPageSize <= 0 {
		d.CatalogPageSize = nav.CatalogPageSize
	}
	if d.UserPageSize <= 0 {
		d.UserPageSize = nav.UserPageSize
	}

	switch s.Page {
	case nav.PageIntro:
		p.Title = "Introduction"
		p.Sections = guard("intro", introPage)
	case nav.PagePredictions:
		p.Title = "Prediction results"
		p.Sections = guard("predictions", predictionsPage)
	default:
		p.Sidebar = sidebar(s)
		switch {
		case s.InCourse():
			renderCourse(&p, s, d)
		case s.Tab == nav.TabQuality:
			p.Title = "Data quality"
			p.Tabs = qualityTabs(s)
			p.Sections = guard("quality", func() []Section { return qualitySections(s, d) })
		case s.Tab == nav.TabCatalog:
			p.Title = "Course catalog"
			p.Sections = guard("catalog", func() []Section { return catalogSections(s, d) })
		default:
			p.Title = "Overview"
			p.Sections = guard("overview", func() []Section { return overviewSections(s, d) })
		}
	}
	return p
}

// guard превращает панику построителя в одну секцию с ошибкой.
func guard(name string, build func() []Section) (out []Section) {
	defer func() {
		if r := recover(); r != nil {
			out = []Section{{Width: 12, Alerts: []Alert{alert("danger", "%s: failed to render: %v", name, r)}}}
		}
	}()
	return build()
}

func menu(s nav.State) []Link {
	items := []struct {
		label string
		page  nav.Page
	}{
		{"Dashboard", nav.PageDashboard},
		{"Introduction", nav.PageIntro},
		{"Prediction results", nav.PagePredictions},
	}
	out := make([]Link, 0, len(items))
	for _, it := range items {
		to := s
		to.GoToPage(it.page)
		out = append(out, Link{Label: it.label, Href: to.URL(), Active: s.Page == it.page})
	}
	return out
}

func sidebar(s nav.State) []Action {
	items := []struct {
		label string
		tab   nav.Tab
	}{
		{"Overview", nav.TabOverview},
		{"Data quality", nav.TabQuality},
		{"Course catalog", nav.TabCatalog},
	}
	out := make([]Action, 0, len(items))
	for _, it := range items {
		a := act(it.label, nav.ActSwitchTab, string(it.tab))
		a.Style = "link"
		a.Active = s.Tab == it.tab
		out = append(out, a)
	}
	return out
}

// datasetAlerts: предупреждение о наборе, который нельзя показать целиком.
func datasetAlerts(ds ...*dataset.Dataset) []Alert {
	var out []Alert
	for _, d := range ds {
		switch {
		case d == nil:
			out = append(out, alert("warning", "Dataset is not loaded."))
		case d.NotFound:
			file := d.Name
			if spec, ok := dataset.Lookup(d.Name); ok {
				file = spec.File
			}
			out = append(out, alert("warning", "Data file %s not found. The section is shown without data.", file))
		case len(d.Missing) > 0:
			out = append(out, alert("warning", "Dataset %s is missing columns: %s.", d.Name, strings.Join(d.Missing, ", ")))
		}
	}
	return out
}

// countBy: сколько раз встречается каждое значение; ключи по возрастанию.
func countBy(vals []string) ([]string, []float64) {
	counts := map[string]int{}
	for _, v := range vals {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]float64, len(keys))
	for i, k := range keys {
		out[i] = float64(counts[k])
	}
	return keys, out
}

// dropoutPie: круговая диаграмма predict: 0 → Stay, 1 → Drop out.
func dropoutPie(id, title string, preds []int) Chart {
	var stay, drop float64
	for _, p := range preds {
		if p == 1 {
			drop++
		} else {
			stay++
		}
	}
	return Chart{
		ID: id, Kind: ChartPie, Title: title,
		Labels: []string{"Stay", "Drop out"},
		Series: []Series{{Name: "Students", Values: []float64{stay, drop}}},
	}
}

func phaseLabel(p int) string { return fmt.Sprintf("P%d", p) }
