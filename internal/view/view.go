// Package view строит дерево страницы из состояния навигации и данных.
// Render: чистая функция: без ввода-вывода, только вычисления над
// уже загруженными таблицами. Отрисовкой дерева в HTML занимается web.
package view

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"moocdash/internal/nav"
)

type Page struct {
	Title    string
	Theme    nav.Theme
	State    nav.State
	ShareURL string

	Menu    []Link
	Sidebar []Action
	Alerts  []Alert
	// Tabs: вкладки внутри страницы (отчёт о качестве, экраны курса).
	Tabs     []Action
	Sections []Section
}

// StateFields: параметры состояния скрытыми полями: POST /nav
// восстанавливает из них текущую страницу.
func (p Page) StateFields() []Field {
	q := p.State.Params()
	hidden := make(map[string]string, len(q))
	for k := range q {
		hidden[k] = q.Get(k)
	}
	out := make([]Field, 0, len(hidden))
	for _, k := range sortedKeys(hidden) {
		out = append(out, Field{Label: k, Value: hidden[k]})
	}
	return out
}

type Link struct {
	Label  string
	Href   string
	Active bool
}

// Action: кнопка, отправляющая действие навигации на POST /nav.
type Action struct {
	Label    string
	Name     string
	Value    string
	Style    string // bootstrap: primary, outline-secondary, link...
	Active   bool
	Disabled bool
}

type Alert struct {
	Kind   string // info | warning | danger | success
	Text   string
	Action *Action
}

// Section: блок страницы; Width: ширина в колонках сетки (1..12).
type Section struct {
	Title    string
	Subtitle string
	Width    int

	Alerts  []Alert
	Cards   []Card
	Charts  []Chart
	Tables  []Table
	Items   []Item
	Bullets []string
	Form    *Form
	Pager   *Pager
	Actions []Action
}

type Card struct {
	Label string
	Value string
	Hint  string
	Kind  string
}

type ChartKind string

const (
	ChartBar     ChartKind = "bar"
	ChartHBar    ChartKind = "hbar"
	ChartLine    ChartKind = "line"
	ChartPie     ChartKind = "pie"
	ChartDonut   ChartKind = "doughnut"
	ChartGauge   ChartKind = "gauge"
	ChartScatter ChartKind = "scatter"
)

// Chart: описание графика; рисует его клиентская библиотека.
type Chart struct {
	ID      string    `json:"id"`
	Kind    ChartKind `json:"kind"`
	Title   string    `json:"title"`
	Labels  []string  `json:"labels,omitempty"`
	Series  []Series  `json:"series"`
	Stacked bool      `json:"stacked,omitempty"`
	Max     float64   `json:"max,omitempty"`
	Lines   []RefLine `json:"lines,omitempty"`
	Unit    string    `json:"unit,omitempty"`
}

type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values,omitempty"`
	Points []Point   `json:"points,omitempty"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RefLine: горизонтальная линия-граница, например IQR.
type RefLine struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Table struct {
	Caption string
	Columns []string
	Rows    [][]string
	// Groups: необязательная верхняя строка заголовка: подпись и число колонок.
	Groups []HeaderGroup
}

type HeaderGroup struct {
	Label string
	Span  int
}

// Item: карточка элемента списка (курс, слушатель) с действием открытия.
type Item struct {
	Title    string
	Subtitle string
	Badge    string
	Fields   []Field
	Action   Action
}

type Field struct {
	Label string
	Value string
}

// Form: GET-форма отправляет поля вместе с Hidden на Target,
// POST-форма уходит на /nav как действие Hidden["action"].
type Form struct {
	Method string
	Target string
	Hidden map[string]string
	Fields []FormField
	Submit string
}

// sortedKeys: ключи map по возрастанию.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HiddenFields: скрытые поля формы в стабильном порядке (для шаблона).
func (f *Form) HiddenFields() []Field {
	out := make([]Field, 0, len(f.Hidden))
	for _, k := range sortedKeys(f.Hidden) {
		out = append(out, Field{Label: k, Value: f.Hidden[k]})
	}
	return out
}

type FormField struct {
	Name    string
	Label   string
	Type    string // text | number | select
	Value   string
	Min     string
	Max     string
	Step    string
	Options []Option
	Hint    string
}

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type Pager struct {
	Label string
	Prev  Action
	Next  Action
}

// ---------- форматирование ----------

func fmtInt(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + fmtInt(-n)
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func fmtFloat(f float64, prec int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, f)
}

func fmtPct(share float64, prec int) string { return fmtFloat(share*100, prec) + "%" }

func fmtDate(t time.Time, ok bool) string {
	if !ok {
		return "-"
	}
	return t.Format("02/01/2006")
}

func monthLabel(t time.Time) string { return t.Format("Jan 2006") }

func alert(kind, format string, args ...any) Alert {
	return Alert{Kind: kind, Text: fmt.Sprintf(format, args...)}
}

func act(label, name, value string) Action {
	return Action{Label: label, Name: name, Value: value, Style: "outline-primary"}
}
