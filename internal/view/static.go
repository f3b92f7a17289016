package view

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.yaml
var content embed.FS

type Metrics struct {
	Acc  float64 `yaml:"acc"`
	Prec float64 `yaml:"prec"`
	Rec  float64 `yaml:"rec"`
	F1   float64 `yaml:"f1"`
	AUC  float64 `yaml:"auc"`
}

func (m Metrics) cells() []string {
	return []string{fmtFloat(m.Acc, 4), fmtFloat(m.Prec, 4), fmtFloat(m.Rec, 4), fmtFloat(m.F1, 4), fmtFloat(m.AUC, 4)}
}

type ModelResult struct {
	Name   string    `yaml:"name"`
	Params []string  `yaml:"params"`
	Tests  []Metrics `yaml:"tests"`
	Avg    Metrics   `yaml:"avg"`
}

type Intro struct {
	Title    string `yaml:"title"`
	Subtitle string `yaml:"subtitle"`
	Sections []struct {
		Heading string `yaml:"heading"`
		Text    string `yaml:"text"`
	} `yaml:"sections"`
}

var (
	modelsOnce sync.Once
	models     []ModelResult
	modelsErr  error

	introOnce sync.Once
	intro     Intro
	introErr  error
)

func decodeContent(name string, v any) error {
	data, err := content.ReadFile("content/" + name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("content %s: %w", name, err)
	}
	return nil
}

// Models: таблица сравнения моделей из встроенного models.yaml.
func Models() ([]ModelResult, error) {
	modelsOnce.Do(func() {
		var doc struct {
			Models []ModelResult `yaml:"models"`
		}
		modelsErr = decodeContent("models.yaml", &doc)
		models = doc.Models
	})
	return models, modelsErr
}

func IntroContent() (Intro, error) {
	introOnce.Do(func() {
		introErr = decodeContent("intro.yaml", &intro)
	})
	return intro, introErr
}

func introPage() []Section {
	in, err := IntroContent()
	if err != nil {
		return []Section{{Width: 12, Alerts: []Alert{alert("danger", "intro content unavailable: %v", err)}}}
	}
	head := Section{Title: in.Title, Subtitle: in.Subtitle, Width: 12}
	body := Section{Title: "About the project", Width: 12}
	for _, s := range in.Sections {
		body.Items = append(body.Items, Item{Title: s.Heading, Subtitle: s.Text})
	}
	return []Section{head, body}
}

func predictionsPage() []Section {
	ms, err := Models()
	if err != nil {
		return []Section{{Width: 12, Alerts: []Alert{alert("danger", "model results unavailable: %v", err)}}}
	}
	metric := []string{"Acc", "Prec", "Rec", "F1", "AUC"}
	tbl := Table{
		Caption: "Best parameters and test metrics per phase",
		Columns: []string{"Model", "Best parameters"},
		Groups:  []HeaderGroup{{Label: "", Span: 2}},
	}
	for i := 1; i <= 5; i++ {
		tbl.Groups = append(tbl.Groups, HeaderGroup{Label: fmt.Sprintf("Test %d", i), Span: len(metric)})
		tbl.Columns = append(tbl.Columns, metric...)
	}
	tbl.Groups = append(tbl.Groups, HeaderGroup{Label: "Average", Span: len(metric)})
	tbl.Columns = append(tbl.Columns, metric...)

	best := Section{Title: "Average accuracy by model", Width: 12}
	chart := Chart{ID: "models-avg", Kind: ChartBar, Title: "Average metrics", Max: 1}
	acc := Series{Name: "Accuracy"}
	f1 := Series{Name: "F1"}
	auc := Series{Name: "AUC"}

	for _, m := range ms {
		row := []string{m.Name, joinParams(m.Params)}
		for i := 0; i < 5; i++ {
			if i < len(m.Tests) {
				row = append(row, m.Tests[i].cells()...)
			} else {
				row = append(row, "-", "-", "-", "-", "-")
			}
		}
		row = append(row, m.Avg.cells()...)
		tbl.Rows = append(tbl.Rows, row)

		chart.Labels = append(chart.Labels, m.Name)
		acc.Values = append(acc.Values, m.Avg.Acc)
		f1.Values = append(f1.Values, m.Avg.F1)
		auc.Values = append(auc.Values, m.Avg.AUC)
	}
	chart.Series = []Series{acc, f1, auc}
	best.Charts = []Chart{chart}

	return []Section{
		{Title: "Prediction results", Subtitle: fmt.Sprintf("%d models", len(ms)), Width: 12, Tables: []Table{tbl}},
		best,
	}
}

func joinParams(ps []string) string {
	if len(ps) == 0 {
		return "-"
	}
	return strings.Join(ps, "; ")
}
