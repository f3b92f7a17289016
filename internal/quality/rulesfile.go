package quality

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// RuleFile: формат файла QUALITY_RULES.
//
//	rules:
//	  - name: Course dates
//	    kind: logical
//	    before: class_start
//	    after: class_end
//	timeliness:
//	  action: action_time_P%d
//	  cutoff: cutoff_P%d
//	  reference: 0.2823
type RuleFile struct {
	Rules      []Rule          `yaml:"rules,omitempty"`
	Timeliness *TimelinessFile `yaml:"timeliness,omitempty"`
}

// TimelinessFile: пустые поля оставляют значения по умолчанию.
type TimelinessFile struct {
	Action    string   `yaml:"action,omitempty"`
	Cutoff    string   `yaml:"cutoff,omitempty"`
	Reference *float64 `yaml:"reference,omitempty"`
}

func (tf TimelinessFile) Validate() error {
	for _, p := range []string{tf.Action, tf.Cutoff} {
		if p == "" {
			continue
		}
		// ровно один глагол, и это %d
		if strings.Count(p, "%") != 1 || !strings.Contains(p, "%d") {
			return fmt.Errorf("timeliness pattern %q must contain exactly one %%d", p)
		}
	}
	if r := tf.Reference; r != nil && (math.IsNaN(*r) || *r < 0 || *r > 1) {
		return fmt.Errorf("timeliness reference %v is outside [0, 1]", *r)
	}
	return nil
}

// ParseRuleFile разбирает и проверяет файл. Файл без правил допустим,
// только если в нём есть блок timeliness.
func ParseRuleFile(data []byte) (RuleFile, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f RuleFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return RuleFile{}, errors.New("rules file is empty")
		}
		return RuleFile{}, fmt.Errorf("parse rules: %w", err)
	}
	if len(f.Rules) == 0 && f.Timeliness == nil {
		return RuleFile{}, errors.New("rules file has no rules")
	}
	for _, r := range f.Rules {
		if err := r.Validate(); err != nil {
			return RuleFile{}, err
		}
	}
	if f.Timeliness != nil {
		if err := f.Timeliness.Validate(); err != nil {
			return RuleFile{}, err
		}
	}
	return f, nil
}

// ParseRules: правила файла; без правил: набор по умолчанию.
func ParseRules(data []byte) ([]Rule, error) {
	f, err := ParseRuleFile(data)
	if err != nil {
		return nil, err
	}
	if len(f.Rules) == 0 {
		return DefaultRules(), nil
	}
	return f.Rules, nil
}

// Apply переносит заданные в файле значения в opts.
func (f RuleFile) Apply(opts *Options) {
	if len(f.Rules) > 0 {
		opts.Rules = f.Rules
	}
	if tf := f.Timeliness; tf != nil {
		if tf.Action != "" {
			opts.Timeliness.ActionPattern = tf.Action
		}
		if tf.Cutoff != "" {
			opts.Timeliness.CutoffPattern = tf.Cutoff
		}
		if tf.Reference != nil {
			ref := *tf.Reference
			opts.Timeliness.Reference = &ref
		}
	}
}

// LoadOptions: DefaultOptions с правилами и настройками timeliness из файла;
// пустой путь: значения по умолчанию.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read rules: %w", err)
	}
	f, err := ParseRuleFile(data)
	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	f.Apply(&opts)
	return opts, nil
}

func MarshalRules(rules []Rule) ([]byte, error) {
	return yaml.Marshal(RuleFile{Rules: rules})
}
