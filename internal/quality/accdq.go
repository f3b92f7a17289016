package quality

import (
	"math"
	"sort"

	"moocdash/internal/table"
)

// Веса S_perf и S_san в итоговом Acc-DQ.
const (
	Alpha = 0.6
	Beta  = 0.4

	// WarningThreshold: ниже этого балла отчёт выдаёт предупреждение.
	WarningThreshold = 50.0
)

// Performance: показатели качества модели, все в [0,1]. MCC и Kappa
// уже нормированы как (x+1)/2.
type Performance struct {
	MacroF1          float64
	BalancedAccuracy float64
	MCC              float64
	Kappa            float64
}

func (p Performance) values() []float64 {
	return []float64{p.MacroF1, p.BalancedAccuracy, p.MCC, p.Kappa}
}

// Sanity: показатели «здоровья» предсказаний, все в [0,1].
type Sanity struct {
	NonNull    float64 // s_nan
	Majority   float64 // s_maj
	Entropy    float64 // s_ent
	Drift      float64 // s_drift
	Efficiency float64 // s_eff
	Leakage    float64 // s_leak
}

func (s Sanity) values() []float64 {
	return []float64{s.NonNull, s.Majority, s.Entropy, s.Drift, s.Efficiency, s.Leakage}
}

// DefaultPerformance и DefaultSanity: начальные значения формы Acc-DQ.
func DefaultPerformance() Performance {
	return Performance{MacroF1: 0.89, BalancedAccuracy: 0.88, MCC: 0.89, Kappa: 0.89}
}

func DefaultSanity() Sanity {
	return Sanity{NonNull: 1, Majority: 0.21, Entropy: 0, Drift: 1, Efficiency: 1, Leakage: 0.5}
}

// DefaultEfficiency и DefaultLeakage подставляются, когда s_eff и s_leak
// нельзя вывести из предсказаний.
const (
	DefaultEfficiency = 1.0
	DefaultLeakage    = 0.5
)

// GeoMean: среднее геометрическое значений, обрезанных до [0,1].
// Любой ноль обнуляет результат.
func GeoMean(xs ...float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var logSum float64
	for _, x := range xs {
		x = clamp01(x)
		if x == 0 {
			return 0
		}
		logSum += math.Log(x)
	}
	return math.Exp(logSum / float64(len(xs)))
}

type AccDQResult struct {
	Perf    Performance
	San     Sanity
	SPerf   float64
	SSan    float64
	Score   float64
	Warning bool
}

// AccDQ = 100 · S_perf^α · S_san^β.
func AccDQ(p Performance, s Sanity) AccDQResult {
	res := AccDQResult{Perf: p, San: s, SPerf: GeoMean(p.values()...), SSan: GeoMean(s.values()...)}
	res.Score = 100 * math.Pow(res.SPerf, Alpha) * math.Pow(res.SSan, Beta)
	res.Warning = res.Score < WarningThreshold
	return res
}

// NormalizeSigned переводит показатель из [-1,1] в [0,1].
func NormalizeSigned(x float64) float64 { return clamp01((x + 1) / 2) }

// ---------- вывод из предсказаний ----------

// PredictionPairs: пары (label, predict) из строк, где оба значения заданы.
func PredictionPairs(t *table.Table, labelCol, predCol string) (labels, preds []int, err error) {
	if err := requireColumns(t, labelCol, predCol); err != nil {
		return nil, nil, err
	}
	for row := range t.Rows {
		l, okL := t.Value(row, labelCol).Float()
		p, okP := t.Value(row, predCol).Float()
		if okL && okP {
			labels = append(labels, int(l))
			preds = append(preds, int(p))
		}
	}
	if len(labels) == 0 {
		return nil, nil, notComputable("no rows with both %s and %s", labelCol, predCol)
	}
	return labels, preds, nil
}

type confusion struct {
	classes []int
	n       int
	correct int
	tp      map[int]int
	pred    map[int]int
	truth   map[int]int
}

func newConfusion(labels, preds []int) confusion {
	c := confusion{n: len(labels), tp: map[int]int{}, pred: map[int]int{}, truth: map[int]int{}}
	seen := map[int]struct{}{}
	for i := range labels {
		l, p := labels[i], preds[i]
		c.truth[l]++
		c.pred[p]++
		if l == p {
			c.tp[l]++
			c.correct++
		}
		seen[l] = struct{}{}
		seen[p] = struct{}{}
	}
	for k := range seen {
		c.classes = append(c.classes, k)
	}
	sort.Ints(c.classes)
	return c
}

func (c confusion) macroF1() float64 {
	var fs []float64
	for _, k := range c.classes {
		den := c.pred[k] + c.truth[k]
		fs = append(fs, ratio(2*c.tp[k], den, 0))
	}
	return mean(fs)
}

// balancedAccuracy: средний recall по классам, которые есть среди меток.
func (c confusion) balancedAccuracy() float64 {
	var recalls []float64
	for _, k := range c.classes {
		if c.truth[k] > 0 {
			recalls = append(recalls, ratio(c.tp[k], c.truth[k], 0))
		}
	}
	return mean(recalls)
}

func (c confusion) mcc() float64 {
	s := float64(c.n)
	var pt, pp, tt float64
	for _, k := range c.classes {
		p, t := float64(c.pred[k]), float64(c.truth[k])
		pt += p * t
		pp += p * p
		tt += t * t
	}
	den := math.Sqrt((s*s - pp) * (s*s - tt))
	if den == 0 {
		return 0
	}
	return (float64(c.correct)*s - pt) / den
}

func (c confusion) kappa() float64 {
	s := float64(c.n)
	po := float64(c.correct) / s
	var pe float64
	for _, k := range c.classes {
		pe += float64(c.pred[k]) * float64(c.truth[k])
	}
	pe /= s * s
	if pe == 1 {
		return 0
	}
	return (po - pe) / (1 - pe)
}

// PerformanceFromPredictions считает macro-F1, balanced accuracy, MCC и κ;
// MCC и κ возвращаются нормированными.
func PerformanceFromPredictions(labels, preds []int) (Performance, error) {
	if len(labels) == 0 || len(labels) != len(preds) {
		return Performance{}, notComputable("need equal non-empty label and prediction slices")
	}
	c := newConfusion(labels, preds)
	return Performance{
		MacroF1:          c.macroF1(),
		BalancedAccuracy: c.balancedAccuracy(),
		MCC:              NormalizeSigned(c.mcc()),
		Kappa:            NormalizeSigned(c.kappa()),
	}, nil
}

// SanityFromPredictions выводит s_nan, s_maj, s_ent и s_drift из колонок
// метки и предсказания; s_eff и s_leak передаются снаружи.
func SanityFromPredictions(t *table.Table, labelCol, predCol string, efficiency, leakage float64) (Sanity, error) {
	if err := requireColumns(t, labelCol, predCol); err != nil {
		return Sanity{}, err
	}
	if t.Len() == 0 {
		return Sanity{}, notComputable("no rows")
	}
	s := Sanity{Efficiency: clamp01(efficiency), Leakage: clamp01(leakage)}

	var preds []int
	var labelPos, labelN int
	classes := map[int]struct{}{}
	for row := range t.Rows {
		if l, ok := t.Value(row, labelCol).Float(); ok {
			labelN++
			if int(l) == 1 {
				labelPos++
			}
			classes[int(l)] = struct{}{}
		}
		if p, ok := t.Value(row, predCol).Float(); ok {
			preds = append(preds, int(p))
			classes[int(p)] = struct{}{}
		}
	}
	s.NonNull = ratio(len(preds), t.Len(), 0)
	if len(preds) == 0 {
		return s, nil
	}

	k := len(classes)
	if k < 2 {
		k = 2
	}
	counts := map[int]int{}
	predPos := 0
	for _, p := range preds {
		counts[p]++
		if p == 1 {
			predPos++
		}
	}
	maj := 0
	var entropy float64
	for _, n := range counts {
		if n > maj {
			maj = n
		}
		q := float64(n) / float64(len(preds))
		entropy -= q * math.Log2(q)
	}
	majShare := float64(maj) / float64(len(preds))
	s.Majority = clamp01((1 - majShare) / (1 - 1/float64(k)))
	s.Entropy = clamp01(entropy / math.Log2(float64(k)))

	predRate := float64(predPos) / float64(len(preds))
	labelRate := ratio(labelPos, labelN, predRate)
	s.Drift = clamp01(1 - math.Abs(predRate-labelRate))
	return s, nil
}
