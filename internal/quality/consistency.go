package quality

import "moocdash/internal/table"

type ConsistencyResult struct {
	Rules []RuleResult
	// Mean: среднее по вычислимым правилам.
	Mean float64
	Status
}

// Consistency прогоняет все правила. Правило без нужных колонок не
// участвует в среднем; если не вычислимо ни одно: не вычислимо измерение.
func Consistency(t *table.Table, rules []Rule, refs Refs) ConsistencyResult {
	res := ConsistencyResult{Rules: make([]RuleResult, 0, len(rules))}
	var rates []float64
	for _, r := range rules {
		rr := r.Evaluate(t, refs)
		res.Rules = append(res.Rules, rr)
		if rr.Computable {
			rates = append(rates, rr.PassRate)
			if rr.Reference {
				res.Reference = true
			}
		}
	}
	if len(rates) == 0 {
		res.Status = failed(notComputable("no consistency rule could be evaluated"))
		return res
	}
	res.Mean = mean(rates)
	res.Computable = true
	return res
}
