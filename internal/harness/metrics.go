package harness

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/iwvelando/franchise-forecast/pkg/engine"
)

// metricPattern matches "roi.fiveYearRoiPct" and "annual[3].ebitda".
var metricPattern = regexp.MustCompile(`^([a-zA-Z]+)(?:\[(\d+)\])?\.([a-zA-Z]+)$`)

type metricRef struct {
	section string
	index   int // 1-based year or month, 0 for unindexed sections
	field   string
}

var sectionSizes = map[string]int{
	"roi":       0,
	"startup":   0,
	"financing": 0,
	"annual":    engine.ProjectionYears,
	"roic":      engine.ProjectionYears,
	"valuation": engine.ProjectionYears,
	"monthly":   engine.ProjectionMonths,
}

func parseMetric(metric string) (metricRef, error) {
	m := metricPattern.FindStringSubmatch(strings.TrimSpace(metric))
	if m == nil {
		return metricRef{}, eris.Errorf("malformed metric %q", metric)
	}

	ref := metricRef{section: m[1], field: m[3]}
	size, ok := sectionSizes[ref.section]
	if !ok {
		return metricRef{}, eris.Errorf("unknown metric section %q in %q", ref.section, metric)
	}

	switch {
	case size == 0 && m[2] != "":
		return metricRef{}, eris.Errorf("metric %q does not take an index", metric)
	case size > 0 && m[2] == "":
		return metricRef{}, eris.Errorf("metric %q needs an index 1..%d", metric, size)
	case size > 0:
		idx, err := strconv.Atoi(m[2])
		if err != nil || idx < 1 || idx > size {
			return metricRef{}, eris.Errorf("metric %q index out of range 1..%d", metric, size)
		}
		ref.index = idx
	}
	return ref, nil
}

// inferKind guesses the comparison kind from the metric's field name.
func inferKind(field string) Kind {
	switch {
	case field == "breakEvenMonth" || field == "depreciationYears":
		return KindMonths
	case strings.HasSuffix(field, "Pct") || strings.HasSuffix(field, "Multiple"):
		return KindPercentage
	}
	return KindCurrency
}

// lookupMetric returns the metric's value from out. ok is false when the
// value is null, as for a break-even month that never occurs.
func lookupMetric(out *engine.EngineOutput, ref metricRef) (value float64, ok bool, err error) {
	var record any
	switch ref.section {
	case "roi":
		record = out.ROIMetrics
	case "startup":
		record = out.StartupTotals
	case "financing":
		record = out.Financing
	case "annual":
		record = out.AnnualSummaries[ref.index-1]
	case "roic":
		record = out.ROIC[ref.index-1]
	case "valuation":
		record = out.Valuation[ref.index-1]
	case "monthly":
		record = out.MonthlyProjections[ref.index-1]
	}

	data, err := json.Marshal(record)
	if err != nil {
		return 0, false, eris.Wrap(err, "marshal metric record")
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return 0, false, eris.Wrap(err, "decode metric record")
	}

	raw, found := fields[ref.field]
	if !found {
		return 0, false, eris.Errorf("unknown field %q in %s", ref.field, ref.section)
	}
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case float64:
		return v, true, nil
	}
	return 0, false, eris.Errorf("field %q in %s is not numeric", ref.field, ref.section)
}
