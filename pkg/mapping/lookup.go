package mapping

import (
	"fmt"
	"strconv"
	"strings"
)

// Usage is the position a type appears in. Some dialects accept fewer types
// as CAST targets or key columns than in a plain column definition.
type Usage int

// Type positions.
const (
	UseColumn Usage = iota
	UseKey
	UseCast
)

// MapType translates a type name and its parameters from one dialect to
// another. Lookups within one dialect are always exact.
func (ts *Tables) MapType(name string, params []string, from, to string) Result {
	return ts.MapTypeFor(name, params, from, to, UseColumn)
}

// MapTypeFor is MapType for a type in the given position. Cast and key
// entries of the target table take precedence over its export entries.
func (ts *Tables) MapTypeFor(name string, params []string, from, to string, use Usage) Result {
	name = upper(name)
	from, to = strings.ToLower(from), strings.ToLower(to)
	if from == to {
		return Result{Outcome: Exact, Target: name, Params: params}
	}

	src, dst, res, ok := ts.pair(from, to)
	if !ok {
		return res
	}

	if rule, ok := dst.typeOverrides[pairKey{from: from, symbol: name}]; ok {
		return rule.applyType(params)
	}

	imp, ok := src.typeImport[name]
	if !ok {
		return Result{Outcome: Unsupported, Note: fmt.Sprintf("type %s is not in the %s mapping table", name, from)}
	}
	exp, ok := dst.exportFor(imp.canonical, use)
	if !ok {
		return Result{Outcome: Unsupported, Canonical: imp.canonical,
			Note: fmt.Sprintf("%s has no %s equivalent", name, to)}
	}

	res = exp.applyType(params)
	res.Canonical = imp.canonical
	res.AutoIncrement = imp.autoIncrement
	if imp.lossy != "" && res.Outcome != Unsupported {
		res = res.withLossy(imp.lossy)
	}
	return res
}

// MapFunction translates a function name from one dialect to another.
// Functions missing from the source table pass through unchanged.
func (ts *Tables) MapFunction(name, from, to string) Result {
	name = upper(name)
	from, to = strings.ToLower(from), strings.ToLower(to)
	if from == to {
		return Result{Outcome: Exact, Target: name}
	}

	src, dst, res, ok := ts.pair(from, to)
	if !ok {
		res.Target = UnsupportedFunctionName(name)
		return res
	}

	if rule, ok := dst.funcOverrides[pairKey{from: from, symbol: name}]; ok {
		return rule.applyFunction(name)
	}

	imp, ok := src.funcImport[name]
	if !ok {
		return Result{Outcome: Passthrough, Target: name,
			Note: fmt.Sprintf("function %s is not in the %s mapping table; passed through unchanged", name, from)}
	}
	exp, ok := dst.funcExport[imp.canonical]
	if !ok {
		return Result{Outcome: Unsupported, Target: UnsupportedFunctionName(name), Canonical: imp.canonical,
			Note: fmt.Sprintf("%s has no %s equivalent", name, to)}
	}

	res = exp.applyFunction(name)
	res.Canonical = imp.canonical
	if imp.lossy != "" && res.Outcome != Unsupported {
		res = res.withLossy(imp.lossy)
	}
	return res
}

func (t *Table) exportFor(canonical string, use Usage) (exportRule, bool) {
	switch use {
	case UseCast:
		if rule, ok := t.typeCast[canonical]; ok {
			return rule, true
		}
	case UseKey:
		if rule, ok := t.typeKey[canonical]; ok {
			return rule, true
		}
	}
	rule, ok := t.typeExport[canonical]
	return rule, ok
}

// pair resolves both tables, or returns an Unsupported result naming the
// dialect that has none.
func (ts *Tables) pair(from, to string) (src, dst *Table, res Result, ok bool) {
	src, ok = ts.tables[from]
	if !ok {
		return nil, nil, Result{Outcome: Unsupported, Note: fmt.Sprintf("no mapping table for dialect %s", from)}, false
	}
	dst, ok = ts.tables[to]
	if !ok {
		return nil, nil, Result{Outcome: Unsupported, Note: fmt.Sprintf("no mapping table for dialect %s", to)}, false
	}
	return src, dst, Result{}, true
}

func (r exportRule) applyType(params []string) Result {
	if r.unsupported != "" {
		return Result{Outcome: Unsupported, Note: r.unsupported}
	}

	res := Result{Outcome: Exact, Target: r.native, Params: params}
	switch {
	case r.params != nil:
		res.Params = r.params
	case r.dropParams:
		res.Params = nil
		if len(params) > 0 {
			res = res.withLossy(fmt.Sprintf("%s takes no parameters; (%s) dropped", r.native, strings.Join(params, ", ")))
		}
	case len(params) == 0 && r.defaultParams != nil:
		res.Params = r.defaultParams
	}

	if r.maxPrecision > 0 {
		res = r.clampPrecision(res)
	}
	if len(params) == 0 && r.lossyUnparameterized != "" {
		res = res.withLossy(r.lossyUnparameterized)
	}
	if r.lossy != "" {
		res = res.withLossy(r.lossy)
	}
	return res
}

// clampPrecision caps the leading precision parameter, and a scale above
// it, at the target's maximum.
func (r exportRule) clampPrecision(res Result) Result {
	if len(res.Params) == 0 {
		return res
	}
	precision, err := strconv.Atoi(res.Params[0])
	if err != nil || precision <= r.maxPrecision {
		return res
	}
	limit := strconv.Itoa(r.maxPrecision)
	clamped := append([]string{limit}, res.Params[1:]...)
	if len(clamped) > 1 {
		if scale, err := strconv.Atoi(clamped[1]); err == nil && scale > r.maxPrecision {
			clamped[1] = limit
		}
	}
	res.Params = clamped
	return res.withLossy(fmt.Sprintf("precision %d exceeds the %s maximum of %d; clamped to %s(%s)",
		precision, r.native, r.maxPrecision, r.native, strings.Join(clamped, ",")))
}

func (r exportRule) applyFunction(name string) Result {
	if r.unsupported != "" {
		return Result{Outcome: Unsupported, Target: UnsupportedFunctionName(name), Note: r.unsupported}
	}
	res := Result{Outcome: Exact, Target: r.native}
	if r.lossy != "" {
		res = res.withLossy(r.lossy)
	}
	return res
}

// IsAutoIncrementType reports whether a dialect's type name implies an
// auto-incrementing column, like postgres SERIAL.
func (ts *Tables) IsAutoIncrementType(name, dialect string) bool {
	t, ok := ts.Table(dialect)
	if !ok {
		return false
	}
	return t.typeImport[upper(name)].autoIncrement
}
