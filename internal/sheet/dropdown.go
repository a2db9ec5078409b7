package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var formulaUnescaper = strings.NewReplacer(
	"<formula1>", "", "</formula1>", "",
	"&quot;", `"`, "&apos;", "'", "&lt;", "<", "&gt;", ">", "&amp;", "&",
)

// BookableHours resolves the list-type data validation covering the cell and
// returns its non-blank choices in source order.
func (x *XLSX) BookableHours(sheet string, row, col int) ([]string, error) {
	dvs, err := x.dataValidations(sheet)
	if err != nil {
		return nil, err
	}
	for _, dv := range dvs {
		if dv == nil || !strings.EqualFold(dv.Type, "list") {
			continue
		}
		if !sqrefContains(dv.Sqref, row, col) {
			continue
		}
		return x.listChoices(sheet, dv.Formula1, 0)
	}
	return nil, nil
}

func (x *XLSX) dataValidations(sheet string) ([]*excelize.DataValidation, error) {
	if dvs, ok := x.validations[sheet]; ok {
		return dvs, nil
	}
	dvs, err := x.f.GetDataValidations(sheet)
	if err != nil {
		return nil, err
	}
	x.validations[sheet] = dvs
	return dvs, nil
}

// listChoices understands inline lists ("a,b"), range references with or
// without a sheet prefix, and defined names.
func (x *XLSX) listChoices(sheet, formula string, depth int) ([]string, error) {
	f := strings.TrimSpace(formulaUnescaper.Replace(formula))
	f = strings.TrimPrefix(f, "=")
	if f == "" {
		return nil, nil
	}
	if strings.HasPrefix(f, `"`) {
		var out []string
		for _, p := range strings.Split(strings.Trim(f, `"`), ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, nil
	}
	target, addr := sheet, f
	if i := strings.LastIndex(f, "!"); i >= 0 {
		target = strings.Trim(strings.TrimSpace(f[:i]), "'")
		addr = f[i+1:]
	} else if !looksLikeRange(f) {
		if depth > 0 {
			return nil, fmt.Errorf("defined name %q does not resolve to a range", f)
		}
		for _, dn := range x.f.GetDefinedName() {
			if strings.EqualFold(dn.Name, f) {
				return x.listChoices(sheet, dn.RefersTo, depth+1)
			}
		}
		return nil, fmt.Errorf("unknown dropdown source %q", f)
	}
	c1, r1, c2, r2, err := parseRange(addr)
	if err != nil {
		return nil, err
	}
	var out []string
	for r := r1; r <= r2; r++ {
		for c := c1; c <= c2; c++ {
			ref, _ := excelize.CoordinatesToCellName(c, r)
			v, err := x.f.GetCellValue(target, ref)
			if err != nil {
				return nil, err
			}
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func looksLikeRange(s string) bool {
	first := strings.Split(s, ":")[0]
	_, _, err := excelize.CellNameToCoordinates(strings.ReplaceAll(first, "$", ""))
	return err == nil
}

// parseRange turns "$A$1:$B$4" or "C7" into inclusive coordinates.
func parseRange(ref string) (c1, r1, c2, r2 int, err error) {
	parts := strings.SplitN(strings.ReplaceAll(strings.TrimSpace(ref), "$", ""), ":", 2)
	c1, r1, err = excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return 0, 0, 0, 0, err
	}
	c2, r2 = c1, r1
	if len(parts) == 2 {
		c2, r2, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return 0, 0, 0, 0, err
		}
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	if r1 > r2 {
		r1, r2 = r2, r1
	}
	return c1, r1, c2, r2, nil
}

// sqrefContains checks a space-separated list of cell or range references.
func sqrefContains(sqref string, row, col int) bool {
	for _, ref := range strings.Fields(sqref) {
		c1, r1, c2, r2, err := parseRange(ref)
		if err != nil {
			continue
		}
		if row >= r1 && row <= r2 && col >= c1 && col <= c2 {
			return true
		}
	}
	return false
}
