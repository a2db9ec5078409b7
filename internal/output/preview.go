package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"event-template-cli/internal/model"
)

// PreviewRow is a record numbered from 1 within its sheet.
type PreviewRow struct {
	No                   int `yaml:"no"`
	model.TimeslotRecord `yaml:",inline"`
}

type SheetPreview struct {
	Sheet string       `yaml:"sheet"`
	Total int          `yaml:"total"`
	Rows  []PreviewRow `yaml:"rows"`
}

// Preview groups records by sheet in first-seen order. A positive limit caps the
// rows kept per sheet; Total still counts them all.
func Preview(records []model.TimeslotRecord, limit int) []SheetPreview {
	var out []SheetPreview
	pos := map[string]int{}
	for _, r := range records {
		i, ok := pos[r.Sheet]
		if !ok {
			i = len(out)
			pos[r.Sheet] = i
			out = append(out, SheetPreview{Sheet: r.Sheet})
		}
		p := &out[i]
		p.Total++
		if limit > 0 && len(p.Rows) >= limit {
			continue
		}
		p.Rows = append(p.Rows, PreviewRow{No: p.Total, TimeslotRecord: r})
	}
	return out
}

// RenderTable prints each sheet as an aligned text table.
func RenderTable(w io.Writer, previews []SheetPreview) error {
	for i, p := range previews {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "== %s (%d rows) ==\n", p.Sheet, p.Total); err != nil {
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "No.\tEvent\tResource\tConfiguration\tDate\tStart Time\tEnd Time\tCapacity\tReference")
		for _, r := range p.Rows {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.No, r.Event, r.Resource, r.Configuration, r.Date, r.StartTime, r.EndTime, r.Capacity, r.Reference)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if hidden := p.Total - len(p.Rows); hidden > 0 {
			if _, err := fmt.Fprintf(w, "... %d more\n", hidden); err != nil {
				return err
			}
		}
	}
	return nil
}

// RenderYAML writes the previews as a YAML document.
func RenderYAML(w io.Writer, previews []SheetPreview) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(previews); err != nil {
		return err
	}
	return enc.Close()
}
