package generator

import (
	"strings"
	"time"

	"event-template-cli/internal/config"
	"event-template-cli/internal/lexical"
)

// LabelOverride forces both main-row labels for activities on Sheet that begin with Prefix.
type LabelOverride struct {
	Sheet  string
	Prefix string
	Label  string
}

func (o LabelOverride) applies(sheet, activity string) bool {
	if o.Sheet == "" || o.Prefix == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(sheet), strings.TrimSpace(o.Sheet)) &&
		strings.HasPrefix(strings.ToLower(activity), strings.ToLower(o.Prefix))
}

// Options is everything one generation run depends on besides its inputs.
type Options struct {
	Year         int
	TargetSheets []string
	OffDutySheet string
	ProductSheet string
	Override     LabelOverride
	Exclude      lexical.Highlight
	OffCodes     []string
	TeamMarker   string
	Resorts      lexical.ResortTable
	Palette      []string
	// Seed drives colour assignment; 0 seeds from the clock.
	Seed int64
}

// OptionsFromConfig resolves the output year against now in the configured timezone.
func OptionsFromConfig(cfg *config.Config, now time.Time) Options {
	g := cfg.Generate
	aliases := make([]lexical.ResortAlias, 0, len(cfg.Resorts))
	for _, r := range cfg.Resorts {
		aliases = append(aliases, lexical.ResortAlias{Code: r.Code, Aliases: r.Aliases})
	}
	return Options{
		Year:         cfg.OutputYear(now),
		TargetSheets: g.TargetSheets,
		OffDutySheet: g.OffDutySheet,
		ProductSheet: g.ProductSheet,
		Override: LabelOverride{
			Sheet:  g.LabelOverride.Sheet,
			Prefix: g.LabelOverride.Prefix,
			Label:  g.LabelOverride.Label,
		},
		Exclude:    lexical.Highlight{Color: g.ExcludeColor, SuffixMatch: g.ExcludeSuffixMatch},
		OffCodes:   g.OffCodes,
		TeamMarker: g.TeamMarker,
		Resorts:    lexical.NewResortTable(aliases),
		Palette:    g.Palette,
		Seed:       g.Seed,
	}
}

func (o Options) isTarget(sheet string) bool {
	for _, t := range o.TargetSheets {
		if strings.EqualFold(strings.TrimSpace(t), strings.TrimSpace(sheet)) {
			return true
		}
	}
	return false
}
