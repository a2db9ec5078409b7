package config

import (
	"fmt"
	"strings"
)

// DefaultConfig mirrors configs/config.yaml so the tool runs without a file.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel: "info",
			Timezone: "Asia/Riyadh",
		},
		Generate: GenerateConfig{
			TargetSheets: []string{"AKUN", "WAMA", "GALAXEA"},
			OffDutySheet: "AKUN",
			ProductSheet: "GALAXEA",
			LabelOverride: LabelOverride{
				Sheet:  "WAMA",
				Prefix: "sailing",
				Label:  "Sailing",
			},
			ExcludeColor:       "FFC00000",
			ExcludeSuffixMatch: true,
			OffCodes:           []string{"AO", "OD", "AL", "SK", "PH", "AB", "TL", "DO", "OF", "CV", "CVO", "OS"},
			Palette: []string{
				"FFFFE5CC", "FFE5FFCC", "FFCCFFE5", "FFCCE5FF",
				"FFFFCCFF", "FFE5CCFF", "FFFFCCCC", "FFCCFFFF",
			},
			TeamMarker: "team members name",
		},
		Resorts: DefaultResorts(),
		Database: DatabaseConfig{
			Path:         "data/timeslots.db",
			InsertedUser: "optimo.admin",
		},
	}
}

// DefaultResorts is the curated alias table. Order matters: the first code whose
// alias matches wins.
func DefaultResorts() []ResortConfig {
	return []ResortConfig{
		{Code: "ST", Aliases: []string{"st.regis", "st regis", "stregis", "st"}},
		{Code: "NJ", Aliases: []string{"nujuma", "nujuma resort", "nj"}},
		{Code: "TB", Aliases: []string{"turtle bay", "turtlebay", "tb"}},
		{Code: "DR", Aliases: []string{"desert rock", "desertrock", "dr"}},
		{Code: "SS", Aliases: []string{"six senses", "sixsenses", "ss"}},
		{Code: "SH", Aliases: []string{"shebara", "sh", "shebarah"}},
		{Code: "ED", Aliases: []string{"edition", "ed"}},
		{Code: "MV", Aliases: []string{"maravel", "mv"}},
		{Code: "SLS", Aliases: []string{"sls resort", "sls", "slsresort"}},
		{Code: "IC", Aliases: []string{"intercontinental", "ic"}},
		{Code: "AM", Aliases: []string{"amaala", "am"}},
	}
}

func (c *Config) applyDefaults(def *Config) {
	if strings.TrimSpace(c.App.LogLevel) == "" {
		c.App.LogLevel = def.App.LogLevel
	}
	if strings.TrimSpace(c.App.Timezone) == "" {
		c.App.Timezone = def.App.Timezone
	}
	g := &c.Generate
	if len(g.TargetSheets) == 0 {
		g.TargetSheets = def.Generate.TargetSheets
	}
	if g.OffDutySheet == "" {
		g.OffDutySheet = def.Generate.OffDutySheet
	}
	if g.ProductSheet == "" {
		g.ProductSheet = def.Generate.ProductSheet
	}
	if g.LabelOverride.Sheet == "" && g.LabelOverride.Prefix == "" && g.LabelOverride.Label == "" {
		g.LabelOverride = def.Generate.LabelOverride
	}
	if g.ExcludeColor == "" {
		g.ExcludeColor = def.Generate.ExcludeColor
		g.ExcludeSuffixMatch = def.Generate.ExcludeSuffixMatch
	}
	if len(g.OffCodes) == 0 {
		g.OffCodes = def.Generate.OffCodes
	}
	if len(g.Palette) == 0 {
		g.Palette = def.Generate.Palette
	}
	if strings.TrimSpace(g.TeamMarker) == "" {
		g.TeamMarker = def.Generate.TeamMarker
	}
	if len(c.Resorts) == 0 {
		c.Resorts = def.Resorts
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Database.InsertedUser == "" {
		c.Database.InsertedUser = def.Database.InsertedUser
	}
}

func validate(c *Config) error {
	if len(c.Generate.TargetSheets) == 0 {
		return fmt.Errorf("generate.target_sheets cannot be empty")
	}
	for _, p := range c.Generate.Palette {
		if !isHexColor(p) {
			return fmt.Errorf("generate.palette: %q is not a 6 or 8 digit hex colour", p)
		}
	}
	if c.Generate.OffDutySheet != "" && !c.IsTarget(c.Generate.OffDutySheet) {
		return fmt.Errorf("generate.off_duty_sheet %q is not a target sheet", c.Generate.OffDutySheet)
	}
	if c.Generate.ProductSheet != "" && !c.IsTarget(c.Generate.ProductSheet) {
		return fmt.Errorf("generate.product_sheet %q is not a target sheet", c.Generate.ProductSheet)
	}
	for i, r := range c.Resorts {
		if strings.TrimSpace(r.Code) == "" {
			return fmt.Errorf("resorts[%d]: code cannot be empty", i)
		}
	}
	return nil
}

func isHexColor(s string) bool {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 && len(s) != 8 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
