package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/JonMunkholm/ledgeraudit/internal/audit"
	"github.com/JonMunkholm/ledgeraudit/internal/report"
	"gopkg.in/yaml.v3"
)

// Profile is a YAML report profile. It replaces the organization, locale,
// keyword list and per-procedure texts of the built-in catalogue, e.g.:
//
//	organization: Example Audit LLC
//	locale: en
//	keywords: [adjustment, reversal, error, manual, urgent, partner]
//	procedures:
//	  weekend:
//	    sheet: Weekend
//	    display: Weekend
//	    objective: Entries posted on Saturdays or Sundays.
type Profile struct {
	Organization string                   `yaml:"organization"`
	Locale       string                   `yaml:"locale"`
	Keywords     []string                 `yaml:"keywords"`
	Procedures   map[string]ProcedureText `yaml:"procedures"`
}

// ProcedureText overrides the display texts of one procedure.
// Empty fields keep the built-in value.
type ProcedureText struct {
	Sheet     string `yaml:"sheet"`
	Display   string `yaml:"display"`
	Objective string `yaml:"objective"`
	Method    string `yaml:"method"`
}

var procedureKeys = []string{
	audit.KeyFull, audit.KeyOutlier, audit.KeyTolerance, audit.KeyRound,
	audit.KeyDescription, audit.KeyWeekend, audit.KeyKeyword,
}

// LoadProfile reads and validates a YAML report profile.
// An empty path returns a nil profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}
	return &p, nil
}

// Validate rejects unknown procedure keys, unsupported locales, blank
// keywords and duplicate sheet names.
func (p *Profile) Validate() error {
	var errs []string

	if p.Locale != "" && !report.SupportedLocale(p.Locale) {
		errs = append(errs, fmt.Sprintf("locale %q is not supported", p.Locale))
	}
	for _, k := range p.Keywords {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, "keywords must not be blank")
			break
		}
	}

	known := make(map[string]bool, len(procedureKeys))
	for _, k := range procedureKeys {
		known[k] = true
	}
	keys := make([]string, 0, len(p.Procedures))
	for k := range p.Procedures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !known[k] {
			errs = append(errs, fmt.Sprintf("unknown procedure %q (known: %s)", k, strings.Join(procedureKeys, ", ")))
		}
	}

	sheets := make(map[string]string)
	for _, proc := range p.Apply(audit.DefaultProcedures(audit.DefaultParams())) {
		name := strings.ToLower(report.SheetName(proc.Sheet))
		if other, dup := sheets[name]; dup {
			errs = append(errs, fmt.Sprintf("procedures %q and %q share sheet name %q", other, proc.Key, proc.Sheet))
		}
		sheets[name] = proc.Key
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ApplyParams copies the profile keywords into p.
func (p *Profile) ApplyParams(params audit.Params) audit.Params {
	if p == nil || len(p.Keywords) == 0 {
		return params
	}
	params.Keywords = append([]string(nil), p.Keywords...)
	return params
}

// ApplyStyle copies the profile organization and locale into s.
func (p *Profile) ApplyStyle(s report.Style) report.Style {
	if p == nil {
		return s
	}
	if p.Organization != "" {
		s.Organization = p.Organization
	}
	if p.Locale != "" {
		s.Locale = p.Locale
	}
	return s
}

// Apply returns procs with the profile texts applied.
func (p *Profile) Apply(procs []audit.Procedure) []audit.Procedure {
	out := append([]audit.Procedure(nil), procs...)
	if p == nil {
		return out
	}

	for i := range out {
		t, ok := p.Procedures[out[i].Key]
		if !ok {
			continue
		}
		if t.Sheet != "" {
			out[i].Sheet = t.Sheet
		}
		if t.Display != "" {
			out[i].Display = t.Display
		}
		if t.Objective != "" {
			out[i].Objective = t.Objective
		}
		if t.Method != "" {
			out[i].Method = t.Method
		}
	}
	return out
}
