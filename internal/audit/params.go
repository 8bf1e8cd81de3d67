package audit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidTolerance is returned when tolerance text is not a number.
var ErrInvalidTolerance = errors.New("invalid tolerance")

// DefaultKeywords is the sensitive-term list used when none is configured.
var DefaultKeywords = []string{"ajuste", "estorno", "erro", "manual", "urgente", "socio", "conforme"}

// MeanPolicy selects which entries form the comparison population of the
// outlier test.
type MeanPolicy int

const (
	// IncludeSelf averages over the whole account group, the entry under test included.
	IncludeSelf MeanPolicy = iota

	// ExcludeSelf averages over the other entries of the group only.
	ExcludeSelf
)

// ParseMeanPolicy converts "include"/"exclude" to a MeanPolicy.
func ParseMeanPolicy(s string) (MeanPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "include", "include-self":
		return IncludeSelf, true
	case "exclude", "exclude-self":
		return ExcludeSelf, true
	default:
		return IncludeSelf, false
	}
}

func (p MeanPolicy) String() string {
	if p == ExcludeSelf {
		return "exclude-self"
	}
	return "include-self"
}

// Params holds the thresholds of a single evaluation.
type Params struct {
	// Tolerance is the materiality threshold for FlagExceedsTolerance.
	Tolerance decimal.Decimal

	OutlierMultiplier decimal.Decimal
	MeanPolicy        MeanPolicy

	// RoundUnit is the modulus for FlagRoundAmount.
	RoundUnit decimal.Decimal

	// MinDescriptionLength is measured in characters, whitespace included.
	MinDescriptionLength int

	Keywords []string

	// FoldAccents makes "sócio" match the keyword "socio".
	FoldAccents bool
}

// DefaultParams returns the standard thresholds.
func DefaultParams() Params {
	return Params{
		Tolerance:            decimal.NewFromInt(100000),
		OutlierMultiplier:    decimal.NewFromInt(10),
		MeanPolicy:           IncludeSelf,
		RoundUnit:            decimal.NewFromInt(100),
		MinDescriptionLength: 5,
		Keywords:             append([]string(nil), DefaultKeywords...),
	}
}

// Validate checks that the thresholds can drive an evaluation.
func (p Params) Validate() error {
	var errs []string

	if !p.OutlierMultiplier.IsPositive() {
		errs = append(errs, "outlier multiplier must be positive")
	}
	if !p.RoundUnit.IsPositive() {
		errs = append(errs, "round unit must be positive")
	}
	if p.MinDescriptionLength < 0 {
		errs = append(errs, "minimum description length must not be negative")
	}
	for _, k := range p.Keywords {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, "keywords must not be blank")
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("audit params: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ParseTolerance parses a user-entered materiality threshold.
// Blank text yields fallback.
func ParseTolerance(text string, fallback decimal.Decimal) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback, nil
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w %q: not a number", ErrInvalidTolerance, text)
	}
	return d, nil
}
