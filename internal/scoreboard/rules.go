package scoreboard

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/DoyleJ11/packboard/internal/store"
)

var (
	ErrEmptyInput  = errors.New("empty input")
	ErrNotANumber  = errors.New("not a number")
	ErrNotPositive = errors.New("not a positive amount")
	ErrNotWhole    = errors.New("not a whole number")
	ErrBadStatus   = errors.New("unknown game status")
)

// DefaultDenominator is what the reset dialog offers for total packs.
const DefaultDenominator = "36"

var (
	denominatorPattern = regexp.MustCompile(`^\d+$`)
	decimalPattern     = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)$`)
)

// TrimDecimals keeps at most two digits after the decimal point, the way the
// amount inputs filter keystrokes.
func TrimDecimals(raw string) string {
	whole, frac, found := strings.Cut(raw, ".")
	if !found {
		return raw
	}
	if frac == "" {
		return whole
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	return whole + "." + frac
}

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func FormatCents(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ParseAmount reads a decimal score or delta with two-decimal precision.
func ParseAmount(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrEmptyInput
	}
	// ParseFloat alone also takes hex, exponents and underscores.
	if !decimalPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	v, err := strconv.ParseFloat(TrimDecimals(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	return RoundCents(v), nil
}

// ParsePositiveAmount is ParseAmount restricted to values above zero.
func ParsePositiveAmount(raw string) (float64, error) {
	v, err := ParseAmount(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotPositive, raw)
	}
	return v, nil
}

// NormalizeName trims a display name. ok is false when nothing is left.
func NormalizeName(raw string) (name string, ok bool) {
	name = strings.TrimSpace(raw)
	return name, name != ""
}

// ClampPackInput filters a typed pack count: digits only, no more digits than
// total has, and never above total.
func ClampPackInput(raw string, total int) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	val := b.String()

	maxDigits := len(strconv.Itoa(total))
	if len(val) > maxDigits {
		val = val[:maxDigits]
	}
	if n, err := strconv.Atoi(val); err == nil && n > total {
		val = strconv.Itoa(total)
	}
	return val
}

// ParsePackCount clamps raw against total and reads it as an integer.
func ParsePackCount(raw string, total int) (int, error) {
	val := ClampPackInput(raw, total)
	if val == "" {
		return 0, ErrEmptyInput
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	return ClampCount(n, total), nil
}

// ClampCount pins n into [0, total].
func ClampCount(n, total int) int {
	return max(0, min(n, max(total, 0)))
}

// ParsePackAmount reads a pack delta. Packs are whole, so fractions are refused.
func ParsePackAmount(raw string) (int, error) {
	v, err := ParsePositiveAmount(raw)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, fmt.Errorf("%w: %q", ErrNotWhole, raw)
	}
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	return int(v), nil
}

// ApplyPackAdd adds amount to the counter. When that would pass the total the
// amount is cut so the counter lands exactly on it.
func ApplyPackAdd(gs store.GameState, amount int) (applied, packCount int) {
	applied = amount
	packCount = gs.PackCount + amount
	if packCount > gs.TotalPacks {
		applied = gs.TotalPacks - gs.PackCount
		packCount = gs.TotalPacks
	}
	return applied, packCount
}

// ParseDenominator accepts a positive integer written with digits only.
func ParseDenominator(raw string) (int, error) {
	if !denominatorPattern.MatchString(raw) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotPositive, raw)
	}
	return n, nil
}

func ParseStatus(raw string) (store.GameStatus, error) {
	s := store.GameStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrBadStatus, raw)
	}
	return s, nil
}
