package service

import (
	"strings"

	"autolytiq-desk/internal/apperrors"

	"github.com/cockroachdb/apd/v3"
)

// Column limits from the schema: NUMERIC(12,2) money, NUMERIC(6,3) rates
const (
	moneyDigits = 12
	moneyScale  = 2
	rateDigits  = 6
	rateScale   = 3
)

var decimalCtx = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(24)
	c.Rounding = apd.RoundHalfEven
	return c
}()

// parseDecimal validates raw as a finite non-negative fixed-point number and
// returns its canonical text rounded to scale places.
func parseDecimal(field, raw string, digits int64, scale int32) (string, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return "", apperrors.Validation(field, "must be a decimal number, got %q", raw)
	}
	if d.Form != apd.Finite {
		return "", apperrors.Validation(field, "must be a finite decimal, got %q", raw)
	}
	if d.Negative && !d.IsZero() {
		return "", apperrors.Validation(field, "must not be negative")
	}
	d.Negative = false

	var q apd.Decimal
	if _, err := decimalCtx.Quantize(&q, d, -scale); err != nil {
		return "", apperrors.Validation(field, "is out of range")
	}
	if q.NumDigits() > digits {
		return "", apperrors.Validation(field, "exceeds %d digits", digits)
	}
	return q.Text('f'), nil
}

func parseMoney(field, raw string) (string, error) {
	return parseDecimal(field, raw, moneyDigits, moneyScale)
}

func parseRate(field, raw string) (string, error) {
	return parseDecimal(field, raw, rateDigits, rateScale)
}
