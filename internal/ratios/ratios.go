// Package ratios derives standard financial ratios from raw statement data.
// Every function here is pure and never fails; underivable values are nil.
package ratios

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ternarybob/screener/internal/models"
)

// Derive computes the derived ratios for raw. A nil raw yields all-absent ratios.
func Derive(raw *models.RawFinancials) models.DerivedRatios {
	if raw == nil {
		return models.DerivedRatios{}
	}

	balance := raw.BalanceSheet
	income := raw.IncomeStatement

	currentAssets := Lookup(balance, CurrentAssetsAliases)
	currentLiabilities := Lookup(balance, CurrentLiabilitiesAliases)
	totalDebt := Lookup(balance, TotalDebtAliases)
	equity := Lookup(balance, EquityAliases)
	netIncome := Lookup(income, NetIncomeAliases)
	revenue := Lookup(income, RevenueAliases)
	priorRevenue := Lookup(raw.PriorIncomeStatement, RevenueAliases)

	var growth *float64
	if revenue != nil && priorRevenue != nil && *priorRevenue != 0 {
		growth = models.Float((*revenue - *priorRevenue) / *priorRevenue)
	}

	return models.DerivedRatios{
		CurrentRatio:  divide(currentAssets, currentLiabilities),
		DebtToEquity:  divide(totalDebt, equity),
		ROE:           divide(netIncome, equity),
		RevenueGrowth: growth,
		NetIncome:     netIncome,
	}
}

// Lookup returns the value of the first alias present in statement. A present value
// that is not numeric, or is NaN, yields nil without trying later aliases.
func Lookup(statement models.Statement, aliases []string) *float64 {
	if len(statement) == 0 {
		return nil
	}
	for _, alias := range aliases {
		if value, ok := statement[alias]; ok {
			return ToFloat(value)
		}
	}
	return nil
}

// ToFloat extracts a number from a vendor value. Strings are parsed; "", "None",
// "null" and "NaN" markers are absent.
func ToFloat(value interface{}) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return models.Float(v)
	case float32:
		return models.Float(float64(v))
	case int:
		return models.Float(float64(v))
	case int32:
		return models.Float(float64(v))
	case int64:
		return models.Float(float64(v))
	case uint64:
		return models.Float(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil
		}
		return models.Float(f)
	case string:
		s := strings.TrimSpace(v)
		switch strings.ToLower(s) {
		case "", "none", "null", "nan":
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return models.Float(f)
	default:
		return nil
	}
}

func divide(numerator, denominator *float64) *float64 {
	if numerator == nil || denominator == nil || *denominator == 0 {
		return nil
	}
	return models.Float(*numerator / *denominator)
}

// IsAbsent reports whether v carries no usable number.
func IsAbsent(v *float64) bool {
	return v == nil || math.IsNaN(*v)
}
