package models

import (
	"strconv"
	"strings"
)

// Status is the overall verdict for a ticker.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// Failure markers produced outside of criterion evaluation.
const (
	FailureDataUnavailable = "data_unavailable"
	FailureScreeningError  = "screening_error"
)

// FailureSeparator joins failure descriptions in the flat record.
const FailureSeparator = ", "

// ScreeningResult is the verdict for one ticker in one screening call.
type ScreeningResult struct {
	Ticker         string      `json:"ticker"`
	CompanyName    string      `json:"company_name"`
	Metrics        Metrics     `json:"metrics"`
	PassedCriteria int         `json:"passed_criteria"`
	TotalCriteria  int         `json:"total_criteria"`
	Failures       []string    `json:"failures"`
	Status         Status      `json:"status"`
	Source         FetchSource `json:"source"`
	Error          string      `json:"error,omitempty"`
}

// Passed reports whether every criterion passed.
func (r ScreeningResult) Passed() bool {
	return r.Status == StatusPass
}

// Record flattens the result into the stable reporting shape.
func (r ScreeningResult) Record() Record {
	return Record{
		Ticker:         r.Ticker,
		CompanyName:    r.CompanyName,
		MarketCap:      r.Metrics.MarketCap,
		PERatio:        r.Metrics.PERatio,
		CurrentRatio:   r.Metrics.CurrentRatio,
		DebtToEquity:   r.Metrics.DebtToEquity,
		RevenueGrowth:  r.Metrics.RevenueGrowth,
		ROE:            r.Metrics.ROE,
		NetIncome:      r.Metrics.NetIncome,
		PassedCriteria: r.PassedCriteria,
		TotalCriteria:  r.TotalCriteria,
		FailedCriteria: strings.Join(r.Failures, FailureSeparator),
		Status:         r.Status,
	}
}

// Record is the flat, delimiter-joined representation consumed by reports.
// Field order is the column order.
type Record struct {
	Ticker         string   `json:"ticker"`
	CompanyName    string   `json:"company_name"`
	MarketCap      *float64 `json:"market_cap"`
	PERatio        *float64 `json:"pe_ratio"`
	CurrentRatio   *float64 `json:"current_ratio"`
	DebtToEquity   *float64 `json:"debt_to_equity"`
	RevenueGrowth  *float64 `json:"revenue_growth"`
	ROE            *float64 `json:"roe"`
	NetIncome      *float64 `json:"net_income"`
	PassedCriteria int      `json:"passed_criteria"`
	TotalCriteria  int      `json:"total_criteria"`
	FailedCriteria string   `json:"failed_criteria"`
	Status         Status   `json:"status"`
}

// RecordColumns lists the flat record field names in order.
var RecordColumns = []string{
	"ticker",
	"company_name",
	"market_cap",
	"pe_ratio",
	"current_ratio",
	"debt_to_equity",
	"revenue_growth",
	"roe",
	"net_income",
	"passed_criteria",
	"total_criteria",
	"failed_criteria",
	"status",
}

// Values renders the record as strings in RecordColumns order. Absent numbers are empty.
func (r Record) Values() []string {
	return []string{
		r.Ticker,
		r.CompanyName,
		formatOptional(r.MarketCap),
		formatOptional(r.PERatio),
		formatOptional(r.CurrentRatio),
		formatOptional(r.DebtToEquity),
		formatOptional(r.RevenueGrowth),
		formatOptional(r.ROE),
		formatOptional(r.NetIncome),
		strconv.Itoa(r.PassedCriteria),
		strconv.Itoa(r.TotalCriteria),
		r.FailedCriteria,
		string(r.Status),
	}
}

// Records flattens a result set, preserving order.
func Records(results []ScreeningResult) []Record {
	records := make([]Record, len(results))
	for i, r := range results {
		records[i] = r.Record()
	}
	return records
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
