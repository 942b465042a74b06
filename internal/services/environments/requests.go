package environments

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/models"
)

// TickerList decodes either a JSON array of symbols or a comma/newline separated string.
// Symbols are trimmed and upper-cased; empty entries are dropped.
type TickerList []string

// UnmarshalJSON implements json.Unmarshaler
func (t *TickerList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = nil
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*t = common.ParseTickers(raw)
		return nil
	}

	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("tickers must be a string or an array of strings")
	}
	var out []string
	for _, item := range items {
		out = append(out, common.ParseTickers(item)...)
	}
	*t = out
	return nil
}

// CriteriaInput decodes either an inline criteria string ("pe_max=25,roe_min=0.15") or a
// JSON object, preserving key order in both cases.
type CriteriaInput models.CriteriaConfig

// UnmarshalJSON implements json.Unmarshaler
func (c *CriteriaInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*c = CriteriaInput(criteria.ParseInline(raw))
		return nil
	}

	var cfg models.CriteriaConfig
	if err := cfg.UnmarshalJSON(data); err != nil {
		return err
	}
	*c = CriteriaInput(cfg)
	return nil
}

// CreateRequest is the payload for creating an environment.
type CreateRequest struct {
	Name     string        `json:"name" validate:"max=200"`
	Thesis   string        `json:"thesis" validate:"max=10000"`
	Tickers  TickerList    `json:"tickers" validate:"max=500,dive,max=32"`
	Criteria CriteriaInput `json:"criteria"`
	Schedule string        `json:"schedule" validate:"max=100"`
}

// UpdateRequest is the payload for updating an environment. Absent or empty fields keep
// the stored value, so a ticker list or criteria set cannot be cleared by omission.
type UpdateRequest struct {
	Name     *string       `json:"name" validate:"omitempty,max=200"`
	Thesis   *string       `json:"thesis" validate:"omitempty,max=10000"`
	Tickers  TickerList    `json:"tickers" validate:"max=500,dive,max=32"`
	Criteria CriteriaInput `json:"criteria"`
	Schedule *string       `json:"schedule" validate:"omitempty,max=100"`
}
