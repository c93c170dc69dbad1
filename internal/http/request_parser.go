// Package http serves the browser front-end of the ledger.
//
// This file parses form and JSON request bodies into ledger edits.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"budgetbook/internal/adjust"
	"budgetbook/internal/core"
)

const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// Field prefixes of the batch edit forms: budget_<category> and actual_<category>.
const (
	budgetPrefix = "budget_"
	actualPrefix = "actual_"
)

// FieldBatch collects prefixed amount fields keyed by category. Malformed
// values are reported in Skipped rather than failing the batch.
type FieldBatch struct {
	Values  map[string]decimal.Decimal
	Skipped []string
}

// ParseFieldBatch reads every form field starting with prefix.
func ParseFieldBatch(form url.Values, prefix string) FieldBatch {
	batch := FieldBatch{Values: map[string]decimal.Decimal{}}
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		category := core.NormalizeName(strings.TrimPrefix(key, prefix))
		if category == "" {
			continue
		}
		raw := strings.TrimSpace(form.Get(key))
		if raw == "" {
			continue
		}
		v, err := core.ParseAmount(raw)
		if err != nil {
			batch.Skipped = append(batch.Skipped, category)
			continue
		}
		batch.Values[category] = v
	}
	return batch
}

// dropUnchanged removes values equal to what the form displayed, i.e. the
// current value rounded to cents, so re-submitting a page does not rewrite
// budgets or day totals with rounding drift. A category missing from current
// was displayed as zero.
func dropUnchanged(values, current map[string]decimal.Decimal) {
	for category, v := range values {
		if v.Equal(current[category].Round(2)) {
			delete(values, category)
		}
	}
}

// LogEdit is a bulk edit of one day's log.
type LogEdit struct {
	Date  core.Date
	Scope string
	Rows  []adjust.LogRow
}

type logEditJSON struct {
	Date  string `json:"date"`
	Scope string `json:"scope"`
	Rows  []struct {
		ID          int64           `json:"id"`
		Category    string          `json:"category"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
	} `json:"rows"`
}

// ParseLogEdit reads a log edit sent as JSON or as a form with parallel
// id, category, amount and description fields. Unlike the batch forms, a
// malformed row fails the whole edit: skipping it would delete the stored row.
func ParseLogEdit(r *http.Request) (LogEdit, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return LogEdit{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if p.IsJSON() {
		return parseLogEditJSON(p.GetRaw())
	}
	return parseLogEditForm(p.Form())
}

func parseLogEditJSON(body []byte) (LogEdit, error) {
	var in logEditJSON
	if err := json.Unmarshal(body, &in); err != nil {
		return LogEdit{}, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return LogEdit{}, err
	}
	edit := LogEdit{Date: date, Scope: core.NormalizeName(in.Scope)}
	for _, row := range in.Rows {
		edit.Rows = append(edit.Rows, adjust.LogRow{
			ID:          row.ID,
			Category:    sanitizeInput(row.Category),
			Amount:      row.Amount,
			Description: sanitizeInput(row.Description),
		})
	}
	return edit, nil
}

func parseLogEditForm(form url.Values) (LogEdit, error) {
	date, err := core.ParseDate(strings.TrimSpace(form.Get("date")))
	if err != nil {
		return LogEdit{}, err
	}
	edit := LogEdit{Date: date, Scope: core.NormalizeName(form.Get("scope"))}

	ids := form["id"]
	cats := form["category"]
	amounts := form["amount"]
	descs := form["description"]
	if len(cats) != len(ids) || len(amounts) != len(ids) || len(descs) != len(ids) {
		return LogEdit{}, fmt.Errorf("%w: log row fields are not aligned", errMalformedBody)
	}

	for i := range ids {
		idRaw := strings.TrimSpace(ids[i])
		amountRaw := strings.TrimSpace(amounts[i])
		// A blank trailing row is the empty "add" line of the form.
		if idRaw == "" && amountRaw == "" && strings.TrimSpace(cats[i]) == "" {
			continue
		}
		var id int64
		if idRaw != "" {
			if id, err = strconv.ParseInt(idRaw, 10, 64); err != nil || id < 0 {
				return LogEdit{}, fmt.Errorf("%w: row id %q", errMalformedBody, idRaw)
			}
		}
		amount, err := parseSignedAmount(amountRaw)
		if err != nil {
			return LogEdit{}, fmt.Errorf("row %d amount %q: %w", i+1, amountRaw, err)
		}
		edit.Rows = append(edit.Rows, adjust.LogRow{
			ID:          id,
			Category:    sanitizeInput(cats[i]),
			Amount:      amount,
			Description: sanitizeInput(descs[i]),
		})
	}
	return edit, nil
}

// RequestBodyParser reads a body once and parses it as JSON or form data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Form returns the parsed form values; nil for JSON bodies.
func (p *RequestBodyParser) Form() url.Values {
	return p.formData
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseFormOrFail parses the request form and returns an error response on failure.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Invalid request format")
	}
	return nil
}
