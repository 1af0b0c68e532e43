package parse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"strings"
)

var (
	reDate    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reDecimal = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

	receiptMoneyFields = []string{"total_amount"}
	lineMoneyFields    = []string{"quantity", "unit_price", "total_price"}
)

// NormalizeAndSanitizeJSON
// - Renames known synonyms (total -> total_amount, merchant_name -> store_name)
// - Drops null/empty optionals
// - Coerces numeric -> string and comma -> dot for money-ish fields
// - Removes unknown keys (strict additionalProperties = false friendliness)
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	// 1) rename synonyms to our schema
	renamed("total", "total_amount")
	renamed("amount", "total_amount")
	renamed("merchant_name", "store_name")
	renamed("merchant", "store_name")
	renamed("date", "purchase_date")
	renamed("tx_date", "purchase_date")
	renamed("items", "line_items")

	// 2) money fields: coerce to strings, normalize separators, drop unusable
	for _, k := range receiptMoneyFields {
		dropped = coerceMoney(m, k, dropped)
	}

	// 3) line items: same treatment per row
	if rows, ok := m["line_items"].([]any); ok {
		kept := make([]any, 0, len(rows))
		for i, row := range rows {
			item, ok := row.(map[string]any)
			if !ok {
				dropped = append(dropped, fmt.Sprintf("line_items[%d](type)", i))
				continue
			}
			if v, ok := item["description"]; ok {
				if _, exists := item["designation"]; !exists {
					item["designation"] = v
				}
				delete(item, "description")
			}
			for _, k := range lineMoneyFields {
				dropped = coerceMoney(item, k, dropped)
			}
			if s, ok := item["designation"].(string); !ok || strings.TrimSpace(s) == "" {
				dropped = append(dropped, fmt.Sprintf("line_items[%d](designation)", i))
				continue
			}
			for k := range maps.Clone(item) {
				switch k {
				case "designation", "quantity", "unit_price", "total_price":
				default:
					delete(item, k)
					dropped = append(dropped, fmt.Sprintf("line_items[%d].%s(unknown)", i, k))
				}
			}
			kept = append(kept, item)
		}
		m["line_items"] = kept
	}

	// 4) remove unknown top-level keys
	allowed := map[string]struct{}{
		"store_name": {}, "purchase_date": {}, "total_amount": {}, "line_items": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	// 5) trim obvious strings
	for _, k := range []string{"store_name", "purchase_date"} {
		if v, ok := m[k].(string); ok {
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, k)
				dropped = append(dropped, k+"(empty)")
			} else {
				m[k] = s
			}
		}
	}

	// 6) a purchase date in any shape but YYYY-MM-DD is unusable, not fatal
	if v, ok := m["purchase_date"].(string); ok && !reDate.MatchString(v) {
		delete(m, "purchase_date")
		dropped = append(dropped, "purchase_date(format)")
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("parse.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

// coerceMoney normalizes one money-ish key in place. Unusable values are
// removed rather than rejected: a missing field degrades the duplicate
// check, it never aborts it.
func coerceMoney(m map[string]any, k string, dropped []string) []string {
	v, ok := m[k]
	if !ok {
		return dropped
	}
	switch t := v.(type) {
	case float64:
		m[k] = fmt.Sprintf("%.2f", t)
	case string:
		s := strings.TrimSpace(t)
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, ",", ".")
		if s == "" || strings.EqualFold(s, "null") {
			delete(m, k)
			dropped = append(dropped, k+"(empty)")
		} else if !reDecimal.MatchString(s) {
			delete(m, k)
			dropped = append(dropped, k+"(format)")
		} else {
			m[k] = s
		}
	case nil:
		delete(m, k)
		dropped = append(dropped, k+"(null)")
	default:
		delete(m, k)
		dropped = append(dropped, k+"(type)")
	}
	return dropped
}
