package app

import (
	"encoding/json"
	"strconv"
	"strings"

	"car_dealership/internal/domain"
)

/********** alias registry (single source of truth) **********/

// The dealer service emits snake_case keys; camelCase variants come from older
// review submissions that were stored verbatim.
var reviewAliases = map[string][]string{
	"review":        {"review", "review_text", "text"},
	"name":          {"name", "reviewer", "userName"},
	"purchase":      {"purchase", "purchased"},
	"purchase_date": {"purchase_date", "purchaseDate"},
	"car_make":      {"car_make", "carMake"},
	"car_model":     {"car_model", "carModel"},
	"car_year":      {"car_year", "carYear"},
}

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// stringFlexible renders strings and numbers as text; anything else is "".
func stringFlexible(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	}
	return ""
}

// firstStringAlias: first non-empty value for a named alias set, or "".
func firstStringAlias(m map[string]any, key string) string {
	for _, p := range reviewAliases[key] {
		if s := stringFlexible(lookupAny(m, p)); s != "" {
			return s
		}
	}
	return ""
}

// firstBoolAlias accepts booleans and "true"/"false"-style strings.
func firstBoolAlias(m map[string]any, key string) bool {
	for _, p := range reviewAliases[key] {
		switch v := lookupAny(m, p).(type) {
		case bool:
			return v
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				return b
			}
		}
	}
	return false
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

/********** review mapper **********/

// mapReview normalizes one upstream review. Missing or mistyped fields become
// zero values; a non-object entry yields an all-default review. Sentiment is
// left for the caller.
func mapReview(raw any) domain.Review {
	r, _ := raw.(map[string]any)
	if r == nil {
		r = map[string]any{}
	}
	return domain.Review{
		Review:       firstStringAlias(r, "review"),
		Name:         firstStringAlias(r, "name"),
		Purchase:     firstBoolAlias(r, "purchase"),
		PurchaseDate: firstStringAlias(r, "purchase_date"),
		CarMake:      firstStringAlias(r, "car_make"),
		CarModel:     firstStringAlias(r, "car_model"),
		CarYear:      firstStringAlias(r, "car_year"),
	}
}

/********** dealer helpers **********/

// dealerIDs extracts the numeric ids of dealer objects, skipping entries without one.
func dealerIDs(dealers []any) []int64 {
	out := make([]int64, 0, len(dealers))
	for _, d := range dealers {
		m, ok := d.(map[string]any)
		if !ok {
			continue
		}
		if id := firstInt64Flexible(m, "id", "dealer_id"); id != nil {
			out = append(out, *id)
		}
	}
	return out
}
