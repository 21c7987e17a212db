package client

import (
	"encoding/json"
	"fmt"
)

// Page is one page of a list response. The collaborator's pagination
// metadata is not pinned to exact field names, so decoding accepts the
// variants seen in the wild.
type Page[T any] struct {
	Items     []T
	Page      int
	Limit     int
	Total     int
	PageCount int
}

func (p *Page[T]) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	items, ok := firstRaw(raw, "data", "items", "rows")
	if !ok {
		return fmt.Errorf("list response without data field")
	}
	if err := json.Unmarshal(items, &p.Items); err != nil {
		return fmt.Errorf("decode list items: %w", err)
	}

	p.Page = firstInt(raw, 1, "page", "currentPage")
	p.Limit = firstInt(raw, len(p.Items), "limit", "pageSize", "count")
	p.Total = firstInt(raw, len(p.Items), "total", "totalCount")
	p.PageCount = firstInt(raw, 1, "pageCount", "totalPages")
	return nil
}

func firstRaw(raw map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func firstInt(raw map[string]json.RawMessage, def int, keys ...string) int {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			var n int
			if err := json.Unmarshal(v, &n); err == nil {
				return n
			}
		}
	}
	return def
}
