package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

// Filter operators, encoded in the query string as
// filter=field||operator||value.
const (
	OpEq       = "$eq"
	OpGte      = "$gte"
	OpLte      = "$lte"
	OpContains = "$contL"
)

// ParseListQuery turns page/limit/filter query parameters into a normalized
// scan.ListQuery.
func ParseListQuery(values url.Values, defaultLimit int) (scan.ListQuery, error) {
	q := scan.ListQuery{Page: 1, Limit: defaultLimit}

	if v := values.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, fmt.Errorf("invalid page %q", v)
		}
		q.Page = n
	}
	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return q, fmt.Errorf("invalid limit %q", v)
		}
		q.Limit = n
	}

	for _, raw := range values["filter"] {
		if err := applyFilter(&q, raw); err != nil {
			return q, err
		}
	}

	return q, nil
}

func applyFilter(q *scan.ListQuery, raw string) error {
	parts := strings.SplitN(raw, "||", 3)
	if len(parts) != 3 {
		return fmt.Errorf("malformed filter %q", raw)
	}
	field, op, value := parts[0], parts[1], parts[2]

	switch field {
	case "assignedTo":
		return uuidFilter(op, value, &q.AssignedTo)
	case "createdBy":
		return uuidFilter(op, value, &q.CreatedBy)
	case "requestedByDoctor", "doctor":
		return uuidFilter(op, value, &q.Doctor)
	case "clinic":
		return uuidFilter(op, value, &q.Clinic)
	case "dateTime":
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("invalid dateTime filter value %q", value)
		}
		switch op {
		case OpGte:
			q.From = &t
		case OpLte:
			q.To = &t
		default:
			return fmt.Errorf("unsupported dateTime operator %q", op)
		}
		return nil
	case "isScanned":
		if op != OpEq {
			return fmt.Errorf("unsupported isScanned operator %q", op)
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid isScanned filter value %q", value)
		}
		q.IsScanned = &b
		return nil
	case "status":
		if op != OpEq {
			return fmt.Errorf("unsupported status operator %q", op)
		}
		st := scan.Status(value)
		switch st {
		case scan.StatusUnconfirmed, scan.StatusConfirmed, scan.StatusCancelled:
			q.Status = &st
			return nil
		}
		return fmt.Errorf("invalid status filter value %q", value)
	case "detail":
		if op != OpContains {
			return fmt.Errorf("unsupported detail operator %q", op)
		}
		q.DetailContains = &value
		return nil
	}
	return fmt.Errorf("unknown filter field %q", field)
}

func uuidFilter(op, value string, dst **uuid.UUID) error {
	if op != OpEq {
		return fmt.Errorf("unsupported operator %q for id filter", op)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid id filter value %q", value)
	}
	*dst = &id
	return nil
}
