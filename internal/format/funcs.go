package format

import (
	"fmt"
	"html/template"
	"time"
)

// FuncMap exposes the helpers to templates as formatNumber, formatBytes and formatDate.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatNumber": formatNumberAny,
		"formatBytes":  formatBytesAny,
		"formatDate":   formatDateAny,
	}
}

func formatNumberAny(v any) (string, error) {
	f, err := toFloat(v)
	if err != nil {
		return "", err
	}
	return Number(f), nil
}

func formatBytesAny(v any) (string, error) {
	f, err := toFloat(v)
	if err != nil {
		return "", err
	}
	return Bytes(int64(f)), nil
}

func formatDateAny(v any) (string, error) {
	switch t := v.(type) {
	case time.Time:
		return Date(t), nil
	case *time.Time:
		if t == nil {
			return "", nil
		}
		return Date(*t), nil
	case string:
		parsed, err := ParseDate(t)
		if err != nil {
			return "", err
		}
		return Date(parsed), nil
	default:
		return "", fmt.Errorf("formatDate: unsupported type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}
