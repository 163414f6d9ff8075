package shared

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseTimeQuery 解析 RFC3339 或 YYYY-MM-DD 时间参数，endOfDay 表示日期取当天末尾。
func ParseTimeQuery(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed, nil
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}
