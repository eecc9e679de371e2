// Package timex provides a time.Time wrapper with a stable wire format
// Package timex 提供带稳定序列化格式的 time.Time 包装
package timex

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeFormat 序列化使用的时间格式
const TimeFormat = "2006-01-02 15:04:05"

// Time wraps time.Time for gorm storage and JSON output
// Time 包装 time.Time，用于 gorm 存储与 JSON 输出
type Time time.Time

// Now returns the current time as a timex.Time
// Now 返回当前时间
func Now() Time {
	return Time(time.Now())
}

// Time converts back to the standard library type
// Time 转回标准库类型
func (t Time) Time() time.Time {
	return time.Time(t)
}

func (t Time) IsZero() bool {
	return time.Time(t).IsZero()
}

func (t Time) Unix() int64 {
	return time.Time(t).Unix()
}

func (t Time) UnixMilli() int64 {
	return time.Time(t).UnixMilli()
}

func (t Time) UnixMicro() int64 {
	return time.Time(t).UnixMicro()
}

func (t Time) UnixNano() int64 {
	return time.Time(t).UnixNano()
}

func (t Time) Format() string {
	return time.Time(t).Format(TimeFormat)
}

func (t Time) String() string {
	return t.Format()
}

// MarshalJSON 输出 "YYYY-MM-DD HH:MM:SS"，零值输出 null
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%q", t.Format())), nil
}

// UnmarshalJSON 接受 null 与 "YYYY-MM-DD HH:MM:SS"
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*t = Time(time.Time{})
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := time.ParseInLocation(TimeFormat, s, time.Local)
	if err != nil {
		return err
	}
	*t = Time(parsed)
	return nil
}

// Value 实现 driver.Valuer，零值存 NULL
func (t Time) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return time.Time(t), nil
}

// Scan 实现 sql.Scanner
func (t *Time) Scan(v interface{}) error {
	switch value := v.(type) {
	case nil:
		*t = Time(time.Time{})
		return nil
	case time.Time:
		*t = Time(value)
		return nil
	case string:
		parsed, err := time.ParseInLocation(TimeFormat, value, time.Local)
		if err != nil {
			return err
		}
		*t = Time(parsed)
		return nil
	case []byte:
		parsed, err := time.ParseInLocation(TimeFormat, string(value), time.Local)
		if err != nil {
			return err
		}
		*t = Time(parsed)
		return nil
	default:
		return fmt.Errorf("cannot convert %v to timex.Time", v)
	}
}
