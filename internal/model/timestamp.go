package model

import (
	"fmt"
	"time"
)

// timestampLayout は境界でのタイムスタンプ表記。
const timestampLayout = "2006-01-02 15:04:05"

// Timestamp はAPI境界でローカル時刻 "YYYY-MM-DD HH:MM:SS" として
// シリアライズされるタイムスタンプ。内部表現はUTCで保持し、
// 同一オフセットを介した往復で可逆となる。
type Timestamp time.Time

// Time は内部表現のtime.Timeを返す。
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}

// MarshalJSON はUTC内部表現をローカル時刻文字列に変換する。
func (t Timestamp) MarshalJSON() ([]byte, error) {
	s := time.Time(t).In(time.Local).Format(timestampLayout)
	return []byte(`"` + s + `"`), nil
}

// UnmarshalJSON はローカル時刻文字列をUTC内部表現に変換する。
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid timestamp: %s", s)
	}
	parsed, err := time.ParseInLocation(timestampLayout, s[1:len(s)-1], time.Local)
	if err != nil {
		return fmt.Errorf("invalid timestamp format: %w", err)
	}
	*t = Timestamp(parsed.UTC())
	return nil
}
