package utils

import (
	"log"
	"time"
)

const (
	// DateLayout is the dashed date format used in persisted state files.
	DateLayout = "2006-01-02"
	// KrxDateLayout is the compact date format used by KRX and DART.
	KrxDateLayout = "20060102"
)

// TimeNowKST returns the current time in the Seoul timezone.
func TimeNowKST() time.Time {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		log.Fatal("Failed to load location", err)
	}
	return time.Now().In(loc)
}

// IsWeekday reports whether t falls on Monday through Friday.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// RecentTradingDate returns the most recent KRX trading date in YYYYMMDD.
// Before 09:00 the previous day's data is the latest available; weekends
// roll back to Friday. Exchange holidays are not accounted for.
func RecentTradingDate(now time.Time) string {
	if now.Hour() < 9 {
		now = now.AddDate(0, 0, -1)
	}
	for !IsWeekday(now) {
		now = now.AddDate(0, 0, -1)
	}
	return now.Format(KrxDateLayout)
}

// IsMarketHours reports whether t is within KRX trading hours (weekdays
// 09:00-15:30).
func IsMarketHours(t time.Time) bool {
	if !IsWeekday(t) {
		return false
	}
	if t.Hour() < 9 {
		return false
	}
	return t.Hour() < 15 || (t.Hour() == 15 && t.Minute() <= 30)
}

// ToPointer returns a pointer to the given value.
func ToPointer[T any](v T) *T {
	return &v
}
