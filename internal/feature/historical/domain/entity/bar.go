// Package entity defines the domain models for the historical feature.
package entity

import (
	"time"

	"cloud.google.com/go/civil"
)

// Interval はアップストリームへ要求するローソク足の時間足です。
type Interval string

const (
	IntervalDay  Interval = "day"
	IntervalWeek Interval = "week"
)

// Frequency は利用者が要求する系列の粒度です。
// FrequencyMonth は日足を取得したうえで月ごとに集約します。
type Frequency string

const (
	FrequencyDay   Frequency = "day"
	FrequencyWeek  Frequency = "week"
	FrequencyMonth Frequency = "month"
)

// Interval は Frequency に対応するアップストリームの時間足を返します。
func (f Frequency) Interval() Interval {
	if f == FrequencyWeek {
		return IntervalWeek
	}
	return IntervalDay
}

// Bar represents one trading day's OHLCV for one instrument.
// OHLC values are passed through as received; they are not validated.
type Bar struct {
	TradingDay   civil.Date // exchange-local calendar date; zero until derived
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       int64
	RawTimestamp string // upstream timestamp as received, kept for rendering
}

// DailySeries is ordered by TradingDay ascending with at most one Bar per day.
type DailySeries []Bar

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start civil.Date
	End   civil.Date
}

// Contains reports whether d falls within the range, bounds included.
func (r DateRange) Contains(d civil.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Empty reports whether End is before Start.
func (r DateRange) Empty() bool {
	return r.End.Before(r.Start)
}

// Span returns End - Start in days.
func (r DateRange) Span() int {
	return r.End.DaysSince(r.Start)
}

// MonthKey groups bars by calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthKeyOf returns the month key for d.
func MonthKeyOf(d civil.Date) MonthKey {
	return MonthKey{Year: d.Year, Month: d.Month}
}

// Before reports whether k is an earlier month than o.
func (k MonthKey) Before(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}
