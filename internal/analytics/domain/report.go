package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is the part of an order the aggregator reads.
type Entry struct {
	CreatedAt time.Time
	Total     decimal.Decimal
}

type Bucket struct {
	Orders int
	Amount decimal.Decimal
}

// Report holds daily, weekly and monthly rollups of one party's orders.
// All keys are computed in UTC.
type Report struct {
	Daily       map[string]*Bucket
	Weekly      map[string]*Bucket
	Monthly     map[string]*Bucket
	TotalOrders int
	TotalAmount decimal.Decimal
}

func NewReport() *Report {
	return &Report{
		Daily:   make(map[string]*Bucket),
		Weekly:  make(map[string]*Bucket),
		Monthly: make(map[string]*Bucket),
	}
}

func (r *Report) Add(e Entry) {
	t := e.CreatedAt.UTC()
	add(r.Daily, DayKey(t), e.Total)
	add(r.Weekly, WeekKey(t), e.Total)
	add(r.Monthly, MonthKey(t), e.Total)
	r.TotalOrders++
	r.TotalAmount = r.TotalAmount.Add(e.Total)
}

func add(m map[string]*Bucket, key string, amount decimal.Decimal) {
	b, ok := m[key]
	if !ok {
		b = &Bucket{}
		m[key] = b
	}
	b.Orders++
	b.Amount = b.Amount.Add(amount)
}

func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// WeekKey is the ISO-8601 week, e.g. 2026-W43. The year is the ISO week-year,
// so 2027-01-01 (a Friday) falls in 2026-W53.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
