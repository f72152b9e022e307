package models

import (
	"math"
	"testing"
	"time"
)

func TestSubscriptionMonthlyEquivalent(t *testing.T) {
	tests := []struct {
		name  string
		cycle string
		cost  float64
		want  float64
	}{
		{"monthly counts fully", CycleMonthly, 12, 12},
		{"quarterly is a third", CycleQuarterly, 30, 10},
		{"yearly is a twelfth", CycleYearly, 120, 10},
		{"one-time has no recurring cost", CycleOneTime, 500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Subscription{Cost: tt.cost, BillingCycle: tt.cycle}
			if got := sub.MonthlyEquivalent(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MonthlyEquivalent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionYearlyCost(t *testing.T) {
	tests := []struct {
		name  string
		cycle string
		cost  float64
		want  float64
	}{
		{"monthly times twelve", CycleMonthly, 12, 144},
		{"quarterly times four", CycleQuarterly, 30, 120},
		{"yearly once", CycleYearly, 120, 120},
		{"one-time counts in full", CycleOneTime, 500, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Subscription{Cost: tt.cost, BillingCycle: tt.cycle}
			if got := sub.YearlyCost(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("YearlyCost() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionTotals(t *testing.T) {
	subs := []Subscription{
		{Cost: 12, BillingCycle: CycleMonthly, Status: SubStatusActive},
		{Cost: 120, BillingCycle: CycleYearly, Status: SubStatusActive},
	}

	var monthly, yearly float64
	for _, s := range subs {
		monthly += s.MonthlyEquivalent()
		yearly += s.YearlyCost()
	}

	if math.Abs(monthly-22) > 1e-9 {
		t.Errorf("monthly total = %v, want 22", monthly)
	}
	if math.Abs(yearly-264) > 1e-9 {
		t.Errorf("yearly total = %v, want 264", yearly)
	}
}

func TestSubscriptionIsActive(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{SubStatusActive, true},
		{SubStatusCancelled, false},
		{SubStatusPaused, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			sub := Subscription{Status: tt.status}
			if got := sub.IsActive(); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscriptionDueWithin(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in3 := now.AddDate(0, 0, 3)
	in10 := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -1)

	tests := []struct {
		name    string
		billing *time.Time
		days    int
		want    bool
	}{
		{"due within window", &in3, 7, true},
		{"due past window", &in10, 7, false},
		{"already past", &past, 7, false},
		{"no billing date", nil, 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Subscription{Status: SubStatusActive, NextBillingDate: tt.billing}
			if got := sub.DueWithin(now, tt.days); got != tt.want {
				t.Errorf("DueWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}
