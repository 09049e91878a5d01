package main

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Aggregation over a ledger snapshot. Everything in this file is a pure
// function of its inputs and is recomputed on demand; the snapshot is the
// single source of truth.

var oneHundred = decimal.NewFromInt(100)

// Filter restricts transactions by project, partner and calendar month
// (YYYY-MM). All fields are optional and combine independently; empty means
// no restriction.
type Filter struct {
	ProjectID string
	PartnerID string
	Month     string
}

func (f Filter) matches(t Transaction) bool {
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.PartnerID != "" && (t.PartnerID == nil || *t.PartnerID != f.PartnerID) {
		return false
	}
	if f.Month != "" && !strings.HasPrefix(t.Date, f.Month) {
		return false
	}
	return true
}

// FilterTransactions returns the transactions in scope, preserving order.
func FilterTransactions(transactions []Transaction, f Filter) []Transaction {
	scoped := make([]Transaction, 0, len(transactions))
	for _, t := range transactions {
		if f.matches(t) {
			scoped = append(scoped, t)
		}
	}
	return scoped
}

// Totals are the global aggregates over a set of transactions.
//
// TotalInvestment deliberately counts an EXPENSE carrying a partner twice
// over: it contributes to both TotalExpense and TotalInvestment, because a
// directly-paid expense is modeled as an implicit capital contribution.
type Totals struct {
	TotalInvestment decimal.Decimal `json:"totalInvestment"`
	TotalIncome     decimal.Decimal `json:"totalIncome"`
	TotalExpense    decimal.Decimal `json:"totalExpense"`
	NetProfit       decimal.Decimal `json:"netProfit"`
}

// ComputeTotals derives the global totals for the given transactions.
func ComputeTotals(transactions []Transaction) Totals {
	totals := Totals{
		TotalInvestment: decimal.Zero,
		TotalIncome:     decimal.Zero,
		TotalExpense:    decimal.Zero,
	}
	for _, t := range transactions {
		switch t.Type {
		case TypeInvestment:
			totals.TotalInvestment = totals.TotalInvestment.Add(t.Amount)
		case TypeIncome:
			totals.TotalIncome = totals.TotalIncome.Add(t.Amount)
		case TypeExpense:
			totals.TotalExpense = totals.TotalExpense.Add(t.Amount)
			if t.PartnerID != nil {
				totals.TotalInvestment = totals.TotalInvestment.Add(t.Amount)
			}
		}
	}
	totals.NetProfit = totals.TotalIncome.Sub(totals.TotalExpense)
	return totals
}

// InvestedByPartner sums the investment-like transactions (INVESTMENT plus
// EXPENSE carrying the partner) for one partner.
func InvestedByPartner(transactions []Transaction, partnerID string) decimal.Decimal {
	invested := decimal.Zero
	for _, t := range transactions {
		if t.PartnerID == nil || *t.PartnerID != partnerID {
			continue
		}
		if t.Type == TypeInvestment || t.Type == TypeExpense {
			invested = invested.Add(t.Amount)
		}
	}
	return invested
}

// PartnerShare is one partner's contribution and proportional ownership.
type PartnerShare struct {
	PartnerID    string          `json:"partnerId"`
	Name         string          `json:"name"`
	Invested     decimal.Decimal `json:"invested"`
	SharePercent decimal.Decimal `json:"sharePercent"`
}

// OwnershipShares computes every partner's invested amount and ownership
// percentage. All shares are zero when total investment is zero.
func OwnershipShares(partners []Partner, transactions []Transaction) []PartnerShare {
	total := ComputeTotals(transactions).TotalInvestment
	shares := make([]PartnerShare, 0, len(partners))
	for _, p := range partners {
		invested := InvestedByPartner(transactions, p.ID)
		share := decimal.Zero
		if total.IsPositive() {
			share = invested.Div(total).Mul(oneHundred)
		}
		shares = append(shares, PartnerShare{
			PartnerID:    p.ID,
			Name:         p.Name,
			Invested:     invested,
			SharePercent: share,
		})
	}
	return shares
}

// ProjectPerformance is income, expense and profit for one project, with ROI
// over the INVESTMENT-type transactions in scope.
type ProjectPerformance struct {
	ProjectID  string          `json:"projectId"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Profit     decimal.Decimal `json:"profit"`
	Investment decimal.Decimal `json:"investment"`
	ROIPercent decimal.Decimal `json:"roiPercent"`
}

// PerformanceForProject derives a project's performance, optionally scoped to
// a month (YYYY-MM). ROI is zero when the investment in scope is zero.
func PerformanceForProject(transactions []Transaction, projectID, month string) ProjectPerformance {
	scoped := FilterTransactions(transactions, Filter{ProjectID: projectID, Month: month})
	perf := ProjectPerformance{
		ProjectID:  projectID,
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		Investment: decimal.Zero,
		ROIPercent: decimal.Zero,
	}
	for _, t := range scoped {
		switch t.Type {
		case TypeIncome:
			perf.Income = perf.Income.Add(t.Amount)
		case TypeExpense:
			perf.Expense = perf.Expense.Add(t.Amount)
		case TypeInvestment:
			perf.Investment = perf.Investment.Add(t.Amount)
		}
	}
	perf.Profit = perf.Income.Sub(perf.Expense)
	if perf.Investment.IsPositive() {
		perf.ROIPercent = perf.Profit.Div(perf.Investment).Mul(oneHundred)
	}
	return perf
}

// recentActivityLimit caps the activity feed; the remainder count is
// reported alongside.
const recentActivityLimit = 8

// RecentActivity returns the transactions in scope sorted date-descending,
// truncated to recentActivityLimit, plus the count of older entries not
// shown. The sort is stable so same-date transactions keep insertion order.
func RecentActivity(transactions []Transaction, f Filter) ([]Transaction, int) {
	scoped := FilterTransactions(transactions, f)
	sort.SliceStable(scoped, func(i, j int) bool {
		return scoped[i].Date > scoped[j].Date
	})
	if len(scoped) <= recentActivityLimit {
		return scoped, 0
	}
	return scoped[:recentActivityLimit], len(scoped) - recentActivityLimit
}
