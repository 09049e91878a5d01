package main

import (
	"testing"

	"github.com/shopspring/decimal"
)

func allocationSnapshot() *Snapshot {
	return &Snapshot{
		Partners: []Partner{
			{ID: "p-alice", Name: "Alice"},
			{ID: "p-bob", Name: "Bob"},
		},
		Projects: []Project{
			{ID: "proj-a", Name: "Harbor Flats", Status: StatusActive},
			{ID: "proj-b", Name: "Mill Street", Status: StatusActive},
		},
	}
}

func sumAmounts(entries []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

func TestPlanExpenseDefaultsToPool(t *testing.T) {
	snap := allocationSnapshot()

	entries, err := PlanExpense(snap, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(1000),
		Date:      "2026-03-10",
		Note:      "materials",
	})
	assertNoError(t, err)

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Type != TypeExpense {
		t.Errorf("Expected EXPENSE, got %s", entry.Type)
	}
	if entry.PartnerID != nil {
		t.Errorf("Pool-funded expense must not carry a partner")
	}
	if entry.ProjectID != "proj-a" {
		t.Errorf("Expected project proj-a, got %s", entry.ProjectID)
	}
	assertDecimalEqual(t, dec(1000), entry.Amount)
}

func TestPlanExpensePartnerSource(t *testing.T) {
	snap := allocationSnapshot()

	entries, err := PlanExpense(snap, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(500),
		Date:      "2026-03-10",
		Funding:   FundingSpec{Source: &FundingSource{Kind: SourcePartner, ID: "p-alice"}},
	})
	assertNoError(t, err)

	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].PartnerID == nil || *entries[0].PartnerID != "p-alice" {
		t.Errorf("Expected partner p-alice on entry")
	}
}

func TestPlanExpenseSplit(t *testing.T) {
	snap := allocationSnapshot()

	entries, err := PlanExpense(snap, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(1000),
		Date:      "2026-03-10",
		Note:      "renovation",
		Funding: FundingSpec{Split: []FundingPortion{
			{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(400)},
			{FundingSource: FundingSource{Kind: SourcePartner, ID: "p-bob"}, Amount: dec(600)},
		}},
	})
	assertNoError(t, err)

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	assertDecimalEqual(t, dec(1000), sumAmounts(entries))
	if entries[0].PartnerID != nil {
		t.Errorf("Pool portion must not carry a partner")
	}
	if entries[1].PartnerID == nil || *entries[1].PartnerID != "p-bob" {
		t.Errorf("Partner portion must carry p-bob")
	}
}

func TestPlanExpenseProjectSourceCreatesLinkedPair(t *testing.T) {
	snap := allocationSnapshot()

	entries, err := PlanExpense(snap, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(2500),
		Date:      "2026-04-01",
		Note:      "roof repair",
		Funding:   FundingSpec{Source: &FundingSource{Kind: SourceProject, ID: "proj-b"}},
	})
	assertNoError(t, err)

	if len(entries) != 2 {
		t.Fatalf("Expected a transfer pair, got %d entries", len(entries))
	}
	onTarget, offset := entries[0], entries[1]
	if onTarget.ProjectID != "proj-a" || offset.ProjectID != "proj-b" {
		t.Errorf("Pair landed on wrong projects: %s / %s", onTarget.ProjectID, offset.ProjectID)
	}
	assertDecimalEqual(t, onTarget.Amount, offset.Amount)
	if onTarget.LinkedTransactionID == nil || *onTarget.LinkedTransactionID != offset.ID {
		t.Errorf("Target entry must link to offset entry")
	}
	if offset.LinkedTransactionID == nil || *offset.LinkedTransactionID != onTarget.ID {
		t.Errorf("Offset entry must link back to target entry")
	}
	if onTarget.Note != "roof repair (funded from project Mill Street)" {
		t.Errorf("Unexpected target note: %q", onTarget.Note)
	}
	if offset.Note != "roof repair (transferred to project Harbor Flats)" {
		t.Errorf("Unexpected offset note: %q", offset.Note)
	}
}

func TestPlanExpenseRejectsSelfFunding(t *testing.T) {
	snap := allocationSnapshot()

	_, err := PlanExpense(snap, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(100),
		Date:      "2026-04-01",
		Funding:   FundingSpec{Source: &FundingSource{Kind: SourceProject, ID: "proj-a"}},
	})
	if err == nil {
		t.Error("Expected error for self-funding project")
	}
}

func TestPlanExpenseSplitTolerance(t *testing.T) {
	snap := allocationSnapshot()

	// Off by exactly one currency unit: accepted.
	_, err := PlanExpense(snap, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(1000),
		Date:      "2026-03-10",
		Funding: FundingSpec{Split: []FundingPortion{
			{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(499)},
			{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(500)},
		}},
	})
	assertNoError(t, err)

	// Off by more than one unit: rejected.
	_, err = PlanExpense(snap, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(1000),
		Date:      "2026-03-10",
		Funding: FundingSpec{Split: []FundingPortion{
			{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(400)},
			{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(500)},
		}},
	})
	if err == nil {
		t.Error("Expected error for split off by 100")
	}
}

func TestPlanExpenseSplitSkipsZeroPortions(t *testing.T) {
	snap := allocationSnapshot()

	entries, err := PlanExpense(snap, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(1000),
		Date:      "2026-03-10",
		Funding: FundingSpec{Split: []FundingPortion{
			{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(1000)},
			{FundingSource: FundingSource{Kind: SourcePartner, ID: "p-alice"}, Amount: decimal.Zero},
		}},
	})
	assertNoError(t, err)
	if len(entries) != 1 {
		t.Errorf("Zero portions must not produce entries, got %d", len(entries))
	}
}

func TestPlanExpenseValidationFailures(t *testing.T) {
	snap := allocationSnapshot()

	cases := []struct {
		name string
		req  ExpenseRequest
	}{
		{"unknown project", ExpenseRequest{ProjectID: "nope", Amount: dec(100), Date: "2026-01-01"}},
		{"non-positive amount", ExpenseRequest{ProjectID: "proj-a", Amount: decimal.Zero, Date: "2026-01-01"}},
		{"unknown funding partner", ExpenseRequest{
			ProjectID: "proj-a", Amount: dec(100), Date: "2026-01-01",
			Funding: FundingSpec{Source: &FundingSource{Kind: SourcePartner, ID: "ghost"}},
		}},
		{"unknown funding project", ExpenseRequest{
			ProjectID: "proj-a", Amount: dec(100), Date: "2026-01-01",
			Funding: FundingSpec{Source: &FundingSource{Kind: SourceProject, ID: "ghost"}},
		}},
		{"negative split portion", ExpenseRequest{
			ProjectID: "proj-a", Amount: dec(100), Date: "2026-01-01",
			Funding: FundingSpec{Split: []FundingPortion{
				{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(200)},
				{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(-100)},
			}},
		}},
		{"source and split together", ExpenseRequest{
			ProjectID: "proj-a", Amount: dec(100), Date: "2026-01-01",
			Funding: FundingSpec{
				Source: &FundingSource{Kind: SourcePool},
				Split:  []FundingPortion{{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(100)}},
			},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := PlanExpense(snap, tc.req); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestPlanExpenseEditToProjectSource(t *testing.T) {
	snap := allocationSnapshot()
	existing := Transaction{
		ID:        "tx-1",
		ProjectID: "proj-a",
		Type:      TypeExpense,
		Amount:    dec(300),
		Date:      "2026-02-01",
		Note:      "permits",
	}

	updated, extra, err := PlanExpenseEdit(snap, existing, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(300),
		Date:      "2026-02-01",
		Note:      "permits",
		Funding:   FundingSpec{Source: &FundingSource{Kind: SourceProject, ID: "proj-b"}},
	})
	assertNoError(t, err)

	if updated.ID != "tx-1" {
		t.Errorf("Edit must keep the original id, got %s", updated.ID)
	}
	if len(extra) != 1 {
		t.Fatalf("Expected one fresh offsetting entry, got %d", len(extra))
	}
	offset := extra[0]
	if offset.ProjectID != "proj-b" {
		t.Errorf("Offset must land on the source project, got %s", offset.ProjectID)
	}
	if updated.LinkedTransactionID == nil || *updated.LinkedTransactionID != offset.ID {
		t.Errorf("Updated entry must link to the fresh offset")
	}
	if offset.LinkedTransactionID == nil || *offset.LinkedTransactionID != "tx-1" {
		t.Errorf("Offset must link back to the original entry")
	}
}

func TestPlanExpenseEditRejectsSplit(t *testing.T) {
	snap := allocationSnapshot()
	existing := Transaction{ID: "tx-1", ProjectID: "proj-a", Type: TypeExpense, Amount: dec(300), Date: "2026-02-01"}

	_, _, err := PlanExpenseEdit(snap, existing, ExpenseRequest{
		ProjectID: "proj-a",
		Amount:    dec(300),
		Date:      "2026-02-01",
		Funding: FundingSpec{Split: []FundingPortion{
			{FundingSource: FundingSource{Kind: SourcePool}, Amount: dec(300)},
		}},
	})
	if err == nil {
		t.Error("Expected error for split funding on edit")
	}
}
