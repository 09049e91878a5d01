package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Funding source kinds. A source is the central pool, a specific partner, or
// another project's pool.
type SourceKind string

const (
	SourcePool    SourceKind = "pool"
	SourcePartner SourceKind = "partner"
	SourceProject SourceKind = "project"
)

// FundingSource identifies where the money for an expense comes from.
// ID is the partner or project id; it is empty for the central pool.
type FundingSource struct {
	Kind SourceKind `json:"kind"`
	ID   string     `json:"id,omitempty"`
}

// FundingPortion is one slice of a split payment.
type FundingPortion struct {
	FundingSource
	Amount decimal.Decimal `json:"amount"`
}

// FundingSpec is either a single source covering the full amount or a split
// across multiple sources whose sub-amounts must reconcile with the requested
// amount within splitTolerance.
type FundingSpec struct {
	Source *FundingSource   `json:"source,omitempty"`
	Split  []FundingPortion `json:"split,omitempty"`
}

// ExpenseRequest is one user-issued "record an expense" request.
type ExpenseRequest struct {
	ProjectID string          `json:"projectId"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Note      string          `json:"note"`
	Funding   FundingSpec     `json:"funding"`
}

// splitTolerance is the rounding slack allowed between the sum of split
// sub-amounts and the requested amount: 1 currency unit.
var splitTolerance = decimal.NewFromInt(1)

// PlanExpense translates an expense request into the concrete set of ledger
// entries to create. It is pure apart from id generation: no entry is
// persisted here, and any validation failure returns before a single entry
// is built (all-or-nothing).
//
// Entries per source kind:
//   - pool:    one EXPENSE on P, no partner
//   - partner: one EXPENSE on P carrying that partner (counts as investment
//     in aggregation: a directly-paid expense is an implicit contribution)
//   - project: an EXPENSE on P plus an offsetting EXPENSE on the source
//     project, equal amounts, cross-linked via LinkedTransactionID
func PlanExpense(snap *Snapshot, req ExpenseRequest) ([]Transaction, error) {
	project, ok := snap.ProjectByID(req.ProjectID)
	if !ok {
		return nil, fmt.Errorf("project %s not found", req.ProjectID)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}

	portions, err := normalizeFunding(req.Amount, req.Funding)
	if err != nil {
		return nil, err
	}

	// Validate every portion before creating anything.
	for _, portion := range portions {
		if err := validateSource(snap, req.ProjectID, portion.FundingSource); err != nil {
			return nil, err
		}
	}

	var entries []Transaction
	for _, portion := range portions {
		switch portion.Kind {
		case SourcePool:
			entries = append(entries, Transaction{
				ID:        uuid.New().String(),
				ProjectID: req.ProjectID,
				Type:      TypeExpense,
				Amount:    portion.Amount,
				Date:      req.Date,
				Note:      req.Note,
			})
		case SourcePartner:
			partnerID := portion.ID
			entries = append(entries, Transaction{
				ID:        uuid.New().String(),
				ProjectID: req.ProjectID,
				PartnerID: &partnerID,
				Type:      TypeExpense,
				Amount:    portion.Amount,
				Date:      req.Date,
				Note:      req.Note,
			})
		case SourceProject:
			source, _ := snap.ProjectByID(portion.ID)
			onTarget, offset := transferPair(project, source, portion.Amount, req.Date, req.Note)
			entries = append(entries, onTarget, offset)
		}
	}
	return entries, nil
}

// PlanExpenseEdit re-plans an existing expense against a new funding source.
// The original row is updated in place; a project source additionally yields
// a fresh offsetting entry. No previously created offset is located or
// adjusted, so repeated edits toward project-funded sources accumulate
// offsetting entries in the source project.
func PlanExpenseEdit(snap *Snapshot, existing Transaction, req ExpenseRequest) (Transaction, []Transaction, error) {
	project, ok := snap.ProjectByID(req.ProjectID)
	if !ok {
		return Transaction{}, nil, fmt.Errorf("project %s not found", req.ProjectID)
	}
	if !req.Amount.IsPositive() {
		return Transaction{}, nil, fmt.Errorf("amount must be positive")
	}
	if req.Funding.Source == nil || len(req.Funding.Split) > 0 {
		return Transaction{}, nil, fmt.Errorf("editing an expense requires a single funding source")
	}
	source := *req.Funding.Source
	if err := validateSource(snap, req.ProjectID, source); err != nil {
		return Transaction{}, nil, err
	}

	updated := existing
	updated.ProjectID = req.ProjectID
	updated.Type = TypeExpense
	updated.Amount = req.Amount
	updated.Date = req.Date
	updated.Note = req.Note
	updated.PartnerID = nil
	updated.LinkedTransactionID = nil

	switch source.Kind {
	case SourcePartner:
		partnerID := source.ID
		updated.PartnerID = &partnerID
		return updated, nil, nil
	case SourceProject:
		sourceProject, _ := snap.ProjectByID(source.ID)
		offsetID := uuid.New().String()
		updated.Note = annotate(req.Note, "funded from project "+sourceProject.Name)
		updated.LinkedTransactionID = &offsetID
		originalID := updated.ID
		offset := Transaction{
			ID:                  offsetID,
			ProjectID:           sourceProject.ID,
			Type:                TypeExpense,
			Amount:              req.Amount,
			Date:                req.Date,
			Note:                annotate(req.Note, "transferred to project "+project.Name),
			LinkedTransactionID: &originalID,
		}
		return updated, []Transaction{offset}, nil
	default:
		return updated, nil, nil
	}
}

// normalizeFunding reduces both funding modes to a list of portions covering
// the full amount. Zero-amount split entries are skipped; negative ones are
// invalid; the split total must equal the requested amount within
// splitTolerance or the whole request is rejected.
func normalizeFunding(amount decimal.Decimal, spec FundingSpec) ([]FundingPortion, error) {
	if spec.Source != nil && len(spec.Split) > 0 {
		return nil, fmt.Errorf("funding spec cannot have both a single source and a split")
	}
	if spec.Source != nil {
		return []FundingPortion{{FundingSource: *spec.Source, Amount: amount}}, nil
	}
	if len(spec.Split) == 0 {
		// No spec at all defaults to the central pool.
		return []FundingPortion{{FundingSource: FundingSource{Kind: SourcePool}, Amount: amount}}, nil
	}

	var portions []FundingPortion
	total := decimal.Zero
	for _, portion := range spec.Split {
		if portion.Amount.IsNegative() {
			return nil, fmt.Errorf("split amounts must be positive")
		}
		if portion.Amount.IsZero() {
			continue
		}
		total = total.Add(portion.Amount)
		portions = append(portions, portion)
	}
	if len(portions) == 0 {
		return nil, fmt.Errorf("split has no non-zero portions")
	}
	if total.Sub(amount).Abs().GreaterThan(splitTolerance) {
		return nil, fmt.Errorf("split total %s does not reconcile with requested amount %s", total, amount)
	}
	return portions, nil
}

func validateSource(snap *Snapshot, targetProjectID string, source FundingSource) error {
	switch source.Kind {
	case SourcePool:
		return nil
	case SourcePartner:
		if _, ok := snap.PartnerByID(source.ID); !ok {
			return fmt.Errorf("funding partner %s not found", source.ID)
		}
		return nil
	case SourceProject:
		if source.ID == targetProjectID {
			return fmt.Errorf("a project cannot fund its own expense")
		}
		if _, ok := snap.ProjectByID(source.ID); !ok {
			return fmt.Errorf("funding project %s not found", source.ID)
		}
		return nil
	default:
		return fmt.Errorf("unknown funding source kind %q", source.Kind)
	}
}

// transferPair builds the two linked entries of a cross-project transfer: the
// expense on the target project and the offsetting expense on the source.
func transferPair(target, source Project, amount decimal.Decimal, date, note string) (Transaction, Transaction) {
	targetID := uuid.New().String()
	offsetID := uuid.New().String()
	onTarget := Transaction{
		ID:                  targetID,
		ProjectID:           target.ID,
		Type:                TypeExpense,
		Amount:              amount,
		Date:                date,
		Note:                annotate(note, "funded from project "+source.Name),
		LinkedTransactionID: &offsetID,
	}
	offset := Transaction{
		ID:                  offsetID,
		ProjectID:           source.ID,
		Type:                TypeExpense,
		Amount:              amount,
		Date:                date,
		Note:                annotate(note, "transferred to project "+target.Name),
		LinkedTransactionID: &targetID,
	}
	return onTarget, offset
}

func annotate(note, annotation string) string {
	if strings.TrimSpace(note) == "" {
		return annotation
	}
	return note + " (" + annotation + ")"
}
