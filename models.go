package main

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are plain JSON numbers on the wire and in exported snapshots.
	decimal.MarshalJSONWithoutQuotes = true
}

// TransactionType determines the direction of a transaction; amounts are
// always stored as non-negative magnitudes.
type TransactionType string

const (
	TypeInvestment TransactionType = "INVESTMENT"
	TypeIncome     TransactionType = "INCOME"
	TypeExpense    TransactionType = "EXPENSE"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusPlanning  ProjectStatus = "planning"
)

// Partner represents a co-investor in the ledger
type Partner struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Project represents an investment project
type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Status      ProjectStatus `json:"status"`
	StartDate   string        `json:"startDate"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Transaction represents a single ledger entry. PartnerID is required for
// INVESTMENT and WITHDRAWAL, optional for INCOME and EXPENSE.
// LinkedTransactionID points at the offsetting entry of a cross-project
// transfer; each side of a pair can still be deleted independently.
type Transaction struct {
	ID                  string          `json:"id"`
	ProjectID           string          `json:"projectId"`
	PartnerID           *string         `json:"partnerId"`
	Type                TransactionType `json:"type"`
	Amount              decimal.Decimal `json:"amount"`
	Date                string          `json:"date"`
	Note                string          `json:"note"`
	LinkedTransactionID *string         `json:"linkedTransactionId,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// Snapshot is the full ledger state. It is treated as an immutable value:
// every mutation builds a new Snapshot and the coordinator swaps the current
// reference wholesale. The with/without helpers below never modify their
// receiver.
type Snapshot struct {
	Partners     []Partner     `json:"partners"`
	Projects     []Project     `json:"projects"`
	Transactions []Transaction `json:"transactions"`
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		Partners:     []Partner{},
		Projects:     []Project{},
		Transactions: []Transaction{},
	}
}

// PartnerByID returns the partner with the given id, if present.
func (s *Snapshot) PartnerByID(id string) (Partner, bool) {
	for _, p := range s.Partners {
		if p.ID == id {
			return p, true
		}
	}
	return Partner{}, false
}

// ProjectByID returns the project with the given id, if present.
func (s *Snapshot) ProjectByID(id string) (Project, bool) {
	for _, p := range s.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// TransactionByID returns the transaction with the given id, if present.
func (s *Snapshot) TransactionByID(id string) (Transaction, bool) {
	for _, t := range s.Transactions {
		if t.ID == id {
			return t, true
		}
	}
	return Transaction{}, false
}

// ExistsTransactionForPartner reports whether any transaction references the
// partner. Checked before partner deletion (referential-integrity guard).
func (s *Snapshot) ExistsTransactionForPartner(partnerID string) bool {
	for _, t := range s.Transactions {
		if t.PartnerID != nil && *t.PartnerID == partnerID {
			return true
		}
	}
	return false
}

func (s *Snapshot) withPartner(p Partner) *Snapshot {
	next := *s
	next.Partners = append(append([]Partner{}, s.Partners...), p)
	return &next
}

func (s *Snapshot) withoutPartner(id string) *Snapshot {
	next := *s
	next.Partners = make([]Partner, 0, len(s.Partners))
	for _, p := range s.Partners {
		if p.ID != id {
			next.Partners = append(next.Partners, p)
		}
	}
	return &next
}

func (s *Snapshot) withProject(p Project) *Snapshot {
	next := *s
	next.Projects = append(append([]Project{}, s.Projects...), p)
	return &next
}

func (s *Snapshot) withoutProject(id string) *Snapshot {
	next := *s
	next.Projects = make([]Project, 0, len(s.Projects))
	for _, p := range s.Projects {
		if p.ID != id {
			next.Projects = append(next.Projects, p)
		}
	}
	return &next
}

func (s *Snapshot) withTransactions(ts ...Transaction) *Snapshot {
	next := *s
	next.Transactions = append(append([]Transaction{}, s.Transactions...), ts...)
	return &next
}

func (s *Snapshot) withUpdatedTransaction(t Transaction) *Snapshot {
	next := *s
	next.Transactions = make([]Transaction, len(s.Transactions))
	copy(next.Transactions, s.Transactions)
	for i := range next.Transactions {
		if next.Transactions[i].ID == t.ID {
			next.Transactions[i] = t
		}
	}
	return &next
}

func (s *Snapshot) withoutTransaction(id string) *Snapshot {
	next := *s
	next.Transactions = make([]Transaction, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		if t.ID != id {
			next.Transactions = append(next.Transactions, t)
		}
	}
	return &next
}

// EntityKind names a ledger entity collection in change events.
type EntityKind string

const (
	EntityPartners     EntityKind = "partners"
	EntityProjects     EntityKind = "projects"
	EntityTransactions EntityKind = "transactions"

	// EntitySnapshot marks events about the ledger as a whole rather than a
	// single record.
	EntitySnapshot EntityKind = "snapshot"
)

// EventType is the kind of mutation a change event carries.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"

	// EventReplace signals that the whole snapshot was swapped out and
	// subscribers must refetch rather than merge.
	EventReplace EventType = "REPLACE"
)

// ChangeEvent is a single mutation notification. Record holds the affected
// entity (*Partner, *Project or *Transaction) for INSERT/UPDATE; ID is always
// set and is the sole field a DELETE needs.
type ChangeEvent struct {
	Entity EntityKind `json:"entity"`
	Type   EventType  `json:"eventType"`
	ID     string     `json:"id"`
	Record any        `json:"record,omitempty"`
}
