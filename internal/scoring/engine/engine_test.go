package engine

import (
	"testing"

	"github.com/google/uuid"

	"crm_backend/internal/domain"
)

func lead(size *int) domain.Customer {
	return domain.Customer{ID: uuid.New(), Name: "lead", Status: domain.CustomerStatusLead, CompanySize: size}
}

func contactsFor(id uuid.UUID, n int) []domain.Contact {
	out := make([]domain.Contact, n)
	for i := range out {
		out[i] = domain.Contact{ID: uuid.New(), CustomerID: id, Type: domain.ContactTypeEmail}
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestLeadWithoutContactsScoresZero(t *testing.T) {
	a := lead(nil)
	b := lead(intPtr(100))

	scores := ComputeLeadScores([]domain.Customer{a, b}, nil)
	if scores[a.ID] != 0 || scores[b.ID] != 0 {
		t.Fatalf("expected zero scores, got %v", scores)
	}
	if len(scores) != 2 {
		t.Fatalf("expected both leads to be scored, got %d", len(scores))
	}
}

func TestEachContactAddsFive(t *testing.T) {
	a := lead(nil)
	contacts := contactsFor(a.ID, 3)

	before := ComputeLeadScores([]domain.Customer{a}, contacts)[a.ID]
	contacts = append(contacts, contactsFor(a.ID, 1)...)
	after := ComputeLeadScores([]domain.Customer{a}, contacts)[a.ID]

	if before != 15 {
		t.Fatalf("expected 15 for three contacts, got %d", before)
	}
	if after-before != 5 {
		t.Fatalf("expected one more contact to add 5, got %d", after-before)
	}
}

func TestLargeCompanyAddsTwenty(t *testing.T) {
	big := lead(intPtr(150))
	scores := ComputeLeadScores([]domain.Customer{big}, contactsFor(big.ID, 2))
	if scores[big.ID] != 30 {
		t.Fatalf("expected 20 + 2*5 = 30, got %d", scores[big.ID])
	}
}

func TestOnlyLeadsAreScored(t *testing.T) {
	converted := domain.Customer{ID: uuid.New(), Status: domain.CustomerStatusCustomer}
	inactive := domain.Customer{ID: uuid.New(), Status: domain.CustomerStatusInactive}
	a := lead(nil)

	contacts := append(contactsFor(converted.ID, 4), contactsFor(uuid.New(), 2)...)
	scores := ComputeLeadScores([]domain.Customer{converted, inactive, a}, contacts)

	if _, ok := scores[converted.ID]; ok {
		t.Fatalf("customer status must not be scored")
	}
	if _, ok := scores[inactive.ID]; ok {
		t.Fatalf("inactive status must not be scored")
	}
	if scores[a.ID] != 0 {
		t.Fatalf("contacts of other customers must not count, got %d", scores[a.ID])
	}
}

func TestNoClamp(t *testing.T) {
	a := lead(intPtr(5000))
	scores := ComputeLeadScores([]domain.Customer{a}, contactsFor(a.ID, 30))
	if scores[a.ID] != 170 {
		t.Fatalf("expected unclamped 170, got %d", scores[a.ID])
	}
}

func TestEmptyPopulation(t *testing.T) {
	if scores := ComputeLeadScores(nil, nil); len(scores) != 0 {
		t.Fatalf("expected empty result, got %v", scores)
	}
}
