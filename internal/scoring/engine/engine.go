// Package engine computes lead scores from customer attributes and
// interaction counts.
package engine

import (
	"github.com/google/uuid"

	"crm_backend/internal/domain"
)

const (
	// companySizeThreshold is the employee count above which a lead earns
	// companySizePoints.
	companySizeThreshold = 100
	companySizePoints    = 20
	// pointsPerContact is added for every interaction record.
	pointsPerContact = 5
)

// ComputeLeadScores scores every customer whose status is Lead. Other
// customers are ignored and absent from the result. Contacts that belong to
// non-lead or unknown customers do not contribute.
func ComputeLeadScores(customers []domain.Customer, contacts []domain.Contact) map[uuid.UUID]int {
	contactCounts := make(map[uuid.UUID]int, len(customers))
	for _, contact := range contacts {
		contactCounts[contact.CustomerID]++
	}

	scores := make(map[uuid.UUID]int)
	for _, customer := range customers {
		if !customer.IsLead() {
			continue
		}
		scores[customer.ID] = Score(customer, contactCounts[customer.ID])
	}
	return scores
}

// Score returns the score of a single lead with the given number of contacts.
func Score(customer domain.Customer, contactCount int) int {
	score := 0
	if customer.CompanySize != nil && *customer.CompanySize > companySizeThreshold {
		score += companySizePoints
	}
	score += pointsPerContact * contactCount
	return score
}
