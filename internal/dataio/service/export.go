package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/dataio/transport"
	tasksrepo "crm_backend/internal/tasks/repository"
	"crm_backend/platform/apperr"
)

const dateLayout = "2006-01-02"

var exportHeaders = map[string][]string{
	transport.EntityCustomers:         {"id", "name", "email", "phone", "company", "status", "company_size", "lead_score", "created_date"},
	transport.EntityDeals:             {"id", "customer_id", "owner_id", "title", "amount", "stage", "probability", "expected_close", "created_at"},
	transport.EntityTasks:             {"id", "customer_id", "title", "description", "due_date", "status", "created_at"},
	transport.EntityCommunicationLogs: {"id", "customer_id", "user_id", "type", "subject", "content", "sent_date", "status"},
}

// Export writes every row of entity as CSV. Columns mirror the table.
func (s *Service) Export(ctx context.Context, entity string, w io.Writer) (int, error) {
	header, ok := exportHeaders[entity]
	if !ok {
		return 0, apperr.BadRequest(fmt.Sprintf("unknown export entity %q", entity))
	}
	rows, err := s.exportRows(ctx, entity)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return 0, fmt.Errorf("write csv rows: %w", err)
	}

	s.log.WithContext(ctx).Info("csv exported", "entity", entity, "rows", len(rows))
	return len(rows), nil
}

func (s *Service) exportRows(ctx context.Context, entity string) ([][]string, error) {
	switch entity {
	case transport.EntityCustomers:
		items, err := s.sources.Customers.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(items))
		for _, c := range items {
			size := ""
			if c.CompanySize != nil {
				size = strconv.Itoa(*c.CompanySize)
			}
			rows = append(rows, []string{
				c.ID.String(), c.Name, c.Email, c.Phone, c.Company, string(c.Status),
				size, strconv.Itoa(c.LeadScore), formatTime(c.CreatedDate),
			})
		}
		return rows, nil

	case transport.EntityDeals:
		items, err := s.sources.Deals.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(items))
		for _, d := range items {
			rows = append(rows, []string{
				d.ID.String(), d.CustomerID.String(), optionalID(d.OwnerID), d.Title, d.Amount.StringFixed(2),
				string(d.Stage), strconv.Itoa(d.Probability), d.ExpectedClose.UTC().Format(dateLayout), formatTime(d.CreatedAt),
			})
		}
		return rows, nil

	case transport.EntityTasks:
		items, err := s.sources.Tasks.List(ctx, tasksrepo.ListParams{})
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(items))
		for _, t := range items {
			rows = append(rows, []string{
				t.ID.String(), t.CustomerID.String(), t.Title, t.Description,
				formatTime(t.DueDate), string(t.Status), formatTime(t.CreatedAt),
			})
		}
		return rows, nil

	default:
		items, err := s.sources.Logs.ListLogs(ctx, nil, 0)
		if err != nil {
			return nil, err
		}
		rows := make([][]string, 0, len(items))
		for _, l := range items {
			rows = append(rows, []string{
				l.ID.String(), l.CustomerID.String(), optionalID(l.UserID), l.Type,
				l.Subject, l.Content, formatTime(l.SentDate), l.Status,
			})
		}
		return rows, nil
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
