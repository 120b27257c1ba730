package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	customersrepo "crm_backend/internal/customers/repository"
	customerssvc "crm_backend/internal/customers/service"
	customerstransport "crm_backend/internal/customers/transport"
	"crm_backend/internal/dataio/transport"
	dealsrepo "crm_backend/internal/deals/repository"
	dealssvc "crm_backend/internal/deals/service"
	dealstransport "crm_backend/internal/deals/transport"
	"crm_backend/internal/events"
	tasksrepo "crm_backend/internal/tasks/repository"
	taskssvc "crm_backend/internal/tasks/service"
	taskstransport "crm_backend/internal/tasks/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/db"
)

var requiredColumns = map[string][]string{
	transport.EntityCustomers: {"name"},
	transport.EntityDeals:     {"customer_id", "title", "expected_close"},
	transport.EntityTasks:     {"customer_id", "title", "due_date"},
}

// csvRow is one data record addressed by lowercased header name.
type csvRow struct {
	line   int
	values map[string]string
}

func (r csvRow) get(col string) string {
	return strings.TrimSpace(r.values[col])
}

// Import creates one row per CSV record through the same validation as the
// API. Any failing record rolls back the whole file.
func (s *Service) Import(ctx context.Context, entity string, src io.Reader) (transport.ImportResult, error) {
	required, ok := requiredColumns[entity]
	if !ok {
		return transport.ImportResult{}, apperr.BadRequest(fmt.Sprintf("unknown import entity %q", entity))
	}
	rows, err := readCSV(src, required)
	if err != nil {
		return transport.ImportResult{}, err
	}

	var published []events.Event
	err = s.tx.WithTx(ctx, func(q db.Querier) error {
		published = published[:0]
		for _, row := range rows {
			event, err := s.importRow(ctx, q, entity, row)
			if err != nil {
				return rowErr(row.line, err)
			}
			published = append(published, event)
		}
		return nil
	})
	if err != nil {
		return transport.ImportResult{}, err
	}

	for _, event := range published {
		if err := s.eventBus.PublishSync(ctx, event); err != nil {
			s.log.WithContext(ctx).Warn("event handler failed", "event", event.EventName(), "error", err)
		}
	}
	s.log.WithContext(ctx).Info("csv imported", "entity", entity, "rows", len(rows))
	return transport.ImportResult{Entity: entity, Imported: len(rows)}, nil
}

func (s *Service) importRow(ctx context.Context, q db.Querier, entity string, row csvRow) (events.Event, error) {
	now := s.now()
	switch entity {
	case transport.EntityCustomers:
		req := customerstransport.CreateCustomerRequest{
			Name:    row.get("name"),
			Email:   row.get("email"),
			Phone:   row.get("phone"),
			Company: row.get("company"),
			Status:  row.get("status"),
		}
		if raw := row.get("company_size"); raw != "" {
			size, err := strconv.Atoi(raw)
			if err != nil {
				return nil, apperr.Validation("company_size must be a whole number")
			}
			req.CompanySize = &size
		}
		if err := s.validate(req); err != nil {
			return nil, err
		}
		customer, err := customerssvc.BuildCustomer(req, s.phones, now)
		if err != nil {
			return nil, err
		}
		if err := customersrepo.New(q).Create(ctx, customer); err != nil {
			return nil, err
		}
		return events.CustomerCreated{
			BaseEvent:  events.NewBaseEvent(),
			CustomerID: customer.ID,
			Name:       customer.Name,
			Status:     string(customer.Status),
			Source:     "import",
		}, nil

	case transport.EntityDeals:
		req, err := dealRequest(row)
		if err != nil {
			return nil, err
		}
		if err := s.validate(req); err != nil {
			return nil, err
		}
		deal, err := dealssvc.BuildDeal(req, now)
		if err != nil {
			return nil, err
		}
		if err := dealsrepo.New(q).Create(ctx, deal); err != nil {
			return nil, err
		}
		return events.DealCreated{
			BaseEvent:  events.NewBaseEvent(),
			DealID:     deal.ID,
			CustomerID: deal.CustomerID,
			Stage:      string(deal.Stage),
			Amount:     deal.Amount.StringFixed(2),
		}, nil

	default:
		req, err := taskRequest(row)
		if err != nil {
			return nil, err
		}
		if err := s.validate(req); err != nil {
			return nil, err
		}
		task, err := taskssvc.BuildTask(req, now)
		if err != nil {
			return nil, err
		}
		if err := tasksrepo.New(q).Create(ctx, task); err != nil {
			return nil, err
		}
		return events.TaskCreated{
			BaseEvent:  events.NewBaseEvent(),
			TaskID:     task.ID,
			CustomerID: task.CustomerID,
			Title:      task.Title,
		}, nil
	}
}

func (s *Service) validate(req any) error {
	if err := s.val.Struct(req); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func dealRequest(row csvRow) (dealstransport.CreateDealRequest, error) {
	var req dealstransport.CreateDealRequest
	customerID, err := uuid.Parse(row.get("customer_id"))
	if err != nil {
		return req, apperr.Validation("customer_id must be a UUID")
	}
	req.CustomerID = customerID
	req.Title = row.get("title")
	req.Stage = row.get("stage")

	if raw := row.get("owner_id"); raw != "" {
		ownerID, err := uuid.Parse(raw)
		if err != nil {
			return req, apperr.Validation("owner_id must be a UUID")
		}
		req.OwnerID = &ownerID
	}
	if raw := row.get("amount"); raw != "" {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return req, apperr.Validation("amount must be a number")
		}
		req.Amount = amount
	}
	if raw := row.get("probability"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return req, apperr.Validation("probability must be a whole number")
		}
		req.Probability = p
	}
	req.ExpectedClose, err = parseTime(row.get("expected_close"))
	if err != nil {
		return req, apperr.Validation("expected_close: " + err.Error())
	}
	return req, nil
}

func taskRequest(row csvRow) (taskstransport.CreateTaskRequest, error) {
	var req taskstransport.CreateTaskRequest
	customerID, err := uuid.Parse(row.get("customer_id"))
	if err != nil {
		return req, apperr.Validation("customer_id must be a UUID")
	}
	req.CustomerID = customerID
	req.Title = row.get("title")
	req.Description = row.get("description")
	req.Status = row.get("status")
	req.DueDate, err = parseTime(row.get("due_date"))
	if err != nil {
		return req, apperr.Validation("due_date: " + err.Error())
	}
	return req, nil
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04", dateLayout}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errors.New("value is required")
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", raw)
}

// readCSV reads a header line and every record. Headers are matched
// case-insensitively with spaces read as underscores.
func readCSV(src io.Reader, required []string) ([]csvRow, error) {
	reader := csv.NewReader(src)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.Validation("file is empty")
	}
	if err != nil {
		return nil, apperr.Validation("invalid csv: " + err.Error())
	}

	columns := make([]string, len(header))
	present := make(map[string]bool, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		col := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(h)), " ", "_")
		columns[i] = col
		present[col] = true
	}
	for _, col := range required {
		if !present[col] {
			return nil, apperr.Validation(fmt.Sprintf("missing required column %q", col))
		}
	}

	rows := make([]csvRow, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Validation("invalid csv: " + err.Error())
		}
		line, _ := reader.FieldPos(0)
		values := make(map[string]string, len(columns))
		for i, col := range columns {
			values[col] = record[i]
		}
		rows = append(rows, csvRow{line: line, values: values})
	}
	return rows, nil
}

