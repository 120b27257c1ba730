package transport

import "time"

// Entities that can be exported or imported.
const (
	EntityCustomers         = "customers"
	EntityDeals             = "deals"
	EntityTasks             = "tasks"
	EntityCommunicationLogs = "communication_logs"
)

type CreateCustomFieldRequest struct {
	EntityType string `json:"entityType" validate:"required,custom_field_entity"`
	FieldName  string `json:"fieldName" validate:"required,min=1,max=100"`
	FieldType  string `json:"fieldType" validate:"required,custom_field_type"`
	Required   bool   `json:"required"`
}

type ListCustomFieldsRequest struct {
	EntityType string `form:"entityType" validate:"omitempty,custom_field_entity"`
}

type CustomFieldResponse struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entityType"`
	FieldName  string    `json:"fieldName"`
	FieldType  string    `json:"fieldType"`
	Required   bool      `json:"required"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ImportResult struct {
	Entity   string `json:"entity"`
	Imported int    `json:"imported"`
}
