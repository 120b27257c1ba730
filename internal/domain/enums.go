package domain

import (
	"crm_backend/platform/validator"
)

// Enumerations of the secondary entities. They are validated at the
// transport boundary and by CHECK constraints.
var (
	ScoringAttributes    = []string{"Company Size", "Industry", "Interaction Level", "Budget"}
	CampaignTypes        = []string{"Email", "Social", "Event", "Webinar"}
	LandingPageTemplates = []string{"Default", "Product", "Event", "Thank You"}
	BlogCategories       = []string{"Marketing", "Sales", "Technology", "Industry News"}
	FormFieldTypes       = []string{"Text", "Email", "Phone", "Number", "Dropdown"}
	WorkflowTriggers     = []string{"Form Submission", "Page Visit", "Deal Stage Change"}
	WorkflowFields       = []string{"Email", "Company Size", "Industry"}
	WorkflowOperators    = []string{"Equals", "Contains", "Greater Than"}
	WorkflowActions      = []string{"Send Email", "Create Task", "Update Property", "Create Deal"}
	AutomationTriggers   = []string{"New Lead", "Deal Stage Change", "Task Due", "Score Change"}
	AutomationActions    = []string{"Send Email", "Create Task", "Update Field", "Notify Team"}
	CalendarEventTypes   = []string{"Meeting", "Call", "Follow-up", "Presentation"}
	MessagePriorities    = []string{"Low", "Medium", "High"}
	CommunicationTypes   = []string{"Email", "Note", "Call Log"}
	CustomFieldEntities  = []string{"Customer", "Deal", "Task"}
	CustomFieldTypes     = []string{"Text", "Number", "Date", "Dropdown"}
)

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

// RegisterValidators registers the enum validation tags used by transport DTOs.
func RegisterValidators(v *validator.Validator) error {
	enums := map[string][]string{
		"customer_status":     toStrings(CustomerStatuses),
		"contact_type":        toStrings(ContactTypes),
		"deal_stage":          toStrings(DealStages),
		"task_status":         toStrings(TaskStatuses),
		"scoring_attribute":   ScoringAttributes,
		"campaign_type":       CampaignTypes,
		"page_template":       LandingPageTemplates,
		"blog_category":       BlogCategories,
		"form_field_type":     FormFieldTypes,
		"workflow_trigger":    WorkflowTriggers,
		"workflow_field":      WorkflowFields,
		"workflow_operator":   WorkflowOperators,
		"workflow_action":     WorkflowActions,
		"automation_trigger":  AutomationTriggers,
		"automation_action":   AutomationActions,
		"calendar_event_type": CalendarEventTypes,
		"message_priority":    MessagePriorities,
		"communication_type":  CommunicationTypes,
		"custom_field_entity": CustomFieldEntities,
		"custom_field_type":   CustomFieldTypes,
	}
	for tag, values := range enums {
		if err := v.RegisterEnum(tag, values); err != nil {
			return err
		}
	}
	return nil
}

// NewValidator returns a validator with every domain tag registered.
func NewValidator() *validator.Validator {
	v := validator.New()
	if err := RegisterValidators(v); err != nil {
		panic(err)
	}
	return v
}
