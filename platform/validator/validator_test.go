package validator

import "testing"

type enumProbe struct {
	Status string `validate:"required,sample_status"`
	Kind   string `validate:"omitempty,sample_status"`
}

func TestRegisterEnum(t *testing.T) {
	v := New()
	if err := v.RegisterEnum("sample_status", []string{"Lead", "Customer"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := v.Struct(enumProbe{Status: "Lead"}); err != nil {
		t.Fatalf("expected Lead to be valid, got %v", err)
	}
	if err := v.Struct(enumProbe{Status: "Prospect"}); err == nil {
		t.Fatalf("expected Prospect to be rejected")
	}
	if err := v.Struct(enumProbe{}); err == nil {
		t.Fatalf("expected missing status to be rejected")
	}
	if err := v.Struct(enumProbe{Status: "Customer", Kind: "lead"}); err == nil {
		t.Fatalf("expected enum match to be case sensitive")
	}
}

func TestRegisterEnumRequiresValues(t *testing.T) {
	if err := New().RegisterEnum("empty", nil); err == nil {
		t.Fatalf("expected error for empty enum")
	}
}
