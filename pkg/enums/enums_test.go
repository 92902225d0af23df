package enums

import "testing"

func TestParseFunnelType(t *testing.T) {
	if _, err := ParseFunnelType("language"); err != nil {
		t.Fatalf("language must parse: %v", err)
	}
	if _, err := ParseFunnelType("non_language"); err != nil {
		t.Fatalf("non_language must parse: %v", err)
	}
	if _, err := ParseFunnelType("LANGUAGE"); err == nil {
		t.Fatalf("funnel types are lowercase on the wire")
	}
	if FunnelType("banana").IsValid() {
		t.Fatalf("unknown funnel type must be invalid")
	}
}

func TestParseOutboxOperationType(t *testing.T) {
	for _, value := range []string{"upsert_contact", "update_after_purchase"} {
		op, err := ParseOutboxOperationType(value)
		if err != nil {
			t.Fatalf("%s must parse: %v", value, err)
		}
		if string(op) != value {
			t.Fatalf("parse changed the value: %s", op)
		}
	}
	if _, err := ParseOutboxOperationType("delete_contact"); err == nil {
		t.Fatalf("unknown operation must not parse")
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobPending.Terminal() {
		t.Fatalf("pending is not terminal")
	}
	if !JobSuccess.Terminal() || !JobError.Terminal() {
		t.Fatalf("success and error are terminal")
	}
}
