package payloads

// ContactSync is the payload stored with every outbox job. It is captured at
// enqueue time and never mutated afterwards; the worker decodes it back when
// dispatching to the Brevo gateway.
type ContactSync struct {
	Email         string         `json:"email"`
	ListIDs       []int64        `json:"list_ids,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	UpdateEnabled *bool          `json:"update_enabled,omitempty"`
	// PurchasedAt is set for update_after_purchase jobs, RFC 3339.
	PurchasedAt string `json:"purchased_at,omitempty"`
}
