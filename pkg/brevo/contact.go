package brevo

// Attribute names Brevo contacts carry through the funnel lifecycle.
const (
	AttrFunnelType             = "FUNNEL_TYPE"
	AttrCertificatePurchased   = "CERTIFICATE_PURCHASED"
	AttrCertificatePurchasedAt = "CERTIFICATE_PURCHASED_AT"
)

// Contact is the typed input for the contact upsert operation.
type Contact struct {
	Email         string
	ListIDs       []int64
	Attributes    map[string]any
	UpdateEnabled bool
}

// NewContact builds a contact with update_enabled defaulted on, matching the
// upsert semantics of the /contacts endpoint.
func NewContact(email string, listIDs []int64, attributes map[string]any) Contact {
	return Contact{
		Email:         email,
		ListIDs:       listIDs,
		Attributes:    attributes,
		UpdateEnabled: true,
	}
}

// contactPayload is the wire shape for POST /contacts. Empty collections are
// omitted; the API rejects empty listIds/attributes on some plans.
type contactPayload struct {
	Email         string         `json:"email"`
	UpdateEnabled bool           `json:"updateEnabled"`
	ListIDs       []int64        `json:"listIds,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

func (c Contact) payload() contactPayload {
	p := contactPayload{
		Email:         c.Email,
		UpdateEnabled: c.UpdateEnabled,
	}
	if len(c.ListIDs) > 0 {
		p.ListIDs = c.ListIDs
	}
	if len(c.Attributes) > 0 {
		p.Attributes = c.Attributes
	}
	return p
}
