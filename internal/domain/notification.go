package domain

import "time"

// Recipient group selectors for a notification.
const (
	RecipientsAll       = "all"
	RecipientsStaff     = "staff"
	RecipientsDoctors   = "doctors"
	RecipientsCustomers = "customers"
	RecipientsSpecific  = "specific"
)

// Notification statuses.
const (
	StatusSent      = "sent"
	StatusScheduled = "scheduled"
)

// ReadReceipt is one entry in a notification's read ledger. At most one
// entry exists per reader; the timestamp of the first read wins.
type ReadReceipt struct {
	UserID string    `json:"user" dynamodbav:"user"`
	ReadAt time.Time `json:"read_at" dynamodbav:"read_at"`
}

// Notification is one send event. Immutable after creation except for
// ReadBy appends and the IsActive soft-delete flag. RecipientsCount is a
// snapshot taken at creation and never recomputed.
type Notification struct {
	NotificationID string `json:"id" dynamodbav:"notification_id"`
	Title          string `json:"title" dynamodbav:"title"`
	Message        string `json:"message" dynamodbav:"message"`
	Type           string `json:"type" dynamodbav:"type"`         // "general" | "reminder" | "promo" | ...
	Priority       string `json:"priority" dynamodbav:"priority"` // "normal" | "high"
	CreatedBy      string `json:"created_by" dynamodbav:"created_by"`
	Recipients     string `json:"recipients" dynamodbav:"recipients"`
	// SpecificRecipients holds staff user ids when Recipients == "specific";
	// it drives staff visibility and the recipients count. Stored as a plain
	// list: caller-supplied duplicates are kept, and a set encoding would
	// reject them at write time.
	SpecificRecipients []string `json:"specific_recipients,omitempty" dynamodbav:"specific_recipients,omitempty"`
	// SpecificCustomers holds customer ids when Recipients == "specific";
	// it drives customer visibility and push delivery. Plain list, same
	// reason as SpecificRecipients.
	SpecificCustomers []string          `json:"specific_customers,omitempty" dynamodbav:"specific_customers,omitempty"`
	AnimalType        string            `json:"animal_type,omitempty" dynamodbav:"animal_type"`
	Branch            string            `json:"branch,omitempty" dynamodbav:"branch"` // set when the creator is a doctor
	Metadata          map[string]string `json:"metadata,omitempty" dynamodbav:"metadata"`
	RecipientsCount   int               `json:"recipients_count" dynamodbav:"recipients_count"`
	Status            string            `json:"status" dynamodbav:"status"`
	IsActive          bool              `json:"is_active" dynamodbav:"is_active"`
	ReadBy            []ReadReceipt     `json:"read_by" dynamodbav:"read_by"`
	// ReadByIDs mirrors ReadBy's user ids as a string set so the conditional
	// read-mark append and unread-count filters stay single atomic
	// expressions on the storage side.
	ReadByIDs   []string   `json:"-" dynamodbav:"read_by_ids,stringset,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" dynamodbav:"scheduled_at"`
	CreatedAt   time.Time  `json:"created" dynamodbav:"created_at"`
}

// WasReadBy reports whether the given reader already has a receipt.
func (n *Notification) WasReadBy(readerID string) bool {
	for _, id := range n.ReadByIDs {
		if id == readerID {
			return true
		}
	}
	for _, r := range n.ReadBy {
		if r.UserID == readerID {
			return true
		}
	}
	return false
}

// VisibleToStaff is the per-role visibility predicate for dashboard viewers.
// Admins see every active notification; doctors additionally see what they
// sent themselves; other staff see the staff-addressed subset.
func (n *Notification) VisibleToStaff(viewerID, role string) bool {
	if !n.IsActive {
		return false
	}
	switch role {
	case RoleAdmin:
		return true
	case RoleDoctor:
		return n.Recipients == RecipientsAll ||
			n.Recipients == RecipientsDoctors ||
			contains(n.SpecificRecipients, viewerID) ||
			n.CreatedBy == viewerID
	default:
		return n.Recipients == RecipientsAll ||
			n.Recipients == RecipientsStaff ||
			contains(n.SpecificRecipients, viewerID)
	}
}

// VisibleToCustomer is the visibility predicate for the public customer
// surface: customer-addressed, already sent, active.
func (n *Notification) VisibleToCustomer(customerID string) bool {
	if !n.IsActive || n.Status != StatusSent {
		return false
	}
	return n.Recipients == RecipientsAll ||
		n.Recipients == RecipientsCustomers ||
		contains(n.SpecificCustomers, customerID)
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

type CreateNotificationRequest struct {
	Title      string `json:"title" validate:"required"`
	Message    string `json:"message" validate:"required"`
	Type       string `json:"type"`
	Priority   string `json:"priority" validate:"omitempty,oneof=normal high"`
	Recipients string `json:"recipients" validate:"required,oneof=all staff doctors customers specific"`
	// SpecificRecipients is required when Recipients == "specific". The
	// count snapshot uses the raw length: caller-supplied duplicates inflate
	// it. That quirk is intentional and pinned by tests.
	SpecificRecipients []string          `json:"specific_recipients" validate:"required_if=Recipients specific"`
	SpecificCustomers  []string          `json:"specific_customers"`
	AnimalType         string            `json:"animal_type"`
	Metadata           map[string]string `json:"metadata"`
	ScheduledAt        *time.Time        `json:"scheduled_at"`
}
