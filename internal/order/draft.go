package order

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shahid-dev/restopos/internal/cart"
)

var (
	ErrMissingCustomerName = errors.New("order: customer name is required")
	ErrMissingPhoneNumber  = errors.New("order: phone number is required")
	ErrInvalidPhoneFormat  = errors.New("order: phone number format is invalid")
)

// Generic international format: optional country code, two 3-digit groups,
// 4-6 digit subscriber number, with space/dot/dash separators.
var phonePattern = regexp.MustCompile(`^(\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4,6}$`)

// DraftLine is one submittable order line. Price is intentionally absent:
// the server is the source of truth for pricing at order-creation time.
type DraftLine struct {
	ProductID string    `json:"product"`
	Quantity  int       `json:"quantity"`
	Spicy     bool      `json:"isSpicy"`
	Size      cart.Size `json:"size"`
}

// Draft is a validated, submittable order payload assembled from the cart
// plus customer metadata. It lives from checkout initiation until successful
// submission or explicit cancel.
type Draft struct {
	Lines         []DraftLine
	CustomerName  string
	PhoneNumber   string
	Discount      float64
	IsUpdate      bool
	TargetOrderID string
}

// BuildDraft validates customer metadata and assembles a draft from the cart
// lines. Rules are checked in order and the first failure wins. Cart
// emptiness is the caller's precondition: checkout is only offered for a
// non-empty cart.
func BuildDraft(lines []cart.Line, customerName, phoneNumber string, discount float64) (*Draft, error) {
	customerName = strings.TrimSpace(customerName)
	phoneNumber = strings.TrimSpace(phoneNumber)

	if customerName == "" {
		return nil, ErrMissingCustomerName
	}
	if phoneNumber == "" {
		return nil, ErrMissingPhoneNumber
	}
	if !phonePattern.MatchString(phoneNumber) {
		return nil, ErrInvalidPhoneFormat
	}

	draft := &Draft{
		CustomerName: customerName,
		PhoneNumber:  phoneNumber,
		Discount:     discount,
		Lines:        make([]DraftLine, 0, len(lines)),
	}
	for _, l := range lines {
		draft.Lines = append(draft.Lines, DraftLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Spicy:     l.Spicy,
			Size:      l.Size,
		})
	}
	return draft, nil
}
