package customer

import (
	"errors"
	"regexp"
	"time"

	"github.com/gofrs/uuid"

	"github.com/freshconcept/gms-ordering/internal/schedule"
)

// Customer is a GMS location (supermarket, retail chain) ordering from the
// supplier. Each customer is linked one-to-one to an identity user and owns
// its delivery schedule exclusively.
type Customer struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	UserID           uuid.UUID         `json:"user_id" db:"user_id"`
	CustomerNumber   string            `json:"customer_number" db:"customer_number"`
	CompanyName      string            `json:"company_name" db:"company_name"`
	Address          string            `json:"address" db:"address"`
	VATNumber        string            `json:"vat_number,omitempty" db:"vat_number"`
	ContactPerson    string            `json:"contact_person" db:"contact_person"`
	PhoneNumber      string            `json:"phone_number" db:"phone_number"`
	DeliverySchedule schedule.Schedule `json:"delivery_schedule" db:"delivery_schedule"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

var (
	// Belgian VAT number: 10 digits starting with 0 or 1.
	vatPattern = regexp.MustCompile(`^[01]\d{9}$`)
	// Belgian phone number, landline or GSM.
	phonePattern = regexp.MustCompile(`^(\+32|0)[1-9]\d{7,8}$`)
)

var (
	ErrInvalidVATNumber   = errors.New("customer: VAT number must be 10 digits starting with 0 or 1")
	ErrInvalidPhoneNumber = errors.New("customer: phone number must be a valid Belgian number")
)

// Validate checks the Belgian VAT and phone formats and the delivery
// schedule. VAT is optional; phone is not.
func (c *Customer) Validate() error {
	if c.VATNumber != "" && !vatPattern.MatchString(c.VATNumber) {
		return ErrInvalidVATNumber
	}
	if !phonePattern.MatchString(c.PhoneNumber) {
		return ErrInvalidPhoneNumber
	}
	return c.DeliverySchedule.Validate()
}
