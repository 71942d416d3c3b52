package customer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/freshconcept/gms-ordering/internal/customer"
	"github.com/freshconcept/gms-ordering/internal/schedule"
)

func validCustomer() customer.Customer {
	return customer.Customer{
		CustomerNumber: "CUST001",
		CompanyName:    "Test Supermarket",
		Address:        "123 Test Street, Brussels",
		VATNumber:      "0123456789",
		ContactPerson:  "John Doe",
		PhoneNumber:    "+3221234567",
		DeliverySchedule: schedule.Schedule{
			schedule.Tuesday: {OrderDay: schedule.Monday, Deadline: "08:00"},
		},
	}
}

func TestCustomerValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c := validCustomer()
		assert.NoError(t, c.Validate())
	})

	t.Run("vat_is_optional", func(t *testing.T) {
		c := validCustomer()
		c.VATNumber = ""
		assert.NoError(t, c.Validate())
	})

	t.Run("vat_numbers", func(t *testing.T) {
		valid := []string{"0123456789", "1123456789"}
		for _, vat := range valid {
			c := validCustomer()
			c.VATNumber = vat
			assert.NoError(t, c.Validate(), vat)
		}

		invalid := []string{"123456789", "012345678", "2123456789", "abc1234567"}
		for _, vat := range invalid {
			c := validCustomer()
			c.VATNumber = vat
			assert.ErrorIs(t, c.Validate(), customer.ErrInvalidVATNumber, vat)
		}
	})

	t.Run("phone_numbers", func(t *testing.T) {
		valid := []string{"+3221234567", "021234567", "+32470123456", "0470123456"}
		for _, phone := range valid {
			c := validCustomer()
			c.PhoneNumber = phone
			assert.NoError(t, c.Validate(), phone)
		}

		invalid := []string{"+320123456", "1234567", "+33212345678", ""}
		for _, phone := range invalid {
			c := validCustomer()
			c.PhoneNumber = phone
			assert.ErrorIs(t, c.Validate(), customer.ErrInvalidPhoneNumber, phone)
		}
	})

	t.Run("bad_schedule", func(t *testing.T) {
		c := validCustomer()
		c.DeliverySchedule = schedule.Schedule{
			schedule.Tuesday: {OrderDay: schedule.Monday, Deadline: "not-a-time"},
		}
		assert.Error(t, c.Validate())
	})
}
