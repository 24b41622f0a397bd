package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/courier-orders/internal/models"
)

// Business-hours window: bookings are accepted from 08:00 up to but not
// including 20:00, and must be at least LeadTime ahead of the current instant.
const (
	OpenHour  = 8
	CloseHour = 20
	LeadTime  = 15 * time.Minute
)

// Form field keys, stable across the API surface.
const (
	FieldPickup       = "pickupLocation"
	FieldDestination  = "destination"
	FieldSameAddress  = "sameAddress"
	FieldDate         = "scheduledDate"
	FieldTime         = "scheduledTime"
	FieldPrice        = "price"
	FieldDistance     = "distance"
	FieldInsufficient = "insufficientFunds"
)

// Validator checks a candidate order against the business rules. The clock is
// injectable so date/time rules are testable.
type Validator struct {
	Now func() time.Time
}

func New() *Validator { return &Validator{Now: time.Now} }

// Validate evaluates every rule and reports all applicable failures at once;
// rules are independent and never short-circuit each other. hasDistance tells
// the validator whether a distance computation has been performed for the
// current address pair. An empty result means the order is submittable.
func (v *Validator) Validate(form models.OrderForm, minPrice decimal.Decimal, hasDistance bool) models.FieldErrors {
	errs := models.FieldErrors{}
	now := v.Now()

	if form.PickupLocation == "" {
		errs[FieldPickup] = "Pickup address is required"
	}
	if form.Destination == "" {
		errs[FieldDestination] = "Destination address is required"
	}
	if form.PickupLocation != "" && form.PickupLocation == form.Destination {
		errs[FieldSameAddress] = "Pickup and destination cannot be the same address"
	}

	dateOK := v.checkDate(form.ScheduledDate, now, errs)
	v.checkTime(form, now, dateOK, errs)

	if !form.Price.IsPositive() {
		errs[FieldPrice] = "Enter a valid price"
	} else if form.Price.LessThan(minPrice) {
		errs[FieldPrice] = fmt.Sprintf("Price must be at least %s€", minPrice.StringFixed(2))
	}

	if !hasDistance && form.PickupLocation != "" && form.Destination != "" &&
		form.PickupLocation != form.Destination {
		errs[FieldDistance] = "Distance has not been calculated yet"
	}

	if form.PaymentMethod == models.PayWallet && form.WalletBalance != nil &&
		form.WalletBalance.LessThan(form.Price) {
		errs[FieldInsufficient] = "Insufficient wallet balance"
	}

	return errs
}

// checkDate validates the date field alone and reports whether the combined
// date-time lead check may run (date present and clean).
func (v *Validator) checkDate(raw string, now time.Time, errs models.FieldErrors) bool {
	if raw == "" {
		errs[FieldDate] = "Date is required"
		return false
	}
	day, err := time.ParseInLocation("2006-01-02", raw, now.Location())
	if err != nil {
		errs[FieldDate] = "Enter a valid date"
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if day.Before(today) {
		errs[FieldDate] = "Date cannot be in the past"
		return false
	}
	return true
}

// checkTime applies the business-hours rule first, then the lead-time rule.
// When both fail for the same field the lead-time message wins, but only if
// the date field itself parsed clean.
func (v *Validator) checkTime(form models.OrderForm, now time.Time, dateOK bool, errs models.FieldErrors) {
	if form.ScheduledTime == "" {
		errs[FieldTime] = "Time is required"
		return
	}
	clock, err := time.Parse("15:04", form.ScheduledTime)
	if err != nil {
		errs[FieldTime] = "Enter a valid time"
		return
	}
	if clock.Hour() < OpenHour || clock.Hour() >= CloseHour {
		errs[FieldTime] = fmt.Sprintf("Bookings are accepted between %02d:00 and %02d:00", OpenHour, CloseHour)
	}
	if !dateOK {
		return
	}
	day, _ := time.ParseInLocation("2006-01-02", form.ScheduledDate, now.Location())
	at := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if at.Before(now.Add(LeadTime)) {
		errs[FieldTime] = fmt.Sprintf("Scheduled time must be at least %d minutes from now", int(LeadTime.Minutes()))
	}
}

var postalCode = regexp.MustCompile(`\b\d{5}\b`)

// ValidAddressText is a last-line textual guard on the create path: the
// address either names the supported country or carries one of its postal
// codes. Coordinate containment is the authoritative check; this only filters
// free-typed addresses that never went through the geocoder.
func ValidAddressText(addr, country string) bool {
	if addr == "" {
		return false
	}
	if strings.Contains(strings.ToLower(addr), strings.ToLower(country)) {
		return true
	}
	return postalCode.MatchString(addr)
}
