package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coordinates is a longitude/latitude pair, in that order to match the
// geocoding provider's center arrays.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether the pair is a plausible point on the globe.
func (c Coordinates) Valid() bool {
	return c.Lon >= -180 && c.Lon <= 180 && c.Lat >= -90 && c.Lat <= 90
}

// Location is an address as the user entered or selected it. Coordinates are
// nil until the address has been resolved through the geocoder; a bare
// address string is a valid but unresolved Location.
type Location struct {
	FormattedAddress string       `json:"formatted_address"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
}

func (l Location) Resolved() bool { return l.Coordinates != nil && l.Coordinates.Valid() }

type ServiceType string

const (
	ServiceCarpooling ServiceType = "carpooling"
	ServiceShopping   ServiceType = "shopping"
	ServiceLargeItems ServiceType = "large_items"
)

// Service is an immutable catalog entry owned by the services table.
type Service struct {
	ID       string          `json:"id"`
	Type     ServiceType     `json:"type"`
	Name     string          `json:"name"`
	MinPrice decimal.Decimal `json:"min_price"`
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusActive    OrderStatus = "active"
	StatusInTransit OrderStatus = "in_transit"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

type PaymentMethod string

const (
	PayWallet PaymentMethod = "wallet"
	PayCash   PaymentMethod = "cash"
	PayCard   PaymentMethod = "card"
)

// Order is the persistent entity backed by the orders table. The store keeps
// read-mostly copies keyed by ID, scoped to the signed-in user.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	ServiceID       string          `json:"service_id"`
	Status          OrderStatus     `json:"status"`
	PickupLocation  string          `json:"pickup_location"`
	DropoffLocation string          `json:"dropoff_location"`
	EstimatedPrice  decimal.Decimal `json:"estimated_price"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	CreatedAt       time.Time       `json:"created_at"`
}

// OrderForm is the ephemeral user input for a new order. WalletBalance is a
// snapshot taken before validation; nil means no balance was available.
type OrderForm struct {
	PickupLocation string           `json:"pickup_location"`
	Destination    string           `json:"destination"`
	ScheduledDate  string           `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledTime  string           `json:"scheduled_time"` // HH:MM
	Price          decimal.Decimal  `json:"price"`
	PaymentMethod  PaymentMethod    `json:"payment_method"`
	WalletBalance  *decimal.Decimal `json:"wallet_balance,omitempty"`
}

// FieldErrors maps a form field to a human-readable message. An empty map
// means the form is submittable. It is recomputed whole on every pass, never
// partially merged.
type FieldErrors map[string]string

func (e FieldErrors) Valid() bool { return len(e) == 0 }

// Candidate is one address suggestion, resolved or partially resolved.
type Candidate struct {
	Label            string       `json:"label"`
	Sublabel         string       `json:"sublabel"`
	FormattedAddress string       `json:"formatted_address"`
	Coordinates      *Coordinates `json:"coordinates,omitempty"`
}

// ChangeEvent is one row-level mutation pushed by the orders change feed.
type ChangeEvent struct {
	Op      string      `json:"op"` // INSERT or UPDATE
	OrderID string      `json:"order_id"`
	UserID  string      `json:"user_id"`
	Status  OrderStatus `json:"status"`
}
