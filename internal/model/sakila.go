package model

import "time"

// The types below mirror the Sakila sample schema.  Field names follow the
// column names; nested structs and the *_count / is_rented fields are
// derived for a single response and never written back.

type Language struct {
	LanguageID uint8     `json:"language_id"`
	Name       string    `json:"name"`
	LastUpdate time.Time `json:"last_update"`
}

type Film struct {
	FilmID          uint16    `json:"film_id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	ReleaseYear     *int      `json:"release_year"`
	LanguageID      uint8     `json:"language_id"`
	RentalDuration  uint8     `json:"rental_duration"`
	RentalRate      float64   `json:"rental_rate"`
	Length          *uint16   `json:"length"`
	ReplacementCost float64   `json:"replacement_cost"`
	Rating          *string   `json:"rating"`
	SpecialFeatures *string   `json:"special_features"`
	LastUpdate      time.Time `json:"last_update"`

	Language   *Embedded `json:"language,omitempty"`
	ActorCount *int64    `json:"actor_count,omitempty"`
}

type Actor struct {
	ActorID    uint16    `json:"actor_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	LastUpdate time.Time `json:"last_update"`

	FilmCount *int64 `json:"film_count,omitempty"`
}

type Category struct {
	CategoryID uint8     `json:"category_id"`
	Name       string    `json:"name"`
	LastUpdate time.Time `json:"last_update"`

	FilmCount *int64 `json:"film_count,omitempty"`
}

type Customer struct {
	CustomerID uint16    `json:"customer_id"`
	StoreID    uint8     `json:"store_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Email      *string   `json:"email"`
	AddressID  uint16    `json:"address_id"`
	Active     Flag      `json:"active"`
	CreateDate time.Time `json:"create_date"`
	LastUpdate time.Time `json:"last_update"`

	Address *Embedded `json:"address,omitempty"`
}

type Rental struct {
	RentalID    int        `json:"rental_id"`
	RentalDate  time.Time  `json:"rental_date"`
	InventoryID uint32     `json:"inventory_id"`
	CustomerID  uint16     `json:"customer_id"`
	ReturnDate  *time.Time `json:"return_date"`
	StaffID     uint8      `json:"staff_id"`
	LastUpdate  time.Time  `json:"last_update"`

	Customer *Embedded `json:"customer,omitempty"`
	Staff    *Embedded `json:"staff,omitempty"`
}

type Payment struct {
	PaymentID   uint16    `json:"payment_id"`
	CustomerID  uint16    `json:"customer_id"`
	StaffID     uint8     `json:"staff_id"`
	RentalID    *int      `json:"rental_id"`
	Amount      float64   `json:"amount"`
	PaymentDate time.Time `json:"payment_date"`
	LastUpdate  time.Time `json:"last_update"`
}

type Inventory struct {
	InventoryID uint32    `json:"inventory_id"`
	FilmID      uint16    `json:"film_id"`
	StoreID     uint8     `json:"store_id"`
	LastUpdate  time.Time `json:"last_update"`

	Film     *Embedded `json:"film,omitempty"`
	IsRented *bool     `json:"is_rented,omitempty"`
}

type Store struct {
	StoreID        uint8     `json:"store_id"`
	ManagerStaffID uint8     `json:"manager_staff_id"`
	AddressID      uint16    `json:"address_id"`
	LastUpdate     time.Time `json:"last_update"`

	Manager *Embedded `json:"manager,omitempty"`
	Address *Embedded `json:"address,omitempty"`
}

type Staff struct {
	StaffID    uint8     `json:"staff_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	AddressID  uint16    `json:"address_id"`
	Email      *string   `json:"email"`
	StoreID    uint8     `json:"store_id"`
	Active     Flag      `json:"active"`
	Username   string    `json:"username"`
	LastUpdate time.Time `json:"last_update"`

	RentalCount *int64 `json:"rental_count,omitempty"`
}

type Country struct {
	CountryID  uint16    `json:"country_id"`
	Country    string    `json:"country"`
	LastUpdate time.Time `json:"last_update"`
}

type City struct {
	CityID     uint16    `json:"city_id"`
	City       string    `json:"city"`
	CountryID  uint16    `json:"country_id"`
	LastUpdate time.Time `json:"last_update"`

	Country *Embedded `json:"country,omitempty"`
}

type Address struct {
	AddressID  uint16    `json:"address_id"`
	Address    string    `json:"address"`
	Address2   *string   `json:"address2"`
	District   string    `json:"district"`
	CityID     uint16    `json:"city_id"`
	PostalCode *string   `json:"postal_code"`
	Phone      string    `json:"phone"`
	LastUpdate time.Time `json:"last_update"`
}

// Embedded is a foreign-key relation resolved into a nested object.  Label
// is the human-readable rendering, "Unknown" or "N/A" when the related row
// is missing.
type Embedded struct {
	ID     *int64         `json:"id"`
	Label  string         `json:"label"`
	Fields map[string]any `json:"fields,omitempty"`
}
