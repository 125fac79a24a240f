package model

import (
	"time"
)

// ComplaintStatus is the lifecycle state of a complaint.
type ComplaintStatus string

const (
	StatusPending ComplaintStatus = "pending"
)

// Complaint is a submitted municipal complaint.
type Complaint struct {
	ID          string          `json:"id"`
	CitizenID   string          `json:"citizen_id"`
	CategoryID  int64           `json:"category_id"`
	Description string          `json:"description"`
	Reference   *string         `json:"reference,omitempty"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	AddressText *string         `json:"address_text,omitempty"`
	Origin      string          `json:"origin"`
	Status      ComplaintStatus `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateComplaintRequest is the form submission payload.
type CreateComplaintRequest struct {
	CategoryID  int64    `json:"category_id"`
	Description string   `json:"description"`
	Reference   *string  `json:"reference,omitempty"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	AddressText *string  `json:"address_text,omitempty"`
}

// MapQuery filters complaints shown on the map.
type MapQuery struct {
	CitizenID  string
	Latitude   *float64
	Longitude  *float64
	RadiusKm   float64
	OnlyMine   bool
	OnlyToday  bool
	CategoryID *int64
	Search     string
}

// MapItem is one marker on the complaint map.
type MapItem struct {
	ID           string          `json:"id"`
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name,omitempty"`
	Description  string          `json:"description"`
	Reference    *string         `json:"reference,omitempty"`
	Status       ComplaintStatus `json:"status"`
	Latitude     float64         `json:"latitude"`
	Longitude    float64         `json:"longitude"`
	CreatedAt    time.Time       `json:"created_at"`
	Mine         bool            `json:"mine"`
	DistanceKm   *float64        `json:"distance_km"`
}

// MapResponse is the response for the complaint map.
type MapResponse struct {
	Count     int       `json:"count"`
	RadiusKm  float64   `json:"radius_km"`
	OnlyToday bool      `json:"only_today"`
	OnlyMine  bool      `json:"only_mine"`
	Items     []MapItem `json:"items"`
}
