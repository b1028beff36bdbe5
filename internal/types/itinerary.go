package types

import (
	"time"

	"github.com/google/uuid"
)

type ItemType string

const (
	ItemTypePlace          ItemType = "place"
	ItemTypeAccommodation  ItemType = "accommodation"
	ItemTypeTransportation ItemType = "transportation"
	ItemTypeContents       ItemType = "contents"
	ItemTypeRestaurant     ItemType = "restaurant"
)

// PlaceSnapshot is the denormalized display payload stored with an item so
// the frontend never needs a second catalog fetch.
type PlaceSnapshot struct {
	NameKor     string   `json:"name_kor,omitempty"`
	NameEng     string   `json:"name_eng,omitempty"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	Latitude    float64  `json:"latitude,omitempty"`
	Longitude   float64  `json:"longitude,omitempty"`
}

// ItineraryItem is one row of the ordered, per-day itinerary attached to an
// estimate. ItemID references the catalog and is nil exactly when IsTBD is
// true. OrderIndex is dense and zero-based within a day.
type ItineraryItem struct {
	ID         uuid.UUID      `json:"id"`
	Type       ItemType       `json:"type"`
	DayNumber  int            `json:"day_number"`
	OrderIndex int            `json:"order_index"`
	ItemID     *uuid.UUID     `json:"item_id,omitempty"`
	ItemName   string         `json:"item_name"`
	Note       string         `json:"note,omitempty"`
	IsTBD      bool           `json:"is_tbd"`
	ItemInfo   *PlaceSnapshot `json:"item_info,omitempty"`
}

type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusFinalized EstimateStatus = "finalized"
	EstimateStatusArchived  EstimateStatus = "archived"
)

// EstimateSession is the read model every engine operation receives: the
// quote, its itinerary handle, and the trip parameters the customer declared.
type EstimateSession struct {
	EstimateID   uuid.UUID      `json:"estimate_id"`
	ItineraryID  uuid.UUID      `json:"itinerary_id"`
	CustomerName string         `json:"customer_name,omitempty"`
	Region       string         `json:"region"`
	StartDate    time.Time      `json:"start_date"`
	EndDate      time.Time      `json:"end_date"`
	DurationDays int            `json:"duration_days"`
	Interests    []string       `json:"interests,omitempty"`
	Status       EstimateStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// FinalizeResult reports the draft -> finalized transition.
type FinalizeResult struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	ItineraryID uuid.UUID `json:"itinerary_id"`
}
