package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubjectType identifies the kind of catalog entity an item references
type SubjectType string

const (
	SubjectAttraction SubjectType = "attraction"
	SubjectTour       SubjectType = "tour"
	SubjectRoute      SubjectType = "route"
)

// IsValidSubjectType checks if a subject type is valid
func IsValidSubjectType(t SubjectType) bool {
	switch t {
	case SubjectAttraction, SubjectTour, SubjectRoute:
		return true
	}
	return false
}

// User is the authenticated user's profile record
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      string `json:"role,omitempty"`
}

// KeyOrigin distinguishes client-minted identities from server-issued ones
type KeyOrigin int

const (
	KeyLocal KeyOrigin = iota
	KeyRemote
)

const localKeyPrefix = "loc_"

// ItemKey is a collection-scoped item identity tagged with its origin.
// Items created while anonymous carry a client-generated local key; items
// mirrored from the server carry the server-issued id. Callers branch on
// Origin rather than inspecting the raw value.
type ItemKey struct {
	Origin KeyOrigin
	Value  string
}

// NewLocalKey mints a client-side identity for an item created offline
func NewLocalKey() ItemKey {
	return ItemKey{Origin: KeyLocal, Value: localKeyPrefix + uuid.NewString()}
}

// RemoteKey wraps a server-issued identity
func RemoteKey(id string) ItemKey {
	return ItemKey{Origin: KeyRemote, Value: id}
}

// ParseKey rehydrates a key from its serialized form, recovering the origin
// from the local prefix tag
func ParseKey(s string) ItemKey {
	if strings.HasPrefix(s, localKeyPrefix) {
		return ItemKey{Origin: KeyLocal, Value: s}
	}
	return ItemKey{Origin: KeyRemote, Value: s}
}

func (k ItemKey) String() string { return k.Value }

// IsZero reports whether the key is unset
func (k ItemKey) IsZero() bool { return k.Value == "" }

// MarshalJSON serializes the key as its raw string value
func (k ItemKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Value)
}

// UnmarshalJSON restores the key, re-deriving the origin tag
func (k *ItemKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseKey(s)
	return nil
}

// PriceRange is a min/max price band in the catalog currency
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CartItem is one entry in the trip cart.
// Display and advisory fields (Title, Region, BestSeasons, DurationDays) are
// denormalized from the catalog so the cart renders and the heuristics run
// without a catalog round trip.
type CartItem struct {
	Key          ItemKey     `json:"key"`
	SubjectID    string      `json:"subjectId"`
	SubjectType  SubjectType `json:"subjectType"`
	Quantity     int         `json:"quantity"`
	Price        PriceRange  `json:"priceRange"`
	SelectedDate *time.Time  `json:"selectedDate,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	Title        string      `json:"title,omitempty"`
	Region       string      `json:"region,omitempty"`
	BestSeasons  []int       `json:"bestSeasons,omitempty"` // months 1-12
	DurationDays float64     `json:"durationDays,omitempty"`
	AddedAt      time.Time   `json:"addedAt"`
}

// FavoriteItem is one entry in the favorites list
type FavoriteItem struct {
	Key         ItemKey     `json:"key"`
	SubjectID   string      `json:"subjectId"`
	SubjectType SubjectType `json:"subjectType"`
	Title       string      `json:"title,omitempty"`
	Region      string      `json:"region,omitempty"`
	Notes       string      `json:"notes,omitempty"`
	Category    string      `json:"category,omitempty"`
	AddedAt     time.Time   `json:"addedAt"`
}

// SuggestionType classifies an advisory suggestion
type SuggestionType string

const (
	SuggestionSummary  SuggestionType = "summary"
	SuggestionLogistic SuggestionType = "logistics"
	SuggestionDiscount SuggestionType = "discount"
	SuggestionUpsell   SuggestionType = "upsell"
	SuggestionSeason   SuggestionType = "season"
	SuggestionBudget   SuggestionType = "budget"
	SuggestionDuration SuggestionType = "duration"
	SuggestionFallback SuggestionType = "fallback"
)

// Suggestion is a human-readable advisory produced from cart contents
type Suggestion struct {
	Type    SuggestionType `json:"type"`
	Icon    string         `json:"icon"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
}
