package domain

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing type constants.
const (
	ListingTypeLease = "Lease"
	ListingTypeRent  = "Rent"
)

// BHK constants.
const (
	BHK1      = "1 BHK"
	BHK2      = "2 BHK"
	BHK3      = "3 BHK"
	BHK4      = "4 BHK"
	BHK5Plus  = "5+ BHK"
	BHKStudio = "Studio"
)

// Defaults written onto records that predate the bhk and squareFeet fields.
const (
	LegacyDefaultBHK        = BHK1
	LegacyDefaultSquareFeet = 1000
)

// MinSquareFeet is the smallest accepted floor area.
const MinSquareFeet = 100

// ImageDataPrefix marks a photo string as inline encoded image data.
const ImageDataPrefix = "data:image"

var (
	phoneRegexp = regexp.MustCompile(`^[0-9+\-\s()]{10,15}$`)
	emailRegexp = regexp.MustCompile(`^\S+@\S+\.\S+$`)
)

// Listing is a property offered for rent or lease.
type Listing struct {
	ID          string    `json:"_id"`
	OwnerName   string    `json:"ownerName" validate:"required"`
	Rent        float64   `json:"rent" validate:"gte=0"`
	Advance     float64   `json:"advance" validate:"gte=0"`
	Type        string    `json:"type" validate:"required,listingtype"`
	BHK         string    `json:"bhk" validate:"required,bhk"`
	SquareFeet  float64   `json:"squareFeet" validate:"gte=100"`
	PhoneNumber string    `json:"phoneNumber" validate:"required,phone"`
	Photos      []string  `json:"photos" validate:"min=1,dive,startswith=data:image"`
	AdminEmail  string    `json:"adminEmail" validate:"required,looseemail"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsLegacy reports whether the listing is missing a field that newer records
// always carry.
func (l *Listing) IsLegacy() bool {
	return l.BHK == "" || l.SquareFeet == 0
}

// ApplyLegacyDefaults fills the fields older records lack. It returns false
// when nothing had to change.
func (l *Listing) ApplyLegacyDefaults() bool {
	changed := false
	if l.BHK == "" {
		l.BHK = LegacyDefaultBHK
		changed = true
	}
	if l.SquareFeet == 0 {
		l.SquareFeet = LegacyDefaultSquareFeet
		changed = true
	}
	return changed
}

// ValidListingTypes returns the accepted listing types.
func ValidListingTypes() []string {
	return []string{ListingTypeLease, ListingTypeRent}
}

// ValidBHKs returns the accepted BHK values.
func ValidBHKs() []string {
	return []string{BHK1, BHK2, BHK3, BHK4, BHK5Plus, BHKStudio}
}

// IsValidListingType checks whether t is Lease or Rent.
func IsValidListingType(t string) bool {
	return contains(ValidListingTypes(), t)
}

// IsValidBHK checks whether b is one of the BHK values.
func IsValidBHK(b string) bool {
	return contains(ValidBHKs(), b)
}

// IsValidPhone checks the loose phone shape: 10 to 15 of digits, spaces,
// plus, dash and parentheses.
func IsValidPhone(p string) bool {
	return phoneRegexp.MatchString(p)
}

// IsValidEmail checks the loose something@something.tld shape.
func IsValidEmail(e string) bool {
	return emailRegexp.MatchString(e)
}

// IsValidID reports whether id has the 24 hex character shape of a record id.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// NewID returns a fresh record id.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

var listingMessages = map[string]string{
	"ownerName.required":    "Owner name is required",
	"rent.gte":              "Rent must be positive",
	"advance.gte":           "Advance must be positive",
	"type.required":         "Property type is required",
	"type.listingtype":      "Type must be either Lease or Rent",
	"bhk.required":          "BHK type is required",
	"bhk.bhk":               "Please select a valid BHK type",
	"squareFeet.gte":        "Minimum 100 square feet required",
	"phoneNumber.required":  "Phone number is required",
	"phoneNumber.phone":     "Please enter a valid phone number",
	"photos.min":            "At least one photo is required",
	"photos.startswith":     "Photos must be valid base64 image strings",
	"adminEmail.required":   "Admin email is required",
	"adminEmail.looseemail": "Please enter a valid email",
}

// ValidateListing checks the stored-record rules and returns one message per
// failing field, or nil when the listing is valid.
func ValidateListing(l *Listing) []string {
	return messagesFor(l, lookup(listingMessages))
}
