// Package profile holds subscriber alert-location configuration: where a
// subscriber is, how far out they want to be alerted, and which channels
// they prefer.
package profile

// DefaultRadiusKm is applied when a profile update does not set a radius.
const DefaultRadiusKm = 5.0

// Preferences are per-channel notification flags. Transport itself is an
// external collaborator; these are carried for it.
type Preferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// DefaultPreferences enables every channel.
func DefaultPreferences() Preferences {
	return Preferences{Email: true, SMS: true, Push: true}
}

// Profile is a subscriber's alert configuration, tied 1:1 to a user.
// Lat and Lon are both present or both absent. A nil RadiusKm means the
// subscriber never matches a detection; it is not treated as zero.
// Occupation, Address, AreaType and Phone are display-only.
type Profile struct {
	UserID      string      `json:"user_id"`
	Occupation  string      `json:"occupation,omitempty"`
	Address     string      `json:"address,omitempty"`
	AreaType    string      `json:"area_type,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Lat         *float64    `json:"lat,omitempty"`
	Lon         *float64    `json:"lon,omitempty"`
	RadiusKm    *float64    `json:"radius_km,omitempty"`
	Preferences Preferences `json:"preferences"`
}

// Locatable reports whether the profile can take part in proximity
// matching: both coordinates and a radius must be set.
func (p *Profile) Locatable() bool {
	return p.Lat != nil && p.Lon != nil && p.RadiusKm != nil
}
