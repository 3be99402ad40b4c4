package entities

import "strings"

type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

type Address struct {
	ID       string
	UserID   string
	Label    string
	Street   string
	City     string
	Pincode  string
	Landmark Optional[string]
	Location Optional[GeoPoint]
}

// Line is the address as one line a courier can read.
func (a Address) Line() string {
	parts := []string{a.Street}
	if landmark, ok := a.Landmark.Get(); ok && landmark != "" {
		parts = append(parts, "near "+landmark)
	}
	parts = append(parts, a.City+" "+a.Pincode)
	return strings.Join(parts, ", ")
}
