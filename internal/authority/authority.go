// Package authority locates the nearest wildlife-crime authority office
// for a coordinate pair.
package authority

import (
	"github.com/linnemanlabs/wildwatch/internal/geo"
)

// Office is one Wildlife Crime Control Bureau contact point.
type Office struct {
	Name  string  `json:"name"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Email string  `json:"email"`
	Phone string  `json:"phone"`
}

// Nearest is an office paired with the great-circle distance from the
// query point, rounded to one decimal.
type Nearest struct {
	Office
	DistanceKm float64 `json:"distance_km"`
}

// Directory answers nearest-office queries over a fixed office list.
type Directory struct {
	offices []Office
}

// New builds a directory over the given offices. The list order breaks
// distance ties: the earlier office wins.
func New(offices []Office) *Directory {
	return &Directory{offices: offices}
}

// DefaultOffices returns the WCCB regional office directory.
func DefaultOffices() []Office {
	return []Office{
		{
			Name:  "WCCB Headquarters New Delhi",
			Lat:   28.6139,
			Lon:   77.2090,
			Email: "wccb-hq@nic.in",
			Phone: "+91-11-26567788",
		},
		{
			Name:  "WCCB Western Regional Office Mumbai",
			Lat:   19.0760,
			Lon:   72.8777,
			Email: "wccb-west@nic.in",
			Phone: "+91-22-26595103",
		},
		{
			Name:  "WCCB Southern Regional Office Chennai",
			Lat:   13.0827,
			Lon:   80.2707,
			Email: "wccb-south@nic.in",
			Phone: "+91-44-28520321",
		},
		{
			Name:  "WCCB Eastern Regional Office Kolkata",
			Lat:   22.5726,
			Lon:   88.3639,
			Email: "wccb-east@nic.in",
			Phone: "+91-33-24797700",
		},
		{
			Name:  "WCCB Northern Regional Office Delhi",
			Lat:   28.7041,
			Lon:   77.1025,
			Email: "wccb-north@nic.in",
			Phone: "+91-11-26567788",
		},
	}
}

// Nearest returns the office closest to the query point, or false when the
// directory is empty. A strict less-than comparison keeps the first listed
// office on an exact tie.
func (d *Directory) Nearest(lat, lon float64) (*Nearest, bool) {
	var (
		best     *Nearest
		bestDist float64
	)
	for i := range d.offices {
		o := d.offices[i]
		dist := geo.DistanceKm(lat, lon, o.Lat, o.Lon)
		if best == nil || dist < bestDist {
			best = &Nearest{Office: o, DistanceKm: geo.Round1(dist)}
			bestDist = dist
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
