package astrology

import "time"

// Point is the point-in-time descriptor the provider expects for ephemeris
// endpoints: a civil timestamp split into fields, a location and the UTC
// offset in hours.
type Point struct {
	Day       int     `json:"day"`
	Month     int     `json:"month"`
	Year      int     `json:"year"`
	Hour      int     `json:"hour"`
	Min       int     `json:"min"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Tzone     float64 `json:"tzone"`
	HouseType string  `json:"house_type"`
}

// PointAt builds the payload for t at the given location. The UTC offset is
// taken from t's own zone, so callers should evaluate t in the configured
// service time zone first.
func PointAt(t time.Time, lat, lon float64, houseType string) Point {
	_, offsetSeconds := t.Zone()
	return Point{
		Day:       t.Day(),
		Month:     int(t.Month()),
		Year:      t.Year(),
		Hour:      t.Hour(),
		Min:       t.Minute(),
		Lat:       lat,
		Lon:       lon,
		Tzone:     float64(offsetSeconds) / 3600.0,
		HouseType: houseType,
	}
}

// Midday returns t with the clock forced to 12:00, the reference hour used
// for collective daily ephemeris calls.
func Midday(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}
