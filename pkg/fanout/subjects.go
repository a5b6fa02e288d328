// Package fanout drives the parallel fetch of daily content across a fixed
// set of subjects with a bounded worker pool, and defines the
// partial-failure policy for a batch.
package fanout

// Subject is one unit of work in a fan-out: a stable internal identifier
// (the key used in the published mapping) paired with the identifier the
// upstream provider expects.
type Subject struct {
	ID         string
	UpstreamID string
}

// zodiac pairs the published Spanish sign names with the provider's English
// ones. Iterate this table; never hardcode the count.
var zodiac = []Subject{
	{ID: "aries", UpstreamID: "aries"},
	{ID: "tauro", UpstreamID: "taurus"},
	{ID: "géminis", UpstreamID: "gemini"},
	{ID: "cáncer", UpstreamID: "cancer"},
	{ID: "leo", UpstreamID: "leo"},
	{ID: "virgo", UpstreamID: "virgo"},
	{ID: "libra", UpstreamID: "libra"},
	{ID: "escorpio", UpstreamID: "scorpio"},
	{ID: "sagitario", UpstreamID: "sagittarius"},
	{ID: "capricornio", UpstreamID: "capricorn"},
	{ID: "acuario", UpstreamID: "aquarius"},
	{ID: "piscis", UpstreamID: "pisces"},
}

// Zodiac returns the fixed zodiac subject set. Callers receive a copy so
// the table itself stays immutable.
func Zodiac() []Subject {
	out := make([]Subject, len(zodiac))
	copy(out, zodiac)
	return out
}
