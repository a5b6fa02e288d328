// Package content implements the daily content services: the consolidated
// and detailed horoscopes, the tarot reading, the moon report and the daily
// article. Each service is the same shape: check the day cache, on a miss
// run the upstream fetch (fanned out where there are multiple subjects),
// optionally rewrite, write back and return.
package content

import "github.com/coachastral/astro-daily/pkg/astrology"

// Content-kind tags used in cache keys.
const (
	KindHoroscope = "horoscope"
	KindDetailed  = "horoscope-detailed"
	KindTarot     = "tarot-daily"
	KindMoon      = "moon-today"
	KindArticle   = "daily-article"
)

// SignContent is one sign's published content: the echoed metadata plus
// either the consolidated prediction text or the detailed sections.
type SignContent struct {
	SunSign        string            `json:"sun_sign"`
	PredictionDate string            `json:"prediction_date"`
	Prediction     string            `json:"prediction,omitempty"`
	Sections       map[string]string `json:"sections,omitempty"`
}

// DailyHoroscope is the full per-sign mapping for one day.
type DailyHoroscope struct {
	DateKey string                 `json:"date_key"`
	Cached  bool                   `json:"_cached"`
	Signs   map[string]SignContent `json:"signs"`
}

// TarotResult is one client's reading for the day.
type TarotResult struct {
	Date           string                 `json:"date"`
	Cached         bool                   `json:"_cached"`
	Amor           string                 `json:"amor"`
	Trabajo        string                 `json:"trabajo"`
	DineroYFortuna string                 `json:"dinero_y_fortuna"`
	SourceFields   []string               `json:"source_fields"`
	DeviceIDUsed   string                 `json:"device_id_used"`
	NumbersUsed    astrology.TarotNumbers `json:"numbers_used"`
	Live           bool                   `json:"live"`
}

// MoonReport is the translated moon phase report plus normalized metrics.
type MoonReport struct {
	Date      string         `json:"date"`
	Cached    bool           `json:"_cached"`
	LunaDeHoy string         `json:"luna_de_hoy"`
	Metrics   map[string]any `json:"metrics"`
}

// DailyArticle is the generated editorial piece for the day.
type DailyArticle struct {
	Date    string `json:"date"`
	Cached  bool   `json:"_cached"`
	Article string `json:"article"`
}
