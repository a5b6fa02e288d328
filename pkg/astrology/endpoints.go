package astrology

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coachastral/astro-daily/pkg/upstream"
)

// SunSignPrediction is the consolidated one-paragraph daily reading.
type SunSignPrediction struct {
	SunSign        string `json:"sun_sign"`
	PredictionDate string `json:"prediction_date"`
	Prediction     string `json:"prediction"`
}

// TarotNumbers selects the three cards for a reading, one per life area.
type TarotNumbers struct {
	Love    int `json:"love"`
	Career  int `json:"career"`
	Finance int `json:"finance"`
}

// TarotReading is the provider's English card interpretation per area.
type TarotReading struct {
	Love    string `json:"love"`
	Career  string `json:"career"`
	Finance string `json:"finance"`
}

// MoonPhase is the textual moon phase report.
type MoonPhase struct {
	ConsideredDate string `json:"considered_date"`
	Phase          string `json:"moon_phase"`
	Significance   string `json:"significance"`
	Report         string `json:"report"`
}

// SunSignDaily fetches the consolidated daily prediction for one sign. The
// provider wraps genuine failures in a 200 with status=false, so that flag
// is checked alongside the HTTP status.
func (c *Client) SunSignDaily(ctx context.Context, upstreamSign string, tzHours float64) (*SunSignPrediction, error) {
	endpoint := "/sun_sign_consolidated/daily/" + upstreamSign
	raw, err := c.post(ctx, endpoint, map[string]any{"timezone": tzHours})
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Status *bool `json:"status"`
		SunSignPrediction
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, upstream.NewError(upstream.KindMalformedResponse, providerName, endpoint, err)
	}
	if envelope.Status != nil && !*envelope.Status {
		return nil, upstream.NewError(upstream.KindUnknown, providerName, endpoint,
			fmt.Errorf("provider reported status=false: %s", truncate(string(raw), 300)))
	}

	prediction := envelope.SunSignPrediction
	if prediction.SunSign == "" {
		prediction.SunSign = upstreamSign
	}
	return &prediction, nil
}

// SunSignDetailed fetches the sectioned daily prediction for one sign and
// reduces it to the known text sections, with a raw passthrough when the
// shape is unrecognized.
func (c *Client) SunSignDetailed(ctx context.Context, upstreamSign string, tzHours float64) (map[string]string, error) {
	endpoint := "/sun_sign_prediction/daily/" + upstreamSign
	raw, err := c.post(ctx, endpoint, map[string]any{"timezone": tzHours})
	if err != nil {
		return nil, err
	}
	return ExtractSections(raw), nil
}

// TarotPredictions fetches the card interpretations for the drawn numbers.
func (c *Client) TarotPredictions(ctx context.Context, numbers TarotNumbers) (*TarotReading, error) {
	endpoint := "/tarot_predictions"
	raw, err := c.post(ctx, endpoint, numbers)
	if err != nil {
		return nil, err
	}

	var reading TarotReading
	if err := json.Unmarshal(raw, &reading); err != nil {
		return nil, upstream.NewError(upstream.KindMalformedResponse, providerName, endpoint, err)
	}
	return &reading, nil
}

// MoonPhaseReport fetches the moon phase report for the given point.
func (c *Client) MoonPhaseReport(ctx context.Context, point Point) (*MoonPhase, error) {
	endpoint := "/moon_phase_report"
	raw, err := c.post(ctx, endpoint, point)
	if err != nil {
		return nil, err
	}

	var report MoonPhase
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, upstream.NewError(upstream.KindMalformedResponse, providerName, endpoint, err)
	}
	return &report, nil
}

// LunarMetrics fetches the numeric lunar metrics for the given point,
// normalized so a distance is always present when the provider knows one.
func (c *Client) LunarMetrics(ctx context.Context, point Point) (map[string]any, error) {
	endpoint := "/lunar_metrics"
	raw, err := c.post(ctx, endpoint, point)
	if err != nil {
		return nil, err
	}

	var metrics map[string]any
	if err := json.Unmarshal(raw, &metrics); err != nil {
		return nil, upstream.NewError(upstream.KindMalformedResponse, providerName, endpoint, err)
	}
	return NormalizeLunarMetrics(metrics), nil
}
