package content

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/coachastral/astro-daily/pkg/astrology"
	"github.com/coachastral/astro-daily/pkg/dailycache"
	"github.com/coachastral/astro-daily/pkg/draw"
	"github.com/coachastral/astro-daily/pkg/fanout"
	"github.com/coachastral/astro-daily/pkg/rewrite"
)

const (
	tarotDeckSize = 78
	tarotHandSize = 3
	defaultLat    = 40.4168
	defaultLon    = -3.7038
	defaultHouse  = "placidus"
)

// FactSource is the astrology provider surface the services consume.
// Satisfied by *astrology.Client.
type FactSource interface {
	SunSignDaily(ctx context.Context, upstreamSign string, tzHours float64) (*astrology.SunSignPrediction, error)
	SunSignDetailed(ctx context.Context, upstreamSign string, tzHours float64) (map[string]string, error)
	TarotPredictions(ctx context.Context, numbers astrology.TarotNumbers) (*astrology.TarotReading, error)
	MoonPhaseReport(ctx context.Context, point astrology.Point) (*astrology.MoonPhase, error)
	LunarMetrics(ctx context.Context, point astrology.Point) (map[string]any, error)
}

// Rewriter is the text-transform surface. Satisfied by *rewrite.Rewriter.
type Rewriter interface {
	Rewrite(ctx context.Context, req rewrite.Request) (string, error)
}

// Caches groups the per-kind day caches. Collective kinds are keyed by date
// only; the tarot cache is additionally keyed by client id.
type Caches struct {
	Horoscopes dailycache.Cache[DailyHoroscope]
	Detailed   dailycache.Cache[DailyHoroscope]
	Tarot      dailycache.Cache[TarotResult]
	Moon       dailycache.Cache[MoonReport]
	Articles   dailycache.Cache[DailyArticle]
}

// Config holds the service-level tunables.
type Config struct {
	// Workers bounds the fan-out pool.
	Workers int
	// TZHoursOverride, when non-zero, overrides the provider timezone
	// payload instead of deriving it from the clock's zone.
	TZHoursOverride float64
	// Lat, Lon and HouseType parameterize collective ephemeris calls.
	Lat       float64
	Lon       float64
	HouseType string
}

// Service implements the daily content operations.
type Service struct {
	cfg      Config
	clock    Clock
	facts    FactSource
	rewriter Rewriter
	caches   Caches
	flight   singleflight.Group
	logger   zerolog.Logger
}

// NewService wires a content service. The caches are constructed once at
// process start and injected; the service never creates hidden shared
// state of its own.
func NewService(cfg Config, clock Clock, facts FactSource, rewriter Rewriter, caches Caches, logger zerolog.Logger) (*Service, error) {
	if facts == nil {
		return nil, errors.New("fact source cannot be nil")
	}
	if rewriter == nil {
		return nil, errors.New("rewriter cannot be nil")
	}
	if caches.Horoscopes == nil || caches.Detailed == nil || caches.Tarot == nil ||
		caches.Moon == nil || caches.Articles == nil {
		return nil, errors.New("all content caches must be provided")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = fanout.DefaultWorkers
	}
	if cfg.Lat == 0 && cfg.Lon == 0 {
		cfg.Lat, cfg.Lon = defaultLat, defaultLon
	}
	if cfg.HouseType == "" {
		cfg.HouseType = defaultHouse
	}
	return &Service{
		cfg:      cfg,
		clock:    clock,
		facts:    facts,
		rewriter: rewriter,
		caches:   caches,
		logger:   logger.With().Str("component", "ContentService").Logger(),
	}, nil
}

func (s *Service) tzHours() float64 {
	if s.cfg.TZHoursOverride != 0 {
		return s.cfg.TZHoursOverride
	}
	return s.clock.OffsetHours()
}

// Daily returns today's consolidated horoscope for all twelve signs,
// recomputing on a cache miss or when force is set. The batch is
// all-or-nothing: a partial sign set would break the consumer's contract.
func (s *Service) Daily(ctx context.Context, force bool) (*DailyHoroscope, error) {
	day := s.clock.DayKey()
	key := dailycache.KeyFor(day, "", KindHoroscope)

	if !force {
		if cached, err := s.caches.Horoscopes.FetchFromCache(ctx, key); err == nil {
			cached.Cached = true
			return &cached, nil
		} else if !errors.Is(err, dailycache.ErrMiss) {
			s.logger.Warn().Err(err).Str("key", string(key)).Msg("Cache read failed, recomputing.")
		}
	}

	result, err, _ := s.flight.Do(string(key), func() (any, error) {
		// The consolidated feed publishes the provider's English sign ids.
		subjects := fanout.Zodiac()
		for i := range subjects {
			subjects[i].ID = subjects[i].UpstreamID
		}

		orch, err := fanout.NewOrchestrator(s.cfg.Workers, fanout.PolicyAllOrNothing, s.fetchConsolidated, s.logger)
		if err != nil {
			return nil, err
		}
		signs, err := orch.Run(ctx, subjects)
		if err != nil {
			return nil, err
		}

		horoscope := &DailyHoroscope{DateKey: day, Signs: signs}
		storeEntry(ctx, s.caches.Horoscopes, key, *horoscope, s.logger)
		return horoscope, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*DailyHoroscope), nil
}

func (s *Service) fetchConsolidated(ctx context.Context, subject fanout.Subject) (SignContent, error) {
	prediction, err := s.facts.SunSignDaily(ctx, subject.UpstreamID, s.tzHours())
	if err != nil {
		return SignContent{}, err
	}
	return SignContent{
		SunSign:        prediction.SunSign,
		PredictionDate: prediction.PredictionDate,
		Prediction:     prediction.Prediction,
	}, nil
}

// Detailed returns today's six-section horoscope keyed by the published
// Spanish sign names. Same all-or-nothing batch policy as Daily.
func (s *Service) Detailed(ctx context.Context, force bool) (*DailyHoroscope, error) {
	day := s.clock.DayKey()
	label := s.clock.DayLabel()
	key := dailycache.KeyFor(day, "", KindDetailed)

	if !force {
		if cached, err := s.caches.Detailed.FetchFromCache(ctx, key); err == nil {
			cached.Cached = true
			return &cached, nil
		} else if !errors.Is(err, dailycache.ErrMiss) {
			s.logger.Warn().Err(err).Str("key", string(key)).Msg("Cache read failed, recomputing.")
		}
	}

	result, err, _ := s.flight.Do(string(key), func() (any, error) {
		fetch := func(ctx context.Context, subject fanout.Subject) (SignContent, error) {
			sections, err := s.facts.SunSignDetailed(ctx, subject.UpstreamID, s.tzHours())
			if err != nil {
				return SignContent{}, err
			}
			return SignContent{
				SunSign:        subject.ID,
				PredictionDate: label,
				Sections:       sections,
			}, nil
		}

		orch, err := fanout.NewOrchestrator(s.cfg.Workers, fanout.PolicyAllOrNothing, fetch, s.logger)
		if err != nil {
			return nil, err
		}
		signs, err := orch.Run(ctx, fanout.Zodiac())
		if err != nil {
			return nil, err
		}

		horoscope := &DailyHoroscope{DateKey: day, Signs: signs}
		storeEntry(ctx, s.caches.Detailed, key, *horoscope, s.logger)
		return horoscope, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*DailyHoroscope), nil
}

// Tarot returns the client's reading for the day. The draw is stable per
// (day, client) unless live is set, which forces an unseeded draw and
// skips the cache read; the fresh reading still overwrites the day entry.
func (s *Service) Tarot(ctx context.Context, clientID string, live bool) (*TarotResult, error) {
	day := s.clock.DayKey()
	key := dailycache.KeyFor(day, clientID, KindTarot)

	if !live {
		if cached, err := s.caches.Tarot.FetchFromCache(ctx, key); err == nil {
			cached.Cached = true
			return &cached, nil
		} else if !errors.Is(err, dailycache.ErrMiss) {
			s.logger.Warn().Err(err).Str("key", string(key)).Msg("Cache read failed, recomputing.")
		}
	}

	var seed []byte
	if !live {
		seed = []byte(day + "|" + clientID)
	}
	cards := draw.Draw(tarotDeckSize, tarotHandSize, seed)
	numbers := astrology.TarotNumbers{Love: cards[0], Career: cards[1], Finance: cards[2]}

	reading, err := s.facts.TarotPredictions(ctx, numbers)
	if err != nil {
		return nil, err
	}

	translated := s.translateTarot(ctx, reading)

	result := &TarotResult{
		Date:           day,
		Amor:           translated["amor"],
		Trabajo:        translated["trabajo"],
		DineroYFortuna: translated["dinero_y_fortuna"],
		SourceFields:   []string{"love", "career", "finance"},
		DeviceIDUsed:   clientID,
		NumbersUsed:    numbers,
		Live:           live,
	}
	storeEntry(ctx, s.caches.Tarot, key, *result, s.logger)
	return result, nil
}

// translateTarot runs the fidelity translation of the reading. The rewrite
// step is best-effort here: on any failure the English source text is
// returned unchanged rather than failing the whole reading.
func (s *Service) translateTarot(ctx context.Context, reading *astrology.TarotReading) map[string]string {
	fallback := map[string]string{
		"amor":             reading.Love,
		"trabajo":          reading.Career,
		"dinero_y_fortuna": reading.Finance,
	}

	output, err := s.rewriter.Rewrite(ctx, rewrite.Request{
		Mode:   rewrite.ModeFidelity,
		System: systemRedactor,
		Prompt: tarotTranslationPrompt(reading),
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Tarot translation failed, serving source text.")
		return fallback
	}

	translated, err := rewrite.ParseStructured(output, tarotResponseKeys)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Tarot translation unparsable, serving source text.")
		return fallback
	}
	return translated
}

// Moon returns today's translated moon report with normalized metrics.
// Unlike the tarot step, the translation is load-bearing here: a rewrite
// failure fails the report.
func (s *Service) Moon(ctx context.Context, force bool) (*MoonReport, error) {
	day := s.clock.DayKey()
	key := dailycache.KeyFor(day, "", KindMoon)

	if !force {
		if cached, err := s.caches.Moon.FetchFromCache(ctx, key); err == nil {
			cached.Cached = true
			return &cached, nil
		} else if !errors.Is(err, dailycache.ErrMiss) {
			s.logger.Warn().Err(err).Str("key", string(key)).Msg("Cache read failed, recomputing.")
		}
	}

	result, err, _ := s.flight.Do(string(key), func() (any, error) {
		point := astrology.PointAt(astrology.Midday(s.clock.Now()), s.cfg.Lat, s.cfg.Lon, s.cfg.HouseType)

		phaseReport, err := s.facts.MoonPhaseReport(ctx, point)
		if err != nil {
			return nil, err
		}
		metrics, err := s.facts.LunarMetrics(ctx, point)
		if err != nil {
			return nil, err
		}

		translation, err := s.rewriter.Rewrite(ctx, rewrite.Request{
			Mode:   rewrite.ModeFidelity,
			System: systemTranslator,
			Prompt: moonTranslationPrompt(phaseReport),
		})
		if err != nil {
			return nil, err
		}

		report := &MoonReport{Date: day, LunaDeHoy: translation, Metrics: metrics}
		storeEntry(ctx, s.caches.Moon, key, *report, s.logger)
		return report, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*MoonReport), nil
}

// Article returns today's generated astrology article.
func (s *Service) Article(ctx context.Context, force bool) (*DailyArticle, error) {
	day := s.clock.DayKey()
	key := dailycache.KeyFor(day, "", KindArticle)

	if !force {
		if cached, err := s.caches.Articles.FetchFromCache(ctx, key); err == nil {
			cached.Cached = true
			return &cached, nil
		} else if !errors.Is(err, dailycache.ErrMiss) {
			s.logger.Warn().Err(err).Str("key", string(key)).Msg("Cache read failed, recomputing.")
		}
	}

	result, err, _ := s.flight.Do(string(key), func() (any, error) {
		text, err := s.rewriter.Rewrite(ctx, rewrite.Request{
			Mode:   rewrite.ModeEditorial,
			System: systemDivulgador,
			Prompt: articlePrompt(day),
		})
		if err != nil {
			return nil, err
		}

		article := &DailyArticle{Date: day, Article: text}
		storeEntry(ctx, s.caches.Articles, key, *article, s.logger)
		return article, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*DailyArticle), nil
}

// storeEntry writes a computed result back to its cache. Cache writes are
// a performance optimization, never a correctness requirement: a failure
// is logged and swallowed, and the entry is simply recomputed next time.
func storeEntry[V any](ctx context.Context, cache dailycache.Cache[V], key dailycache.Key, value V, logger zerolog.Logger) {
	if cache == nil {
		return
	}
	if err := cache.WriteToCache(ctx, key, value); err != nil {
		logger.Warn().Err(err).Str("key", string(key)).Msg("Cache write failed, continuing without cache.")
	}
}
