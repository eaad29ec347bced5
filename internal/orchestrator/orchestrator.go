// Package orchestrator coordinates the resolve path: cache lookup,
// single-flight collapse of concurrent misses, the five-branch upstream
// fan-out, score computation, and the cache write. One resolve produces at
// most one computation per cell regardless of caller count.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/burn-risk/internal/cache"
	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
)

// Publisher pushes completed assessments to downstream consumers. Publishing
// is best effort: a publish failure never fails the resolve.
type Publisher interface {
	Publish(ctx context.Context, area domain.BurnArea, computedAt time.Time) error
}

// Timeouts bound each upstream branch independently. A slow branch exhausts
// its own budget without shortening the others', so the computation as a
// whole is bounded by the largest timeout, not their sum.
type Timeouts struct {
	Geocode    time.Duration
	Weather    time.Duration
	Statistics time.Duration
	Oracle     time.Duration
	Neighbors  time.Duration
}

// Options carries the resolve-path tunables.
type Options struct {
	GridResolution float64
	TTL            time.Duration
	WeatherDays    int
	Weights        domain.ScoreWeights
	Timeouts       Timeouts
}

// Sources bundles the five upstream adapters a computation fans out to.
type Sources struct {
	Geocoder  domain.Geocoder
	Weather   domain.WeatherProvider
	Generator domain.StatisticsGenerator
	Oracle    domain.RiskOracle
	Neighbors domain.NeighborFinder
}

// Orchestrator resolves location queries to precomputed burn areas.
type Orchestrator struct {
	store     cache.Store
	sources   Sources
	publisher Publisher
	opts      Options
	flights   singleflight.Group
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// New assembles an orchestrator. publisher may be nil to disable publishing.
func New(store cache.Store, sources Sources, publisher Publisher, opts Options, metrics *observability.Metrics, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		sources:   sources,
		publisher: publisher,
		opts:      opts,
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve returns the assessment for the cell containing the query
// coordinates. Fresh cache entries are served directly; otherwise the cell
// is computed, with concurrent requests for the same cell collapsed onto a
// single computation. When every upstream fails and a stale entry exists,
// the stale entry is served as a degraded response.
func (o *Orchestrator) Resolve(ctx context.Context, query domain.LocationQuery) (domain.ResolveResult, error) {
	start := time.Now()
	defer func() {
		o.metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	}()

	if err := query.Validate(); err != nil {
		o.metrics.ResolveRequests.WithLabelValues("failed").Inc()
		return domain.ResolveResult{}, fmt.Errorf("invalid query: %w", err)
	}

	key := domain.CellKey(query.Lat, query.Lng, o.opts.GridResolution)

	entry, found, err := o.store.Get(ctx, key)
	if err != nil {
		o.logger.Error("cache lookup failed", "key", key, "error", err)
		found = false
	}
	if found && entry.Fresh() {
		o.metrics.CacheLookups.WithLabelValues("hit").Inc()
		o.metrics.ResolveRequests.WithLabelValues("hit").Inc()
		return domain.ResolveResult{BurnArea: entry.Payload}, nil
	}
	if found {
		o.metrics.CacheLookups.WithLabelValues("stale").Inc()
	} else {
		o.metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	// The computation is detached from the caller: the first requester
	// hanging up must not cancel work the collapsed callers still wait on.
	resCh := o.flights.DoChan(key, func() (any, error) {
		return o.compute(context.WithoutCancel(ctx), key, query)
	})

	select {
	case <-ctx.Done():
		o.metrics.ResolveRequests.WithLabelValues("failed").Inc()
		return domain.ResolveResult{}, ctx.Err()
	case res := <-resCh:
		if res.Shared {
			o.metrics.FlightsCollapsed.Inc()
		}
		if res.Err != nil {
			if found {
				o.logger.Warn("computation failed, serving stale entry",
					"key", key, "age", time.Since(entry.ComputedAt), "error", res.Err)
				o.metrics.ResolveRequests.WithLabelValues("stale_fallback").Inc()
				return domain.ResolveResult{BurnArea: entry.Payload, Degraded: true}, nil
			}
			o.metrics.ResolveRequests.WithLabelValues("failed").Inc()
			return domain.ResolveResult{}, res.Err
		}
		area := res.Val.(domain.BurnArea)
		if len(area.DegradedSources) > 0 {
			o.metrics.ResolveRequests.WithLabelValues("degraded").Inc()
			return domain.ResolveResult{BurnArea: area, Degraded: true}, nil
		}
		o.metrics.ResolveRequests.WithLabelValues("computed").Inc()
		return domain.ResolveResult{BurnArea: area}, nil
	}
}

// CheckReadiness reports whether resolves can be served. Upstream providers
// are not probed; a resolve degrades around them, but it cannot run without
// the cache.
func (o *Orchestrator) CheckReadiness(ctx context.Context) error {
	return o.store.Ping(ctx)
}

// sourceCount is the number of upstream branches a computation fans out to.
const sourceCount = 5

// compute runs the upstream fan-out for one cell and assembles the record.
// Every upstream sees the cell-center coordinates, so all callers collapsed
// onto this key compute the same record. Branch failures substitute neutral
// defaults and mark the source degraded; only a computation with no
// authentic input at all fails.
func (o *Orchestrator) compute(ctx context.Context, key string, query domain.LocationQuery) (domain.BurnArea, error) {
	center := domain.CellCenter(query.Lat, query.Lng, o.opts.GridResolution)

	var (
		name       string
		geocodeErr error

		weather    domain.WeatherSnapshot
		weatherErr error

		statsResult domain.StatisticsResult
		statsErr    error

		probability float64
		oracleErr   error

		towns        []domain.NearbyTown
		neighborsErr error
	)

	// The assessment prompt works best with a place name, so the statistics
	// branch waits for geocoding under its own deadline. The channel is
	// buffered: a statistics branch that gives up waiting must not block
	// the geocode branch's send.
	nameCh := make(chan string, 1)

	var g errgroup.Group

	g.Go(func() error {
		gctx, cancel := context.WithTimeout(ctx, o.opts.Timeouts.Geocode)
		defer cancel()
		n, err := o.sources.Geocoder.ReverseGeocode(gctx, center.Lat, center.Lng)
		if err != nil {
			geocodeErr = err
			nameCh <- ""
			return nil
		}
		name = n
		nameCh <- n
		return nil
	})

	g.Go(func() error {
		wctx, cancel := context.WithTimeout(ctx, o.opts.Timeouts.Weather)
		defer cancel()
		weather, weatherErr = o.sources.Weather.FetchDaily(wctx, center.Lat, center.Lng, o.opts.WeatherDays)
		return nil
	})

	g.Go(func() error {
		sctx, cancel := context.WithTimeout(ctx, o.opts.Timeouts.Statistics)
		defer cancel()
		var placeName string
		select {
		case placeName = <-nameCh:
		case <-sctx.Done():
		}
		statsResult, statsErr = o.sources.Generator.Generate(sctx, domain.LocationQuery{Lat: center.Lat, Lng: center.Lng}, placeName)
		return nil
	})

	g.Go(func() error {
		octx, cancel := context.WithTimeout(ctx, o.opts.Timeouts.Oracle)
		defer cancel()
		probability, oracleErr = o.sources.Oracle.Probability(octx, center.Lat, center.Lng)
		return nil
	})

	g.Go(func() error {
		nctx, cancel := context.WithTimeout(ctx, o.opts.Timeouts.Neighbors)
		defer cancel()
		towns, neighborsErr = o.sources.Neighbors.NearbyTowns(nctx, center.Lat, center.Lng)
		return nil
	})

	// Branch failures land in their result slots; a failed branch degrades
	// the record instead of aborting the computation.
	_ = g.Wait()

	// Degraded sources are listed in a fixed order so identical failures
	// produce identical records.
	var degraded []string
	if geocodeErr != nil {
		o.logger.Warn("geocoding degraded", "key", key, "error", geocodeErr)
		degraded = append(degraded, domain.SourceGeocoding)
	}
	if name == "" {
		name = domain.UnknownLocationName
	}
	if weatherErr != nil {
		o.logger.Warn("weather degraded", "key", key, "error", weatherErr)
		degraded = append(degraded, domain.SourceWeather)
		weather = domain.WeatherSnapshot{}
	}
	switch {
	case statsErr != nil:
		o.logger.Warn("statistics degraded", "key", key, "error", statsErr)
		degraded = append(degraded, domain.SourceStatistics)
		statsResult = domain.StatisticsResult{Statistics: domain.NeutralStatistics()}
	case statsResult.Fallback:
		o.logger.Warn("statistics degraded", "key", key, "reason", statsResult.FallbackReason)
		degraded = append(degraded, domain.SourceStatistics)
	}
	if oracleErr != nil {
		o.logger.Warn("risk oracle degraded", "key", key, "error", oracleErr)
		degraded = append(degraded, domain.SourceRiskOracle)
		probability = domain.NeutralFactor
	}
	if neighborsErr != nil {
		o.logger.Warn("neighbors degraded", "key", key, "error", neighborsErr)
		degraded = append(degraded, domain.SourceNeighbors)
		towns = []domain.NearbyTown{}
	}

	if len(degraded) == sourceCount {
		return domain.BurnArea{}, fmt.Errorf("%w: cell %s", domain.ErrAllSourcesFailed, key)
	}

	population, value := domain.SumTowns(towns)
	scores := domain.ComputeScores(domain.ScoreInput{
		Statistics:         statsResult.Statistics,
		Weather:            weather,
		RiskProbability:    probability,
		TotalPopulation:    population,
		TotalValueEstimate: value,
	}, o.opts.Weights)

	area := domain.BurnArea{
		ID:          domain.BurnAreaID(key),
		Name:        name,
		Coordinates: center,
		Statistics:  statsResult.Statistics,

		ThreatRating:                probability,
		CalculatedThreatRating:      scores.CalculatedThreatRating,
		PreliminaryFeasibilityScore: scores.PreliminaryFeasibilityScore,

		TotalPopulation:    population,
		TotalValueEstimate: value,
		LastBurnDate:       domain.DeriveLastBurnDate(key),

		Weather:     weather,
		NearbyTowns: towns,

		DegradedSources: degraded,
	}

	computedAt := cache.Now()
	err := o.store.Put(ctx, cache.Entry{Key: key, Payload: area, ComputedAt: computedAt, TTL: o.opts.TTL})
	if err != nil {
		// Serve the computed record anyway; the next resolve recomputes.
		o.logger.Error("cache write failed", "key", key, "error", err)
	} else {
		o.metrics.CacheWrites.Inc()
	}

	if o.publisher != nil {
		if err := o.publisher.Publish(ctx, area, computedAt); err != nil {
			o.logger.Warn("publish failed", "key", key, "error", err)
		}
	}

	return area, nil
}
