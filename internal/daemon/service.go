// Package daemon provides the long-running cost and budget monitor service.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/costdeck/internal/model"
	"github.com/theirongolddev/costdeck/internal/pipeline"
	"github.com/theirongolddev/costdeck/internal/telemetry"
)

// LoadFunc supplies the current session collection for one poll.
type LoadFunc func(ctx context.Context, now time.Time) ([]model.SessionRecord, error)

// Config controls the daemon runtime behavior.
type Config struct {
	Load         LoadFunc
	Pricing      pipeline.PricingResolver
	Budget       model.BudgetSettings
	RangeDays    int
	Interval     time.Duration
	Addr         string
	EventsBuffer int
	DataSource   string
	Recorder     telemetry.Recorder

	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Event types published on /v1/events and /v1/stream.
const (
	EventSnapshot    = "snapshot"
	EventCostDelta   = "cost_delta"
	EventBudgetState = "budget_state"
)

// CostDelta captures what moved between two polls.
type CostDelta struct {
	MonthCost      float64  `json:"monthCost"`
	TodayCost      float64  `json:"todayCost"`
	ActiveSessions int      `json:"activeSessions"`
	Started        []string `json:"started,omitempty"`
	Ended          []string `json:"ended,omitempty"`
}

func (d CostDelta) isZero() bool {
	return d.MonthCost == 0 && d.TodayCost == 0 && d.ActiveSessions == 0 &&
		len(d.Started) == 0 && len(d.Ended) == 0
}

// Event is emitted when the cost ledger or budget state changes.
type Event struct {
	ID        int64              `json:"id"`
	Type      string             `json:"type"`
	Timestamp time.Time          `json:"timestamp"`
	Costs     model.CostSnapshot `json:"costs"`
	Budget    model.BudgetStatus `json:"budget"`
	Delta     *CostDelta         `json:"delta,omitempty"`
	// PrevState is set on budget_state events.
	PrevState model.BudgetState `json:"prevState,omitempty"`
}

// BudgetReport is served at /v1/budget.
type BudgetReport struct {
	Settings model.BudgetSettings `json:"settings"`
	Status   model.BudgetStatus   `json:"status"`
	Forecast model.BudgetForecast `json:"forecast"`
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time          `json:"startedAt"`
	LastPollAt      time.Time          `json:"lastPollAt"`
	PollIntervalSec int                `json:"pollIntervalSec"`
	PollCount       int64              `json:"pollCount"`
	DataSource      string             `json:"dataSource"`
	Sessions        int                `json:"sessions"`
	Costs           model.CostSnapshot `json:"costs"`
	Budget          model.BudgetStatus `json:"budget"`
	LastError       string             `json:"lastError,omitempty"`
	EventCount      int                `json:"eventCount"`
	SubscriberCount int                `json:"subscriberCount"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg Config

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	sessions    []model.SessionRecord
	costs       model.CostSnapshot
	budget      model.BudgetStatus
	forecast    model.BudgetForecast
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config.
func New(cfg Config) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if !pipeline.ValidRange(cfg.RangeDays) {
		cfg.RangeDays = 7
	}
	if cfg.Recorder == nil {
		cfg.Recorder = telemetry.NoOp{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		cfg:       cfg,
		startedAt: cfg.Now(),
		subs:      make(map[int]chan Event),
	}
}

// Handler returns the HTTP API.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/costs", s.handleCosts)
	mux.HandleFunc("GET /v1/budget", s.handleBudget)
	mux.HandleFunc("GET /v1/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /v1/events", s.handleEvents)
	mux.HandleFunc("GET /v1/stream", s.handleStream)
	return mux
}

// Run serves the HTTP API and polls until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", s.cfg.Addr).Msg("daemon listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("daemon http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Seed the first snapshot so status is useful immediately.
		s.pollOnce(gctx)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s.pollOnce(gctx)
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return s.cfg.Recorder.Close(shutdownCtx)
	})

	return g.Wait()
}

func (s *Service) pollOnce(ctx context.Context) {
	now := s.cfg.Now()
	sessions, err := s.cfg.Load(ctx, now)
	if err != nil {
		s.mu.Lock()
		s.lastError = err.Error()
		s.lastPollAt = now
		s.pollCount++
		s.mu.Unlock()
		s.cfg.Recorder.Record(ctx, telemetry.Observation{Failed: true})
		log.Error().Err(err).Msg("daemon poll failed")
		return
	}

	costs := pipeline.AggregateCosts(sessions, s.cfg.Pricing, now)
	budget := pipeline.EvaluateBudget(costs, s.cfg.Budget)
	forecast := pipeline.Forecast(costs, s.cfg.Budget, now)

	var publish []Event

	s.mu.Lock()
	prevCosts, prevBudget, prevExists := s.costs, s.budget, s.hasSnapshot

	s.hasSnapshot = true
	s.sessions = sessions
	s.costs = costs
	s.budget = budget
	s.forecast = forecast
	s.lastPollAt = now
	s.pollCount++
	s.lastError = ""

	newEvent := func(typ string) Event {
		s.nextEventID++
		return Event{ID: s.nextEventID, Type: typ, Timestamp: now, Costs: costs, Budget: budget}
	}

	if !prevExists {
		publish = append(publish, newEvent(EventSnapshot))
	} else {
		if delta := diffCosts(prevCosts, costs); !delta.isZero() {
			ev := newEvent(EventCostDelta)
			ev.Delta = &delta
			publish = append(publish, ev)
		}
		if budget.Active && budget.State != prevBudget.State {
			ev := newEvent(EventBudgetState)
			ev.PrevState = prevBudget.State
			publish = append(publish, ev)
		}
	}
	s.mu.Unlock()

	for _, ev := range publish {
		s.publishEvent(ev)
		if ev.Type == EventBudgetState {
			log.Warn().
				Str("from", string(ev.PrevState)).
				Str("to", string(budget.State)).
				Float64("percentage", budget.Percentage).
				Msg("budget state changed")
		}
	}

	s.cfg.Recorder.Record(ctx, telemetry.Observation{Costs: costs, Budget: budget, Forecast: forecast})
	log.Debug().
		Int("sessions", len(sessions)).
		Float64("month_cost", costs.CurrentMonthCost).
		Str("budget", string(budget.State)).
		Msg("poll complete")
}

func diffCosts(prev, curr model.CostSnapshot) CostDelta {
	return CostDelta{
		MonthCost:      curr.CurrentMonthCost - prev.CurrentMonthCost,
		TodayCost:      curr.TodayCost - prev.TodayCost,
		ActiveSessions: len(curr.ActiveSessionCosts) - len(prev.ActiveSessionCosts),
		Started:        missingIDs(curr.ActiveSessionCosts, prev.ActiveSessionCosts),
		Ended:          missingIDs(prev.ActiveSessionCosts, curr.ActiveSessionCosts),
	}
}

// missingIDs returns the session IDs in from that are absent in other, in from's order.
func missingIDs(from, other []model.ActiveSessionCost) []string {
	seen := make(map[string]struct{}, len(other))
	for _, a := range other {
		seen[a.SessionID] = struct{}{}
	}
	var out []string
	for _, a := range from {
		if _, ok := seen[a.SessionID]; !ok {
			out = append(out, a.SessionID)
		}
	}
	return out
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataSource:      s.cfg.DataSource,
		Sessions:        len(s.sessions),
		Costs:           s.costs,
		Budget:          s.budget,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshotStatus())
}

func (s *Service) handleCosts(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	costs, ok := s.costs, s.hasSnapshot
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

func (s *Service) handleBudget(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	report := BudgetReport{Settings: s.cfg.Budget, Status: s.budget, Forecast: s.forecast}
	ok := s.hasSnapshot
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Service) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	days := s.cfg.RangeDays
	if raw := r.URL.Query().Get("range"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "range must be an integer")
			return
		}
		days = n
	}

	s.mu.RLock()
	sessions, ok := s.sessions, s.hasSnapshot
	s.mu.RUnlock()

	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no snapshot yet")
		return
	}

	report, err := pipeline.Analyze(sessions, s.cfg.Pricing, days, s.cfg.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, events)
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)
	defer s.removeSubscriber(id)

	st := s.snapshotStatus()
	writeSSE(w, Event{
		Type:      EventSnapshot,
		Timestamp: s.cfg.Now(),
		Costs:     st.Costs,
		Budget:    st.Budget,
	})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}
