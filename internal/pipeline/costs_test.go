package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/costdeck/internal/model"
)

// staticResolver prices a fixed table; anything else resolves to a
// zero-cost entry named after the id, empty ids to "unknown".
type staticResolver map[string]model.ModelPricing

func (r staticResolver) Resolve(id string) model.ModelPricing {
	if id == "" {
		return model.ModelPricing{ModelID: model.UnknownModelID, DisplayName: "Unknown"}
	}
	if p, ok := r[id]; ok {
		p.ModelID = id
		return p
	}
	return model.ModelPricing{ModelID: id, DisplayName: id}
}

var testPricing = staticResolver{
	"m1": {DisplayName: "Model One", InputPerMTok: 3, OutputPerMTok: 15, CachedPerMTok: 0.3},
	"m2": {DisplayName: "Model Two", InputPerMTok: 15, OutputPerMTok: 75, CachedPerMTok: 1.5},
}

var ignoreComputedAt = cmpopts.IgnoreFields(model.CostSnapshot{}, "ComputedAt")

func session(id, project, modelID string, start time.Time, in, out, cached int64) model.SessionRecord {
	return model.SessionRecord{
		ID:           id,
		ProjectName:  project,
		StartTime:    start,
		LastActivity: start.Add(10 * time.Minute),
		Model:        modelID,
		Stats: model.SessionStats{
			MessageCount: 4,
			ToolCalls:    1,
			InputTokens:  in,
			OutputTokens: out,
			CachedTokens: cached,
		},
		Status: model.StatusCompleted,
	}
}

func TestSessionCost_InputAndOutput(t *testing.T) {
	now := time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC)
	s := session("a", "p", "m1", now.Add(-time.Hour), 1_000_000, 500_000, 0)

	cost := SessionCost(s, testPricing.Resolve("m1"))
	assert.InDelta(t, 10.5, cost, 1e-9)

	snap := AggregateCosts([]model.SessionRecord{s}, testPricing, now)
	require.Len(t, snap.CostByModel, 1)
	assert.Equal(t, cost, snap.CurrentMonthCost)
	assert.Equal(t, cost, snap.TodayCost)
	assert.Equal(t, cost, snap.CostByModel[0].Cost)
	assert.Equal(t, "Model One", snap.CostByModel[0].ModelName)
	assert.Equal(t, now, snap.ComputedAt)
}

func TestSessionCost_ZeroTokens(t *testing.T) {
	s := session("z", "p", "", time.Now(), 0, 0, 0)
	for _, id := range []string{"m1", "m2", "never-heard-of-it", ""} {
		assert.Zero(t, SessionCost(s, testPricing.Resolve(id)), "model %q", id)
	}
}

func TestSessionCost_NonNegative(t *testing.T) {
	s := session("n", "p", "m2", time.Now(), 123, 456, 789)
	assert.GreaterOrEqual(t, SessionCost(s, testPricing.Resolve("m2")), 0.0)
}

func TestSessionCost_ClampsNegatives(t *testing.T) {
	s := session("neg", "p", "m1", time.Now(), -1_000_000, 1_000_000, -5)
	assert.InDelta(t, 15.0, SessionCost(s, testPricing.Resolve("m1")), 1e-9)

	p := model.ModelPricing{InputPerMTok: -3, OutputPerMTok: math.NaN(), CachedPerMTok: 1}
	s = session("rates", "p", "x", time.Now(), 1_000_000, 1_000_000, 1_000_000)
	assert.InDelta(t, 1.0, SessionCost(s, p), 1e-9)
}

func TestAggregateCosts_Empty(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	snap := AggregateCosts(nil, testPricing, now)

	assert.Zero(t, snap.CurrentMonthCost)
	assert.Zero(t, snap.TodayCost)
	assert.NotNil(t, snap.CostByModel)
	assert.Empty(t, snap.CostByModel)
	assert.NotNil(t, snap.ActiveSessionCosts)
	assert.Empty(t, snap.ActiveSessionCosts)
}

func TestAggregateCosts_ConservationLaw(t *testing.T) {
	now := time.Date(2026, 3, 20, 18, 0, 0, 0, time.UTC)
	sessions := []model.SessionRecord{
		session("1", "a", "m1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 2_000_000, 100_000, 3_000_000),
		session("2", "a", "m2", time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), 50_000, 20_000, 0),
		session("3", "b", "", time.Date(2026, 3, 20, 8, 0, 0, 0, time.UTC), 999, 999, 999),
		session("4", "c", "m1-20250101", time.Date(2026, 3, 19, 23, 0, 0, 0, time.UTC), 10, 10, 10),
		session("5", "c", "m1", time.Date(2026, 3, 20, 17, 59, 0, 0, time.UTC), 400_000, 90_000, 1_000),
	}

	snap := AggregateCosts(sessions, testPricing, now)

	var sum float64
	for _, mc := range snap.CostByModel {
		sum += mc.Cost
		assert.GreaterOrEqual(t, mc.Cost, 0.0)
	}
	assert.InDelta(t, snap.CurrentMonthCost, sum, 1e-9)
}

func TestAggregateCosts_PeriodBoundaries(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, loc)

	sessions := []model.SessionRecord{
		// 2026-03-01 02:00 UTC is still Feb 28 in UTC-5.
		session("prev-month", "p", "m1", time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC), 1_000_000, 0, 0),
		session("today", "p", "m1", time.Date(2026, 3, 1, 6, 0, 0, 0, loc), 1_000_000, 0, 0),
		session("no-start", "p", "m1", time.Time{}, 1_000_000, 0, 0),
	}

	snap := AggregateCosts(sessions, testPricing, now)
	assert.InDelta(t, 3.0, snap.CurrentMonthCost, 1e-9)
	assert.InDelta(t, 3.0, snap.TodayCost, 1e-9)

	// Model breakdown spans all sessions regardless of date.
	require.Len(t, snap.CostByModel, 1)
	assert.InDelta(t, 9.0, snap.CostByModel[0].Cost, 1e-9)
	assert.Equal(t, 3, snap.CostByModel[0].SessionCount)
}

func TestAggregateCosts_ModelOrderingAndFallback(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sessions := []model.SessionRecord{
		session("1", "p", "", now, 1, 1, 1),
		session("2", "p", "m1", now, 1_000_000, 0, 0),
		session("3", "p", "m2", now, 1_000_000, 0, 0),
		session("4", "p", "mystery", now, 1_000_000, 0, 0),
		session("5", "p", "", now, 0, 0, 0),
	}

	snap := AggregateCosts(sessions, testPricing, now)

	ids := make([]string, 0, len(snap.CostByModel))
	for _, mc := range snap.CostByModel {
		ids = append(ids, mc.ModelID)
	}
	assert.Equal(t, []string{"m2", "m1", "mystery", model.UnknownModelID}, ids)
	assert.Equal(t, 2, snap.CostByModel[3].SessionCount)
}

func TestAggregateCosts_ActiveSessionsKeepInputOrder(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	a := session("z-last", "alpha", "m2", now, 1_000_000, 0, 0)
	a.Status = model.StatusActive
	b := session("a-first", "beta", "", now, 10, 0, 0)
	b.Status = model.StatusActive
	c := session("done", "gamma", "m1", now, 10, 0, 0)

	snap := AggregateCosts([]model.SessionRecord{a, c, b}, testPricing, now)

	want := []model.ActiveSessionCost{
		{SessionID: "z-last", ProjectName: "alpha", Cost: 15, Model: "m2"},
		{SessionID: "a-first", ProjectName: "beta", Cost: 0, Model: model.UnknownModelID},
	}
	if diff := cmp.Diff(want, snap.ActiveSessionCosts); diff != "" {
		t.Errorf("ActiveSessionCosts mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateCosts_OrderIndependent(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sessions := []model.SessionRecord{
		session("1", "p", "m1", now.Add(-time.Hour), 1_000_000, 0, 0),
		session("2", "p", "m2", now.Add(-48*time.Hour), 0, 1_000_000, 0),
		session("3", "q", "m1", now.Add(-2*time.Hour), 0, 0, 1_000_000),
	}
	reversed := []model.SessionRecord{sessions[2], sessions[1], sessions[0]}

	a := AggregateCosts(sessions, testPricing, now)
	b := AggregateCosts(reversed, testPricing, now)

	if diff := cmp.Diff(a, b, ignoreComputedAt, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("aggregate depends on input order (-a +b):\n%s", diff)
	}
}

func TestAggregateCosts_DoesNotMutateInput(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	sessions := []model.SessionRecord{session("1", "p", "m1", now, -5, 10, 10)}
	before := append([]model.SessionRecord(nil), sessions...)

	_ = AggregateCosts(sessions, testPricing, now)
	assert.Equal(t, before, sessions)
}
