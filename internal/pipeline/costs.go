// Package pipeline loads sessions and derives cost, budget and analytics views
// from them. The derivations are pure functions of their arguments.
package pipeline

import (
	"math"
	"sort"
	"time"

	"github.com/theirongolddev/costdeck/internal/model"
)

// PricingResolver maps a model identifier to its pricing. Implementations must
// never fail; unknown ids resolve to a zero-cost fallback.
type PricingResolver interface {
	Resolve(modelID string) model.ModelPricing
}

// SessionCost converts one session's token counts into a USD cost. Negative
// counts are treated as zero. The result is not rounded.
func SessionCost(s model.SessionRecord, p model.ModelPricing) float64 {
	st := clampStats(s.Stats)

	cost := float64(st.InputTokens) / 1_000_000 * nonNeg(p.InputPerMTok)
	cost += float64(st.OutputTokens) / 1_000_000 * nonNeg(p.OutputPerMTok)
	cost += float64(st.CachedTokens) / 1_000_000 * nonNeg(p.CachedPerMTok)
	return cost
}

// AggregateCosts computes the cost ledger for sessions as of now. Month and day
// boundaries are taken from now's location.
func AggregateCosts(sessions []model.SessionRecord, pricing PricingResolver, now time.Time) model.CostSnapshot {
	snap := model.CostSnapshot{
		CostByModel:        []model.ModelCost{},
		ActiveSessionCosts: []model.ActiveSessionCost{},
		ComputedAt:         now,
	}

	loc := now.Location()
	nowYear, nowMonth, nowDay := now.Date()
	byModel := make(map[string]*model.ModelCost)

	for _, s := range sessions {
		p := pricing.Resolve(s.Model)
		cost := SessionCost(s, p)
		st := clampStats(s.Stats)

		if !s.StartTime.IsZero() {
			y, m, d := s.StartTime.In(loc).Date()
			if y == nowYear && m == nowMonth {
				snap.CurrentMonthCost += cost
				if d == nowDay {
					snap.TodayCost += cost
				}
			}
		}

		row, ok := byModel[p.ModelID]
		if !ok {
			row = &model.ModelCost{ModelID: p.ModelID, ModelName: p.DisplayName}
			byModel[p.ModelID] = row
		}
		row.Cost += cost
		row.InputTokens += st.InputTokens
		row.OutputTokens += st.OutputTokens
		row.CachedTokens += st.CachedTokens
		row.SessionCount++

		if s.Status == model.StatusActive {
			snap.ActiveSessionCosts = append(snap.ActiveSessionCosts, model.ActiveSessionCost{
				SessionID:   s.ID,
				ProjectName: s.ProjectName,
				Cost:        cost,
				Model:       p.ModelID,
			})
		}
	}

	for _, row := range byModel {
		snap.CostByModel = append(snap.CostByModel, *row)
	}
	sort.Slice(snap.CostByModel, func(i, j int) bool {
		a, b := snap.CostByModel[i], snap.CostByModel[j]
		if a.Cost != b.Cost {
			return a.Cost > b.Cost
		}
		return a.ModelID < b.ModelID
	})

	return snap
}

// clampStats zeroes negative counters coming from malformed upstream records.
func clampStats(st model.SessionStats) model.SessionStats {
	if st.MessageCount < 0 {
		st.MessageCount = 0
	}
	if st.ToolCalls < 0 {
		st.ToolCalls = 0
	}
	if st.InputTokens < 0 {
		st.InputTokens = 0
	}
	if st.OutputTokens < 0 {
		st.OutputTokens = 0
	}
	if st.CachedTokens < 0 {
		st.CachedTokens = 0
	}
	if st.Duration < 0 {
		st.Duration = 0
	}
	return st
}

func nonNeg(f float64) float64 {
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}
