package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/theirongolddev/costdeck/internal/model"
)

// PlanInfo holds the detected Claude billing plan.
type PlanInfo struct {
	RawBillingType string
	BillingType    model.BillingType
}

// DetectPlan reads <claudeDir>/.claude.json to determine the billing plan.
// Anything other than a Stripe subscription is treated as metered API usage.
func DetectPlan(claudeDir string) PlanInfo {
	if claudeDir == "" {
		return PlanInfo{BillingType: model.BillingAPI}
	}
	path := filepath.Join(claudeDir, ".claude.json")
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed from known claudeDir
	if err != nil {
		return PlanInfo{BillingType: model.BillingAPI}
	}

	var raw struct {
		BillingType string `json:"billingType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return PlanInfo{BillingType: model.BillingAPI}
	}

	info := PlanInfo{RawBillingType: raw.BillingType}
	switch raw.BillingType {
	case "stripe_subscription":
		info.BillingType = model.BillingSubscription
	default:
		info.BillingType = model.BillingAPI
	}
	return info
}
