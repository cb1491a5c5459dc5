package model

// UnknownModelID is the resolved id for sessions that carry no model.
const UnknownModelID = "unknown"

// ModelPricing holds per-million-token prices and display metadata for a model.
type ModelPricing struct {
	ModelID        string  `json:"modelId" yaml:"model_id"`
	DisplayName    string  `json:"displayName" yaml:"display_name"`
	RecommendedTag string  `json:"recommendedTag,omitempty" yaml:"recommended_tag,omitempty"`
	InputPerMTok   float64 `json:"inputCostPerMillionTokens" yaml:"input_per_mtok"`
	OutputPerMTok  float64 `json:"outputCostPerMillionTokens" yaml:"output_per_mtok"`
	CachedPerMTok  float64 `json:"cachedCostPerMillionTokens" yaml:"cached_per_mtok"`
}
