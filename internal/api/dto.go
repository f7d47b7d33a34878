package api

import (
	"encoding/json"
	"time"

	"fraud-risk-engine/internal/model"
	"fraud-risk-engine/internal/store"
)

// ScoreRequest carries the feature vector for the anomaly model.
type ScoreRequest struct {
	Features map[string]float64 `json:"features" binding:"required"`
}

// ScoreResponse returns the anomaly probability and the top features by
// contribution magnitude, in descending order.
type ScoreResponse struct {
	Score  float64              `json:"score"`
	Result model.RankedFeatures `json:"result"`
}

// ExplainRequest is the reasoning endpoint payload. RuleFlags and AIScore
// are pointers so that an empty flag list and a score of exactly zero both
// satisfy the required check while a missing field is still rejected.
type ExplainRequest struct {
	ApplicantID string                 `json:"applicantId" binding:"required"`
	Attributes  map[string]interface{} `json:"attributes"`
	RuleFlags   *[]string              `json:"ruleFlags" binding:"required"`
	AIScore     *float64               `json:"aiScore" binding:"required,gte=0,lte=1"`
	TopFeatures map[string]float64     `json:"topFeatures"`
}

// DecisionDTO is the synthesized risk decision returned to callers.
type DecisionDTO struct {
	Reasoning    string  `json:"reasoning"`
	RiskCategory string  `json:"riskCategory"`
	Confidence   float64 `json:"confidence"`
}

// EvaluateApplicantRequest triggers the full in-process pipeline:
// rules, feature transform, model scoring, then reasoning synthesis.
type EvaluateApplicantRequest struct {
	ApplicantID string                 `json:"applicantId" binding:"required"`
	Attributes  map[string]interface{} `json:"attributes" binding:"required"`
}

// EvaluateApplicantResponse reports the decision plus the intermediate
// signals that produced it.
type EvaluateApplicantResponse struct {
	ApplicantID string             `json:"applicantId"`
	Decision    DecisionDTO        `json:"decision"`
	AIScore     float64            `json:"ai_score"`
	RuleFlags   []string           `json:"rule_flags"`
	TopSignals  map[string]float64 `json:"top_signals"`
	CaseID      string             `json:"case_id,omitempty"`
	ElapsedMs   int64              `json:"elapsed_ms"`
}

// DecisionLogDTO is the API representation of a persisted decision.
type DecisionLogDTO struct {
	ID               uint                   `json:"id"`
	ApplicantID      string                 `json:"applicant_id"`
	RiskCategory     string                 `json:"risk_category"`
	Confidence       float64                `json:"confidence"`
	AIScore          float64                `json:"ai_score"`
	RuleFlags        []string               `json:"rule_flags"`
	Reasoning        string                 `json:"reasoning"`
	Attributes       map[string]interface{} `json:"attributes,omitempty"`
	ProcessingTimeMs int64                  `json:"processing_time_ms"`
	CreatedAt        time.Time              `json:"created_at"`
}

// DecisionsResponse is the paginated decision-log listing.
type DecisionsResponse struct {
	Items []DecisionLogDTO `json:"items"`
	Total int64            `json:"total"`
}

// CaseDTO represents a fraud case for the analyst dashboard.
type CaseDTO struct {
	ID            string    `json:"id"`
	DecisionLogID uint      `json:"decision_log_id"`
	ApplicantID   string    `json:"applicant_id"`
	RiskCategory  string    `json:"risk_category"`
	Status        string    `json:"status"`
	AssignedTo    string    `json:"assigned_to"`
	Resolution    string    `json:"resolution"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CasesResponse is the paginated case listing.
type CasesResponse struct {
	Items []CaseDTO `json:"items"`
	Total int64     `json:"total"`
}

// AssignCaseRequest hands a case to an analyst.
type AssignCaseRequest struct {
	Assignee string `json:"assignee" binding:"required"`
}

// ResolveCaseRequest closes a case with a resolution note.
type ResolveCaseRequest struct {
	Resolution string `json:"resolution"`
}

// DecisionLogFromModel converts a store.DecisionLog into the DTO form.
func DecisionLogFromModel(l store.DecisionLog) DecisionLogDTO {
	dto := DecisionLogDTO{
		ID:               l.ID,
		ApplicantID:      l.ApplicantID,
		RiskCategory:     l.RiskCategory,
		Confidence:       l.Confidence,
		AIScore:          l.AIScore,
		RuleFlags:        l.RuleFlags(),
		Reasoning:        l.Reasoning,
		ProcessingTimeMs: l.ProcessingTimeMs,
		CreatedAt:        l.CreatedAt,
	}
	if l.RawAttributes != "" {
		var attributes map[string]interface{}
		if err := json.Unmarshal([]byte(l.RawAttributes), &attributes); err == nil {
			dto.Attributes = attributes
		}
	}
	return dto
}

// CaseFromModel converts a store.FraudCase into the DTO form.
func CaseFromModel(c store.FraudCase) CaseDTO {
	return CaseDTO{
		ID:            c.ID,
		DecisionLogID: c.DecisionLogID,
		ApplicantID:   c.ApplicantID,
		RiskCategory:  c.RiskCategory,
		Status:        c.Status,
		AssignedTo:    c.AssignedTo,
		Resolution:    c.Resolution,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}
