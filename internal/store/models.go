package store

import (
	"encoding/json"
	"strings"
	"time"
)

// Case lifecycle states.
const (
	CaseOpen       = "OPEN"
	CaseInProgress = "IN_PROGRESS"
	CaseResolved   = "RESOLVED"
)

// DecisionLog is the audit record persisted for every evaluated applicant.
type DecisionLog struct {
	ID               uint   `gorm:"primaryKey"`
	ApplicantID      string `gorm:"size:64;index"`
	RiskCategory     string `gorm:"size:16;index"`
	Confidence       float64
	AIScore          float64
	RuleFlagsJSON    string `gorm:"type:text"`
	Reasoning        string `gorm:"type:text"`
	RawAttributes    string `gorm:"type:text"`
	ProcessingTimeMs int64
	CreatedAt        time.Time
}

// SetRuleFlags persists the triggered flag list as JSON.
func (l *DecisionLog) SetRuleFlags(flags []string) {
	if flags == nil {
		l.RuleFlagsJSON = "[]"
		return
	}
	payload, _ := json.Marshal(flags)
	l.RuleFlagsJSON = string(payload)
}

// RuleFlags returns the unmarshalled flag list.
func (l *DecisionLog) RuleFlags() []string {
	if strings.TrimSpace(l.RuleFlagsJSON) == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(l.RuleFlagsJSON), &out); err != nil {
		return nil
	}
	return out
}

// SetRawAttributes stores the opaque applicant attributes for audit replay.
func (l *DecisionLog) SetRawAttributes(attributes map[string]interface{}) {
	if attributes == nil {
		l.RawAttributes = "{}"
		return
	}
	payload, _ := json.Marshal(attributes)
	l.RawAttributes = string(payload)
}

// FraudCase tracks analyst follow-up on a MEDIUM or HIGH decision.
type FraudCase struct {
	ID            string `gorm:"primaryKey;size:36"`
	DecisionLogID uint   `gorm:"index"`
	ApplicantID   string `gorm:"size:64;index"`
	RiskCategory  string `gorm:"size:16"`
	Status        string `gorm:"size:16;index"`
	AssignedTo    string `gorm:"size:64"`
	Resolution    string `gorm:"size:255"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
