package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"fraud-risk-engine/internal/model"
	"fraud-risk-engine/internal/reasoning"
	"fraud-risk-engine/internal/store"
	"fraud-risk-engine/internal/util"
)

const topSignalCount = 3

// handleScore runs the anomaly model over the supplied feature vector and
// reports the probability plus the top features by magnitude.
func (s *Server) handleScore(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	if s.scorer == nil {
		s.renderError(c, http.StatusServiceUnavailable, errors.New("anomaly model is not loaded"))
		return
	}

	score, err := s.scorer.Score(req.Features)
	if err != nil {
		if errors.Is(err, model.ErrFeatureShape) {
			s.renderError(c, http.StatusUnprocessableEntity, err)
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}

	c.JSON(http.StatusOK, ScoreResponse{
		Score:  score,
		Result: model.TopFeatures(req.Features, model.DefaultTopN),
	})
}

// handleExplain is the reasoning endpoint. Binding rejects contract
// violations (missing fields, score outside [0,1]) before the engine runs;
// given a valid signal the engine always produces a complete decision.
func (s *Server) handleExplain(c *gin.Context) {
	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	decision := s.engine.Decide(reasoning.ApplicantSignal{
		ApplicantID: req.ApplicantID,
		Attributes:  req.Attributes,
		RuleFlags:   *req.RuleFlags,
		AIScore:     *req.AIScore,
		TopFeatures: req.TopFeatures,
	})

	c.JSON(http.StatusOK, DecisionDTO{
		Reasoning:    decision.Reasoning,
		RiskCategory: string(decision.RiskCategory),
		Confidence:   decision.Confidence,
	})
}

// handleEvaluate executes the full pipeline for one applicant: rules,
// feature transform, model scoring, reasoning synthesis, audit logging,
// and case creation for MEDIUM/HIGH outcomes.
func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateApplicantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	if s.scorer == nil {
		s.renderError(c, http.StatusServiceUnavailable, errors.New("anomaly model is not loaded"))
		return
	}

	timer := util.StartTimer()

	ruleFlags := s.rules.Evaluate(req.Attributes)

	featureVector, err := s.transformer.Transform(req.Attributes)
	if err != nil {
		s.renderError(c, http.StatusUnprocessableEntity, fmt.Errorf("transform features: %w", err))
		return
	}

	aiScore, err := s.scorer.Score(featureVector)
	if err != nil {
		if errors.Is(err, model.ErrFeatureShape) {
			s.renderError(c, http.StatusUnprocessableEntity, err)
		} else {
			s.renderError(c, http.StatusInternalServerError, fmt.Errorf("score applicant: %w", err))
		}
		return
	}

	topVectors := model.TopFeatures(featureVector, model.DefaultTopN)
	topSignals := s.transformer.ReverseTopSignals(topVectors.AsMap(), topSignalCount)

	decision := s.engine.Decide(reasoning.ApplicantSignal{
		ApplicantID: req.ApplicantID,
		Attributes:  req.Attributes,
		RuleFlags:   ruleFlags,
		AIScore:     aiScore,
		TopFeatures: topSignals,
	})

	logEntry := &store.DecisionLog{
		ApplicantID:      req.ApplicantID,
		RiskCategory:     string(decision.RiskCategory),
		Confidence:       decision.Confidence,
		AIScore:          aiScore,
		Reasoning:        decision.Reasoning,
		ProcessingTimeMs: timer.ElapsedMs(),
	}
	logEntry.SetRuleFlags(ruleFlags)
	logEntry.SetRawAttributes(req.Attributes)
	if err := s.db.SaveDecisionLog(logEntry); err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("save decision log: %w", err))
		return
	}

	var caseID string
	if decision.RiskCategory != reasoning.RiskLow {
		fraudCase, err := s.db.CreateCase(logEntry)
		if err != nil {
			logrus.WithError(err).WithField("applicant", req.ApplicantID).Warn("create fraud case")
		} else {
			caseID = fraudCase.ID
			s.alertNotifier.Broadcast(AlertEvent{
				Type:         "case_opened",
				CaseID:       fraudCase.ID,
				ApplicantID:  req.ApplicantID,
				RiskCategory: string(decision.RiskCategory),
				Confidence:   decision.Confidence,
			})
		}
	}

	logrus.WithFields(logrus.Fields{
		"applicant":  req.ApplicantID,
		"risk":       decision.RiskCategory,
		"ai_score":   aiScore,
		"rule_flags": len(ruleFlags),
		"elapsed_ms": timer.ElapsedMs(),
	}).Info("applicant evaluated")

	c.JSON(http.StatusOK, EvaluateApplicantResponse{
		ApplicantID: req.ApplicantID,
		Decision: DecisionDTO{
			Reasoning:    decision.Reasoning,
			RiskCategory: string(decision.RiskCategory),
			Confidence:   decision.Confidence,
		},
		AIScore:    aiScore,
		RuleFlags:  ruleFlags,
		TopSignals: topSignals,
		CaseID:     caseID,
		ElapsedMs:  timer.ElapsedMs(),
	})
}

// handleListDecisions returns the paginated decision audit log.
func (s *Server) handleListDecisions(c *gin.Context) {
	offset, limit := pagination(c, 100)
	rows, total, err := s.db.ListDecisions(offset, limit)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	items := make([]DecisionLogDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, DecisionLogFromModel(row))
	}
	c.JSON(http.StatusOK, DecisionsResponse{Items: items, Total: total})
}
