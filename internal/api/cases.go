package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// handleListCases returns the paginated case queue for analysts.
func (s *Server) handleListCases(c *gin.Context) {
	offset, limit := pagination(c, 25)
	rows, total, err := s.db.ListCases(c.Query("status"), offset, limit)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	items := make([]CaseDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, CaseFromModel(row))
	}
	c.JSON(http.StatusOK, CasesResponse{Items: items, Total: total})
}

func (s *Server) handleGetCase(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("case id is required"))
		return
	}
	fraudCase, err := s.db.GetCase(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("case %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, CaseFromModel(*fraudCase))
}

func (s *Server) handleAssignCase(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var req AssignCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	fraudCase, err := s.db.AssignCase(id, req.Assignee)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("case %s not found", id))
		} else {
			s.renderError(c, http.StatusBadRequest, err)
		}
		return
	}
	c.JSON(http.StatusOK, CaseFromModel(*fraudCase))
}

func (s *Server) handleResolveCase(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	var req ResolveCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	fraudCase, err := s.db.ResolveCase(id, req.Resolution)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("case %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, CaseFromModel(*fraudCase))
}
