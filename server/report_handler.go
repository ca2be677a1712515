package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/challanx/models"
	"github.com/techagentng/challanx/server/response"
)

func (s *Server) handleCreateReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		var req models.CreateReportRequest
		if problems := decode(c, &req); len(problems) > 0 {
			respondInvalid(c, problems)
			return
		}

		report, err := s.ReportService.CreateReport(c.Request.Context(), userID, req)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "report submitted", http.StatusCreated, report, nil)
	}
}

func (s *Server) handleGetReport() gin.HandlerFunc {
	return func(c *gin.Context) {
		reportID, ok := reportIDParam(c)
		if !ok {
			return
		}
		view, err := s.ReportService.GetReportView(c.Request.Context(), reportID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "report retrieved", http.StatusOK, view, nil)
	}
}

func (s *Server) handleRunDetection() gin.HandlerFunc {
	return func(c *gin.Context) {
		reportID, ok := reportIDParam(c)
		if !ok {
			return
		}
		result, err := s.ReportService.RunDetection(c.Request.Context(), reportID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "detection applied", http.StatusOK, result, nil)
	}
}

func (s *Server) handleListTransitions() gin.HandlerFunc {
	return func(c *gin.Context) {
		reportID, ok := reportIDParam(c)
		if !ok {
			return
		}
		transitions, err := s.VerificationService.ListTransitions(c.Request.Context(), reportID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "transitions retrieved", http.StatusOK, transitions, nil)
	}
}

func (s *Server) handleAdminDecision() gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID, ok := mustUserID(c)
		if !ok {
			return
		}
		reportID, ok := reportIDParam(c)
		if !ok {
			return
		}
		var decision models.AdminDecision
		if problems := decode(c, &decision); len(problems) > 0 {
			respondInvalid(c, problems)
			return
		}
		decision.ReportID = reportID
		decision.AdminID = adminID

		result, err := s.VerificationService.ApplyAdminDecision(c.Request.Context(), decision)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "decision recorded", http.StatusOK, result, nil)
	}
}

func (s *Server) handleListMyReports() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		limit, ok := limitParam(c)
		if !ok {
			return
		}
		reports, err := s.ReportService.ListMyReports(c.Request.Context(), userID, limit)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "reports retrieved", http.StatusOK, reports, nil)
	}
}

func (s *Server) handleLeaderboard() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := limitParam(c)
		if !ok {
			return
		}
		entries, err := s.ReportService.TopReporters(c.Request.Context(), limit)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "leaderboard retrieved", http.StatusOK, entries, nil)
	}
}
