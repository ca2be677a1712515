package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/challanx/models"
	"github.com/techagentng/challanx/server/response"
)

func (s *Server) handleCastVote() gin.HandlerFunc {
	return func(c *gin.Context) {
		voterID, ok := mustUserID(c)
		if !ok {
			return
		}
		reportID, ok := reportIDParam(c)
		if !ok {
			return
		}
		var req models.VoteRequest
		if problems := decode(c, &req); len(problems) > 0 {
			respondInvalid(c, problems)
			return
		}
		req.ReportID = reportID
		req.VoterID = voterID

		resp, err := s.VoteService.CastVote(c.Request.Context(), req)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "vote recorded", http.StatusOK, resp, nil)
	}
}

func (s *Server) handleGetVotes() gin.HandlerFunc {
	return func(c *gin.Context) {
		voterID, ok := mustUserID(c)
		if !ok {
			return
		}
		reportID, ok := reportIDParam(c)
		if !ok {
			return
		}
		tally, err := s.VoteService.GetTally(c.Request.Context(), reportID, voterID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "votes retrieved", http.StatusOK, tally, nil)
	}
}
