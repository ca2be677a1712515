package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/techagentng/challanx/models"
	"github.com/techagentng/challanx/server/response"
)

func (s *Server) handleEvaluateReward() gin.HandlerFunc {
	return func(c *gin.Context) {
		reportID, ok := reportIDParam(c)
		if !ok {
			return
		}
		outcome, err := s.RewardService.EvaluateReward(c.Request.Context(), reportID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "reward evaluated", http.StatusOK, outcome, nil)
	}
}

func (s *Server) handleGetWallet() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		wallet, err := s.RewardService.GetWallet(c.Request.Context(), userID)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "wallet retrieved", http.StatusOK, wallet, nil)
	}
}

func (s *Server) handlePaymentSettlement() gin.HandlerFunc {
	return func(c *gin.Context) {
		var event models.SettlementEvent
		if problems := decode(c, &event); len(problems) > 0 {
			respondInvalid(c, problems)
			return
		}
		result, err := s.PaymentService.Settle(c.Request.Context(), event, c.GetHeader("X-Payment-Signature"))
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "settlement processed", http.StatusOK, result, nil)
	}
}

func (s *Server) handleListPlans() gin.HandlerFunc {
	return func(c *gin.Context) {
		plans, err := s.SubscriptionService.ListPlans(c.Request.Context())
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "plans retrieved", http.StatusOK, plans, nil)
	}
}

func (s *Server) handleActivateSubscription() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := mustUserID(c)
		if !ok {
			return
		}
		var req models.SubscriptionRequest
		if problems := decode(c, &req); len(problems) > 0 {
			respondInvalid(c, problems)
			return
		}
		sub, err := s.SubscriptionService.Activate(c.Request.Context(), userID, req)
		if err != nil {
			response.HandleErrors(c, err)
			return
		}
		response.JSON(c, "subscription active", http.StatusOK, sub, nil)
	}
}
