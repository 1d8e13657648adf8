package handler

import (
	"context"

	"invest-ledger/internal/adapter/http/dto"
	"invest-ledger/internal/core/domain"
	"invest-ledger/internal/core/ports"
	"invest-ledger/pkg/apperror"
	"invest-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PortfolioHandler handles investment portfolio endpoints.
type PortfolioHandler struct {
	investSvc     ports.InvestmentService
	portfolioRepo ports.PortfolioRepository
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(investSvc ports.InvestmentService, portfolioRepo ports.PortfolioRepository) *PortfolioHandler {
	return &PortfolioHandler{
		investSvc:     investSvc,
		portfolioRepo: portfolioRepo,
	}
}

// Create handles POST /api/v1/portfolios — a wallet-funded investment.
func (h *PortfolioHandler) Create(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid listing id"))
		return
	}

	occurrence := domain.Occurrence(req.Occurrence)
	if occurrence == "" {
		occurrence = domain.OccurrenceOneTime
	}

	result, err := h.investSvc.CreateFromWallet(c.Request.Context(), ports.CreateInvestmentRequest{
		UserID:         userID,
		ListingID:      listingID,
		Amount:         req.Amount,
		DurationMonths: req.DurationMonths,
		Occurrence:     occurrence,
		AutoReinvest:   req.AutoReinvest,
		Hash:           req.TransactionHash,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toInvestmentResponse(result))
}

// List handles GET /api/v1/portfolios.
func (h *PortfolioHandler) List(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	portfolios, err := h.portfolioRepo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"portfolios": portfolios})
}

// TopUp handles POST /api/v1/portfolios/:id/topup — a wallet-funded top-up.
func (h *PortfolioHandler) TopUp(c *gin.Context) {
	userID, ok := authedUser(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	portfolioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid portfolio id"))
		return
	}

	var req dto.TopUpInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	result, err := h.investSvc.TopUpFromWallet(c.Request.Context(), ports.TopUpInvestmentRequest{
		UserID:      userID,
		PortfolioID: portfolioID,
		Amount:      req.Amount,
		Hash:        req.TransactionHash,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toInvestmentResponse(result))
}

// Pause handles PATCH /api/v1/portfolios/:id/pause.
func (h *PortfolioHandler) Pause(c *gin.Context) {
	h.setStatus(c, h.investSvc.Pause)
}

// Resume handles PATCH /api/v1/portfolios/:id/resume.
func (h *PortfolioHandler) Resume(c *gin.Context) {
	h.setStatus(c, h.investSvc.Resume)
}

func (h *PortfolioHandler) setStatus(c *gin.Context, op func(ctx context.Context, userID, portfolioID uuid.UUID) (*domain.Portfolio, error)) {
	userID, ok := authedUser(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	portfolioID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid portfolio id"))
		return
	}

	portfolio, err := op(c.Request.Context(), userID, portfolioID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, portfolio)
}

func toInvestmentResponse(result *ports.InvestmentResult) dto.InvestmentResponse {
	return dto.InvestmentResponse{
		Portfolio:   result.Portfolio,
		Investment:  result.Investment,
		Transaction: dto.ToTransactionResponse(result.Transaction),
	}
}
