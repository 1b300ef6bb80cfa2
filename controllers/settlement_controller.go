package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/repositories"
	"github.com/resellpay/resellpay_backend/services"
	"github.com/resellpay/resellpay_backend/utils"
)

// SettlementController handles inbound settlement, payouts and history
type SettlementController struct {
	Settlements *services.SettlementService
	Processor   *services.ProcessorService
	Store       *repositories.SettlementRepository
	logger      *log.Logger
}

// NewSettlementController creates a new settlement controller
func NewSettlementController(settlements *services.SettlementService, processor *services.ProcessorService, store *repositories.SettlementRepository) *SettlementController {
	return &SettlementController{
		Settlements: settlements,
		Processor:   processor,
		Store:       store,
		logger:      log.New(os.Stdout, "[SETTLEMENT] ", log.LstdFlags),
	}
}

// SettleInbound records a collected inbound transaction: the actor is
// credited net of its charge and every ancestor earns its margin.
func (sc *SettlementController) SettleInbound(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.SettleInboundRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Actor, channel and amount are required")
	}

	actorID, err := parseObjectID(req.ActorID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid actor id")
	}
	channelID, err := parseObjectID(req.ChannelID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid channel id")
	}
	amount, err := utils.ParseAmount(req.Amount)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Amount must be positive")
	}

	reference := req.Reference
	if reference == "" {
		reference, err = utils.GenerateReference(utils.InboundReference)
		if err != nil {
			return respond(c, http.StatusInternalServerError, "Failed to generate reference")
		}
	}

	settlement, err := sc.Settlements.SettleInbound(ctx, actorID, channelID, amount, reference)
	if err != nil {
		return errorResponse(c, err, "Failed to settle transaction")
	}

	return respondData(c, http.StatusCreated, "Transaction settled successfully", settlement)
}

// InitiatePayout holds the caller's funds, charges the slab fee and submits
// the payout to the processor. The hold resolves when the processor calls
// back.
func (sc *SettlementController) InitiatePayout(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.PayoutRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Amount and destination are required")
	}

	actorID, err := callerID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}
	amount, err := utils.ParseAmount(req.Amount)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Amount must be positive")
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	reference, err := utils.GenerateReference(utils.PayoutReference)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to generate reference")
	}

	settlement, err := sc.Settlements.SettlePayoutHold(ctx, actorID, amount, reference)
	if err != nil {
		return errorResponse(c, err, "Failed to initiate payout")
	}

	if err := sc.Processor.SubmitPayout(amount, currency, req.Destination, reference); err != nil {
		sc.logger.Printf("processor rejected payout %s: %v", reference, err)
		if ferr := sc.Settlements.SettlePayoutFailure(ctx, reference); ferr != nil {
			sc.logger.Printf("releasing rejected payout %s: %v", reference, ferr)
		}
		return respond(c, http.StatusBadGateway, "Payout processor unavailable")
	}

	return respondData(c, http.StatusAccepted, "Payout submitted successfully", settlement)
}

// PayoutSuccessCallback commits a pending payout after the processor
// confirms it. The processor-side status is re-checked before funds move.
func (sc *SettlementController) PayoutSuccessCallback(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.PayoutCallbackRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Reference is required")
	}

	status, err := sc.Processor.PayoutStatus(req.Reference)
	if err != nil {
		sc.logger.Printf("status check failed for payout %s: %v", req.Reference, err)
		return respond(c, http.StatusBadGateway, "Failed to verify payout status")
	}
	if status.PayoutStatus != "success" {
		sc.logger.Printf("success callback for payout %s but processor reports %q", req.Reference, status.PayoutStatus)
		return respond(c, http.StatusConflict, "Processor does not report the payout as successful")
	}

	if err := sc.Settlements.SettlePayoutSuccess(ctx, req.Reference); err != nil {
		return errorResponse(c, err, "Failed to complete payout")
	}
	return respond(c, http.StatusOK, "Payout completed successfully")
}

// PayoutFailureCallback releases a failed payout's hold back to the actor
func (sc *SettlementController) PayoutFailureCallback(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.PayoutCallbackRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Reference is required")
	}

	if err := sc.Settlements.SettlePayoutFailure(ctx, req.Reference); err != nil {
		return errorResponse(c, err, "Failed to release payout")
	}
	return respond(c, http.StatusOK, "Payout released successfully")
}

// GetSettlement returns one settlement by reference
func (sc *SettlementController) GetSettlement(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	settlement, err := sc.Store.GetSettlement(ctx, c.Param("reference"))
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to fetch settlement")
	}
	if settlement == nil {
		return respond(c, http.StatusNotFound, "Settlement not found")
	}

	if middleware.ExtractTier(c) != models.TierAdmin {
		actorID, err := callerID(c)
		if err != nil || settlement.ActorID != actorID {
			return respond(c, http.StatusForbidden, "Settlement belongs to another actor")
		}
	}

	return respondData(c, http.StatusOK, "Settlement retrieved successfully", settlement)
}

// ListSettlements returns the caller's settlements, newest first. An admin
// may pass ?actorId= to list anyone's.
func (sc *SettlementController) ListSettlements(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := callerID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}
	if hex := c.QueryParam("actorId"); hex != "" {
		if middleware.ExtractTier(c) != models.TierAdmin {
			return respond(c, http.StatusForbidden, "Only an admin may list another actor's settlements")
		}
		actorID, err = parseObjectID(hex)
		if err != nil {
			return respond(c, http.StatusBadRequest, "Invalid actor id")
		}
	}

	limit, offset := paging(c)
	settlements, err := sc.Store.ListSettlements(ctx, actorID, limit, offset)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to list settlements")
	}

	return respondData(c, http.StatusOK, "Settlements retrieved successfully", settlements)
}

// ListCommissions returns the caller's earned commissions, newest first
func (sc *SettlementController) ListCommissions(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := callerID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}
	if hex := c.QueryParam("actorId"); hex != "" {
		if middleware.ExtractTier(c) != models.TierAdmin {
			return respond(c, http.StatusForbidden, "Only an admin may list another actor's commissions")
		}
		actorID, err = parseObjectID(hex)
		if err != nil {
			return respond(c, http.StatusBadRequest, "Invalid actor id")
		}
	}

	limit, offset := paging(c)
	commissions, err := sc.Store.ListCommissions(ctx, actorID, limit, offset)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to list commissions")
	}

	return respondData(c, http.StatusOK, "Commissions retrieved successfully", commissions)
}
