package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/repositories"
	"github.com/resellpay/resellpay_backend/services"
	"github.com/resellpay/resellpay_backend/utils"
)

// RateController handles channel administration and pricing assignment
type RateController struct {
	Rates       *repositories.RateRepository
	Assignments *services.RateAssignmentService
	Settlements *services.SettlementService
	logger      *log.Logger
}

// NewRateController creates a new rate controller
func NewRateController(rates *repositories.RateRepository, assignments *services.RateAssignmentService, settlements *services.SettlementService) *RateController {
	return &RateController{
		Rates:       rates,
		Assignments: assignments,
		Settlements: settlements,
		logger:      log.New(os.Stdout, "[PRICING] ", log.LstdFlags),
	}
}

// CreateChannel registers a new payment channel with its cost basis
func (rc *RateController) CreateChannel(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CreateChannelRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Code, name, direction and cost basis are required")
	}

	direction := models.ChannelDirection(req.Direction)
	costBasis, err := utils.ParseFee(req.CostBasis)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Invalid cost basis")
	}
	if direction == models.DirectionInbound && costBasis.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return respond(c, http.StatusUnprocessableEntity, "Inbound cost basis must be a fraction below 1")
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	existing, err := rc.Rates.GetChannelByCode(ctx, code)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to check channel code")
	}
	if existing != nil {
		return respond(c, http.StatusConflict, "Channel code already exists")
	}

	now := time.Now()
	channel := &models.Channel{
		Code:      code,
		Name:      strings.TrimSpace(req.Name),
		Direction: direction,
		CostBasis: costBasis,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := rc.Rates.CreateChannel(ctx, channel); err != nil {
		rc.logger.Printf("channel creation failed for %s: %v", code, err)
		return respond(c, http.StatusInternalServerError, "Failed to create channel")
	}

	return respondData(c, http.StatusCreated, "Channel created successfully", channel)
}

// ListChannels returns all channels
func (rc *RateController) ListChannels(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channels, err := rc.Rates.ListChannels(ctx)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to list channels")
	}
	return respondData(c, http.StatusOK, "Channels retrieved successfully", channels)
}

// SetChannelActive enables or disables a channel. Disabling rejects new
// settlements on the channel; existing assignments are untouched.
func (rc *RateController) SetChannelActive(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := parseObjectID(c.Param("id"))
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid channel id")
	}

	var req models.ChannelActiveRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Active flag is required")
	}

	if err := rc.Rates.SetChannelActive(ctx, id, *req.Active); err != nil {
		return respond(c, http.StatusNotFound, "Channel not found")
	}
	return respond(c, http.StatusOK, "Channel updated successfully")
}

// AssignRate sets a percentage rate for a direct child on an inbound channel
func (rc *RateController) AssignRate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.AssignRateRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Target, channel and rate are required")
	}

	assignerID, err := callerID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}
	targetID, err := parseObjectID(req.TargetID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid target id")
	}
	channelID, err := parseObjectID(req.ChannelID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid channel id")
	}
	rate, err := utils.ParseRate(req.Rate)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Rate must be a fraction in [0,1)")
	}

	if err := rc.Assignments.AssignRate(ctx, assignerID, targetID, channelID, rate); err != nil {
		return errorResponse(c, err, "Failed to assign rate")
	}
	return respond(c, http.StatusOK, "Rate assigned successfully")
}

// DisableRate disables a child's rate assignment, dropping the child back to
// its tier default.
func (rc *RateController) DisableRate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	assignerID, err := callerID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}
	targetID, err := parseObjectID(c.Param("targetId"))
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid target id")
	}
	channelID, err := parseObjectID(c.Param("channelId"))
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid channel id")
	}

	if err := rc.Assignments.DisableRateAssignment(ctx, assignerID, targetID, channelID); err != nil {
		return errorResponse(c, err, "Failed to disable rate")
	}
	return respond(c, http.StatusOK, "Rate assignment disabled")
}

// AssignSlabs replaces a direct child's outbound fee slab table
func (rc *RateController) AssignSlabs(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.AssignSlabsRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Target and at least one slab are required")
	}

	assignerID, err := callerID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}
	targetID, err := parseObjectID(req.TargetID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid target id")
	}

	slabs, err := parseSlabs(req.Slabs)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, err.Error())
	}

	if err := rc.Assignments.AssignSlabs(ctx, assignerID, targetID, slabs); err != nil {
		return errorResponse(c, err, "Failed to assign slabs")
	}
	return respond(c, http.StatusOK, "Slabs assigned successfully")
}

// SetTierDefault upserts the fallback rate for a whole tier on a channel
func (rc *RateController) SetTierDefault(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.TierRateDefaultRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Tier, channel and rate are required")
	}

	tier := models.Tier(strings.ToLower(req.Tier))
	if !models.ValidTier(tier) {
		return respond(c, http.StatusUnprocessableEntity, "Unknown tier")
	}
	channelID, err := parseObjectID(req.ChannelID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid channel id")
	}
	rate, err := utils.ParseRate(req.Rate)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Rate must be a fraction in [0,1)")
	}

	channel, err := rc.Rates.GetChannel(ctx, channelID)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to fetch channel")
	}
	if channel == nil {
		return respond(c, http.StatusNotFound, "Channel not found")
	}
	if rate.LessThan(channel.CostBasis) {
		return respond(c, http.StatusUnprocessableEntity, "Tier default cannot sit below the channel cost basis")
	}

	if err := rc.Rates.UpsertTierRateDefault(ctx, &models.TierRateDefault{
		Tier:      tier,
		ChannelID: channelID,
		Rate:      rate,
		UpdatedAt: time.Now(),
	}); err != nil {
		rc.logger.Printf("tier default upsert failed for %s: %v", tier, err)
		return respond(c, http.StatusInternalServerError, "Failed to set tier default")
	}
	return respond(c, http.StatusOK, "Tier default set successfully")
}

// SetTierSlabs upserts the fallback payout slab table for a whole tier
func (rc *RateController) SetTierSlabs(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.TierSlabsRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Tier and at least one slab are required")
	}

	tier := models.Tier(strings.ToLower(req.Tier))
	if !models.ValidTier(tier) {
		return respond(c, http.StatusUnprocessableEntity, "Unknown tier")
	}

	assignerID, err := callerID(c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}
	slabs, err := parseSlabs(req.Slabs)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, err.Error())
	}

	if err := rc.Assignments.AssignTierSlabs(ctx, assignerID, tier, slabs); err != nil {
		return errorResponse(c, err, "Failed to set tier slabs")
	}
	return respond(c, http.StatusOK, "Tier slabs set successfully")
}

// ResolveCharge quotes the charge and net amount for a hypothetical
// transaction without settling anything.
func (rc *RateController) ResolveCharge(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.ResolveChargeRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Actor, amount and direction are required")
	}

	actorID, err := parseObjectID(req.ActorID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid actor id")
	}
	amount, err := utils.ParseAmount(req.Amount)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Amount must be positive")
	}

	direction := models.ChannelDirection(req.Direction)
	var channelID = primitive.NilObjectID
	if direction == models.DirectionInbound {
		if req.ChannelID == "" {
			return respond(c, http.StatusBadRequest, "Channel is required for inbound quotes")
		}
		channelID, err = parseObjectID(req.ChannelID)
		if err != nil {
			return respond(c, http.StatusBadRequest, "Invalid channel id")
		}
	}

	quote, err := rc.Settlements.ResolveCharge(ctx, actorID, channelID, amount, direction)
	if err != nil {
		return errorResponse(c, err, "Failed to resolve charge")
	}
	return respondData(c, http.StatusOK, "Charge resolved successfully", quote)
}

// parseSlabs converts the string slab rows into decimal slabs
func parseSlabs(inputs []models.SlabInput) ([]models.Slab, error) {
	slabs := make([]models.Slab, 0, len(inputs))
	for _, in := range inputs {
		min, err := utils.ParseFee(in.MinAmount)
		if err != nil {
			return nil, err
		}
		fee, err := utils.ParseFee(in.FlatFee)
		if err != nil {
			return nil, err
		}
		slab := models.Slab{MinAmount: min, FlatFee: fee}
		if in.MaxAmount != nil {
			max, err := utils.ParseFee(*in.MaxAmount)
			if err != nil {
				return nil, err
			}
			slab.MaxAmount = &max
		}
		slabs = append(slabs, slab)
	}
	return slabs, nil
}
