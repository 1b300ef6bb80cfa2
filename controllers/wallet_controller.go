package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/resellpay/resellpay_backend/middleware"
	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/repositories"
	"github.com/resellpay/resellpay_backend/services"
	"github.com/resellpay/resellpay_backend/utils"
)

// WalletController exposes account balances, statements and admin adjustments
type WalletController struct {
	Accounts *repositories.LedgerRepository
	Actors   *repositories.ActorRepository
	Ledger   *services.Ledger
	logger   *log.Logger
}

// NewWalletController creates a new wallet controller
func NewWalletController(accounts *repositories.LedgerRepository, actors *repositories.ActorRepository, ledger *services.Ledger) *WalletController {
	return &WalletController{
		Accounts: accounts,
		Actors:   actors,
		Ledger:   ledger,
		logger:   log.New(os.Stdout, "[WALLET] ", log.LstdFlags),
	}
}

// Balance returns the caller's account. An admin may pass ?actorId= to look
// at any account.
func (wc *WalletController) Balance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := wc.targetActor(c)
	if err != nil {
		return respond(c, http.StatusForbidden, err.Error())
	}

	account, err := wc.Accounts.GetAccountByActor(ctx, actorID)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to fetch account")
	}
	if account == nil {
		return respond(c, http.StatusNotFound, "Account not found")
	}

	return respondData(c, http.StatusOK, "Balance retrieved successfully", account)
}

// Statement returns the account's ledger entries, newest first
func (wc *WalletController) Statement(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	actorID, err := wc.targetActor(c)
	if err != nil {
		return respond(c, http.StatusForbidden, err.Error())
	}

	account, err := wc.Accounts.GetAccountByActor(ctx, actorID)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to fetch account")
	}
	if account == nil {
		return respond(c, http.StatusNotFound, "Account not found")
	}

	limit, offset := paging(c)
	entries, err := wc.Ledger.Statement(ctx, account.ID, limit, offset)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to fetch statement")
	}

	return respondData(c, http.StatusOK, "Statement retrieved successfully", map[string]interface{}{
		"account": account,
		"entries": entries,
	})
}

// Adjust credits or debits an actor's wallet out of band. Admin only; every
// adjustment writes a ledger entry under a fresh ADJ reference.
func (wc *WalletController) Adjust(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.WalletAdjustmentRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Actor, amount, kind and reason are required")
	}

	actorID, err := parseObjectID(req.ActorID)
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid actor id")
	}
	amount, err := utils.ParseAmount(req.Amount)
	if err != nil {
		return respond(c, http.StatusUnprocessableEntity, "Amount must be positive")
	}

	account, err := wc.Accounts.GetAccountByActor(ctx, actorID)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to fetch account")
	}
	if account == nil {
		return respond(c, http.StatusNotFound, "Account not found")
	}

	reference, err := utils.GenerateReference(utils.AdjustmentReference)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to generate reference")
	}

	switch req.Kind {
	case models.EntryCredit:
		err = wc.Ledger.Credit(ctx, account.ID, amount, reference)
	case models.EntryDebit:
		err = wc.Ledger.Debit(ctx, account.ID, amount, reference)
	default:
		return respond(c, http.StatusUnprocessableEntity, "Kind must be CREDIT or DEBIT")
	}
	if err != nil {
		return errorResponse(c, err, "Failed to apply adjustment")
	}

	wc.logger.Printf("adjustment %s: %s %s on actor %s (%s)", reference, req.Kind, amount, actorID.Hex(), req.Reason)
	return respondData(c, http.StatusOK, "Adjustment applied successfully", map[string]interface{}{
		"reference": reference,
	})
}

// targetActor resolves which actor's wallet the request addresses. Callers
// see their own wallet; admins may address anyone's via ?actorId=.
func (wc *WalletController) targetActor(c echo.Context) (primitive.ObjectID, error) {
	id, err := callerID(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if hex := c.QueryParam("actorId"); hex != "" {
		if middleware.ExtractTier(c) != models.TierAdmin {
			return primitive.NilObjectID, services.ErrNotAuthorized
		}
		return parseObjectID(hex)
	}
	return id, nil
}

func paging(c echo.Context) (int64, int64) {
	limit := int64(50)
	offset := int64(0)
	if v, err := strconv.ParseInt(c.QueryParam("limit"), 10, 64); err == nil && v > 0 && v <= 200 {
		limit = v
	}
	if v, err := strconv.ParseInt(c.QueryParam("offset"), 10, 64); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}
