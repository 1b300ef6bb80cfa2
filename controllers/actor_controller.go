package controllers

import (
	"context"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/resellpay/resellpay_backend/models"
	"github.com/resellpay/resellpay_backend/repositories"
)

// ActorController handles onboarding and hierarchy queries
type ActorController struct {
	Actors *repositories.ActorRepository
	logger *log.Logger
}

// NewActorController creates a new actor controller
func NewActorController(actors *repositories.ActorRepository) *ActorController {
	return &ActorController{
		Actors: actors,
		logger: log.New(os.Stdout, "[ACTOR] ", log.LstdFlags),
	}
}

// CreateActor onboards a new actor directly under the caller. An admin may
// pass parentId to place the actor anywhere in the tree; everyone else
// onboards into their own subtree, one tier down.
func (ac *ActorController) CreateActor(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CreateActorRequest
	if err := c.Bind(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return respond(c, http.StatusBadRequest, "Name, email, password and tier are required")
	}

	tier := models.Tier(strings.ToLower(req.Tier))
	if !models.ValidTier(tier) {
		return respond(c, http.StatusUnprocessableEntity, "Unknown tier")
	}

	caller, err := ac.requireCaller(ctx, c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}

	parent := caller
	if req.ParentID != "" {
		if !caller.IsRoot() {
			return respond(c, http.StatusForbidden, "Only an admin may choose the parent")
		}
		parentID, err := parseObjectID(req.ParentID)
		if err != nil {
			return respond(c, http.StatusBadRequest, "Invalid parent id")
		}
		parent, err = ac.Actors.GetActor(ctx, parentID)
		if err != nil {
			return respond(c, http.StatusInternalServerError, "Failed to fetch parent")
		}
		if parent == nil {
			return respond(c, http.StatusNotFound, "Parent actor not found")
		}
	}
	if !parent.IsActive {
		return respond(c, http.StatusUnprocessableEntity, "Parent actor is inactive")
	}
	if !tierAllowedUnder(parent.Tier, tier) {
		return respond(c, http.StatusUnprocessableEntity, "Tier cannot be onboarded under this parent")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	existing, err := ac.Actors.GetActorByEmail(ctx, email)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to check email")
	}
	if existing != nil {
		return respond(c, http.StatusConflict, "Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to process password")
	}

	now := time.Now()
	actor := &models.Actor{
		Name:      strings.TrimSpace(req.Name),
		Email:     email,
		Password:  string(hashed),
		Tier:      tier,
		ParentID:  &parent.ID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	account, err := ac.Actors.CreateWithAccount(ctx, actor)
	if err != nil {
		ac.logger.Printf("onboarding failed for %s: %v", email, err)
		return respond(c, http.StatusInternalServerError, "Failed to create actor")
	}

	actor.Password = ""
	return respondData(c, http.StatusCreated, "Actor created successfully", map[string]interface{}{
		"actor":   actor,
		"account": account,
	})
}

// GetActor returns one actor. Visible to admins, to the actor itself, and to
// any of its ancestors.
func (ac *ActorController) GetActor(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := parseObjectID(c.Param("id"))
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid actor id")
	}

	caller, err := ac.requireCaller(ctx, c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}

	visible, err := ac.inSubtree(ctx, caller, id)
	if err != nil {
		return errorResponse(c, err, "Failed to fetch actor")
	}
	if !visible {
		return respond(c, http.StatusForbidden, "Actor is outside your subtree")
	}

	actor, err := ac.Actors.GetActor(ctx, id)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to fetch actor")
	}
	if actor == nil {
		return respond(c, http.StatusNotFound, "Actor not found")
	}

	actor.Password = ""
	return respondData(c, http.StatusOK, "Actor retrieved successfully", actor)
}

// ListChildren returns the caller's direct children. An admin may pass
// ?parentId= to list under any actor.
func (ac *ActorController) ListChildren(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	caller, err := ac.requireCaller(ctx, c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}

	parentID := caller.ID
	if hex := c.QueryParam("parentId"); hex != "" {
		if !caller.IsRoot() {
			return respond(c, http.StatusForbidden, "Only an admin may list another actor's children")
		}
		parentID, err = parseObjectID(hex)
		if err != nil {
			return respond(c, http.StatusBadRequest, "Invalid parent id")
		}
	}

	children, err := ac.Actors.ListChildren(ctx, parentID)
	if err != nil {
		return respond(c, http.StatusInternalServerError, "Failed to list children")
	}
	for i := range children {
		children[i].Password = ""
	}

	return respondData(c, http.StatusOK, "Children retrieved successfully", children)
}

// Ancestry returns the parent chain of an actor, from the actor up to the
// root. Visible to admins, to the actor itself, and to its ancestors.
func (ac *ActorController) Ancestry(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := parseObjectID(c.Param("id"))
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid actor id")
	}

	caller, err := ac.requireCaller(ctx, c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}

	visible, err := ac.inSubtree(ctx, caller, id)
	if err != nil {
		return errorResponse(c, err, "Failed to fetch ancestry")
	}
	if !visible {
		return respond(c, http.StatusForbidden, "Actor is outside your subtree")
	}

	chain, err := ac.Actors.AncestryChain(ctx, id)
	if err != nil {
		return errorResponse(c, err, "Failed to fetch ancestry")
	}
	for i := range chain {
		chain[i].Password = ""
	}

	return respondData(c, http.StatusOK, "Ancestry retrieved successfully", chain)
}

// Deactivate marks an actor inactive. Inactive actors keep their balance but
// can no longer transact or be priced.
func (ac *ActorController) Deactivate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	id, err := parseObjectID(c.Param("id"))
	if err != nil {
		return respond(c, http.StatusBadRequest, "Invalid actor id")
	}

	caller, err := ac.requireCaller(ctx, c)
	if err != nil {
		return respond(c, http.StatusUnauthorized, "Invalid token")
	}
	if caller.ID == id {
		return respond(c, http.StatusUnprocessableEntity, "Cannot deactivate yourself")
	}

	visible, err := ac.inSubtree(ctx, caller, id)
	if err != nil {
		return errorResponse(c, err, "Failed to deactivate actor")
	}
	if !visible {
		return respond(c, http.StatusForbidden, "Actor is outside your subtree")
	}

	if err := ac.Actors.Deactivate(ctx, id); err != nil {
		ac.logger.Printf("deactivation failed for %s: %v", id.Hex(), err)
		return respond(c, http.StatusInternalServerError, "Failed to deactivate actor")
	}

	return respond(c, http.StatusOK, "Actor deactivated successfully")
}

func (ac *ActorController) requireCaller(ctx context.Context, c echo.Context) (*models.Actor, error) {
	id, err := callerID(c)
	if err != nil {
		return nil, err
	}
	actor, err := ac.Actors.GetActor(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, echo.ErrUnauthorized
	}
	return actor, nil
}

// inSubtree reports whether target is the caller itself or a descendant of
// the caller. Admins see everything.
func (ac *ActorController) inSubtree(ctx context.Context, caller *models.Actor, target primitive.ObjectID) (bool, error) {
	if caller.IsRoot() || caller.ID == target {
		return true, nil
	}
	chain, err := ac.Actors.AncestryChain(ctx, target)
	if err != nil {
		return false, err
	}
	for _, ancestor := range chain {
		if ancestor.ID == caller.ID {
			return true, nil
		}
	}
	return false, nil
}

// tierAllowedUnder reports whether childTier may be onboarded directly under
// parentTier.
func tierAllowedUnder(parentTier, childTier models.Tier) bool {
	for _, t := range models.ChildTiers(parentTier) {
		if t == childTier {
			return true
		}
	}
	return false
}
