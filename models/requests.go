package models

// AuthRequest models
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	Actor        *Actor `json:"actor"`
}

type CreateActorRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Tier     string `json:"tier" validate:"required"`
	ParentID string `json:"parentId,omitempty"`
}

type CreateChannelRequest struct {
	Code      string `json:"code" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=INBOUND OUTBOUND"`
	CostBasis string `json:"costBasis" validate:"required"`
}

type AssignRateRequest struct {
	TargetID  string `json:"targetId" validate:"required"`
	ChannelID string `json:"channelId" validate:"required"`
	Rate      string `json:"rate" validate:"required"`
}

// SlabInput carries one slab row as strings; amounts are parsed into decimals
// at the controller boundary. A missing maxAmount marks the catch-all slab.
type SlabInput struct {
	MinAmount string  `json:"minAmount" validate:"required"`
	MaxAmount *string `json:"maxAmount,omitempty"`
	FlatFee   string  `json:"flatFee" validate:"required"`
}

type AssignSlabsRequest struct {
	TargetID string      `json:"targetId" validate:"required"`
	Slabs    []SlabInput `json:"slabs" validate:"required,min=1,dive"`
}

type TierRateDefaultRequest struct {
	Tier      string `json:"tier" validate:"required"`
	ChannelID string `json:"channelId" validate:"required"`
	Rate      string `json:"rate" validate:"required"`
}

type TierSlabsRequest struct {
	Tier  string      `json:"tier" validate:"required"`
	Slabs []SlabInput `json:"slabs" validate:"required,min=1,dive"`
}

type ChannelActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type ResolveChargeRequest struct {
	ActorID   string `json:"actorId" validate:"required"`
	ChannelID string `json:"channelId,omitempty"`
	Amount    string `json:"amount" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=INBOUND OUTBOUND"`
}

type SettleInboundRequest struct {
	ActorID   string `json:"actorId" validate:"required"`
	ChannelID string `json:"channelId" validate:"required"`
	Amount    string `json:"amount" validate:"required"`
	Reference string `json:"reference,omitempty"`
}

type PayoutRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Destination string `json:"destination" validate:"required"`
	Currency    string `json:"currency,omitempty"`
}

type PayoutCallbackRequest struct {
	Reference string `json:"reference" validate:"required"`
}

type WalletAdjustmentRequest struct {
	ActorID string `json:"actorId" validate:"required"`
	Amount  string `json:"amount" validate:"required"`
	Kind    string `json:"kind" validate:"required,oneof=CREDIT DEBIT"`
	Reason  string `json:"reason" validate:"required"`
}
