package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-genesis-mint/internal/auth"
	"github.com/0gfoundation/0g-genesis-mint/internal/mint"
	"github.com/0gfoundation/0g-genesis-mint/internal/quota"
	"github.com/0gfoundation/0g-genesis-mint/internal/store"
	"github.com/0gfoundation/0g-genesis-mint/internal/voucher"
)

// Signed actions, one per mutating route.
const (
	ActionMint        = "mint"
	ActionMintVoucher = "mint_voucher"
	ActionMintBatch   = "mint_batch"
)

// Minter is satisfied by mint.Coordinator.
type Minter interface {
	MintDirect(ctx context.Context, caller common.Address, payment *big.Int) (mint.Result, error)
	MintByVoucher(ctx context.Context, caller common.Address, v *voucher.MintVoucher) (mint.Result, error)
	MintBatch(ctx context.Context, caller common.Address, payment *big.Int) (mint.Result, error)

	IssuedCount(ctx context.Context) (uint64, error)
	QuotaState(ctx context.Context, addr common.Address) (quota.State, error)
	VoucherConsumed(ctx context.Context, recipient common.Address, nonce *big.Int) (bool, error)
	OwnerOf(ctx context.Context, tokenID uint64) (common.Address, bool, error)
	MaxSupply() uint64
}

// Handler serves the mint API.
type Handler struct {
	minter Minter
	log    *zap.Logger
}

func NewHandler(m Minter, log *zap.Logger) *Handler {
	return &Handler{minter: m, log: log}
}

// Register mounts read routes openly and mint routes behind authMW.
func (h *Handler) Register(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/supply", h.handleSupply)
	rg.GET("/quota/:address", h.handleQuota)
	rg.GET("/voucher/:recipient/:nonce", h.handleVoucher)
	rg.GET("/token/:id", h.handleToken)

	rg.POST("/mint", authMW, h.withAction(ActionMint, h.handleMint))
	rg.POST("/mint/voucher", authMW, h.withAction(ActionMintVoucher, h.handleMintVoucher))
	rg.POST("/mint/batch", authMW, h.withAction(ActionMintBatch, h.handleMintBatch))
}

type paymentBody struct {
	Payment string `json:"payment"`
}

type voucherBody struct {
	Recipient string `json:"recipient"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

type mintResponse struct {
	Recipient string   `json:"recipient"`
	TokenIDs  []uint64 `json:"token_ids"`
	Quota     uint8    `json:"quota"`
}

// withAction checks that the wallet signed for this route and hands the
// signed payload on to next.
func (h *Handler) withAction(action string, next func(*gin.Context, common.Address, json.RawMessage)) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := auth.Caller(c)
		req, ok2 := auth.Request(c)
		if !ok || !ok2 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if req.Action != action {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signed action mismatch"})
			return
		}
		next(c, caller, req.Payload)
	}
}

// ── Mint ──────────────────────────────────────────────────────────────────────

func (h *Handler) handleMint(c *gin.Context, caller common.Address, payload json.RawMessage) {
	payment, ok := parsePayment(c, payload)
	if !ok {
		return
	}
	res, err := h.minter.MintDirect(c.Request.Context(), caller, payment)
	h.respond(c, ActionMint, caller, res, err)
}

func (h *Handler) handleMintBatch(c *gin.Context, caller common.Address, payload json.RawMessage) {
	payment, ok := parsePayment(c, payload)
	if !ok {
		return
	}
	res, err := h.minter.MintBatch(c.Request.Context(), caller, payment)
	h.respond(c, ActionMintBatch, caller, res, err)
}

func (h *Handler) handleMintVoucher(c *gin.Context, caller common.Address, payload json.RawMessage) {
	var body voucherBody
	if err := json.Unmarshal(payload, &body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	v, err := parseVoucher(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.minter.MintByVoucher(c.Request.Context(), caller, v)
	h.respond(c, ActionMintVoucher, caller, res, err)
}

func (h *Handler) respond(c *gin.Context, action string, caller common.Address, res mint.Result, err error) {
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Error("mint failed", zap.String("action", action), zap.String("caller", caller.Hex()), zap.Error(err))
			c.JSON(status, gin.H{"error": "internal error"})
			return
		}
		h.log.Info("mint rejected", zap.String("action", action), zap.String("caller", caller.Hex()), zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, mintResponse{
		Recipient: res.Recipient.Hex(),
		TokenIDs:  res.TokenIDs,
		Quota:     uint8(res.Quota),
	})
}

// statusFor maps mint errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, mint.ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, mint.ErrSingleQuotaExceeded), errors.Is(err, mint.ErrBatchQuotaExceeded):
		return http.StatusForbidden
	case errors.Is(err, mint.ErrReplayedVoucher), errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, mint.ErrInvalidVoucherSigner):
		return http.StatusUnauthorized
	case errors.Is(err, mint.ErrSupplyExhausted), errors.Is(err, mint.ErrBatchExceedsSupply):
		return http.StatusGone
	case errors.Is(err, mint.ErrMalformedVoucher):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (h *Handler) handleSupply(c *gin.Context) {
	issued, err := h.minter.IssuedCount(c.Request.Context())
	if err != nil {
		h.internal(c, "supply", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issued": issued, "max_supply": h.minter.MaxSupply()})
}

func (h *Handler) handleQuota(c *gin.Context) {
	addr, ok := parseAddress(c, c.Param("address"))
	if !ok {
		return
	}
	s, err := h.minter.QuotaState(c.Request.Context(), addr)
	if err != nil {
		h.internal(c, "quota", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":         addr.Hex(),
		"state":           uint8(s),
		"singles_used":    s.SinglesUsed(),
		"batch_used":      s.BatchUsed(),
		"can_single_mint": quota.CanSingleMint(s),
		"can_batch_mint":  quota.CanBatchMint(s),
	})
}

func (h *Handler) handleVoucher(c *gin.Context) {
	recipient, ok := parseAddress(c, c.Param("recipient"))
	if !ok {
		return
	}
	nonce, ok := new(big.Int).SetString(c.Param("nonce"), 10)
	if !ok || nonce.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid nonce"})
		return
	}
	used, err := h.minter.VoucherConsumed(c.Request.Context(), recipient, nonce)
	if err != nil {
		h.internal(c, "voucher", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipient": recipient.Hex(), "nonce": nonce.String(), "consumed": used})
}

func (h *Handler) handleToken(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 || id > h.minter.MaxSupply() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id"})
		return
	}
	owner, found, err := h.minter.OwnerOf(c.Request.Context(), id)
	if err != nil {
		h.internal(c, "token", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "token not minted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "owner": owner.Hex()})
}

func (h *Handler) internal(c *gin.Context, route string, err error) {
	h.log.Error("read failed", zap.String("route", route), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// ── Parsing ───────────────────────────────────────────────────────────────────

func parseAddress(c *gin.Context, s string) (common.Address, bool) {
	if !common.IsHexAddress(s) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func parsePayment(c *gin.Context, payload json.RawMessage) (*big.Int, bool) {
	var body paymentBody
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return nil, false
		}
	}
	if body.Payment == "" {
		return new(big.Int), true
	}
	p, ok := new(big.Int).SetString(body.Payment, 10)
	if !ok || p.Sign() < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment"})
		return nil, false
	}
	return p, true
}

func parseVoucher(b voucherBody) (*voucher.MintVoucher, error) {
	if !common.IsHexAddress(b.Recipient) {
		return nil, errors.New("invalid recipient")
	}
	nonce, ok := new(big.Int).SetString(b.Nonce, 10)
	if !ok || nonce.Sign() < 0 {
		return nil, errors.New("invalid nonce")
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(b.Signature, "0x"))
	if err != nil {
		return nil, errors.New("invalid signature hex")
	}
	return &voucher.MintVoucher{
		Recipient: common.HexToAddress(b.Recipient),
		Nonce:     nonce,
		Signature: sig,
	}, nil
}
