package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-reward-payout/internal/rewards"
)

const serviceName = "solana-reward-api"

// maxBodyBytes bounds POST /reward/send bodies.
const maxBodyBytes = 64 << 10

// Rewarder is satisfied by *rewards.Service.
// Decoupled here so handler tests can use a mock.
type Rewarder interface {
	Send(ctx context.Context, raw rewards.RawRequest) (*rewards.Outcome, error)
	DefaultSOL() float64
	PayerAddress() string
}

// Handler serves the reward endpoints.
type Handler struct {
	svc    Rewarder
	rpcURL string
	log    *zap.Logger
}

func NewHandler(svc Rewarder, rpcURL string, log *zap.Logger) *Handler {
	return &Handler{svc: svc, rpcURL: rpcURL, log: log}
}

// Register mounts all routes.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/", h.handleIndex)
	r.GET("/health", h.handleHealth)
	r.POST("/reward/send", h.handleSend)
}

// ── Info ────────────────────────────────────────────────────────────────────

func (h *Handler) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": serviceName})
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":                 true,
		"rpc":                h.rpcURL,
		"from_wallet":        h.svc.PayerAddress(),
		"default_reward_sol": h.svc.DefaultSOL(),
	})
}

// ── Send ────────────────────────────────────────────────────────────────────

func (h *Handler) handleSend(c *gin.Context) {
	raw := decodeBody(c.Request.Body)

	out, err := h.svc.Send(c.Request.Context(), raw)
	if err != nil {
		var verr *rewards.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": verr.Reason})
			return
		}
		h.log.Error("reward send failed",
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if out.AlreadyPaid {
		c.JSON(http.StatusOK, gin.H{"ok": true, "signature": out.Signature, "already_paid": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"signature":    out.Signature,
		"from_wallet":  out.FromWallet,
		"to_wallet":    out.ToWallet,
		"amount_sol":   out.AmountSOL,
		"already_paid": false,
	})
}

// decodeBody is lenient: a missing, unreadable or non-object body yields an
// empty request, which then fails validation as a missing recipient.
func decodeBody(body io.Reader) rewards.RawRequest {
	var raw rewards.RawRequest
	if body == nil {
		return raw
	}
	data, err := io.ReadAll(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		return raw
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return rewards.RawRequest{}
	}
	return raw
}
