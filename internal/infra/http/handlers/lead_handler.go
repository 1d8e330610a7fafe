package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/ligue-leadbot/internal/entity"
	"github.com/xavierca1/ligue-leadbot/internal/infra/integration/sheet"
	"github.com/xavierca1/ligue-leadbot/internal/usecase"
)

// LeadHandler é a captura direta por HTTP (landing page): fluxo
// só-sintaxe, sem conversa — valida, persiste Validated e replica na
// planilha.
type LeadHandler struct {
	leadRepo    entity.LeadRepositoryInterface
	sheet       usecase.SheetService
	rateLimiter *RateLimiter
}

func NewLeadHandler(ctx context.Context, leadRepo entity.LeadRepositoryInterface, sheetService usecase.SheetService) *LeadHandler {
	return &LeadHandler{
		leadRepo:    leadRepo,
		sheet:       sheetService,
		rateLimiter: NewRateLimiter(ctx, 10, time.Minute), // 10 req/min por IP
	}
}

type CaptureLeadRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type CaptureLeadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clientIP := getClientIP(r)
	if !h.rateLimiter.Allow(clientIP) {
		writeJSON(w, http.StatusTooManyRequests, CaptureLeadResponse{
			Success: false,
			Message: "Too many requests. Please try again later.",
		})
		return
	}

	var req CaptureLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, CaptureLeadResponse{
			Success: false,
			Message: "Invalid JSON",
		})
		return
	}

	email, err := usecase.CheckEmail(req.Email)
	if err != nil {
		status := http.StatusInternalServerError
		if usecase.IsDomainError(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, CaptureLeadResponse{
			Success: false,
			Message: "Invalid email",
		})
		return
	}

	now := time.Now().UTC()
	lead := &entity.Lead{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     email,
		Status:    entity.StatusValidated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.leadRepo.Upsert(ctx, lead); err != nil {
		writeJSON(w, http.StatusInternalServerError, CaptureLeadResponse{
			Success: false,
			Message: "Failed to capture lead",
		})
		return
	}

	if result := h.sheet.Forward(ctx, sheet.LeadPayload{
		Name:   lead.Name,
		Email:  lead.Email,
		Status: string(lead.Status),
	}, "api_create"); !result.OK {
		log.Printf("⚠️ Planilha [api_create] falhou para %s: %s", lead.Email, result.Reason)
	}

	writeJSON(w, http.StatusOK, CaptureLeadResponse{Success: true})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}

type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    int
	window   time.Duration
}

type visitor struct {
	count     int
	lastReset time.Time
}

// NewRateLimiter dispara a goroutine de limpeza amarrada ao ctx — sem
// isso cada handler construído (inclusive em teste) vazaria um ticker.
func NewRateLimiter(ctx context.Context, limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		window:   window,
	}

	go rl.cleanup(ctx)
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	now := time.Now()

	if !exists {
		rl.visitors[ip] = &visitor{count: 1, lastReset: now}
		return true
	}

	if now.Sub(v.lastReset) > rl.window {
		v.count = 1
		v.lastReset = now
		return true
	}

	v.count++
	return v.count <= rl.limit
}

func (rl *RateLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			now := time.Now()
			for ip, v := range rl.visitors {
				if now.Sub(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}
