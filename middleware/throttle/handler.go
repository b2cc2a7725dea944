package throttle

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"verification-gateway/middleware/throttle/application"
	"verification-gateway/middleware/throttle/domain"
)

const maxBodyBytes = 4 << 10

// HandlerOptions monta as rotas de verificação.
// Guard e Concurrency envolvem apenas a rota de envio, com Concurrency
// por fora.
type HandlerOptions struct {
	Verification application.VerificationService
	Guard        func(http.Handler) http.Handler
	Concurrency  func(http.Handler) http.Handler
	Logger       *zap.Logger
}

type sendRequest struct {
	Phone string `json:"phone"`
}

type decisionBody struct {
	Status    string `json:"status"`
	Identity  string `json:"identity,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	WaitMs    int64  `json:"waitMs,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Message   string `json:"message,omitempty"`
}

type errorBody struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func NewHandler(opts HandlerOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	h := &handler{svc: opts.Verification, log: opts.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1/verification", func(r chi.Router) {
		r.Get("/status", h.status)
		r.Group(func(r chi.Router) {
			// concorrência por fora: quem recebe 503 não gasta tentativa do guard
			if opts.Concurrency != nil {
				r.Use(opts.Concurrency)
			}
			if opts.Guard != nil {
				r.Use(opts.Guard)
			}
			r.Post("/send", h.send)
		})
	})
	return r
}

type handler struct {
	svc application.VerificationService
	log *zap.Logger
}

func (h *handler) send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Status: "error", Error: "invalid json body"})
		return
	}

	res, err := h.svc.Send(r.Context(), req.Phone)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	lang := r.Header.Get("Accept-Language")
	if !res.Decision.Allowed {
		writeDenied(w, http.StatusTooManyRequests, res.Identity, res.Decision, lang)
		return
	}

	writeJSON(w, http.StatusAccepted, decisionBody{
		Status:    "sent",
		Identity:  string(res.Identity),
		MessageID: res.MessageID,
		Allowed:   true,
		Message:   Message(res.Decision, lang),
	})
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Status(r.Context(), r.URL.Query().Get("phone"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	body := denialBody(res.Identity, res.Decision, r.Header.Get("Accept-Language"))
	body.Status = "ready"
	if !res.Decision.Allowed {
		body.Status = "throttled"
	} else {
		body.Message = ""
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorBody{Status: "error", Error: err.Error()})
	case errors.Is(err, domain.ErrDispatchFailed):
		writeJSON(w, http.StatusBadGateway, errorBody{Status: "error", Error: "verification code could not be sent"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Status: "error", Error: "temporarily unavailable"})
	default:
		h.log.Error("unexpected error",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Status: "error", Error: "internal error"})
	}
}

func denialBody(id domain.Identity, dec domain.Decision, lang string) decisionBody {
	body := decisionBody{
		Status:   "denied",
		Identity: string(id),
		Allowed:  dec.Allowed,
		Message:  Message(dec, lang),
	}
	switch dec.Reason {
	case domain.ReasonCooldown:
		body.Reason = dec.Reason.String()
		body.WaitMs = dec.WaitMs()
	case domain.ReasonDailyLimitExceeded:
		body.Reason = dec.Reason.String()
		body.Limit = dec.Limit
	}
	return body
}

func writeDenied(w http.ResponseWriter, status int, id domain.Identity, dec domain.Decision, lang string) {
	if !dec.Allowed && dec.Wait > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(dec.Wait)))
	}
	writeJSON(w, status, denialBody(id, dec, lang))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
