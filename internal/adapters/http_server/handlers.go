package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"car_dealership/internal/app"
	"car_dealership/internal/domain"
)

type Catalog interface {
	ListCars(ctx context.Context) ([]domain.CarModel, error)
}

type Dealers interface {
	ListDealers(ctx context.Context, state string) []any
	GetDealer(ctx context.Context, id int64) any
	GetDealerReviews(ctx context.Context, dealerID int64) []domain.Review
	PostReview(ctx context.Context, payload map[string]any) error
}

type Accounts interface {
	Register(ctx context.Context, in domain.Registration) (domain.User, error)
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
}

type Sessions interface {
	Start(ctx context.Context, w http.ResponseWriter, username string) error
	User(r *http.Request) (string, bool)
	End(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

type Handlers struct {
	Catalog  Catalog
	Dealers  Dealers
	Accounts Accounts
	Sessions Sessions
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type carEntry struct {
	CarModel string `json:"CarModel"`
	CarMake  string `json:"CarMake"`
}

type credentials struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Get("/cars", h.listCars)
	s.mux.Get("/dealerships", h.listDealerships)
	s.mux.Get("/dealerships/{state}", h.listDealerships)
	s.mux.Get("/dealer/{id}", h.getDealer)
	s.mux.Get("/dealer/{id}/reviews", h.getDealerReviews)

	s.mux.Post("/login", h.login)
	// logout changes state over GET; kept for client compatibility
	s.mux.Get("/logout", h.logout)
	s.mux.Post("/register", h.register)
	s.mux.With(RequireUser(h.Sessions)).Post("/review", h.addReview)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeTagged writes a 200 JSON body with a weak ETag, or 304 when the client
// already holds that version.
func writeTagged(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response encoding failed")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func dealerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return 0, false
	}
	return id, true
}

func (h *Handlers) listCars(w http.ResponseWriter, r *http.Request) {
	models, err := h.Catalog.ListCars(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list cars failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "car catalogue unavailable")
		return
	}
	out := make([]carEntry, 0, len(models))
	for _, m := range models {
		out = append(out, carEntry{CarModel: m.Name, CarMake: m.MakeName})
	}
	writeTagged(w, r, map[string]any{"CarModels": out})
}

func (h *Handlers) listDealerships(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")
	if state == "" {
		state = app.AllStates
	}
	dealers := h.Dealers.ListDealers(r.Context(), state)
	writeTagged(w, r, map[string]any{"status": http.StatusOK, "dealers": dealers})
}

func (h *Handlers) getDealer(w http.ResponseWriter, r *http.Request) {
	id, ok := dealerID(w, r)
	if !ok {
		return
	}
	writeTagged(w, r, map[string]any{"status": http.StatusOK, "dealer": h.Dealers.GetDealer(r.Context(), id)})
}

func (h *Handlers) getDealerReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := dealerID(w, r)
	if !ok {
		return
	}
	writeTagged(w, r, map[string]any{"status": http.StatusOK, "reviews": h.Dealers.GetDealerReviews(r.Context(), id)})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": "Invalid request"})
		return
	}

	u, err := h.Accounts.Authenticate(r.Context(), in.UserName, in.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"userName": in.UserName, "status": "Failed"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user", in.UserName).Msg("authenticate failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "authentication unavailable")
		return
	}
	if err := h.Sessions.Start(r.Context(), w, u.Username); err != nil {
		log.Error().Err(err).Str("user", u.Username).Msg("start session failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "session unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"userName": u.Username, "status": "Authenticated"})
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.End(r.Context(), w, r); err != nil {
		log.Warn().Err(err).Msg("end session failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"userName": ""})
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var in domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request", "status": false})
		return
	}

	u, err := h.Accounts.Register(r.Context(), in)
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeJSON(w, http.StatusOK, map[string]any{"userName": in.Username, "error": "Already Registered", "status": false})
		return
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid request", "status": false})
		return
	case err != nil:
		log.Error().Err(err).Str("user", in.Username).Msg("register failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "registration unavailable")
		return
	}

	if err := h.Sessions.Start(r.Context(), w, u.Username); err != nil {
		// the account exists; the client can still log in
		log.Error().Err(err).Str("user", u.Username).Msg("start session failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"userName": u.Username, "status": true})
}

func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": http.StatusBadRequest, "message": "Invalid review payload"})
		return
	}

	if err := h.Dealers.PostReview(r.Context(), payload); err != nil {
		log.Error().Err(err).Str("user", userFrom(r.Context())).Msg("post review failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": http.StatusInternalServerError, "message": "Failed to post review"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": http.StatusOK, "message": "Review posted successfully"})
}
