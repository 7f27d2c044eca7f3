package pushnotification

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/tasknest/tasknest/internal/config"
	"github.com/tasknest/tasknest/internal/pushsubscription"
	"github.com/tasknest/tasknest/pkg/cerr"
)

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   *Sender
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/push/key", s.handleGetKey)
	r.Post("/push/subscriptions", s.handleRegister)
	r.Delete("/push/subscriptions", s.handleUnregister)
	r.Post("/push/test", s.handleTest)
}

type keyResponse struct {
	PublicKey string `json:"public_key"`
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.vapidEnv.VAPIDPublicKey == "" {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(ctx, keyResponse{PublicKey: s.vapidEnv.VAPIDPublicKey})
}

type subscriptionPayload struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dh_key"`
	AuthKey   string `json:"auth_key"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload subscriptionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if payload.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	if payload.P256dhKey == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "p256dh_key is required", nil)
		return
	}
	if payload.AuthKey == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "auth_key is required", nil)
		return
	}

	// Idempotent: re-registering an endpoint replaces its keys.
	existing, err := s.repo.FindByEndpoint(ctx, payload.Endpoint)
	if err == nil && existing != nil {
		existing.P256dhKey = payload.P256dhKey
		existing.AuthKey = payload.AuthKey
		if delErr := s.repo.Delete(ctx, existing.ID); delErr != nil {
			cerr.SetJSONError(ctx, delErr)
			return
		}
		if crErr := s.repo.Create(ctx, existing); crErr != nil {
			cerr.SetJSONError(ctx, crErr)
			return
		}
		cerr.SetJSONResponse(ctx, struct{}{})
		return
	}

	sub := &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		Endpoint:  payload.Endpoint,
		P256dhKey: payload.P256dhKey,
		AuthKey:   payload.AuthKey,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, struct{}{})
}

func (s *Server) handleUnregister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload subscriptionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if payload.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}

	if err := s.repo.DeleteByEndpoint(ctx, payload.Endpoint); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	cerr.SetJSONResponse(ctx, struct{}{})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.sender.SendToAll(ctx, &NotificationPayload{
		Title: "TaskNest Test",
		Body:  "Push notifications are working!",
	})
	cerr.SetJSONResponse(ctx, struct{}{})
}
