// Package gateway exposes the decision engine over HTTP: a decide endpoint
// for the messaging layer plus health and status probes.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"chorus/pkg/chat"
	"chorus/pkg/config"
	"chorus/pkg/engine"
	"chorus/pkg/prompt"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 18790
)

type Service struct {
	cfg    *config.Config
	log    *slog.Logger
	engine *engine.Engine

	mu             sync.RWMutex
	startedAt      time.Time
	decisionsTotal int64
	repliesTotal   int64
	lastDecisionAt time.Time
}

type statusResponse struct {
	Status         string `json:"status"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	Vendor         string `json:"vendor"`
	DecisionsTotal int64  `json:"decisions_total"`
	RepliesTotal   int64  `json:"replies_total"`
	LastDecisionAt string `json:"last_decision_at,omitempty"`
}

type messagePayload struct {
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	IsBot      bool   `json:"is_bot"`
	Content    string `json:"content"`
}

type botPayload struct {
	ActorID     string   `json:"actor_id"`
	Name        string   `json:"name"`
	Role        string   `json:"role,omitempty"`
	Persona     string   `json:"persona,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

type decideRequest struct {
	RoomID     string           `json:"room_id"`
	Transcript []messagePayload `json:"transcript"`
	Trigger    string           `json:"trigger"`
	Bots       []botPayload     `json:"bots"`
}

type decideResponse struct {
	Gate struct {
		Category   string `json:"category"`
		IsValid    bool   `json:"is_valid"`
		Confidence int    `json:"confidence"`
		Reason     string `json:"reason,omitempty"`
	} `json:"gate"`
	Decision struct {
		ShouldReply      bool   `json:"should_reply"`
		ResponderActorID string `json:"responder_actor_id,omitempty"`
		ResponderName    string `json:"responder_name,omitempty"`
		Confidence       int    `json:"confidence"`
		Reasoning        string `json:"reasoning,omitempty"`
	} `json:"decision"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

func NewService(cfg *config.Config, eng *engine.Engine, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if eng == nil {
		return nil, errors.New("engine is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cfg:    cfg,
		log:    log.With("component", "gateway.service"),
		engine: eng,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHost
	}

	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultPort
	}

	addr := host + ":" + strconv.Itoa(port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Gateway started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start gateway server: %w", err)
	}

	return nil
}

// Handler exposes the route table, also used directly by tests.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/v1/decide", s.handleDecide)

	return mux
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	lastDecision := ""
	if !s.lastDecisionAt.IsZero() {
		lastDecision = s.lastDecisionAt.Format(time.RFC3339)
	}

	s.respondJSON(w, http.StatusOK, statusResponse{
		Status:         "ok",
		UptimeSeconds:  uptime,
		Vendor:         s.cfg.Engine.Vendor,
		DecisionsTotal: s.decisionsTotal,
		RepliesTotal:   s.repliesTotal,
		LastDecisionAt: lastDecision,
	})
}

func (s *Service) handleDecide(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var request decideRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return
	}

	outcome := s.engine.Process(r.Context(), toRoom(request))
	s.recordDecision(outcome.Decision.ShouldReply)

	var response decideResponse
	response.Gate.Category = string(outcome.Gate.Category)
	response.Gate.IsValid = outcome.Gate.IsValid
	response.Gate.Confidence = outcome.Gate.Confidence
	response.Gate.Reason = outcome.Gate.Reason
	response.Decision.ShouldReply = outcome.Decision.ShouldReply
	response.Decision.ResponderActorID = outcome.Decision.ResponderActorID
	response.Decision.ResponderName = outcome.Decision.ResponderName
	response.Decision.Confidence = outcome.Decision.Confidence
	response.Decision.Reasoning = outcome.Decision.Reasoning
	response.SystemPrompt = outcome.SystemPrompt

	s.respondJSON(w, http.StatusOK, response)
}

func (s *Service) recordDecision(replied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisionsTotal++
	if replied {
		s.repliesTotal++
	}
	s.lastDecisionAt = time.Now().UTC()
}

func (s *Service) respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write response", "error", err)
	}
}

func toRoom(request decideRequest) engine.Room {
	transcript := make([]chat.Message, 0, len(request.Transcript))
	for _, msg := range request.Transcript {
		transcript = append(transcript, chat.Message{
			SenderID:   msg.SenderID,
			SenderName: msg.SenderName,
			IsBot:      msg.IsBot,
			Content:    msg.Content,
		})
	}

	bots := make([]engine.Bot, 0, len(request.Bots))
	for _, bot := range request.Bots {
		bots = append(bots, engine.Bot{
			Info: chat.BotInfo{ActorID: bot.ActorID, Name: bot.Name, Role: bot.Role},
			Prompt: prompt.Input{
				RawPersona:  bot.Persona,
				Constraints: bot.Constraints,
			},
		})
	}

	return engine.Room{
		ID:         request.RoomID,
		Transcript: transcript,
		Trigger:    request.Trigger,
		Bots:       bots,
	}
}
