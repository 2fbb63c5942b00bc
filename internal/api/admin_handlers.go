package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zappybot/zappy/internal/models"
	"github.com/zappybot/zappy/internal/store"
)

func (s *Server) listThreadsHandler(w http.ResponseWriter, r *http.Request) {
	threads, err := s.st.ListThreads()
	if err != nil {
		slog.Error("Server.listThreadsHandler: failed to list threads", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list threads"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(threads))
}

func (s *Server) listMessagesHandler(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	if _, err := s.st.GetThread(threadID); err != nil {
		if errors.Is(err, store.ErrThreadNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Thread not found"))
			return
		}
		slog.Error("Server.listMessagesHandler: failed to load thread", "error", err, "threadID", threadID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load thread"))
		return
	}

	messages, err := s.st.ListMessages(threadID)
	if err != nil {
		slog.Error("Server.listMessagesHandler: failed to list messages", "error", err, "threadID", threadID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list messages"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(messages))
}

func (s *Server) clearThreadHandler(w http.ResponseWriter, r *http.Request) {
	threadID := r.PathValue("id")
	if err := s.st.ClearThread(threadID); err != nil {
		if errors.Is(err, store.ErrThreadNotFound) {
			writeJSONResponse(w, http.StatusNotFound, models.Error("Thread not found"))
			return
		}
		slog.Error("Server.clearThreadHandler: failed to clear thread", "error", err, "threadID", threadID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to clear thread"))
		return
	}
	slog.Info("Server.clearThreadHandler: thread cleared", "threadID", threadID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Thread cleared", nil))
}

// initiateFlowRequest is the payload for starting a flow on behalf of a user.
type initiateFlowRequest struct {
	SSID string          `json:"ssid"`
	Flow models.FlowType `json:"flow"`
}

func (s *Server) initiateFlowHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}

	var req initiateFlowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.initiateFlowHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid JSON format"))
		return
	}
	if req.SSID == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("ssid is required"))
		return
	}
	if err := req.Flow.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	if err := s.proc.InitiateFlow(r.Context(), req.SSID, req.Flow); err != nil {
		slog.Error("Server.initiateFlowHandler: failed to initiate flow", "error", err, "ssid", req.SSID, "flow", req.Flow)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to initiate flow"))
		return
	}
	slog.Info("Server.initiateFlowHandler: flow initiated", "ssid", req.SSID, "flow", req.Flow)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Flow initiated", nil))
}
