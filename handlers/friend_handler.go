package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"taskMateAPI/internal/friendship"
	"taskMateAPI/services"
)

type FriendHandler struct {
	friendService *services.FriendService
}

func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

func (h *FriendHandler) ListRelationships(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	accountID, ok := requireAccountID(ctx, w)
	if !ok {
		return
	}

	list, err := h.friendService.ListRelationships(ctx, accountID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, list)
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	accountID, ok := requireAccountID(ctx, w)
	if !ok {
		return
	}

	var req friendship.SendRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("SendRequest Handler: Failed to decode request body: %v", err)
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	log.Printf("SendRequest Handler: Request from %s to add friend %s", accountID, req.Email)

	created, err := h.friendService.SendRequest(ctx, accountID, req.Email)
	if err != nil {
		log.Printf("SendRequest Handler: Service error: %v", err)
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

func (h *FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	accountID, ok := requireAccountID(ctx, w)
	if !ok {
		return
	}

	relationshipID, err := strconv.ParseInt(mux.Vars(r)["relationshipId"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid relationship id")
		return
	}

	var req friendship.RespondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.friendService.Respond(ctx, accountID, relationshipID, req.Decision)
	if err != nil {
		log.Printf("Respond Handler: Service error: %v", err)
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

func (h *FriendHandler) GetFriendTaskSummaries(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	accountID, ok := requireAccountID(ctx, w)
	if !ok {
		return
	}

	summaries, err := h.friendService.FriendTaskSummaries(ctx, accountID)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, summaries)
}
