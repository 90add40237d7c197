package handlers

import (
	"context"
	"net/http"
	"time"

	"taskMateAPI/services"
)

type LibraryHandler struct {
	libraryService *services.LibraryService
}

func NewLibraryHandler(libraryService *services.LibraryService) *LibraryHandler {
	return &LibraryHandler{
		libraryService: libraryService,
	}
}

func (h *LibraryHandler) SearchNearby(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if _, ok := requireAccountID(ctx, w); !ok {
		return
	}

	postalCode := r.URL.Query().Get("postalCode")
	if postalCode == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'postalCode' is required")
		return
	}

	result, err := h.libraryService.SearchNearby(ctx, postalCode)
	if err != nil {
		respondWithError(w, statusForError(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}
