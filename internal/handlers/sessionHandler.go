package handlers

import (
	"net/http"
	"strconv"

	"github.com/akolanti/ResumeRAG/internal/api"
	"github.com/akolanti/ResumeRAG/internal/domain/commonModels"
)

// CreateSessionHandler godoc
// @Summary      Open a session
// @Description  Creates an isolated session seeded with the base profile documents.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  api.SessionResponse
// @Failure      500  {object}  api.ErrorResponse
// @Router       /sessions [post]
func CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	sess, err := sessions().Create(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusCreated, api.SessionResponse{
		SessionId: sess.Id,
		CreatedAt: sess.CreatedAt,
		Documents: sess.Corpus.Documents(),
	})
}

// DeleteSessionHandler godoc
// @Summary      Close a session
// @Description  Drops the session with its documents and conversation.
// @Tags         Sessions
// @Security     BearerAuth
// @Param        sessionId  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /sessions/{sessionId} [delete]
func DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := sessions().Delete(r.Context(), sessionIdOf(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetSessionHandler godoc
// @Summary      Reset a session
// @Description  Removes every uploaded document and clears the conversation. Base documents stay.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true  "Session ID"
// @Success      200        {object}  api.SessionResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/reset [post]
func ResetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := sessions().Reset(r.Context(), sess.Id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJsonResponse(w, http.StatusOK, api.SessionResponse{
		SessionId: sess.Id,
		CreatedAt: sess.CreatedAt,
		Documents: sess.Corpus.Documents(),
	})
}

// HistoryHandler godoc
// @Summary      Conversation history
// @Description  Returns the last n turns, oldest first. Without n the configured window is used; all=true returns the full log.
// @Tags         Sessions
// @Produce      json
// @Security     BearerAuth
// @Param        sessionId  path      string  true   "Session ID"
// @Param        n          query     int     false  "Number of turns"
// @Param        all        query     bool    false  "Return every turn"
// @Success      200        {object}  api.HistoryResponse
// @Failure      400        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/history [get]
func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}

	var (
		turns []commonModels.ConversationTurn
		err   error
	)
	query := r.URL.Query()
	switch {
	case query.Get("all") == "true":
		turns, err = sess.Memory.History(r.Context())
	case query.Get("n") != "":
		n, convErr := strconv.Atoi(query.Get("n"))
		if convErr != nil || n < 0 {
			WriteErrorResponse(w, http.StatusBadRequest, sess.Id, "n must be a non-negative integer")
			return
		}
		turns, err = sess.Memory.Recent(r.Context(), n)
	default:
		turns, err = sess.Memory.Window(r.Context())
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if turns == nil {
		turns = []commonModels.ConversationTurn{}
	}

	writeJsonResponse(w, http.StatusOK, api.HistoryResponse{
		SessionId:  sess.Id,
		WindowSize: sess.Memory.WindowSize(),
		Turns:      turns,
	})
}

// ClearHistoryHandler godoc
// @Summary      Clear conversation
// @Description  Empties the conversation log. Documents are untouched.
// @Tags         Sessions
// @Security     BearerAuth
// @Param        sessionId  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /sessions/{sessionId}/history [delete]
func ClearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFromRequest(w, r)
	if !ok {
		return
	}
	if err := sess.Memory.Clear(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
