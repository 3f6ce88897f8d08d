package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/source"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

// handleReady reports 503 until the first refresh has been applied.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	st := s.dashboard.Store().Status()
	if !st.Ready {
		ServiceUnavailableError("not ready", st).Write(w)
		return
	}
	NewJSONResponse().Body(st).Write(w)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.dashboard.Store().Status()).Write(w)
}

// summary computes the dashboard summary and writes the error response itself
// when it fails.
func (s *Server) summary(w http.ResponseWriter, r *http.Request, feed core.FeedOptions) (dashboard.Result, bool) {
	res, err := s.dashboard.SummaryWith(r.Context(), feed)
	if errors.Is(err, dashboard.ErrNoSnapshot) {
		ServiceUnavailableError(err.Error(), s.dashboard.Store().Status()).Write(w)
		return res, false
	}
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to compute summary", log.FieldError, err)
		InternalServerError("failed to compute summary").Write(w)
		return res, false
	}
	return res, true
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	feed, err := parseFeedOptions(r, s.dashboard.FeedOptions())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	res, ok := s.summary(w, r, feed)
	if !ok {
		return
	}
	NewJSONResponse().Body(newSummaryView(res, s.dashboard.Store().LastError())).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	res, ok := s.summary(w, r, s.dashboard.FeedOptions())
	if !ok {
		return
	}
	NewJSONResponse().Body(newTotalsView(res.Summary.Totals)).Write(w)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	res, ok := s.summary(w, r, s.dashboard.FeedOptions())
	if !ok {
		return
	}
	NewJSONResponse().Body(newSeriesView(res.Summary.Series)).Write(w)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	feed, err := parseFeedOptions(r, s.dashboard.FeedOptions())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	res, ok := s.summary(w, r, feed)
	if !ok {
		return
	}
	NewJSONResponse().Body(recentView{Items: newRecent(res.Summary.Recent)}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	if s.writer == nil {
		NotImplementedError(source.ErrNotSupported.Error()).Write(w)
		return
	}

	var in core.NewTransaction
	if err := decodeJSON(w, r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	in.Type = sanitizeInput(in.Type)
	in.Category = sanitizeInput(in.Category)
	in.Date = sanitizeInput(in.Date)
	in.Description = sanitizeInput(in.Description)

	if err := in.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	tx, err := s.writer.CreateTransaction(ctx, in)
	switch {
	case err == nil:
	case isValidationError(err):
		UnprocessableEntityError(err.Error()).Write(w)
		return
	case errors.Is(err, source.ErrNotSupported):
		NotImplementedError(err.Error()).Write(w)
		return
	default:
		logger.ErrorContext(ctx, "Failed to create transaction",
			log.FieldOperation, log.OpCreate,
			log.FieldError, err,
			"type", in.Type,
			"category", in.Category)
		ErrorResponse(http.StatusBadGateway, "failed to save transaction").Write(w)
		return
	}

	logger.InfoContext(ctx, "Transaction created",
		log.FieldOperation, log.OpCreate,
		"transaction_id", tx.ID,
		"type", tx.Type)

	if s.refresh != nil {
		refreshCtx := context.WithoutCancel(ctx)
		go s.refresh(refreshCtx)
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(transactionView{Transaction: tx}).
		Write(w)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notifications == nil {
		NotImplementedError(source.ErrNotSupported.Error()).Write(w)
		return
	}
	items, err := s.notifications.ListNotifications(r.Context())
	if err != nil {
		s.notificationError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Notification{}
	}
	NewJSONResponse().Body(notificationsView{Items: items}).Write(w)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if s.notifications == nil {
		NotImplementedError(source.ErrNotSupported.Error()).Write(w)
		return
	}
	id := strings.TrimSpace(mux.Vars(r)["id"])
	if id == "" {
		BadRequestError("missing notification id").Write(w)
		return
	}
	if err := s.notifications.MarkNotificationRead(r.Context(), id); err != nil {
		s.notificationError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) notificationError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, source.ErrNotFound):
		NotFoundError("notification not found").Write(w)
	case errors.Is(err, source.ErrNotSupported):
		NotImplementedError(err.Error()).Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Notification request failed", log.FieldError, err)
		ErrorResponse(http.StatusBadGateway, "notification backend unavailable").Write(w)
	}
}
