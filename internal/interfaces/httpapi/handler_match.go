package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/matchfeed/internal/domain/match"
	"github.com/riskibarqy/matchfeed/internal/usecase"
)

func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListMatches")
	defer span.End()

	featuredOnly, err := queryBool(r, "featured")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	query := r.URL.Query()

	items, err := h.matchService.List(ctx, usecase.ListMatchesInput{
		LeagueName:   strings.TrimSpace(query.Get("league")),
		Status:       match.Status(strings.TrimSpace(query.Get("status"))),
		FeaturedOnly: featuredOnly,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "list matches failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchesToDTO(items))
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := pathValue(r, "matchID")
	item, err := h.matchService.Get(ctx, matchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	items, err := h.matchService.ListLeagues(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	var req matchRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.Create(ctx, input)
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "league", req.LeagueName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(item))
}

func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateMatch")
	defer span.End()

	matchID := pathValue(r, "matchID")
	var req matchRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.Update(ctx, matchID, input)
	if err != nil {
		h.logger.WarnContext(ctx, "update match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(item))
}

func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteMatch")
	defer span.End()

	matchID := pathValue(r, "matchID")
	if err := h.matchService.Delete(ctx, matchID); err != nil {
		h.logger.WarnContext(ctx, "delete match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": matchID})
}

func (h *Handler) ToggleFeaturedMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ToggleFeaturedMatch")
	defer span.End()

	matchID := pathValue(r, "matchID")
	featured, err := h.matchService.ToggleFeatured(ctx, matchID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{"id": matchID, "isFeatured": featured})
}

func (h *Handler) BulkDeleteMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BulkDeleteMatches")
	defer span.End()

	var req bulkIDsRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	affected, err := h.matchService.BulkDelete(ctx, req.IDs)
	if err != nil {
		h.logger.WarnContext(ctx, "bulk delete matches failed", "count", len(req.IDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bulkResultDTO{Affected: affected})
}

func (h *Handler) BulkUpdateMatchStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BulkUpdateMatchStatus")
	defer span.End()

	var req bulkStatusRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	affected, err := h.matchService.BulkUpdateStatus(ctx, req.IDs, match.Status(req.Status))
	if err != nil {
		h.logger.WarnContext(ctx, "bulk update match status failed", "count", len(req.IDs), "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bulkResultDTO{Affected: affected})
}

func (h *Handler) BulkClearStreamLinks(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.BulkClearStreamLinks")
	defer span.End()

	var req bulkIDsRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	affected, err := h.matchService.BulkClearStreamLinks(ctx, req.IDs)
	if err != nil {
		h.logger.WarnContext(ctx, "bulk clear stream links failed", "count", len(req.IDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, bulkResultDTO{Affected: affected})
}
