package httpapi

import (
	"net/http"

	"github.com/riskibarqy/matchfeed/internal/usecase"
)

func (h *Handler) ListManagedTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListManagedTeams")
	defer span.End()

	items, err := h.teamLogoService.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]managedTeamDTO, 0, len(items))
	for _, item := range items {
		out = append(out, managedTeamToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) UpsertManagedTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertManagedTeam")
	defer span.End()

	var req upsertTeamRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.teamLogoService.Upsert(ctx, usecase.UpsertTeamInput{
		Name:          req.Name,
		LogoURL:       req.LogoURL,
		LeagueContext: req.LeagueContext,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "upsert managed team failed", "team", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, managedTeamToDTO(item))
}

func (h *Handler) DeleteManagedTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteManagedTeam")
	defer span.End()

	nameKey := pathValue(r, "nameKey")
	if err := h.teamLogoService.Delete(ctx, nameKey); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"nameKey": nameKey})
}

func (h *Handler) SearchTeamLogo(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SearchTeamLogo")
	defer span.End()

	var req searchLogoRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	logoURL, found, err := h.teamLogoService.Search(ctx, req.Name, req.LeagueName)
	if err != nil {
		h.logger.WarnContext(ctx, "search team logo failed", "team", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"name":    req.Name,
		"found":   found,
		"logoUrl": logoURL,
	})
}
