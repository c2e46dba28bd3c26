package httpapi

import (
	"net/http"

	"github.com/riskibarqy/matchfeed/internal/usecase"
)

func (h *Handler) ListFeedSources(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFeedSources")
	defer span.End()

	items, err := h.feedSourceService.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]feedSourceDTO, 0, len(items))
	for _, item := range items {
		out = append(out, feedSourceToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetFeedSource(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFeedSource")
	defer span.End()

	item, err := h.feedSourceService.Get(ctx, pathValue(r, "sourceID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, feedSourceToDTO(item))
}

func (h *Handler) CreateFeedSource(w http.ResponseWriter, r *http.Request) {
	h.upsertFeedSource(w, r, "", http.StatusCreated)
}

func (h *Handler) UpdateFeedSource(w http.ResponseWriter, r *http.Request) {
	h.upsertFeedSource(w, r, pathValue(r, "sourceID"), http.StatusOK)
}

func (h *Handler) upsertFeedSource(w http.ResponseWriter, r *http.Request, sourceID string, status int) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpsertFeedSource")
	defer span.End()

	var req feedSourceRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.feedSourceService.Upsert(ctx, req.toInput(sourceID))
	if err != nil {
		h.logger.WarnContext(ctx, "upsert feed source failed", "source_id", sourceID, "url", req.URL, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, status, feedSourceToDTO(item))
}

func (h *Handler) DeleteFeedSource(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteFeedSource")
	defer span.End()

	sourceID := pathValue(r, "sourceID")
	if err := h.feedSourceService.Delete(ctx, sourceID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"id": sourceID})
}

func (h *Handler) ImportFeedSource(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportFeedSource")
	defer span.End()

	sourceID := pathValue(r, "sourceID")
	report, err := h.importService.ImportSource(ctx, sourceID)
	if err != nil {
		h.logger.WarnContext(ctx, "import feed source failed", "source_id", sourceID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) PreviewFeedSource(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PreviewFeedSource")
	defer span.End()

	var req windowRequest
	if err := h.decodeAndValidate(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	sourceID := pathValue(r, "sourceID")
	result, err := h.importService.Preview(ctx, usecase.PreviewInput{
		SourceID:        sourceID,
		StartOffsetDays: req.StartOffsetDays,
		EndOffsetDays:   req.EndOffsetDays,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "preview feed source failed", "source_id", sourceID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, previewToDTO(result))
}

func (h *Handler) ImportSelectedFromSource(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportSelectedFromSource")
	defer span.End()

	var req importSelectedRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	sourceID := pathValue(r, "sourceID")
	report, err := h.importService.ImportSelected(ctx, usecase.ImportSelectedInput{
		SourceID:        sourceID,
		SourceMatchIDs:  req.SourceMatchIDs,
		StartOffsetDays: req.StartOffsetDays,
		EndOffsetDays:   req.EndOffsetDays,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "import selected matches failed", "source_id", sourceID, "count", len(req.SourceMatchIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
