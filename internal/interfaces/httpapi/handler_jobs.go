package httpapi

import (
	"net/http"

	"github.com/riskibarqy/matchfeed/internal/domain/importrun"
	"github.com/riskibarqy/matchfeed/internal/usecase"
)

// RunImportAllJob is the QStash callback for a scheduled import-all run.
func (h *Handler) RunImportAllJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunImportAllJob")
	defer span.End()

	var req internalImportJobRequest
	if err := h.decodeAndValidate(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.importService.ImportAll(ctx, usecase.ImportAllInput{
		Overwrite: req.Overwrite,
		Trigger:   importrun.TriggerJob,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run import job failed", "dispatch_id", req.DispatchID, "overwrite", req.Overwrite, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "import job completed",
		"dispatch_id", req.DispatchID,
		"run_id", report.RunID,
		"added", report.Added,
		"skipped", report.Skipped,
	)
	writeSuccess(ctx, w, http.StatusOK, report)
}
