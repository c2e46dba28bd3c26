package httpapi

import (
	"net/http"
	"time"

	"github.com/riskibarqy/matchfeed/internal/domain/importrun"
	"github.com/riskibarqy/matchfeed/internal/usecase"
)

const defaultRunListLimit = 20

func (h *Handler) RunImportAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunImportAll")
	defer span.End()

	var req importRunRequest
	if err := h.decodeAndValidate(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	client, _ := clientInfoFromContext(ctx)
	h.logger.InfoContext(ctx, "manual import requested", "overwrite", req.Overwrite, "client_ip", client.IP)

	report, err := h.importService.ImportAll(ctx, usecase.ImportAllInput{
		Overwrite: req.Overwrite,
		Trigger:   importrun.TriggerManual,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "import all failed", "overwrite", req.Overwrite, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

func (h *Handler) ScheduleImportAll(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ScheduleImportAll")
	defer span.End()

	var req scheduleImportRequest
	if err := h.decodeAndValidate(ctx, r, &req, true); err != nil {
		writeError(ctx, w, err)
		return
	}

	delay := h.defaultJobDelay
	if req.DelaySeconds != nil {
		delay = time.Duration(*req.DelaySeconds) * time.Second
	}

	job, err := h.importJobService.ScheduleImportAll(ctx, usecase.ScheduleImportInput{
		Delay:     delay,
		Overwrite: req.Overwrite,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "schedule import failed", "delay", delay, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, job)
}

func (h *Handler) ListImportRuns(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListImportRuns")
	defer span.End()

	limit, err := queryInt(r, "limit", defaultRunListLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	runs, err := h.importService.ListRuns(ctx, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]importRunDTO, 0, len(runs))
	for _, run := range runs {
		out = append(out, importRunToDTO(run))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetImportRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetImportRun")
	defer span.End()

	run, err := h.importService.GetRun(ctx, pathValue(r, "runID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, importRunToDTO(run))
}

func (h *Handler) PreviewTXTImport(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PreviewTXTImport")
	defer span.End()

	var req txtImportRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.importService.PreviewTXT(ctx, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "preview txt import failed", "url", req.URL, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, previewToDTO(result))
}

func (h *Handler) ImportTXT(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ImportTXT")
	defer span.End()

	var req txtImportRequest
	if err := h.decodeAndValidate(ctx, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}

	report, err := h.importService.ImportTXT(ctx, req.toInput())
	if err != nil {
		h.logger.WarnContext(ctx, "txt import failed", "url", req.URL, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
