package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"kesef/internal/app"
	"kesef/internal/core"
	"kesef/internal/export"
	"kesef/internal/log"
	"kesef/internal/middleware/trace"
)

// maxFormBytes bounds form and JSON bodies.
const maxFormBytes = 1 << 16

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{}

	if s.renderer == nil {
		checks["templates"] = "failed: renderer not configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}
	if s.store == nil {
		checks["store"] = "failed: store not configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = map[string]any{
			"status":       "ok",
			"transactions": s.store.Snapshot().Ledger.Len(),
		}
	}
	checks["rate_limiter"] = map[string]any{
		"status":         "ok",
		"active_clients": s.limiter.Clients(),
		"rejected_total": s.limiter.Rejected(),
	}

	writeJSON(w, code, map[string]any{
		"status":         status,
		"timestamp":      time.Now().Format(time.RFC3339),
		"requests_total": s.tracer.TotalRequests(),
		"checks":         checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if s.renderer == nil {
		log.FromContext(ctx).ErrorContext(ctx, "Renderer not configured", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(ctx, w, s.store.Snapshot()); err != nil {
		fields := log.NewFields().WithOperation(log.OpRender).WithError(err)
		fields[log.FieldView] = string(s.store.Snapshot().View)
		log.FromContext(ctx).ErrorContext(ctx, "Page render failed", fields.ToSlice()...)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.store.Snapshot()))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	var req SubmitRequest
	if isJSONBody(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid JSON body", log.FieldError, err)
			writeError(w, r, http.StatusBadRequest, "request body is not valid JSON")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error", log.FieldError, err)
			s.fail(w, r, http.StatusBadRequest, "invalid form")
			return
		}
		req = SubmitRequest{
			Description: r.PostForm.Get("description"),
			Amount:      r.PostForm.Get("amount"),
			Type:        r.PostForm.Get("type"),
			Category:    r.PostForm.Get("category"),
		}
	}

	// An incomplete form is not an error: the ledger stays as it is and
	// the page comes back with the typed fields.
	s.store.Dispatch(r.Context(), app.SubmitForm{Form: req.form()})
	s.respond(w, r)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	s.store.Dispatch(r.Context(), app.DeleteTransaction{ID: id})
	s.respond(w, r)
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	v, err := core.ParseView(mux.Vars(r)["view"])
	if err != nil {
		s.fail(w, r, http.StatusNotFound, err.Error())
		return
	}
	s.store.Dispatch(r.Context(), app.SetView{View: v})
	s.respond(w, r)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	s.store.Dispatch(r.Context(), app.ToggleTheme{})
	s.respond(w, r)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.store.Dispatch(r.Context(), app.Reset{})
	s.respond(w, r)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx).WithComponent(log.ComponentExport)
	snap := s.store.Snapshot()

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, snap); err != nil {
		fields := log.NewFields().WithOperation(log.OpExport).WithError(err)
		fields[log.FieldLedgerSize] = snap.Ledger.Len()
		logger.ErrorContext(ctx, "Export failed", fields.ToSlice()...)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="kesef-%s.xlsx"`, time.Now().Format("2006-01-02")))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)

	logger.InfoContext(ctx, "Ledger exported",
		log.FieldOperation, log.OpExport,
		log.FieldLedgerSize, snap.Ledger.Len())
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, http.StatusNotFound, "not found")
}

func (s *Server) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

// respond finishes a state-changing request: JSON clients get the new
// state, browsers are sent back to the page.
func (s *Server) respond(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, newStateResponse(s.store.Snapshot()))
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if wantsJSON(r) {
		writeError(w, r, code, msg)
		return
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, ErrorResponse{
		Error:     msg,
		Status:    code,
		RequestID: trace.GetRequestID(r.Context()),
	})
}
