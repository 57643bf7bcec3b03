package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/services"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "index.html", pageView{Title: "SaaS Financeiro"})
}

// handleAuthRedirect sends the browser to an external auth page, or shows
// a placeholder when none is configured.
func (s *Server) handleAuthRedirect(title string, target func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if u := target(); u != "" {
			http.Redirect(w, r, u, http.StatusFound)
			return
		}
		s.render(w, r, http.StatusOK, "unavailable.html", pageView{Title: title})
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	account := strings.TrimSpace(q.Get("account"))
	if account == "" {
		account = s.opts.DefaultAccount
	}
	month, corrected := parseMonthParams(q, s.now())
	if corrected {
		slog.WarnContext(ctx, "Invalid month parameters, using defaults",
			"year", q.Get("year"),
			"month", q.Get("month"),
			"corrected_to", month)
	}

	ctx = applog.WithAccount(ctx, account)
	d, err := s.opts.Dashboards.Dashboard(ctx, services.MonthQuery(account, month.Year, month.Month, s.opts.ListingLimit))
	if err != nil {
		slog.ErrorContext(ctx, "Dashboard aggregation failed", applog.FieldError, err)
		http.Error(w, "Erro ao carregar o dashboard", http.StatusBadGateway)
		return
	}

	s.render(w, r, http.StatusOK, "dashboard.html", newDashboardView(d, s.opts.Formatter, account, month))
}

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	query, err := parseAPIQuery(r.URL.Query(), s.now(), s.opts.DefaultAccount, s.opts.ListingLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := applog.WithAccount(r.Context(), query.AccountID)
	d, err := s.opts.Dashboards.Dashboard(ctx, query)
	switch {
	case errors.Is(err, core.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		slog.ErrorContext(ctx, "Dashboard aggregation failed", applog.FieldError, err)
		writeError(w, http.StatusBadGateway, errors.New("ledger unavailable"))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf strings.Builder
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "template", name, applog.FieldError, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
