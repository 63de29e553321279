package http

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"fatura/internal/core"
)

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	cat := core.Category{
		ID:   uuid.NewString(),
		Name: strings.TrimSpace(req.Name),
		Kind: core.CategoryKind(strings.TrimSpace(req.Kind)),
	}
	if err := cat.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := s.st.CreateCategory(r.Context(), cat); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(cat))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.st.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.st.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	cents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	budget := core.Budget{
		ID:         uuid.NewString(),
		CategoryID: strings.TrimSpace(req.CategoryID),
		Year:       req.Year,
		Month:      req.Month,
		Limit:      core.Money{Cents: cents},
	}
	if err := budget.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}
	if _, err := s.st.GetCategory(r.Context(), budget.CategoryID); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.st.CreateBudget(r.Context(), budget); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummary(budget.Year, budget.Month)
	writeJSON(w, http.StatusCreated, toBudgetResponse(budget))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(r)
	if !ok {
		writeBadRequest(w, "invalid year or month")
		return
	}

	budgets, err := s.st.ListBudgets(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]BudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req CreateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	budget, err := s.st.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Limit)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	previousYear, previousMonth := budget.Year, budget.Month
	if req.CategoryID != "" {
		budget.CategoryID = strings.TrimSpace(req.CategoryID)
	}
	if req.Year != 0 {
		budget.Year = req.Year
	}
	if req.Month != 0 {
		budget.Month = req.Month
	}
	budget.Limit = core.Money{Cents: cents}
	if err := budget.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := s.st.UpdateBudget(r.Context(), budget); err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateSummary(previousYear, previousMonth)
	s.invalidateSummary(budget.Year, budget.Month)
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.st.GetBudget(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.st.DeleteBudget(r.Context(), budget.ID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummary(budget.Year, budget.Month)
	w.WriteHeader(http.StatusNoContent)
}

// handleSummary aggregates one calendar month's purchases by category and
// matches them against that month's budgets.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := parseYearMonth(r)
	if !ok {
		writeBadRequest(w, "invalid year or month")
		return
	}

	key := summaryCacheKey(year, month)
	if cached, found := s.summaryCache.Get(key); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	overview, err := s.monthOverview(r, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := SummaryResponse{
		Year:  overview.Year,
		Month: overview.Month,
		Total: core.FormatCents(overview.Total.Cents),
	}
	spentByCategory := make(map[string]int64, len(overview.ByCategory))
	for _, row := range overview.ByCategory {
		spentByCategory[row.Name] = row.Amount.Cents
		resp.ByCategory = append(resp.ByCategory, CategoryAmountResponse{
			Name:   row.Name,
			Amount: core.FormatCents(row.Amount.Cents),
		})
	}

	budgets, err := s.st.ListBudgets(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(budgets) > 0 {
		names := make(map[string]string)
		if cats, err := s.st.ListCategories(r.Context()); err == nil {
			for _, c := range cats {
				names[c.ID] = c.Name
			}
		}
		for _, b := range budgets {
			name := names[b.CategoryID]
			if name == "" {
				name = b.CategoryID
			}
			spent := spentByCategory[name]
			resp.Budgets = append(resp.Budgets, BudgetStatusResponse{
				Category: name,
				Limit:    core.FormatCents(b.Limit.Cents),
				Spent:    core.FormatCents(spent),
				Over:     spent > b.Limit.Cents,
			})
		}
	}

	s.summaryCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) monthOverview(r *http.Request, year, month int) (core.MonthOverview, error) {
	from := core.NewDate(year, month, 1)
	to := core.NewDate(year, month, core.DaysInMonth(year, month))

	purchases, err := s.st.ListPurchases(r.Context(), from, to)
	if err != nil {
		return core.MonthOverview{}, err
	}

	overview := core.MonthOverview{Year: year, Month: month}
	byCategory := make(map[string]int64)
	for _, p := range purchases {
		overview.Total.Cents += p.Amount.Cents
		byCategory[p.Category] += p.Amount.Cents
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	// Largest first, ties alphabetical, so the heaviest category leads.
	sort.Slice(names, func(i, j int) bool {
		if byCategory[names[i]] != byCategory[names[j]] {
			return byCategory[names[i]] > byCategory[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		overview.ByCategory = append(overview.ByCategory, core.CategoryAmount{
			Name:   name,
			Amount: core.Money{Cents: byCategory[name]},
		})
	}
	return overview, nil
}

// parseYearMonth extracts year and month from query parameters, defaulting
// to the current month.
func parseYearMonth(r *http.Request) (year, month int, ok bool) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		month = m
	}
	if month < 1 || month > 12 || year < 1970 {
		return 0, 0, false
	}
	return year, month, true
}
