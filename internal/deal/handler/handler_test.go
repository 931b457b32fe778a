package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"dealdesk/internal/advisory"
	"dealdesk/internal/deal"
	"dealdesk/internal/platform/middleware"
	"dealdesk/internal/rules"
)

// =============================================================================
// Deal Handler Test Suite
// =============================================================================
// Exercised against the real service and the in-memory store so the HTTP
// layer, status mapping, and persistence wiring are tested together.

type HandlerSuite struct {
	suite.Suite
	router chi.Router
	store  *deal.InMemoryStore
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = deal.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := deal.NewService(s.store, rules.Default(), advisory.Mock{}, logger, nil)

	s.router = chi.NewRouter()
	s.router.Use(middleware.RequestID)
	New(service, logger).Register(s.router)
}

func (s *HandlerSuite) request(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *HandlerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(v))
}

func validBody() map[string]any {
	return map[string]any{
		"deal_type":             "New",
		"customer_segment":      "Mid-Market",
		"annual_contract_value": 200000,
		"discount_percentage":   30,
		"payment_terms_days":    60,
		"region":                "EU",
	}
}

// =============================================================================
// Pipeline Endpoints
// =============================================================================

func (s *HandlerSuite) TestProcessDeal() {
	rec := s.request(http.MethodPost, "/deals", validBody())
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.NotEmpty(rec.Header().Get("X-Request-ID"))

	var result deal.PipelineResult
	s.decode(rec, &result)
	s.NotEmpty(result.Deal.ID)
	s.Equal("Escalated", result.Decision.ApprovalStatus)
	s.Equal([]string{
		rules.TeamFinance, rules.TeamLegal, rules.TeamExec,
	}, result.Decision.EscalationPath)
	s.Nil(result.Advisory)

	stored, err := s.store.Get(context.Background(), result.Deal.ID)
	s.Require().NoError(err)
	s.Equal(deal.StatusProcessed, stored.Status)
}

func (s *HandlerSuite) TestProcessDealWithClause() {
	body := validBody()
	body["clause_text"] = "Vendor shall provide annual SOC 2 Type II audit reports."
	rec := s.request(http.MethodPost, "/deals", body)
	s.Require().Equal(http.StatusCreated, rec.Code)

	var result deal.PipelineResult
	s.decode(rec, &result)
	s.Require().NotNil(result.Advisory)
	s.Equal("mock", result.Advisory.ModelUsed)
}

func (s *HandlerSuite) TestBadRequests() {
	s.Run("invalid JSON is a 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/deals", bytes.NewBufferString("{nope"))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("invalid field values are a 422", func() {
		body := validBody()
		body["region"] = "Mars"
		rec := s.request(http.MethodPost, "/deals", body)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)

		var errBody map[string]string
		s.decode(rec, &errBody)
		s.Equal("validation_error", errBody["error"])
		s.Contains(errBody["error_description"], "region")
	})
}

func (s *HandlerSuite) TestStatelessEndpoints() {
	s.Run("validate returns the minted deal", func() {
		rec := s.request(http.MethodPost, "/deals/validate", validBody())
		s.Equal(http.StatusCreated, rec.Code)

		var body map[string]any
		s.decode(rec, &body)
		s.Len(body["id"], 32)
	})

	s.Run("evaluate returns triggers", func() {
		rec := s.request(http.MethodPost, "/deals/evaluate", validBody())
		s.Equal(http.StatusOK, rec.Code)

		var evaluation rules.EvaluationResult
		s.decode(rec, &evaluation)
		s.Len(evaluation.Triggers, 5)
		s.Equal(rules.PriorityP1, evaluation.Priority)
	})

	s.Run("route returns a decision without persisting", func() {
		rec := s.request(http.MethodPost, "/deals/route", validBody())
		s.Equal(http.StatusOK, rec.Code)

		recs, err := s.store.List(context.Background())
		s.Require().NoError(err)
		s.Empty(recs)
	})
}

func (s *HandlerSuite) TestAnalyzeClause() {
	rec := s.request(http.MethodPost, "/deals/analyze-clause", map[string]any{
		"clause_text": "All data must be stored within the European Union.",
	})
	s.Require().Equal(http.StatusOK, rec.Code)

	var adv advisory.ClauseAdvisory
	s.decode(rec, &adv)
	s.Equal(advisory.RiskMedium, adv.RiskLevel)

	rec = s.request(http.MethodPost, "/deals/analyze-clause", map[string]any{})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

// =============================================================================
// Override Endpoint
// =============================================================================

func (s *HandlerSuite) TestOverride() {
	processed := s.request(http.MethodPost, "/deals", validBody())
	s.Require().Equal(http.StatusCreated, processed.Code)
	var result deal.PipelineResult
	s.decode(processed, &result)

	s.Run("unknown deal is a 404", func() {
		rec := s.request(http.MethodPost, "/deals/missing/override", map[string]any{
			"override_reason": "Strategic deal",
		})
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("invalid reason is a 422", func() {
		rec := s.request(http.MethodPost, "/deals/"+result.Deal.ID+"/override", map[string]any{
			"override_reason": "Because I said so",
		})
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("valid override is recorded", func() {
		rec := s.request(http.MethodPost, "/deals/"+result.Deal.ID+"/override", map[string]any{
			"override_reason": "Strategic deal",
			"override_notes":  "board priority",
		})
		s.Require().Equal(http.StatusCreated, rec.Code)

		var resp OverrideResponse
		s.decode(rec, &resp)
		s.Equal(result.Deal.ID, resp.DealID)
		s.NotZero(resp.OverrideID)
		s.Equal("Deal override recorded successfully", resp.Message)
	})
}

// =============================================================================
// Lookup Endpoints
// =============================================================================

func (s *HandlerSuite) TestGetAndList() {
	processed := s.request(http.MethodPost, "/deals", validBody())
	var result deal.PipelineResult
	s.decode(processed, &result)

	rec := s.request(http.MethodGet, "/deals/"+result.Deal.ID, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.request(http.MethodGet, "/deals/missing", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.request(http.MethodGet, "/deals/list", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var list ListResponse
	s.decode(rec, &list)
	s.Equal(1, list.Total)
	s.Len(list.Deals, 1)
}
