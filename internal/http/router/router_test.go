package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm_backend/internal/auth"
	"crm_backend/internal/customers"
	dealsrepo "crm_backend/internal/deals/repository"
	"crm_backend/internal/domain"
	apphttp "crm_backend/internal/http"
	"crm_backend/internal/http/router"
	"crm_backend/internal/scoring"
	"crm_backend/internal/segmentation"
	"crm_backend/platform/cache"
	"crm_backend/platform/db"
	"crm_backend/platform/db/dbtest"
	"crm_backend/platform/events/eventstest"
	"crm_backend/platform/logger"
	"crm_backend/platform/phone"
)

type testConfig struct{}

func (testConfig) GetHTTPAddr() string              { return ":0" }
func (testConfig) GetCORSAllowAll() bool            { return true }
func (testConfig) GetCORSOrigins() []string         { return nil }
func (testConfig) GetCORSAllowCreds() bool          { return false }
func (testConfig) GetJWTAccessSecret() string       { return "router-test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := dbtest.Open(t)
	log := logger.NewWithWriter("test", io.Discard)
	bus := &eventstest.Recorder{}
	val := domain.NewValidator()

	authModule, err := auth.NewModule(conn, testConfig{}, val, log)
	require.NoError(t, err)
	customersModule := customers.NewModule(conn, val, bus, phone.NewNormalizer("US"), log)
	scoringModule := scoring.NewModule(conn, val, bus, nil, log)
	segmentationModule := segmentation.NewModule(customersModule.Repository(), dealsrepo.New(conn), cache.Nop{}, 0, bus, log)

	return router.New(&apphttp.App{
		Config:   testConfig{},
		Logger:   log,
		Health:   db.NewHealthAdapter(conn),
		EventBus: bus,
		Modules:  []apphttp.Module{authModule, customersModule, scoringModule, segmentationModule},
	})
}

func do(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, engine *gin.Engine) string {
	t.Helper()
	creds := map[string]string{"username": "operator", "password": "s3cretpass"}
	rec := do(t, engine, http.MethodPost, "/api/v1/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, engine, http.MethodPost, "/api/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestHealthEndpoints(t *testing.T) {
	engine := newEngine(t)

	rec := do(t, engine, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, engine, http.MethodGet, "/api/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	engine := newEngine(t)

	rec := do(t, engine, http.MethodGet, "/api/v1/customers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, engine, http.MethodGet, "/api/v1/customers", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCustomerScoringFlow(t *testing.T) {
	engine := newEngine(t)
	token := login(t, engine)

	rec := do(t, engine, http.MethodPost, "/api/v1/customers", token, map[string]any{
		"name":        "Ada Lovelace",
		"email":       "ada@example.com",
		"companySize": 250,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID        string `json:"id"`
		Status    string `json:"status"`
		LeadScore int    `json:"leadScore"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Lead", created.Status)
	assert.Equal(t, 0, created.LeadScore)

	rec = do(t, engine, http.MethodPost, "/api/v1/customers", token, map[string]any{
		"name":  "Impostor",
		"email": "ADA@example.com",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	var errBody struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errBody))
	assert.Equal(t, "duplicate_identity", errBody.Code)

	rec = do(t, engine, http.MethodPost, "/api/v1/lead-scoring/run", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var run struct {
		Scored int `json:"scored"`
		Scores []struct {
			CustomerID string `json:"customerId"`
			LeadScore  int    `json:"leadScore"`
		} `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, 1, run.Scored)
	require.Len(t, run.Scores, 1)
	assert.Equal(t, created.ID, run.Scores[0].CustomerID)
	assert.Equal(t, 20, run.Scores[0].LeadScore)

	rec = do(t, engine, http.MethodPost, "/api/v1/lead-scoring/run?async=true", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no worker queue is configured")

	rec = do(t, engine, http.MethodGet, "/api/v1/segmentation", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Low Value")
}
