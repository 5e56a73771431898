package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"

	"github.com/amoghku/marketplace-pim/internal/commerce"
	"github.com/amoghku/marketplace-pim/internal/config"
	"github.com/amoghku/marketplace-pim/internal/i18n"
	"github.com/amoghku/marketplace-pim/internal/middleware"
	"github.com/amoghku/marketplace-pim/internal/models"
	"github.com/amoghku/marketplace-pim/internal/router"
	"github.com/amoghku/marketplace-pim/internal/services"
	"github.com/amoghku/marketplace-pim/internal/testutil"
)

type RouterTestSuite struct {
	suite.Suite
	store  *testutil.Store
	syncer *testutil.FakeSyncer
	router *gin.Engine

	inr models.Currency
	web models.SalesChannel
}

func (suite *RouterTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	require.NoError(suite.T(), i18n.Initialize())
}

func (suite *RouterTestSuite) SetupTest() {
	suite.store = testutil.NewStore()
	suite.syncer = testutil.NewFakeSyncer()
	suite.inr = suite.store.AddCurrency("INR", "Indian Rupee")
	suite.web = suite.store.AddSalesChannel("Web")
	suite.router = suite.build(nil)
}

func (suite *RouterTestSuite) build(limiter *middleware.RateLimiter) *gin.Engine {
	logger, _ := testutil.NewLogger()
	svcs := services.NewServices(suite.store.Set(), suite.syncer, config.SyncConfig{}, logger)
	return router.Initialize(svcs, &config.Config{}, limiter, logger)
}

func (suite *RouterTestSuite) request(method, path string, body interface{}, headers ...string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewReader(jsonData)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func data(response map[string]interface{}, key string) map[string]interface{} {
	return response["data"].(map[string]interface{})[key].(map[string]interface{})
}

func errorCode(response map[string]interface{}) string {
	return response["error"].(map[string]interface{})["code"].(string)
}

func (suite *RouterTestSuite) createShoes() string {
	w, response := suite.request(http.MethodPost, "/api/categories", map[string]interface{}{
		"name": "Shoes",
		"slug": "shoes",
		"value_per_points": []map[string]interface{}{
			{"currency_id": suite.inr.ID, "sales_channel_id": suite.web.ID, "vpp": "1.5"},
		},
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code)
	return data(response, "category")["id"].(string)
}

func (suite *RouterTestSuite) taskFor(entityID string) string {
	w, response := suite.request(http.MethodGet, "/api/approval-tasks?entity_id="+entityID, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	tasks := response["data"].([]interface{})
	require.Len(suite.T(), tasks, 1)
	return tasks[0].(map[string]interface{})["id"].(string)
}

func (suite *RouterTestSuite) TestHealth() {
	w, response := suite.request(http.MethodGet, "/health", nil)

	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Equal(suite.T(), "healthy", response["status"])
	assert.Equal(suite.T(), router.Version, response["version"])
	assert.Equal(suite.T(), false, response["sync_disabled"])
}

func (suite *RouterTestSuite) TestCreateCategory() {
	t := suite.T()
	w, response := suite.request(http.MethodPost, "/api/categories", map[string]interface{}{
		"name":            "Shoes",
		"slug":            "shoes",
		"workflow_status": "approved",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, response["success"].(bool))
	category := data(response, "category")
	assert.Equal(t, "ready_for_review", category["workflow_status"])
	assert.Equal(t, "not_synced", category["sync_status"])
	assert.Equal(t, "Category created and sent for review", response["data"].(map[string]interface{})["message"])
}

func (suite *RouterTestSuite) TestApproveSyncsCategory() {
	t := suite.T()
	id := suite.createShoes()
	taskID := suite.taskFor(id)

	w, response := suite.request(http.MethodPut, "/api/approval-tasks/"+taskID+"/approve", map[string]string{"reviewer_notes": "ok"})
	require.Equal(t, http.StatusOK, w.Code)
	task := data(response, "approval_task")
	assert.Equal(t, "approved", task["workflow_status"])
	assert.NotNil(t, task["decision_at"])

	w, response = suite.request(http.MethodGet, "/api/categories/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	category := data(response, "category")
	assert.Equal(t, "approved", category["workflow_status"])
	assert.Equal(t, "synced", category["sync_status"])
	assert.Len(t, suite.syncer.Calls(), 1)

	// Approved tasks are final.
	w, response = suite.request(http.MethodPut, "/api/approval-tasks/"+taskID+"/reject", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(response))

	w, response = suite.request(http.MethodPost, "/api/categories/"+id+"/sync", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, response["data"].(map[string]interface{})["result"].(map[string]interface{})["ok"])
}

func (suite *RouterTestSuite) TestManualSyncOfUnapprovedCategory() {
	id := suite.createShoes()

	w, response := suite.request(http.MethodPost, "/api/categories/"+id+"/sync", nil)

	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Equal(suite.T(), "SYNC_NOT_ATTEMPTED", errorCode(response))
	assert.Empty(suite.T(), suite.syncer.Calls())
}

func (suite *RouterTestSuite) TestManualSyncFailure() {
	t := suite.T()
	id := suite.createShoes()
	suite.syncer.Result = commerce.Result{OK: false, Status: 401, Error: "Invalid sync secret"}

	w, _ := suite.request(http.MethodPut, "/api/approval-tasks/"+suite.taskFor(id)+"/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, response := suite.request(http.MethodPost, "/api/categories/"+id+"/sync", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "SYNC_FAILED", errorCode(response))

	_, response = suite.request(http.MethodGet, "/api/categories/"+id, nil)
	category := data(response, "category")
	assert.Equal(t, "error", category["sync_status"])
	assert.Equal(t, "Invalid sync secret", category["sync_error"])
}

func (suite *RouterTestSuite) TestInvalidAndMissingIDs() {
	t := suite.T()

	w, response := suite.request(http.MethodGet, "/api/categories/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, response["success"].(bool))

	w, response = suite.request(http.MethodGet, "/api/collections/3f2504e0-4f89-41d3-9a0c-0305e82c3301", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(response))

	w, _ = suite.request(http.MethodPost, "/api/collections/3f2504e0-4f89-41d3-9a0c-0305e82c3301/sync", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = suite.request(http.MethodPut, "/api/approval-tasks/3f2504e0-4f89-41d3-9a0c-0305e82c3301/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *RouterTestSuite) TestValidationErrors() {
	t := suite.T()

	w, response := suite.request(http.MethodPost, "/api/categories", map[string]interface{}{"name": "Shoes", "slug": "Bad Slug"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(response))

	w, response = suite.request(http.MethodPost, "/api/categories", map[string]interface{}{
		"name": "Shoes",
		"value_per_points": []map[string]interface{}{
			{"currency_id": suite.inr.ID, "sales_channel_id": suite.web.ID, "vpp": -2},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", errorCode(response))

	w, _ = suite.request(http.MethodPost, "/api/collections", map[string]interface{}{
		"name":            "Backwards",
		"scheduled_start": "2024-06-02T00:00:00Z",
		"scheduled_end":   "2024-06-01T00:00:00Z",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestDuplicateSlugConflict() {
	t := suite.T()
	suite.createShoes()

	w, response := suite.request(http.MethodPost, "/api/categories", map[string]string{"name": "More shoes", "slug": "shoes"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(response))
	assert.Equal(t, "Slug is already in use", response["error"].(map[string]interface{})["message"])
}

func (suite *RouterTestSuite) TestListCategoriesPaginates() {
	t := suite.T()
	for _, name := range []string{"alpha", "beta", "gamma"} {
		w, _ := suite.request(http.MethodPost, "/api/categories", map[string]string{"name": name, "slug": name})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, response := suite.request(http.MethodGet, "/api/categories?limit=2&page=2&workflow_status=ready_for_review", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get("X-Total-Count"))
	assert.Len(t, response["data"], 1)
	pagination := response["meta"].(map[string]interface{})["pagination"].(map[string]interface{})
	assert.Equal(t, float64(2), pagination["total_pages"])

	_, response = suite.request(http.MethodGet, "/api/categories?workflow_status=approved", nil)
	assert.Empty(t, response["data"])
}

func (suite *RouterTestSuite) TestLocalizedMessages() {
	w, response := suite.request(http.MethodPost, "/api/categories", map[string]string{"name": "Shoes", "slug": "shoes"},
		"Accept-Language", "zh-TW")

	require.Equal(suite.T(), http.StatusCreated, w.Code)
	message := response["data"].(map[string]interface{})["message"].(string)
	assert.NotEqual(suite.T(), "Category created and sent for review", message)
	assert.NotEmpty(suite.T(), message)
}

func (suite *RouterTestSuite) TestReferenceTables() {
	t := suite.T()

	w, response := suite.request(http.MethodPost, "/api/currencies", map[string]string{"code": "usd", "name": "US Dollar"})
	require.Equal(t, http.StatusCreated, w.Code)
	currency := data(response, "currency")
	assert.Equal(t, "USD", currency["code"])

	w, response = suite.request(http.MethodPut, "/api/currencies/"+currency["id"].(string), map[string]string{"symbol": "$"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "$", data(response, "currency")["symbol"])

	w, response = suite.request(http.MethodGet, "/api/currencies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, response["data"], 2)

	w, _ = suite.request(http.MethodDelete, "/api/currencies/"+currency["id"].(string), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = suite.request(http.MethodPost, "/api/currencies", map[string]string{"code": "dollars"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *RouterTestSuite) TestWriteRateLimit() {
	suite.router = suite.build(middleware.NewRateLimiter(rate.Limit(0.001), 1))

	w, _ := suite.request(http.MethodPost, "/api/sales-channels", map[string]string{"name": "App"})
	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	w, response := suite.request(http.MethodPost, "/api/sales-channels", map[string]string{"name": "Kiosk"})
	assert.Equal(suite.T(), http.StatusTooManyRequests, w.Code)
	assert.Equal(suite.T(), "RATE_LIMITED", errorCode(response))

	w, _ = suite.request(http.MethodGet, "/api/sales-channels", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
