package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"backend/internal/matcher"
	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"
)

// stubDetectionService records which operations were reached. Handlers must
// stop forbidden roles before the service is touched.
type stubDetectionService struct {
	calls []string
}

func (s *stubDetectionService) record(op string) *models.DetectionResult {
	s.calls = append(s.calls, op)
	return &models.DetectionResult{ID: 1, Status: models.DetectionPending}
}

func (s *stubDetectionService) Evaluate(patternID int64, content string) (*models.DetectionPattern, matcher.Result, error) {
	s.calls = append(s.calls, "evaluate")
	return &models.DetectionPattern{ID: patternID}, matcher.Result{}, nil
}

func (s *stubDetectionService) CreateFromContent(pattern *models.DetectionPattern, platform *models.Platform, content *models.CollectedContent) (*models.DetectionResult, error) {
	return s.record("create"), nil
}

func (s *stubDetectionService) Get(id int64) (*models.DetectionResult, error) {
	return s.record("get"), nil
}

func (s *stubDetectionService) List(filter repository.DetectionFilter) ([]*models.DetectionResult, error) {
	return []*models.DetectionResult{s.record("list")}, nil
}

func (s *stubDetectionService) Assign(detectionID, userID int64) (*models.DetectionResult, error) {
	return s.record("assign"), nil
}

func (s *stubDetectionService) Review(detectionID, reviewerID int64, status string) (*models.DetectionResult, error) {
	return s.record("review"), nil
}

func (s *stubDetectionService) Escalate(detectionID, userID int64) (*models.DetectionResult, error) {
	return s.record("escalate"), nil
}

func (s *stubDetectionService) MarkFalsePositive(detectionID, reviewerID int64) (*models.DetectionResult, error) {
	return s.record("false_positive"), nil
}

func (s *stubDetectionService) Resolve(detectionID, userID int64) (*models.DetectionResult, error) {
	return s.record("resolve"), nil
}

var _ service.DetectionService = (*stubDetectionService)(nil)

func detectionContext(t *testing.T, role, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Set("user_id", int64(3))
	c.Set("role", role)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestResolveRequiresCapability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role       string
		wantStatus int
	}{
		{models.RoleViewer, http.StatusForbidden},
		{models.RoleMonitor, http.StatusForbidden},
		{models.RoleAnalyst, http.StatusForbidden},
		{models.RoleInvestigator, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.role, func(t *testing.T) {
			t.Parallel()

			stub := &stubDetectionService{}
			h := NewDetectionHandler(stub, zap.NewNop())
			c, w := detectionContext(t, tt.role, "")

			h.Resolve(c)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Empty(t, stub.calls, "forbidden roles must not reach the service")
			} else {
				assert.Equal(t, []string{"resolve"}, stub.calls)
			}
		})
	}
}

func TestAssignRequiresCapability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role       string
		wantStatus int
	}{
		{models.RoleViewer, http.StatusForbidden},
		{models.RoleMonitor, http.StatusForbidden},
		{models.RoleInvestigator, http.StatusForbidden},
		{models.RoleAnalyst, http.StatusOK},
		{models.RoleAdmin, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.role, func(t *testing.T) {
			t.Parallel()

			stub := &stubDetectionService{}
			h := NewDetectionHandler(stub, zap.NewNop())
			c, w := detectionContext(t, tt.role, `{"user_id": 7}`)

			h.Assign(c)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Empty(t, stub.calls, "forbidden roles must not reach the service")
			} else {
				assert.Equal(t, []string{"assign"}, stub.calls)
			}
		})
	}
}

func TestEscalateRequiresCapability(t *testing.T) {
	t.Parallel()

	stub := &stubDetectionService{}
	h := NewDetectionHandler(stub, zap.NewNop())

	c, w := detectionContext(t, models.RoleViewer, "")
	h.Escalate(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, stub.calls)

	c, w = detectionContext(t, models.RoleInvestigator, "")
	h.Escalate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"escalate"}, stub.calls)
}
