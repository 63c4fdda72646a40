package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/gomoku-backend/internal/entity"
)

type mockAudit struct {
	mock.Mock
}

func (that *mockAudit) ListByChannel(ctx context.Context, channelID string, limit int) ([]entity.AuditRecord, error) {
	args := that.Called(ctx, channelID, limit)
	records, _ := args.Get(0).([]entity.AuditRecord)

	return records, args.Error(1)
}

type noRelay struct{}

func (noRelay) HandleConnection(c *gin.Context) {
	c.Status(http.StatusNotImplemented)
}

func serve(audit auditLister, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	router := NewRouter(logger, noRelay{}, audit, prometheus.NewRegistry())

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))

	return recorder
}

func TestAuditRoute(t *testing.T) {
	t.Run("Lists the records of a room channel", func(t *testing.T) {
		// Given: two lifecycle records of room ABCDE
		createdAt := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
		audit := new(mockAudit)
		audit.On("ListByChannel", mock.Anything, entity.ChannelID("ABCDE"), 10).Return([]entity.AuditRecord{
			{Action: entity.AuditPeerAttached, ChannelID: entity.ChannelID("ABCDE"), PeerID: "guest", CreatedAt: createdAt},
			{Action: entity.AuditChannelOpened, ChannelID: entity.ChannelID("ABCDE"), PeerID: "host", CreatedAt: createdAt},
		}, nil).Once()

		// When: the route is asked with a lower case room id
		recorder := serve(audit, "/rooms/abcde/audit?limit=10")

		// Then: both records come back newest first
		require.Equal(t, http.StatusOK, recorder.Code)

		var body struct {
			Room    string                `json:"room"`
			Records []auditRecordResponse `json:"records"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "ABCDE", body.Room)
		require.Len(t, body.Records, 2)
		assert.Equal(t, string(entity.AuditPeerAttached), body.Records[0].Action)
		assert.Equal(t, "guest", body.Records[0].PeerID)
		assert.True(t, createdAt.Equal(body.Records[1].CreatedAt))
		audit.AssertExpectations(t)
	})

	t.Run("Empty trail is an empty list", func(t *testing.T) {
		audit := new(mockAudit)
		audit.On("ListByChannel", mock.Anything, entity.ChannelID("ABCDE"), defaultAuditLimit).Return(nil, nil).Once()

		recorder := serve(audit, "/rooms/ABCDE/audit")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"room":"ABCDE","records":[]}`, recorder.Body.String())
	})

	t.Run("Bad input", func(t *testing.T) {
		for _, target := range []string{
			"/rooms/AB-1/audit",
			"/rooms/ABCDE/audit?limit=0",
			"/rooms/ABCDE/audit?limit=many",
			"/rooms/ABCDE/audit?limit=100000",
		} {
			audit := new(mockAudit)

			recorder := serve(audit, target)

			assert.Equal(t, http.StatusBadRequest, recorder.Code, target)
			audit.AssertNotCalled(t, "ListByChannel", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("Storage failure", func(t *testing.T) {
		audit := new(mockAudit)
		audit.On("ListByChannel", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

		recorder := serve(audit, "/rooms/ABCDE/audit")

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}
