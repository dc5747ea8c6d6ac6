package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskhub-api/internal/models"
	"github.com/yukikurage/taskhub-api/internal/services"
	"go.uber.org/zap"
)

func rawBody(t *testing.T, body string) map[string]json.RawMessage {
	t.Helper()
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	return raw
}

func TestDecodeTaskPatch(t *testing.T) {
	patch, err := decodeTaskPatch(rawBody(t, `{"title":"New","status":"on_hold","unknown":1}`))
	require.NoError(t, err)
	require.NotNil(t, patch.Title)
	assert.Equal(t, "New", *patch.Title)
	require.NotNil(t, patch.Status)
	assert.Equal(t, models.TaskStatusOnHold, *patch.Status)
	assert.Nil(t, patch.Priority)
	assert.False(t, patch.ClearDescription)

	patch, err = decodeTaskPatch(rawBody(t, `{"description":null,"due_date":null,"assigned_to":null}`))
	require.NoError(t, err)
	assert.True(t, patch.ClearDescription)
	assert.True(t, patch.ClearDueDate)
	assert.True(t, patch.ClearAssignee)

	patch, err = decodeTaskPatch(rawBody(t, `{"due_date":"2030-01-02T03:04:05Z","assigned_to":7}`))
	require.NoError(t, err)
	require.NotNil(t, patch.DueDate)
	assert.Equal(t, 2030, patch.DueDate.Year())
	require.NotNil(t, patch.AssignedTo)
	assert.Equal(t, uint64(7), *patch.AssignedTo)

	patch, err = decodeTaskPatch(rawBody(t, `{}`))
	require.NoError(t, err)
	assert.Equal(t, models.TaskPatch{}, patch)
}

func TestDecodeTaskPatch_Invalid(t *testing.T) {
	for _, body := range []string{
		`{"title":null}`,
		`{"status":null}`,
		`{"priority":5}`,
		`{"due_date":"tomorrow"}`,
		`{"assigned_to":"bob"}`,
	} {
		_, err := decodeTaskPatch(rawBody(t, body))
		assert.Error(t, err, body)
	}
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		want int
	}{
		{services.ErrTaskNotFound, http.StatusNotFound},
		{services.ErrUsernameTaken, http.StatusConflict},
		{services.ErrNotTaskCreator, http.StatusForbidden},
		{services.ErrUnauthenticated, http.StatusUnauthorized},
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{fmt.Errorf("%w: %q", services.ErrInvalidStatus, "x"), http.StatusBadRequest},
		{fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, zap.NewNop(), tt.err)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "boom")
			}
		})
	}
}
