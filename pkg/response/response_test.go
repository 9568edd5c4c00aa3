package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code int
		want int
	}{
		{CodeSuccess, http.StatusOK},
		{CodeInvalidRequest, http.StatusBadRequest},
		{CodeInvalidToken, http.StatusUnauthorized},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeAccountLocked, http.StatusForbidden},
		{CodeInvalidTransition, http.StatusConflict},
		{CodeSupplierNotFound, http.StatusNotFound},
		{CodePermissionNotFound, http.StatusNotFound},
		{CodeSupplierExists, http.StatusConflict},
		{CodeTooManyReq, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := codeToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("codeToHTTPStatus(%d) = %d, 期望 %d", tt.code, got, tt.want)
		}
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, CodeSupplierNotFound)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeSupplierNotFound, resp.Code)
	assert.Equal(t, "供应商不存在", resp.Msg)
	assert.Equal(t, "未知错误", Message(12345))
}

func TestActionResponses(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	ActionSuccess(c)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	ActionData(c, gin.H{"total": 0})
	assert.JSONEq(t, `{"success":true,"data":{"total":0}}`, w.Body.String())

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	ActionError(c, http.StatusForbidden, "需要管理员权限")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"需要管理员权限"}`, w.Body.String())
	assert.True(t, c.IsAborted())
}
