package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	appErrors "github.com/mindfulpath/practicesite/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	payload := gin.H{"message": "ok"}
	Success(ctx, http.StatusCreated, payload)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d", http.StatusCreated, rec.Code)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.Success {
		t.Fatal("expected success flag to be true")
	}
	if resp.Error != nil {
		t.Fatal("expected no error information")
	}
}

func TestSuccessWithMetaRoundTripsThroughEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	SuccessWithMeta(ctx, http.StatusOK, []string{"a", "b"}, &Meta{Total: 2})

	env, err := ParseEnvelope(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("failed to parse envelope: %v", err)
	}
	if env.Meta == nil || env.Meta.Total != 2 {
		t.Fatal("expected metadata to be serialised")
	}

	var items []string
	if err := env.Decode(&items); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(items) != 2 || items[1] != "b" {
		t.Fatalf("unexpected data %v", items)
	}
}

func TestEnvelopeDecodeWithoutData(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"success":true}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out map[string]any
	if err := env.Decode(&out); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestErrorWithAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Error(ctx, appErrors.ErrMaintenance)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d got %d", http.StatusServiceUnavailable, rec.Code)
	}

	env, err := ParseEnvelope(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Success {
		t.Fatal("expected success to be false")
	}
	if env.Error == nil || env.Error.Code != appErrors.ErrMaintenance.Code {
		t.Fatal("expected maintenance error code in response")
	}
}

func TestErrorWithGenericError(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Error(ctx, errors.New("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d got %d", http.StatusInternalServerError, rec.Code)
	}
}
