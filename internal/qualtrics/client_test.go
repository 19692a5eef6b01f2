package qualtrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qxcli/internal/config"
	apperrors "qxcli/internal/errors"
)

func testCreds() config.QualtricsConfig {
	return config.QualtricsConfig{
		APIToken:   "test-token",
		Datacenter: "pdx1",
		SurveyID:   "SV_0GJhz5bZxqmrWmG",
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(testCreds(),
		WithBaseURL(server.URL),
		WithRateLimit(1000))
	return client, server
}

func writeStartResponse(w http.ResponseWriter, progressID string) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"result": map[string]interface{}{
			"progressId":      progressID,
			"percentComplete": 0.0,
			"status":          StatusInProgress,
		},
		"meta": map[string]interface{}{"httpStatus": "200 - OK", "requestId": "req-1"},
	})
}

func writeProgressResponse(w http.ResponseWriter, percent float64, status, fileID string) {
	result := map[string]interface{}{
		"percentComplete": percent,
		"status":          status,
	}
	if fileID != "" {
		result["fileId"] = fileID
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"result": result,
		"meta":   map[string]interface{}{"httpStatus": "200 - OK", "requestId": "req-2"},
	})
}

func TestNewClient_BaseURL(t *testing.T) {
	client := NewClient(testCreds())
	assert.Equal(t,
		"https://pdx1.qualtrics.com/API/v3/surveys/SV_0GJhz5bZxqmrWmG/export-responses",
		client.baseURL)
}

func TestStartExport(t *testing.T) {
	var gotToken, gotMethod string
	var gotBody ExportRequest

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-API-TOKEN")
		gotMethod = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		writeStartResponse(w, "ES_progress1")
	}))

	progressID, err := client.StartExport(context.Background(), ExportRequest{
		Format:    "csv",
		Compress:  true,
		UseLabels: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "ES_progress1", progressID)
	assert.Equal(t, "test-token", gotToken)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "csv", gotBody.Format)
	assert.True(t, gotBody.Compress)
	assert.True(t, gotBody.UseLabels)
}

func TestStartExport_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantType   apperrors.ErrorType
	}{
		{"unauthorized", http.StatusUnauthorized, apperrors.ErrTypeAuth},
		{"forbidden", http.StatusForbidden, apperrors.ErrTypeAuth},
		{"unknown survey", http.StatusNotFound, apperrors.ErrTypeNotFound},
		{"server error", http.StatusInternalServerError, apperrors.ErrTypeNetwork},
		{"bad gateway", http.StatusBadGateway, apperrors.ErrTypeNetwork},
		{"rate limited", http.StatusTooManyRequests, apperrors.ErrTypeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			_, err := client.StartExport(context.Background(), ExportRequest{Format: "csv"})
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType),
				"expected %s, got %v", tt.wantType, err)
		})
	}
}

func TestStartExport_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on

	client := NewClient(testCreds(), WithBaseURL(server.URL), WithRateLimit(1000))
	_, err := client.StartExport(context.Background(), ExportRequest{Format: "csv"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeNetwork))
}

func TestStartExport_MissingProgressID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{},"meta":{"httpStatus":"200 - OK"}}`)
	}))

	_, err := client.StartExport(context.Background(), ExportRequest{Format: "csv"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestExportProgress(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ES_progress1", r.URL.Path)
		writeProgressResponse(w, 100, StatusComplete, "FILE_1")
	}))

	progress, err := client.ExportProgress(context.Background(), "ES_progress1")
	require.NoError(t, err)

	assert.Equal(t, 100.0, progress.PercentComplete)
	assert.Equal(t, StatusComplete, progress.Status)
	assert.Equal(t, "FILE_1", progress.FileID)
	assert.True(t, progress.Terminal())
	assert.True(t, progress.Complete())
	assert.False(t, progress.Failed())
}

func TestWaitUntilComplete_PollsUntilComplete(t *testing.T) {
	var polls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch polls.Add(1) {
		case 1:
			writeProgressResponse(w, 25, StatusInProgress, "")
		case 2:
			writeProgressResponse(w, 75, StatusInProgress, "")
		default:
			writeProgressResponse(w, 100, StatusComplete, "FILE_1")
		}
	}))

	fileID, err := client.WaitUntilComplete(context.Background(), "ES_progress1",
		5*time.Millisecond, time.Second)
	require.NoError(t, err)

	assert.Equal(t, "FILE_1", fileID)
	// in_progress, in_progress, complete: exactly the polls needed to observe the terminal state
	assert.Equal(t, int32(3), polls.Load())
}

func TestWaitUntilComplete_ExportFailed(t *testing.T) {
	for _, status := range []string{StatusFailed, StatusError} {
		t.Run(status, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeProgressResponse(w, 40, status, "")
			}))

			_, err := client.WaitUntilComplete(context.Background(), "ES_progress1",
				5*time.Millisecond, time.Second)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeExportFailed))
		})
	}
}

func TestWaitUntilComplete_Timeout(t *testing.T) {
	var polls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		writeProgressResponse(w, 10, StatusInProgress, "")
	}))

	_, err := client.WaitUntilComplete(context.Background(), "ES_progress1",
		10*time.Millisecond, 35*time.Millisecond)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTimeout))

	// No further polls after the deadline fired
	observed := polls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, observed, polls.Load())
}

func TestWaitUntilComplete_ToleratesTransientFailures(t *testing.T) {
	var polls atomic.Int32

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if polls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeProgressResponse(w, 100, StatusComplete, "FILE_1")
	}))

	fileID, err := client.WaitUntilComplete(context.Background(), "ES_progress1",
		5*time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "FILE_1", fileID)
}

func TestWaitUntilComplete_FatalPollError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.WaitUntilComplete(context.Background(), "ES_progress1",
		5*time.Millisecond, time.Second)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeAuth))
}

func TestDownloadArchive(t *testing.T) {
	payload := []byte("zip-bytes")

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/FILE_1/file", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-API-TOKEN"))
		w.Write(payload)
	}))

	got, err := client.DownloadArchive(context.Background(), "FILE_1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
