package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"history-tutor/internal/models"
)

type fakePipeline struct {
	answer    string
	err       error
	lastMode  models.Mode
	histories []string
}

func (f *fakePipeline) Run(_ context.Context, _ string, mode models.Mode, history string) (string, error) {
	f.lastMode = mode
	f.histories = append(f.histories, history)
	return f.answer, f.err
}

type fakeUploader struct {
	success bool
	message string
}

func (f *fakeUploader) IngestDocument(context.Context, []byte, string) (bool, string) {
	return f.success, f.message
}

type fakeAnalyzer struct{}

func (fakeAnalyzer) Describe(context.Context, []byte) string { return "A Panzer II light tank." }

func newTestServer(p *fakePipeline, u *fakeUploader) *httptest.Server {
	return httptest.NewServer(NewServer(p, u, fakeAnalyzer{}).Router())
}

func postAsk(t *testing.T, srv *httptest.Server, body map[string]string) (*http.Response, askResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/api/ask", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	var out askResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	return resp, out
}

func TestAskReturnsAnswerAndSession(t *testing.T) {
	p := &fakePipeline{answer: "The war began in 1939."}
	srv := newTestServer(p, &fakeUploader{})
	defer srv.Close()

	resp, out := postAsk(t, srv, map[string]string{"question": "When did WW2 start?", "mode": "Regular answer"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "The war began in 1939.", out.Answer)
	assert.NotEmpty(t, out.SessionID)
	assert.Equal(t, models.ModeRegularAnswer, p.lastMode)
}

func TestAskThreadsHistoryThroughSession(t *testing.T) {
	p := &fakePipeline{answer: "It was the Normandy invasion."}
	srv := newTestServer(p, &fakeUploader{})
	defer srv.Close()

	_, first := postAsk(t, srv, map[string]string{"question": "What was D-Day?"})
	_, second := postAsk(t, srv, map[string]string{"question": "When?", "session_id": first.SessionID})

	assert.Equal(t, first.SessionID, second.SessionID)
	require.Len(t, p.histories, 2)
	assert.Empty(t, p.histories[0])
	assert.Contains(t, p.histories[1], "User: What was D-Day?")
	assert.Contains(t, p.histories[1], "Assistant: It was the Normandy invasion.")
}

func TestAskQuizMode(t *testing.T) {
	p := &fakePipeline{answer: "Q1...\n\nAnswers: ..."}
	srv := newTestServer(p, &fakeUploader{})
	defer srv.Close()

	resp, out := postAsk(t, srv, map[string]string{"question": "quiz me", "mode": "Quiz"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.ModeQuiz, p.lastMode)
	assert.Equal(t, "Quiz", out.Mode)
}

func TestAskRejectsMissingQuestion(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, &fakeUploader{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader(`{"mode":"Summary"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskRejectsUnknownMode(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, &fakeUploader{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader(`{"question":"hi","mode":"sonnet"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAskPipelineFailureKeepsHistoryClean(t *testing.T) {
	p := &fakePipeline{err: fmt.Errorf("generation unreachable")}
	srv := newTestServer(p, &fakeUploader{})
	defer srv.Close()

	payload := `{"question":"hello"}`
	resp, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	// retry: the failed turn must not have been recorded
	p.err = nil
	p.answer = "recovered"
	resp2, err := http.Post(srv.URL+"/api/ask", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	resp2.Body.Close()
	require.Len(t, p.histories, 2)
	assert.Empty(t, p.histories[1])
}

func uploadFile(t *testing.T, srv *httptest.Server, path, filename, content string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+path, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func TestDocumentUpload(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, &fakeUploader{success: true, message: "Added 2 chunks from notes.txt to the knowledge base."})
	defer srv.Close()

	resp := uploadFile(t, srv, "/api/documents", "notes.txt", "a\n\nb")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
}

func TestDocumentUploadFailure(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, &fakeUploader{success: false, message: "No text could be extracted from empty.txt."})
	defer srv.Close()

	resp := uploadFile(t, srv, "/api/documents", "empty.txt", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var out uploadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Message)
}

func TestImageUpload(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, &fakeUploader{})
	defer srv.Close()

	resp := uploadFile(t, srv, "/api/images", "tank.jpg", "\xff\xd8\xff")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "A Panzer II light tank.", out["description"])
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&fakePipeline{}, &fakeUploader{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
