package httpapi_test

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"articlelens/internal/apperror"
	"articlelens/internal/article"
	"articlelens/internal/httpapi"
	"articlelens/internal/illustrator"
	"articlelens/internal/pipeline"
	"articlelens/internal/prompts"
	"articlelens/internal/summarizer"
)

const articleHTML = `<html><head><title>Lighthouses</title><script>track()</script></head>
<body><article><h1>Lighthouses</h1><p>Lighthouses guide ships along dangerous coasts.</p></article></body></html>`

// fakeUpstream records calls made to one of the fake backends.
type fakeUpstream struct {
	mu      sync.Mutex
	calls   int
	bodies  []string
	handler http.HandlerFunc
}

func (f *fakeUpstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls++
	f.bodies = append(f.bodies, string(raw))
	f.mu.Unlock()

	f.handler(w, r)
}

func (f *fakeUpstream) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func (f *fakeUpstream) lastBody() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.bodies) == 0 {
		return ""
	}

	return f.bodies[len(f.bodies)-1]
}

func completionWith(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func completionContent(content string) string {
	raw, _ := json.Marshal(content)

	return `{"id": "gen", "object": "chat.completion", "created": 1, "model": "deepseek/deepseek-chat",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": ` + string(raw) + `}}]}`
}

type scenario struct {
	siteURL    string
	site       *fakeUpstream
	completion *fakeUpstream
	images     *fakeUpstream
	router     *gin.Engine
}

func newScenario(t *testing.T, site, completion, images http.HandlerFunc) *scenario {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sc := &scenario{
		site:       &fakeUpstream{handler: site},
		completion: &fakeUpstream{handler: completion},
		images:     &fakeUpstream{handler: images},
	}

	siteSrv := httptest.NewServer(sc.site)
	t.Cleanup(siteSrv.Close)
	completionSrv := httptest.NewServer(sc.completion)
	t.Cleanup(completionSrv.Close)
	imageSrv := httptest.NewServer(sc.images)
	t.Cleanup(imageSrv.Close)

	log := discardLogger()

	p := pipeline.New(
		article.NewFetcher(siteSrv.Client(), log),
		summarizer.NewOpenAISummarizer(summarizer.OpenAIConfig{
			APIKey:  "or-key",
			BaseURL: completionSrv.URL + "/api/v1",
			Timeout: 5 * time.Second,
			Prompts: prompts.NewBuilder(""),
		}, log),
		illustrator.NewHuggingFaceIllustrator(illustrator.HuggingFaceConfig{
			APIKey:  "hf-key",
			BaseURL: imageSrv.URL,
			Timeout: 5 * time.Second,
		}, log),
		log,
	)

	sc.siteURL = siteSrv.URL
	sc.router = httpapi.NewServer(p, log).Router()

	return sc
}

func (sc *scenario) post(t *testing.T, path string, mode string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()

	payload, err := json.Marshal(map[string]string{"url": sc.siteURL + "/article", "mode": mode})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	sc.router.ServeHTTP(w, req)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())

	return w, body
}

func serveHTML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, articleHTML)
}

func unexpected(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call to %s", r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	}
}

func TestScenarioFetchForbidden(t *testing.T) {
	sc := newScenario(t,
		func(w http.ResponseWriter, _ *http.Request) { http.Error(w, "Forbidden", http.StatusForbidden) },
		unexpected(t),
		unexpected(t),
	)

	w, body := sc.post(t, "/api/article", "about")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, map[string]string{"error": apperror.FetchFailed.UserMessage()}, body)
	assert.Equal(t, 0, sc.completion.callCount())
	assert.NotContains(t, w.Body.String(), "403")
}

func TestScenarioCompletionServerError(t *testing.T) {
	sc := newScenario(t,
		serveHTML,
		completionWith(http.StatusInternalServerError, `{"error": {"message": "db cluster eu-3 exploded"}}`),
		unexpected(t),
	)

	w, body := sc.post(t, "/api/article", "about")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]string{"error": apperror.UpstreamError.UserMessage()}, body)
	assert.NotContains(t, w.Body.String(), "exploded")
	assert.Equal(t, 1, sc.completion.callCount())
}

func TestScenarioCompletionNoChoices(t *testing.T) {
	sc := newScenario(t,
		serveHTML,
		completionWith(http.StatusOK, `{"id": "gen", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`),
		unexpected(t),
	)

	w, body := sc.post(t, "/api/article", "telegram")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, map[string]string{"error": apperror.EmptyCompletion.UserMessage()}, body)
}

func TestScenarioThesisSuccess(t *testing.T) {
	sc := newScenario(t,
		serveHTML,
		completionWith(http.StatusOK, completionContent("\n  1. Lighthouses guide ships.\n2. Coasts are dangerous.  \n")),
		unexpected(t),
	)

	w, body := sc.post(t, "/api/article", "thesis")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"result": "1. Lighthouses guide ships.\n2. Coasts are dangerous."}, body)

	sent := sc.completion.lastBody()
	assert.Contains(t, sent, "Lighthouses guide ships along dangerous coasts.")
	assert.NotContains(t, sent, "track()")
}

func TestScenarioIllustrationSuccess(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0}
	imagePrompt := "A tall lighthouse on a rocky coast at night, beam cutting through fog"

	sc := newScenario(t,
		serveHTML,
		completionWith(http.StatusOK, completionContent(imagePrompt)),
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(png)
		},
	)

	w, body := sc.post(t, "/api/illustration", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, base64.StdEncoding.EncodeToString(png), body["imageBase64"])

	var imageRequest struct {
		Inputs string `json:"inputs"`
	}
	require.NoError(t, json.Unmarshal([]byte(sc.images.lastBody()), &imageRequest))
	assert.Equal(t, imagePrompt, imageRequest.Inputs)
	assert.NotContains(t, imageRequest.Inputs, "Lighthouses guide ships along dangerous coasts.")
}

func TestScenarioIllustrationPromptFailureSkipsImageBackend(t *testing.T) {
	sc := newScenario(t,
		serveHTML,
		completionWith(http.StatusBadGateway, `{"error": {"message": "upstream"}}`),
		unexpected(t),
	)

	w, body := sc.post(t, "/api/article", "illustration")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.UpstreamError.UserMessage(), body["error"])
	assert.Equal(t, 0, sc.images.callCount())
}

func TestScenarioIllustrationImageFailure(t *testing.T) {
	sc := newScenario(t,
		serveHTML,
		completionWith(http.StatusOK, completionContent("a prompt")),
		func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			_, _ = io.WriteString(w, `{"error": "You have exceeded your monthly included credits"}`)
		},
	)

	w, body := sc.post(t, "/api/article", "illustration")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.ImageGenerationFailed.UserMessage(), body["error"])
	assert.NotContains(t, w.Body.String(), "credits")
}
