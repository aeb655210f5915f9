package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"sahayak/internal/cache"
	"sahayak/internal/classifier"
	"sahayak/internal/config"
	"sahayak/internal/model"
	"sahayak/internal/resources"
	"sahayak/internal/service"
	"sahayak/internal/transport/ws"
)

// In-memory repositories backing the full router stack.

type memSOSRepo struct {
	mu       sync.Mutex
	requests map[string]*model.SOSRequest
	order    []string
}

func newMemSOSRepo() *memSOSRepo {
	return &memSOSRepo{requests: map[string]*model.SOSRequest{}}
}

func (r *memSOSRepo) Create(_ context.Context, req *model.SOSRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = primitive.NewObjectID()
	req.CreatedAt = time.Now()
	id := req.ID.Hex()
	clone := *req
	r.requests[id] = &clone
	r.order = append(r.order, id)
	return id, nil
}

func (r *memSOSRepo) GetByID(_ context.Context, id string) (*model.SOSRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (r *memSOSRepo) GetByTeacherID(_ context.Context, teacherID string, status model.SOSStatus, skip, limit int64) ([]*model.SOSRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SOSRequest
	for _, id := range r.order {
		req := r.requests[id]
		if req.TeacherID != teacherID {
			continue
		}
		if status != "" && req.Status != status {
			continue
		}
		clone := *req
		out = append(out, &clone)
	}
	if skip >= int64(len(out)) {
		return nil, nil
	}
	out = out[skip:]
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memSOSRepo) UpdateContext(_ context.Context, id string, classified model.ClassifiedContext) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		req.Context = classified
	}
	return nil
}

func (r *memSOSRepo) SetProcessing(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		now := time.Now()
		req.Status = model.SOSProcessing
		req.StartedAt = &now
	}
	return nil
}

func (r *memSOSRepo) SetResolved(_ context.Context, id, playbookID string, fromCache bool, elapsed time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		now := time.Now()
		req.Status = model.SOSResolved
		req.PlaybookID = playbookID
		req.FromCache = fromCache
		req.ProcessingMS = elapsed.Milliseconds()
		req.CompletedAt = &now
	}
	return nil
}

func (r *memSOSRepo) SetFailed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		now := time.Now()
		req.Status = model.SOSFailed
		req.CompletedAt = &now
	}
	return nil
}

func (r *memSOSRepo) SaveFeedback(_ context.Context, id string, feedback model.SOSFeedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		req.Feedback = &feedback
	}
	return nil
}

func (r *memSOSRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.requests)), nil
}

func (r *memSOSRepo) CountByStatus(_ context.Context, status model.SOSStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, req := range r.requests {
		if req.Status == status {
			n++
		}
	}
	return n, nil
}

type memPlaybookRepo struct {
	mu    sync.Mutex
	books map[string]*model.Playbook
}

func newMemPlaybookRepo() *memPlaybookRepo {
	return &memPlaybookRepo{books: map[string]*model.Playbook{}}
}

func (r *memPlaybookRepo) Create(_ context.Context, playbook *model.Playbook) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	playbook.ID = primitive.NewObjectID()
	playbook.CreatedAt = time.Now()
	clone := *playbook
	r.books[playbook.ID.Hex()] = &clone
	return playbook.ID.Hex(), nil
}

func (r *memPlaybookRepo) GetByID(_ context.Context, id string) (*model.Playbook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pb, ok := r.books[id]
	if !ok {
		return nil, nil
	}
	clone := *pb
	return &clone, nil
}

func (r *memPlaybookRepo) GetBySOSID(_ context.Context, sosID string) (*model.Playbook, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pb := range r.books {
		if pb.SOSRequestID == sosID {
			clone := *pb
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memPlaybookRepo) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pb, ok := r.books[id]; ok {
		pb.TimesViewed++
	}
	return nil
}

func (r *memPlaybookRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.books)), nil
}

type memMemoryRepo struct {
	mu       sync.Mutex
	memories map[string]*model.ClassroomMemory
}

func newMemMemoryRepo() *memMemoryRepo {
	return &memMemoryRepo{memories: map[string]*model.ClassroomMemory{}}
}

func (r *memMemoryRepo) GetByTeacherID(_ context.Context, teacherID string) (*model.ClassroomMemory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.memories[teacherID], nil
}

func (r *memMemoryRepo) Save(_ context.Context, memory *model.ClassroomMemory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memories[memory.TeacherID] = memory
	return nil
}

type testEnv struct {
	srv *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithAI(t, nil)
}

// newTestEnvWithAI points the generator at aiCfg; nil leaves generation
// unconfigured so every request takes the fallback path.
func newTestEnvWithAI(t *testing.T, aiCfg *config.AIConfig) *testEnv {
	t.Helper()
	t.Setenv("TEACHER_USERNAME", "")
	t.Setenv("TEACHER_PASSWORD", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("GEMINI_API_KEY", "")

	logger := zap.NewNop()
	authSvc := service.NewAuthService()
	if aiCfg == nil {
		aiCfg = config.DefaultAIConfig()
	}
	generator := service.NewGeminiService(aiCfg, logger)
	playbookCache := cache.NewPlaybookCache(nil, time.Hour, logger)
	pedagogySvc := service.NewPedagogyService(
		newMemSOSRepo(), newMemPlaybookRepo(), newMemMemoryRepo(),
		classifier.NewEngine(), generator, resources.NewStaticProvider(),
		playbookCache, logger,
	)

	hub := ws.NewHub(logger)
	pedagogySvc.SetBroadcaster(hub)

	router := NewRouter(&Container{
		AuthService:     authSvc,
		PedagogyService: pedagogySvc,
		WSHub:           hub,
		Logger:          logger,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "teacher", Password: "password123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeList(t *testing.T, resp *http.Response) []map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()
	var out []map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) submitSOS(t *testing.T, token, rawInput string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/v1/sos", token, map[string]string{"rawInput": rawInput})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, "pending", body["status"])
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func (e *testEnv) waitResolved(t *testing.T, token, id string) map[string]interface{} {
	t.Helper()
	var last map[string]interface{}
	require.Eventually(t, func() bool {
		resp := e.do(t, http.MethodGet, "/v1/sos/"+id, token, nil)
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return false
		}
		last = decodeBody(t, resp)
		return last["status"] == "resolved"
	}, 5*time.Second, 20*time.Millisecond)
	return last
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decodeBody(t, resp)["status"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/auth/login", "", model.LoginRequest{Username: "teacher", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid username or password", decodeBody(t, resp)["error"])
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/v1/sos", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "missing authorization header", decodeBody(t, resp)["error"])

	resp = env.do(t, http.MethodGet, "/v1/sos", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid or expired token", decodeBody(t, resp)["error"])
}

func TestSOSLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	id := env.submitSOS(t, token, "Students are completely confused about fractions today")

	resolved := env.waitResolved(t, token, id)
	require.Equal(t, false, resolved["fromCache"])
	ctx, _ := resolved["context"].(map[string]interface{})
	require.Equal(t, "Mathematics", ctx["subject"])

	// First read returns the playbook, views count from the second read on
	resp := env.do(t, http.MethodGet, "/v1/sos/"+id+"/playbook", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	playbook := decodeBody(t, resp)
	require.Equal(t, "Classroom Recovery Strategy", playbook["title"])
	require.Equal(t, id, playbook["sosRequestId"])

	resp = env.do(t, http.MethodGet, "/v1/sos/"+id+"/playbook", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.EqualValues(t, 1, decodeBody(t, resp)["timesViewed"])

	// A different teacher cannot read someone else's request
	otherToken := env.login(t)
	resp = env.do(t, http.MethodGet, "/v1/sos/"+id, otherToken, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Not authorized to view this SOS request", decodeBody(t, resp)["error"])
}

func TestSOSValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/v1/sos", token, map[string]string{"rawInput": "hi"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "rawInput must be between 5 and 2000 characters", decodeBody(t, resp)["error"])

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/v1/sos", strings.NewReader("not json"))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	raw, err := env.srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, raw.StatusCode)
	require.Equal(t, "invalid request body", decodeBody(t, raw)["error"])
}

func TestListSOS(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	first := env.submitSOS(t, token, "Students are too noisy during group work")
	second := env.submitSOS(t, token, "Half the class failed the fractions quiz")
	env.waitResolved(t, token, first)
	env.waitResolved(t, token, second)

	resp := env.do(t, http.MethodGet, "/v1/sos", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeList(t, resp), 2)

	resp = env.do(t, http.MethodGet, "/v1/sos?limit=1", token, nil)
	require.Len(t, decodeList(t, resp), 1)

	resp = env.do(t, http.MethodGet, "/v1/sos?skip=1", token, nil)
	require.Len(t, decodeList(t, resp), 1)

	resp = env.do(t, http.MethodGet, "/v1/sos?status=resolved", token, nil)
	require.Len(t, decodeList(t, resp), 2)

	resp = env.do(t, http.MethodGet, "/v1/sos?status=failed", token, nil)
	require.Len(t, decodeList(t, resp), 0)

	// Unknown status values are ignored, not rejected
	resp = env.do(t, http.MethodGet, "/v1/sos?status=bogus", token, nil)
	require.Len(t, decodeList(t, resp), 2)
}

func TestQuickSOS(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/v1/sos/quick?raw_input=Students+are+sleepy+after+lunch&subject=Science&grade=6", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	require.Equal(t, true, body["success"])
	require.Equal(t, "Science", body["detectedSubject"])
	require.Equal(t, "6", body["detectedGrade"])
	require.Equal(t, false, body["fromCache"])
	require.NotEmpty(t, body["sosId"])
	playbook, _ := body["playbook"].(map[string]interface{})
	require.NotNil(t, playbook)
	require.NotEmpty(t, playbook["title"])

	// An invalid token is treated the same as no token
	resp = env.do(t, http.MethodPost, "/v1/sos/quick?raw_input=Students+are+sleepy+after+lunch", "garbage", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/v1/sos/quick?raw_input=hi", "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "raw_input must be between 5 and 2000 characters", decodeBody(t, resp)["error"])
}

func TestFeedback(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/v1/sos/quick?raw_input=Students+confused+about+fractions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sosID, _ := decodeBody(t, resp)["sosId"].(string)
	require.NotEmpty(t, sosID)

	resp = env.do(t, http.MethodPost, "/v1/sos/"+sosID+"/feedback", token, map[string]interface{}{"worked": true, "rating": 7})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "rating must be between 1 and 5", decodeBody(t, resp)["error"])

	resp = env.do(t, http.MethodPost, "/v1/sos/"+sosID+"/feedback", token, map[string]interface{}{"worked": true, "rating": 5, "text": "Worked well"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Thank you for your feedback!", decodeBody(t, resp)["message"])

	otherToken := env.login(t)
	resp = env.do(t, http.MethodPost, "/v1/sos/"+sosID+"/feedback", otherToken, map[string]interface{}{"worked": false, "rating": 2})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "Not authorized to give feedback on this request", decodeBody(t, resp)["error"])

	missing := primitive.NewObjectID().Hex()
	resp = env.do(t, http.MethodPost, "/v1/sos/"+missing+"/feedback", token, map[string]interface{}{"worked": true, "rating": 4})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "SOS request not found", decodeBody(t, resp)["error"])
}

func TestStatsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/v1/sos/quick?raw_input=Students+confused+about+fractions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/v1/stats/teacher", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeBody(t, resp)
	require.EqualValues(t, 1, stats["totalSosRequests"])
	require.Contains(t, stats["subjectsTaught"], "Mathematics")

	// Overview is public
	resp = env.do(t, http.MethodGet, "/v1/stats/overview", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	overview := decodeBody(t, resp)
	require.EqualValues(t, 1, overview["totalSosRequests"])
	require.EqualValues(t, 1, overview["totalPlaybooksGenerated"])
	require.InDelta(t, 100.0, overview["successRate"], 0.01)

	resp = env.do(t, http.MethodGet, "/v1/stats/cache", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, false, decodeBody(t, resp)["cacheEnabled"])

	resp = env.do(t, http.MethodGet, "/v1/stats/teacher", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestGetSOSMissing(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	missing := primitive.NewObjectID().Hex()
	resp := env.do(t, http.MethodGet, "/v1/sos/"+missing, token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "SOS request not found", decodeBody(t, resp)["error"])

	resp = env.do(t, http.MethodGet, "/v1/sos/"+missing+"/playbook", token, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "SOS request not found", decodeBody(t, resp)["error"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodOptions, "/v1/sos", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	resp.Body.Close()
}

func textBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return strings.TrimSpace(string(raw))
}

func TestWatchSOSRejectsBeforeUpgrade(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	id := env.submitSOS(t, token, "Students are confused about fractions again")
	env.waitResolved(t, token, id)

	resp := env.do(t, http.MethodGet, "/v1/ws/sos/"+id, "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "missing token", textBody(t, resp))

	resp = env.do(t, http.MethodGet, "/v1/ws/sos/"+id+"?token=garbage", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid token", textBody(t, resp))

	otherToken := env.login(t)
	resp = env.do(t, http.MethodGet, "/v1/ws/sos/"+id+"?token="+otherToken, "", nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "not your sos request", textBody(t, resp))

	missing := primitive.NewObjectID().Hex()
	resp = env.do(t, http.MethodGet, "/v1/ws/sos/"+missing+"?token="+token, "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "sos request not found", textBody(t, resp))

	// Authorized plain GET without the websocket handshake headers
	resp = env.do(t, http.MethodGet, "/v1/ws/sos/"+id+"?token="+token, "", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestWatchSOSStreamsResolution(t *testing.T) {
	release := make(chan struct{})
	gemini := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"### Title\nStalled Class Rescue"}]}}]}`)
	}))
	t.Cleanup(gemini.Close)

	env := newTestEnvWithAI(t, &config.AIConfig{
		APIKey:  "test-key",
		BaseURL: gemini.URL,
		Model:   "gemini-2.5-flash",
		Generation: config.GenerationParams{
			Temperature: 0.7, TopP: 0.9, TopK: 40, MaxOutputTokens: 2048,
		},
		TimeoutMS: 5000,
	})
	token := env.login(t)

	// Generation blocks until released, so the watcher attaches in time
	id := env.submitSOS(t, token, "The whole class is stuck on long division")

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/v1/ws/sos/" + id + "?" + url.Values{"token": {token}}.Encode()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	pong := make(chan struct{}, 1)
	conn.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		default:
		}
		return nil
	})

	frames := make(chan ws.Message, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg ws.Message
			if json.Unmarshal(data, &msg) == nil {
				frames <- msg
			}
		}
	}()

	// A pong can only come from the running read pump, which starts after the
	// watcher is registered; release generation only once that is certain.
	require.NoError(t, conn.WriteMessage(websocket.PingMessage, nil))
	select {
	case <-pong:
	case <-time.After(5 * time.Second):
		t.Fatal("no pong from server")
	}

	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never closed after resolution")
	}

	var last ws.Message
	var received bool
drain:
	for {
		select {
		case msg := <-frames:
			last = msg
			received = true
		default:
			break drain
		}
	}

	require.True(t, received, "expected at least one status frame before close")
	require.Equal(t, ws.MsgResolved, last.Type)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(last.Payload, &payload))
	require.NotEmpty(t, payload["playbookId"])
	require.Equal(t, false, payload["fromCache"])
}
