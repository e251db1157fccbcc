package testutil

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"reqtester/pkg/tester"
)

// FakeBackend is an in-memory test-runner backend speaking the REST contract.
// Result payloads are scripted per session; the last scripted payload is
// served repeatedly once the script is exhausted.
type FakeBackend struct {
	mu           sync.Mutex
	systemPrompt string
	defaultModel string
	sessions     map[string]*fakeSession
	order        []string
	queued       [][]tester.ResultsResponse
	nextIDs      []string
	submits      []tester.TestRequest
	deletes      []string
	failDeletes  map[string]bool
	failResults  map[string]int
	failSessions bool
	submitGate   chan struct{}
	now          func() time.Time
}

type fakeSession struct {
	id        string
	status    tester.SessionStatus
	timestamp time.Time
	script    []tester.ResultsResponse
	served    int
	gets      int
}

// NewFakeBackend constructs an empty fake backend.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{
		systemPrompt: "你是一个智能助手",
		defaultModel: "qwen3-coder-plus",
		sessions:     make(map[string]*fakeSession),
		failDeletes:  make(map[string]bool),
		failResults:  make(map[string]int),
		now:          time.Now,
	}
}

// SetDefaults overrides the bootstrap values served by the backend.
func (b *FakeBackend) SetDefaults(systemPrompt, defaultModel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.systemPrompt = systemPrompt
	b.defaultModel = defaultModel
}

// QueueSession scripts the result payloads for the next submitted session.
func (b *FakeBackend) QueueSession(script ...tester.ResultsResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queued = append(b.queued, script)
}

// QueueSessionID fixes the id assigned to the next submitted session.
func (b *FakeBackend) QueueSessionID(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextIDs = append(b.nextIDs, id)
}

// AddSession registers an existing session with a result script.
func (b *FakeBackend) AddSession(id string, status tester.SessionStatus, script ...tester.ResultsResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addSessionLocked(id, status, script)
}

// FailResults makes the next n result fetches for a session return 500.
func (b *FakeBackend) FailResults(id string, n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failResults[id] = n
}

// FailDelete makes deletes of the session return 500.
func (b *FakeBackend) FailDelete(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failDeletes[id] = true
}

// FailSessions makes GET /sessions return 500.
func (b *FakeBackend) FailSessions(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failSessions = fail
}

// HoldSubmits blocks POST /test until the returned release func is called.
func (b *FakeBackend) HoldSubmits() func() {
	gate := make(chan struct{})
	b.mu.Lock()
	b.submitGate = gate
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Submits returns the test requests received so far.
func (b *FakeBackend) Submits() []tester.TestRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]tester.TestRequest(nil), b.submits...)
}

// Deletes returns the session ids that deletion was attempted for.
func (b *FakeBackend) Deletes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deletes...)
}

// ResultGets reports how many result fetches a session received.
func (b *FakeBackend) ResultGets(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if session, ok := b.sessions[id]; ok {
		return session.gets
	}
	return 0
}

// SessionIDs lists the sessions currently stored, oldest first.
func (b *FakeBackend) SessionIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.order...)
}

// Handler builds the gin engine serving the REST contract.
func (b *FakeBackend) Handler() http.Handler {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/system-prompt", b.handleSystemPrompt)
	router.GET("/default-model", b.handleDefaultModel)
	router.GET("/config", b.handleConfig)
	router.GET("/health", b.handleHealth)
	router.POST("/test", b.handleSubmit)
	router.GET("/results/:id", b.handleResults)
	router.GET("/sessions", b.handleSessions)
	router.DELETE("/delete/:id", b.handleDelete)
	return router
}

func (b *FakeBackend) handleSystemPrompt(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, tester.SystemPromptResponse{SystemPrompt: b.systemPrompt})
}

func (b *FakeBackend) handleDefaultModel(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, tester.DefaultModelResponse{DefaultModel: b.defaultModel})
}

func (b *FakeBackend) handleConfig(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, tester.ServerConfig{
		APIURL:             "http://llm.invalid/v1",
		AvailableModels:    []string{b.defaultModel, "gpt-4o-mini"},
		DefaultModel:       b.defaultModel,
		DefaultTemperature: 0.7,
		DefaultMaxTokens:   2000,
		MaxRequestCount:    20,
		RequestTimeout:     300,
	})
}

func (b *FakeBackend) handleHealth(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c.JSON(http.StatusOK, tester.Health{Status: "ok", ActiveSessions: len(b.sessions), Version: "1.0.0"})
}

func (b *FakeBackend) handleSubmit(c *gin.Context) {
	var req tester.TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	b.mu.Lock()
	gate := b.submitGate
	b.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-c.Request.Context().Done():
			return
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if req.Count > 20 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "请求次数不能超过 20 次"})
		return
	}
	b.submits = append(b.submits, req)
	id := uuid.NewString()
	if len(b.nextIDs) > 0 {
		id = b.nextIDs[0]
		b.nextIDs = b.nextIDs[1:]
	}
	var script []tester.ResultsResponse
	if len(b.queued) > 0 {
		script = b.queued[0]
		b.queued = b.queued[1:]
	} else {
		script = []tester.ResultsResponse{CompletedResponse(req.Count)}
	}
	b.addSessionLocked(id, tester.StatusRunning, script)
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": id, "message": "accepted"})
}

func (b *FakeBackend) handleResults(c *gin.Context) {
	id := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	session, ok := b.sessions[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "会话不存在"})
		return
	}
	session.gets++
	if remaining := b.failResults[id]; remaining > 0 {
		b.failResults[id] = remaining - 1
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "results unavailable"})
		return
	}
	if len(session.script) == 0 {
		c.JSON(http.StatusOK, tester.ResultsResponse{SessionID: id, Status: session.status})
		return
	}
	idx := session.served
	if idx >= len(session.script) {
		idx = len(session.script) - 1
	} else {
		session.served++
	}
	res := session.script[idx]
	res.SessionID = id
	session.status = res.Status
	c.JSON(http.StatusOK, res)
}

func (b *FakeBackend) handleSessions(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failSessions {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "sessions unavailable"})
		return
	}
	out := make([]tester.SessionSummary, 0, len(b.order))
	for _, id := range b.order {
		session := b.sessions[id]
		out = append(out, tester.SessionSummary{
			SessionID: session.id,
			Status:    session.status,
			Timestamp: session.timestamp.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, tester.SessionsResponse{Sessions: out})
}

func (b *FakeBackend) handleDelete(c *gin.Context) {
	id := c.Param("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deletes = append(b.deletes, id)
	if b.failDeletes[id] {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "删除失败"})
		return
	}
	if _, ok := b.sessions[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "会话不存在"})
		return
	}
	delete(b.sessions, id)
	for i, existing := range b.order {
		if existing == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "已删除会话 " + id + " 的结果"})
}

func (b *FakeBackend) addSessionLocked(id string, status tester.SessionStatus, script []tester.ResultsResponse) {
	if _, exists := b.sessions[id]; !exists {
		b.order = append(b.order, id)
	}
	b.sessions[id] = &fakeSession{
		id:        id,
		status:    status,
		timestamp: b.now(),
		script:    script,
	}
}

// CompletedResponse builds a completed payload with count successful results.
func CompletedResponse(count int) tester.ResultsResponse {
	results := make([]tester.RawResult, 0, count)
	for i := 0; i < count; i++ {
		results = append(results, SuccessResult(i+1, "ok", 0.5))
	}
	return tester.ResultsResponse{
		Status:    tester.StatusCompleted,
		Completed: count,
		Total:     count,
		Results:   results,
	}
}

// RunningResponse builds an in-progress payload.
func RunningResponse(completed, total int, results ...tester.RawResult) tester.ResultsResponse {
	return tester.ResultsResponse{
		Status:    tester.StatusRunning,
		Completed: completed,
		Total:     total,
		Results:   results,
	}
}

// SuccessResult builds a successful result with structured content.
func SuccessResult(index int, content string, duration float64) tester.RawResult {
	return tester.RawResult{
		Index:    index,
		Success:  true,
		Duration: &duration,
		Content:  &content,
	}
}

// LegacyResult builds a successful result carrying a legacy summary string.
func LegacyResult(index int, response string, duration float64) tester.RawResult {
	return tester.RawResult{
		Index:    index,
		Success:  true,
		Duration: &duration,
		Response: &response,
	}
}

// ErrorResult builds a failed result.
func ErrorResult(index int, message string, duration float64) tester.RawResult {
	return tester.RawResult{
		Index:    index,
		Success:  false,
		Duration: &duration,
		Error:    &message,
	}
}
