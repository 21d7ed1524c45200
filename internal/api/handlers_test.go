package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/studybot/internal/classify"
	"github.com/kalambet/studybot/internal/notify"
	"github.com/kalambet/studybot/internal/pending"
	"github.com/kalambet/studybot/internal/poller"
)

// --- mocks ---

type mockClassifier struct {
	result classify.Result
	err    error
}

func (m *mockClassifier) Classify(_ context.Context, _, _ string) (classify.Result, error) {
	return m.result, m.err
}

type mockRelay struct {
	mu   sync.Mutex
	sent []notify.Event
}

func (m *mockRelay) Send(_ context.Context, ev notify.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, ev)
	return nil
}

type mockEnroller struct {
	mu    sync.Mutex
	calls []pending.Candidate
	err   error
}

func (m *mockEnroller) Enroll(_ context.Context, c pending.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.err
}

type mockSMS struct {
	texts []string
}

func (m *mockSMS) Send(_ context.Context, text string) (string, error) {
	m.texts = append(m.texts, text)
	return "SM1", nil
}

type mockChat struct {
	posted []notify.Event
	err    error
}

func (m *mockChat) Post(_ context.Context, ev notify.Event) error {
	m.posted = append(m.posted, ev)
	return m.err
}

type mockPoller struct {
	result poller.Result
	err    error
	ctxErr error
}

func (m *mockPoller) RunOnce(ctx context.Context) (poller.Result, error) {
	m.ctxErr = ctx.Err()
	return m.result, m.err
}

type testEnv struct {
	handler    http.Handler
	classifier *mockClassifier
	relay      *mockRelay
	enroller   *mockEnroller
	sms        *mockSMS
	chat       *mockChat
	store      *pending.MemoryStore
	slot       *pending.Slot
	poller     *mockPoller
}

func newTestEnv(t *testing.T, signer *notify.Signer) *testEnv {
	t.Helper()
	env := &testEnv{
		classifier: &mockClassifier{},
		relay:      &mockRelay{},
		enroller:   &mockEnroller{},
		sms:        &mockSMS{},
		chat:       &mockChat{},
		store:      pending.NewMemoryStore(time.Hour, 100),
		slot:       &pending.Slot{},
		poller:     &mockPoller{result: poller.Result{Fetched: 2, Relayed: 1}},
	}
	env.handler = NewHandler(Deps{
		Classifier: env.classifier,
		Relay:      env.relay,
		Pending:    env.store,
		Slot:       env.slot,
		Enroller:   env.enroller,
		SMS:        env.sms,
		Chat:       env.chat,
		Poller:     env.poller,
		Signer:     signer,
	})
	return env
}

func (e *testEnv) do(method, path, contentType, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func smsForm(body string) string {
	return url.Values{"Body": {body}}.Encode()
}

const formType = "application/x-www-form-urlencoded"

// --- tests ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestEmail_YesArmsSlotAndNotifies(t *testing.T) {
	env := newTestEnv(t, nil)
	env.classifier.result = classify.Result{Decision: classify.DecisionYes, Reason: "Asks to join.", Summary: "Wants in."}

	rec := env.do(http.MethodPost, "/email", "application/json", `{"subject":"Study","body":"hi","from_email":"x.y@z.com"}`)
	if rec.Code != http.StatusOK || rec.Body.String() != "Processed" {
		t.Fatalf("email = %d %q", rec.Code, rec.Body.String())
	}

	if len(env.relay.sent) != 1 || env.relay.sent[0].Type != notify.TypeEmail {
		t.Fatalf("relay sent = %+v", env.relay.sent)
	}
	if len(env.sms.texts) != 1 || !strings.Contains(env.sms.texts[0], "Summary: Wants in.") {
		t.Errorf("sms texts = %q", env.sms.texts)
	}

	c, ok := env.slot.Take()
	if !ok || c != (pending.Candidate{Email: "x.y@z.com", Name: "X Y"}) {
		t.Errorf("slot = %+v %v", c, ok)
	}
}

func TestEmail_NoDoesNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	env.classifier.result = classify.Result{Decision: classify.DecisionNo, Reason: "spam", Summary: "ad"}

	rec := env.do(http.MethodPost, "/email", "application/json", `{"subject":"Buy","body":"now","from_email":"a@b.c"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(env.relay.sent) != 0 || len(env.sms.texts) != 0 {
		t.Error("NO decision must not notify")
	}
	if _, ok := env.slot.Take(); ok {
		t.Error("slot armed for NO decision")
	}
}

func TestEmail_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/email", "application/json", "")
	if rec.Code != http.StatusBadRequest || rec.Body.String() != "Missing payload" {
		t.Errorf("empty body = %d %q", rec.Code, rec.Body.String())
	}

	env.classifier.err = classify.ErrMalformedResponse
	rec = env.do(http.MethodPost, "/email", "application/json", `{"subject":"s","body":"b","from_email":"a@b.c"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("classifier failure status = %d, want 502", rec.Code)
	}
}

func TestSMS_YesEnrollsSlotCandidate(t *testing.T) {
	env := newTestEnv(t, nil)
	env.slot.Put(pending.Candidate{Email: "x@y.com", Name: "X Y"})

	rec := env.do(http.MethodPost, "/sms", formType, smsForm("  YES "))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("sms = %d %q", rec.Code, rec.Body.String())
	}
	if len(env.enroller.calls) != 1 || env.enroller.calls[0] != (pending.Candidate{Email: "x@y.com", Name: "X Y"}) {
		t.Errorf("enroll calls = %+v", env.enroller.calls)
	}
	if _, ok := env.slot.Take(); ok {
		t.Error("slot not cleared after yes")
	}
}

func TestSMS_YesWithoutEmailNotEnrolled(t *testing.T) {
	env := newTestEnv(t, nil)
	env.slot.Put(pending.Candidate{Name: "X Y"})

	rec := env.do(http.MethodPost, "/sms", formType, smsForm("yes"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(env.enroller.calls) != 0 {
		t.Errorf("enroll calls = %+v, want none", env.enroller.calls)
	}
}

func TestSMS_NoClearsSlot(t *testing.T) {
	env := newTestEnv(t, nil)
	env.slot.Put(pending.Candidate{Email: "x@y.com", Name: "X Y"})

	rec := env.do(http.MethodPost, "/sms", formType, smsForm("no"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(env.enroller.calls) != 0 {
		t.Errorf("enroll calls = %d, want 0", len(env.enroller.calls))
	}
	if _, ok := env.slot.Take(); ok {
		t.Error("slot not cleared after no")
	}
}

func TestSMS_YesWithoutCandidateAndOtherText(t *testing.T) {
	env := newTestEnv(t, nil)

	env.do(http.MethodPost, "/sms", formType, smsForm("yes"))
	if len(env.enroller.calls) != 0 {
		t.Error("enrolled without an armed slot")
	}

	env.slot.Put(pending.Candidate{Email: "x@y.com"})
	rec := env.do(http.MethodPost, "/sms", formType, smsForm("maybe later"))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("sms = %d %q", rec.Code, rec.Body.String())
	}
	if _, ok := env.slot.Take(); !ok {
		t.Error("unrelated reply must leave the slot armed")
	}
}

func surveyEventJSON(t *testing.T, id string) string {
	t.Helper()
	b, err := json.Marshal(notify.NewSurveyEvent(id, map[string]string{"name": "Jane", "email": "j@x.org"}, ""))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestNotify_StoresPendingAndPosts(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/notify", "application/json", surveyEventJSON(t, "R1"))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("notify = %d %q", rec.Code, rec.Body.String())
	}
	if len(env.chat.posted) != 1 {
		t.Errorf("chat posts = %d", len(env.chat.posted))
	}
	if env.store.Len() != 1 {
		t.Errorf("pending entries = %d, want 1", env.store.Len())
	}
}

func TestNotify_MissingPayload(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, body := range []string{"", "null", "{}", `{"id":"R1","type":"survey"}`, "not json"} {
		rec := env.do(http.MethodPost, "/notify", "application/json", body)
		if rec.Code != http.StatusBadRequest || rec.Body.String() != "Missing payload" {
			t.Errorf("body %q: %d %q", body, rec.Code, rec.Body.String())
		}
	}
}

func TestNotify_ChatFailureRollsBack(t *testing.T) {
	env := newTestEnv(t, nil)
	env.chat.err = errors.New("discord down")

	rec := env.do(http.MethodPost, "/notify", "application/json", surveyEventJSON(t, "R1"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if env.store.Len() != 0 {
		t.Error("pending entry left behind after chat failure")
	}
}

func TestNotify_RequiresTokenWhenSigned(t *testing.T) {
	signer := notify.NewSigner("secret")
	env := newTestEnv(t, signer)

	rec := env.do(http.MethodPost, "/notify", "application/json", surveyEventJSON(t, "R1"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned status = %d, want 401", rec.Code)
	}

	tok, err := signer.Token()
	if err != nil {
		t.Fatal(err)
	}
	rec = env.do(http.MethodPost, "/notify", "application/json", surveyEventJSON(t, "R1"), "Authorization", "Bearer "+tok)
	if rec.Code != http.StatusOK {
		t.Errorf("signed status = %d, want 200", rec.Code)
	}

	// Inbound email and sms webhooks stay open.
	rec = env.do(http.MethodPost, "/sms", formType, smsForm("no"))
	if rec.Code != http.StatusOK {
		t.Errorf("sms status = %d, want 200", rec.Code)
	}
}

func TestApprove(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.Put(context.Background(), "R1", pending.Candidate{Email: "j@x.org", Name: "Jane"})

	rec := env.do(http.MethodPost, "/actions/R1/approve", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["status"] != "sent" || body["name"] != "Jane" {
		t.Errorf("body = %v", body)
	}
	if len(env.enroller.calls) != 1 {
		t.Errorf("enroll calls = %d", len(env.enroller.calls))
	}

	rec = env.do(http.MethodPost, "/actions/R1/approve", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("second approve = %d, want 404", rec.Code)
	}
}

func TestApprove_EnrollFailureRemovesEntry(t *testing.T) {
	env := newTestEnv(t, nil)
	env.enroller.err = errors.New("status 500")
	env.store.Put(context.Background(), "R1", pending.Candidate{Email: "j@x.org", Name: "Jane"})

	rec := env.do(http.MethodPost, "/actions/R1/approve", "", "")
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"type":"api_error"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if env.store.Len() != 0 {
		t.Error("pending entry not removed after failed enrollment")
	}
}

func TestApprove_MissingEmailNotEnrolled(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.Put(context.Background(), "R1", pending.Candidate{Name: "Jane"})

	rec := env.do(http.MethodPost, "/actions/R1/approve", "", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
	if len(env.enroller.calls) != 0 {
		t.Errorf("enroll called with empty address: %+v", env.enroller.calls)
	}
	if env.store.Len() != 0 {
		t.Error("pending entry not removed")
	}
}

func TestReject(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.Put(context.Background(), "R1", pending.Candidate{Email: "j@x.org"})

	for range 2 {
		rec := env.do(http.MethodPost, "/actions/R1/reject", "", "")
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ignored"`) {
			t.Errorf("reject = %d %s", rec.Code, rec.Body.String())
		}
	}
	if len(env.enroller.calls) != 0 || env.store.Len() != 0 {
		t.Error("reject must discard without enrolling")
	}
}

func TestPoll(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(http.MethodPost, "/poll", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res poller.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Fetched != 2 || res.Relayed != 1 {
		t.Errorf("result = %+v", res)
	}
}

func TestPoll_ClientDisconnectDoesNotCancelCycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := httptest.NewRequest(http.MethodPost, "/poll", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env.poller.ctxErr != nil {
		t.Errorf("cycle saw cancelled context: %v", env.poller.ctxErr)
	}
}
