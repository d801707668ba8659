package triage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	reply string
	err   error
	calls int
	last  []Message
}

func (f *fakeClient) Complete(ctx context.Context, history []Message) (string, error) {
	f.calls++
	f.last = history
	return f.reply, f.err
}

type fakeRepo struct {
	mu      sync.Mutex
	results map[string]*Result
	err     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{results: make(map[string]*Result)}
}

func (f *fakeRepo) Upsert(ctx context.Context, r *Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.results[r.Patient] = r
	return nil
}

func (f *fakeRepo) Latest(ctx context.Context, patient string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.results[patient]
	if !ok {
		return nil, ErrResultNotFound
	}
	return r, nil
}

func (f *fakeRepo) ListLatest(ctx context.Context) ([]Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Result
	for _, r := range f.results {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRepo) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = make(map[string]*Result)
	return nil
}

func newTestService(client CompletionClient, repo Repository) *Service {
	return NewService(NewConversations(), client, repo, nil, nil)
}

func TestSubmitRejectsEmptyMessage(t *testing.T) {
	svc := newTestService(&fakeClient{}, newFakeRepo())

	for _, message := range []string{"", "   ", "\n\t"} {
		_, _, err := svc.Submit(context.Background(), "tok", "alice", message)
		assert.ErrorIs(t, err, ErrMissingInput)
	}
	assert.Equal(t, 0, svc.conversations.Len("tok"))
}

func TestSubmitGrowsHistoryByTwo(t *testing.T) {
	client := &fakeClient{reply: "When did the pain start?"}
	svc := newTestService(client, newFakeRepo())

	before := len(svc.conversations.History("tok"))
	_, _, err := svc.Submit(context.Background(), "tok", "alice", "I have a headache")

	require.NoError(t, err)
	history := svc.conversations.History("tok")
	assert.Equal(t, before+2, len(history))
	assert.Equal(t, RoleUser, history[len(history)-2].Role)
	assert.Equal(t, RoleAssistant, history[len(history)-1].Role)
}

func TestSubmitSendsFullHistoryToProvider(t *testing.T) {
	client := &fakeClient{reply: "Tell me more."}
	svc := newTestService(client, newFakeRepo())

	_, _, err := svc.Submit(context.Background(), "tok", "alice", "first message")
	require.NoError(t, err)
	_, _, err = svc.Submit(context.Background(), "tok", "alice", "second message")
	require.NoError(t, err)

	// system + first user + first assistant + second user
	require.Len(t, client.last, 4)
	assert.Equal(t, RoleSystem, client.last[0].Role)
	assert.Equal(t, "second message", client.last[3].Content)
}

func TestSubmitExtractsVerdict(t *testing.T) {
	client := &fakeClient{reply: "Thanks for the details.\nTriage Level: Urgent\nAdvice:\n- See a doctor today\n- Avoid driving"}
	repo := newFakeRepo()
	svc := newTestService(client, repo)

	result, reply, err := svc.Submit(context.Background(), "tok", "alice", "crushing chest pain")

	require.NoError(t, err)
	assert.Equal(t, LevelOrange, result.Level)
	assert.Equal(t, "See a doctor today\nAvoid driving", result.Advice)
	assert.Equal(t, "crushing chest pain", result.Issue)
	assert.Equal(t, client.reply, reply)

	stored, err := repo.Latest(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, LevelOrange, stored.Level)
}

func TestSubmitWithoutVerdictIsPending(t *testing.T) {
	client := &fakeClient{reply: "Could you describe the pain?"}
	svc := newTestService(client, newFakeRepo())

	result, _, err := svc.Submit(context.Background(), "tok", "alice", "I feel unwell")

	require.NoError(t, err)
	assert.Equal(t, LevelUnknown, result.Level)
	assert.Equal(t, "", result.Advice)
}

func TestSubmitProviderFailureServesFallback(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	repo := newFakeRepo()
	svc := newTestService(client, repo)

	result, reply, err := svc.Submit(context.Background(), "tok", "alice", "I have a fever")

	require.NoError(t, err)
	assert.Equal(t, LevelYellow, result.Level)
	assert.Equal(t, FallbackAdvice, result.Advice)
	assert.Equal(t, FallbackReply, reply)
	// The fallback still lands in the history so the invariant holds.
	assert.Equal(t, 3, svc.conversations.Len("tok"))

	stored, err := repo.Latest(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, LevelYellow, stored.Level)
}

func TestSubmitEmptyReplyServesFallback(t *testing.T) {
	client := &fakeClient{reply: "   "}
	svc := newTestService(client, newFakeRepo())

	result, reply, err := svc.Submit(context.Background(), "tok", "alice", "I have a fever")

	require.NoError(t, err)
	assert.Equal(t, LevelYellow, result.Level)
	assert.Equal(t, FallbackReply, reply)
}

func TestSubmitDefaultsToAnonymous(t *testing.T) {
	client := &fakeClient{reply: "Triage Level: Mild"}
	repo := newFakeRepo()
	svc := newTestService(client, repo)

	result, _, err := svc.Submit(context.Background(), "tok", "", "sore throat")

	require.NoError(t, err)
	assert.Equal(t, AnonymousPatient, result.Patient)
	_, err = repo.Latest(context.Background(), AnonymousPatient)
	assert.NoError(t, err)
}

func TestSubmitStorageFailureStillAnswers(t *testing.T) {
	client := &fakeClient{reply: "Triage Level: Mild"}
	repo := newFakeRepo()
	repo.err = errors.New("db down")
	svc := newTestService(client, repo)

	result, _, err := svc.Submit(context.Background(), "tok", "alice", "sore throat")

	require.NoError(t, err)
	assert.Equal(t, LevelYellow, result.Level)
}

func TestSubmitWithoutPersistenceStillAnswers(t *testing.T) {
	client := &fakeClient{reply: "Triage Level: Urgent\nAdvice:\n- See a doctor today"}
	svc := newTestService(client, NewNoopRepository())

	result, reply, err := svc.Submit(context.Background(), "tok", "alice", "crushing chest pain")

	require.NoError(t, err)
	assert.Equal(t, LevelOrange, result.Level)
	assert.Equal(t, client.reply, reply)
	assert.Equal(t, 3, svc.conversations.Len("tok"))
}

func TestResetRestoresSystemPromptOnly(t *testing.T) {
	client := &fakeClient{reply: "ok"}
	svc := newTestService(client, newFakeRepo())
	for i := 0; i < 3; i++ {
		_, _, err := svc.Submit(context.Background(), "tok", "alice", "msg")
		require.NoError(t, err)
	}

	svc.Reset("tok")

	history := svc.conversations.History("tok")
	require.Len(t, history, 1)
	assert.Equal(t, RoleSystem, history[0].Role)
}
