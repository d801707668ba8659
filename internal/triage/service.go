package triage

import (
	"context"
	"errors"
	"strings"
	"time"

	"triage-assistant/internal/logging"
	"triage-assistant/internal/metrics"
)

// ErrMissingInput is returned when a submission carries no message text.
var ErrMissingInput = errors.New("no message provided")

// AnonymousPatient is the identity recorded for unauthenticated submissions.
const AnonymousPatient = "Anonymous"

// CompletionClient is the outbound completion provider. Defined here, at the
// consumer, to decouple the pipeline from the concrete client.
type CompletionClient interface {
	Complete(ctx context.Context, history []Message) (string, error)
}

// Service runs the conversation pipeline: append the user message, ask the
// provider for a reply over the full history, extract the triage verdict and
// record the patient's latest result.
type Service struct {
	conversations *Conversations
	client        CompletionClient
	results       Repository
	metrics       *metrics.TriageMetrics
	logger        *logging.Logger
}

func NewService(conversations *Conversations, client CompletionClient, results Repository,
	m *metrics.TriageMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		conversations: conversations,
		client:        client,
		results:       results,
		metrics:       m,
		logger:        logger,
	}
}

// Submit processes one patient message for the given session. It returns the
// extracted result together with the assistant's reply text. Provider
// failures are converted into the fixed safe fallback and never surface to
// the caller; only missing input is an error.
func (s *Service) Submit(ctx context.Context, sessionToken, patient, message string) (*Result, string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, "", ErrMissingInput
	}
	if patient == "" {
		patient = AnonymousPatient
	}

	s.conversations.Append(sessionToken, Message{Role: RoleUser, Content: message, Timestamp: time.Now()})
	history := s.conversations.History(sessionToken)

	start := time.Now()
	reply, err := s.client.Complete(ctx, history)
	s.metrics.ObserveCompletionLatency(time.Since(start))

	var result *Result
	if err != nil || strings.TrimSpace(reply) == "" {
		s.logger.Warn("completion provider failed, serving fallback",
			"patient", patient, "error", errString(err))
		s.metrics.ObserveFallback()
		reply = FallbackReply
		result = &Result{Patient: patient, Issue: message, Level: LevelYellow, Advice: FallbackAdvice}
	} else {
		result = &Result{
			Patient: patient,
			Issue:   message,
			Level:   ExtractLevel(reply),
			Advice:  ExtractAdvice(reply),
		}
	}
	s.conversations.Append(sessionToken, Message{Role: RoleAssistant, Content: reply, Timestamp: time.Now()})
	s.metrics.ObserveSubmission(string(result.Level))

	// The patient already has their answer at this point; a storage failure
	// only leaves the doctor view stale, so log it instead of failing the request.
	if err := s.results.Upsert(ctx, result); err != nil {
		s.logger.Error("failed to record triage result", "patient", patient, "error", err)
	}

	return result, reply, nil
}

// Reset truncates the session's conversation back to the system prompt.
func (s *Service) Reset(sessionToken string) {
	s.conversations.Reset(sessionToken)
}

// EndSession drops the session's conversation entirely.
func (s *Service) EndSession(sessionToken string) {
	s.conversations.Remove(sessionToken)
}

func errString(err error) string {
	if err == nil {
		return "empty completion"
	}
	return err.Error()
}
