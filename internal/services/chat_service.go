// Package services – ChatService
//
// ChatService is the session orchestrator. For each incoming message it
// classifies risk, picks a storage tier, loads or creates the conversation,
// produces the assistant turn (crisis template or language model), and writes
// the conversation back. It also serves history reads, deletes, demo session
// teardown, and conversation browsing on the primary store.
//
// Observability: public methods are OpenTelemetry-instrumented; every
// swallowed failure (tier downgrade, provider fallback, load error) is logged.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/wellness-chat-backend/internal/domain"
	"github.com/tbourn/wellness-chat-backend/internal/llm"
	"github.com/tbourn/wellness-chat-backend/internal/observability"
	"github.com/tbourn/wellness-chat-backend/internal/safety"
	"github.com/tbourn/wellness-chat-backend/internal/store"
	"github.com/tbourn/wellness-chat-backend/internal/utils"
)

// TierSelector resolves the storage tier for an account.
type TierSelector interface {
	Select(ctx context.Context, acct domain.Account) domain.StorageTier
	Invalidate()
}

// Stores hands out the ConversationStore for a tier.
type Stores interface {
	For(tier domain.StorageTier) (store.ConversationStore, error)
	Demo() *store.MemoryStore
	Primary() (*store.GormStore, error)
}

// ReplyGenerator produces the next assistant turn. Generate must always
// return a usable result.
type ReplyGenerator interface {
	Generate(ctx context.Context, history []domain.Message, systemPrompt string, deadline time.Duration) domain.ProviderResult
}

// ChatRequest is one incoming chat turn.
type ChatRequest struct {
	UserID      string
	SessionID   string
	Message     string
	AccountKind string // optional: "demo" or "registered"
}

// ChatReply is the outcome of a chat turn.
type ChatReply struct {
	Message   string
	SessionID string
	Tier      domain.StorageTier
	Risk      domain.RiskAssessment

	// Crisis turns.
	Crisis    bool
	Resources []safety.Resource
	Actions   []string

	// Model turns.
	Provider domain.ProviderResult
}

// History is a conversation read.
type History struct {
	Messages []domain.Message
	Context  domain.ConversationContext
	Tier     domain.StorageTier
}

// ChatService orchestrates chat turns across the pipeline components.
type ChatService struct {
	Stores   Stores
	Selector TierSelector
	Gateway  ReplyGenerator
	Prompt   llm.SystemPrompter

	// DemoPrefix marks demo user ids when no explicit account kind is sent.
	DemoPrefix string
	// MaxMessageRunes caps incoming message length (0 disables).
	MaxMessageRunes int
	// HistoryWindow is how many recent messages are sent to the model.
	HistoryWindow int
	// Deadline bounds the provider call.
	Deadline time.Duration
	// SaveRetries is how many times a failed write is retried.
	SaveRetries int
	// SaveTimeout bounds the write, retries included.
	SaveTimeout time.Duration

	// Now is injectable for tests.
	Now func() time.Time

	locks sessionLocks
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ChatService) account(userID, kind string) (domain.Account, error) {
	acct, err := domain.ResolveAccount(userID, kind, s.DemoPrefix)
	if err != nil {
		return domain.Account{}, validation("accountKind must be demo or registered")
	}
	return acct, nil
}

func requireIDs(userID, sessionID string) (string, string, error) {
	userID, sessionID = strings.TrimSpace(userID), strings.TrimSpace(sessionID)
	switch {
	case userID == "":
		return "", "", validation("userId is required")
	case sessionID == "":
		return "", "", validation("sessionId is required")
	}
	return userID, sessionID, nil
}

// storeFor selects the tier and its store. A primary tier whose store cannot
// be obtained is downgraded to the fallback tier.
func (s *ChatService) storeFor(ctx context.Context, acct domain.Account) (domain.StorageTier, store.ConversationStore, error) {
	tier := s.Selector.Select(ctx, acct)
	st, err := s.Stores.For(tier)
	if err != nil && tier == domain.TierPrimary {
		observability.Logger(ctx).Warn().Err(err).Msg("primary store not ready; using fallback tier")
		s.Selector.Invalidate()
		tier = domain.TierFallback
		st, err = s.Stores.For(tier)
	}
	if err != nil {
		return tier, nil, err
	}
	return tier, st, nil
}

// HandleMessage runs one chat turn. Validation failures return ErrValidation
// with no side effects. A failed write returns *PersistenceError carrying the
// reply that was produced.
func (s *ChatService) HandleMessage(ctx context.Context, req ChatRequest) (*ChatReply, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "HandleMessage",
		trace.WithAttributes(attribute.String("session.id", req.SessionID)),
	)
	defer span.End()

	userID, sessionID, err := requireIDs(req.UserID, req.SessionID)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return nil, validation("message is required")
	}
	if s.MaxMessageRunes > 0 && utf8.RuneCountInString(text) > s.MaxMessageRunes {
		return nil, validation(fmt.Sprintf("message too long: max %d characters", s.MaxMessageRunes))
	}
	acct, err := s.account(userID, req.AccountKind)
	if err != nil {
		return nil, err
	}

	// Received → Classified
	risk := safety.Classify(text)
	span.SetAttributes(attribute.String("risk.level", string(risk.RiskLevel)))

	unlock := s.locks.lock(sessionKey(userID, sessionID))
	defer unlock()

	tier, st, err := s.storeFor(ctx, acct)
	var conv *domain.Conversation
	if err == nil {
		conv, err = findOrNil(ctx, st, userID, sessionID)
	}
	if err != nil && tier == domain.TierPrimary {
		// Read and write stay on one tier for the whole turn.
		observability.Logger(ctx).Warn().Err(err).Msg("primary read failed; using fallback tier")
		s.Selector.Invalidate()
		tier = domain.TierFallback
		if st, err = s.Stores.For(tier); err == nil {
			conv, err = findOrNil(ctx, st, userID, sessionID)
		}
	}
	span.SetAttributes(attribute.String("storage.tier", string(tier)))
	log := observability.Logger(ctx).With().Str("tier", string(tier)).Logger()
	if err != nil {
		// The reply is still produced; the write below reports the failure.
		log.Error().Err(err).Msg("load conversation failed")
	}
	if conv == nil {
		conv = domain.NewConversation(userID, sessionID, s.now())
	}

	conv.Append(domain.RoleUser, text, risk.Metadata(), s.now())

	reply := &ChatReply{SessionID: sessionID, Tier: tier, Risk: risk}
	if risk.RequiresImmediate {
		// Classified → CrisisShortCircuit: no model call.
		resp := safety.Compose(risk)
		observability.RecordCrisis(risk.RiskLevel)
		log.Warn().Str("risk_level", string(risk.RiskLevel)).Strs("indicators", risk.Indicators).Msg("crisis detected")
		conv.Append(domain.RoleAssistant, resp.Message, domain.MessageMetadata{
			RiskLevel: risk.RiskLevel,
			Crisis:    true,
		}, s.now())
		reply.Message = resp.Message
		reply.Crisis = true
		reply.Resources = resp.Resources
		reply.Actions = resp.Actions
	} else {
		// Classified → Generating
		prompt := string(llm.DefaultPrompt)
		if s.Prompt != nil {
			prompt = s.Prompt.SystemPrompt()
		}
		res := s.Gateway.Generate(ctx, conv.Window(s.HistoryWindow), prompt, s.Deadline)
		conv.Append(domain.RoleAssistant, res.Content, res.Metadata(), s.now())
		reply.Message = res.Content
		reply.Provider = res
	}

	// → Persisted
	if err == nil {
		err = s.save(ctx, st, conv)
	}
	if err != nil {
		observability.RecordPersistenceFailure(tier)
		if tier == domain.TierPrimary {
			s.Selector.Invalidate()
		}
		log.Error().Err(err).Bool("crisis", reply.Crisis).Msg("persist conversation failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "persistence")
		return nil, &PersistenceError{Reply: reply, Tier: tier, Err: err}
	}

	// → Responded
	return reply, nil
}

// findOrNil maps a missing conversation to (nil, nil).
func findOrNil(ctx context.Context, st store.ConversationStore, userID, sessionID string) (*domain.Conversation, error) {
	conv, err := st.Find(ctx, userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return conv, err
}

func (s *ChatService) save(ctx context.Context, st store.ConversationStore, conv *domain.Conversation) error {
	timeout := s.SaveTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	// The write outlives a disconnected client so the turn is not lost.
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 100 * time.Millisecond
	exp.MaxInterval = time.Second
	exp.Reset()
	b := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(s.SaveRetries, 0))), sctx)

	return backoff.RetryNotify(func() error {
		return st.Save(sctx, conv)
	}, b, func(err error, wait time.Duration) {
		observability.Logger(ctx).Warn().Err(err).Dur("wait", wait).Msg("retrying conversation save")
	})
}

// History returns the conversation for (userID, sessionID) from the tier the
// account currently maps to. An absent conversation yields an empty history.
func (s *ChatService) History(ctx context.Context, userID, sessionID, accountKind string) (*History, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "History",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	userID, sessionID, err := requireIDs(userID, sessionID)
	if err != nil {
		return nil, err
	}
	acct, err := s.account(userID, accountKind)
	if err != nil {
		return nil, err
	}
	tier, st, err := s.storeFor(ctx, acct)
	if err != nil {
		return nil, err
	}
	conv, err := st.Find(ctx, userID, sessionID)
	if errors.Is(err, store.ErrNotFound) {
		return &History{Messages: []domain.Message{}, Tier: tier}, nil
	}
	if err != nil {
		return nil, err
	}
	return &History{Messages: conv.Messages, Context: conv.Context(), Tier: tier}, nil
}

// Delete removes a conversation. Demo accounts are served by the demo store;
// registered accounts are removed from the fallback and, when reachable, the
// primary store so no copy survives an earlier outage. It returns
// ErrConversationNotFound when no tier held the conversation.
func (s *ChatService) Delete(ctx context.Context, userID, sessionID, accountKind string) error {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	userID, sessionID, err := requireIDs(userID, sessionID)
	if err != nil {
		return err
	}
	acct, err := s.account(userID, accountKind)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(sessionKey(userID, sessionID))
	defer unlock()

	tiers := []domain.StorageTier{domain.TierDemo}
	if !acct.IsDemo() {
		tiers = []domain.StorageTier{domain.TierFallback}
		if s.Selector.Select(ctx, acct) == domain.TierPrimary {
			tiers = append(tiers, domain.TierPrimary)
		}
	}

	deleted := false
	for _, t := range tiers {
		st, err := s.Stores.For(t)
		if err != nil {
			if t == domain.TierPrimary {
				continue
			}
			return err
		}
		switch err := st.Delete(ctx, userID, sessionID); {
		case err == nil:
			deleted = true
		case errors.Is(err, store.ErrNotFound):
		default:
			return fmt.Errorf("delete from %s tier: %w", t, err)
		}
	}
	if !deleted {
		return ErrConversationNotFound
	}
	return nil
}

// EndDemoSession discards every conversation held for a demo account and
// reports how many were dropped.
func (s *ChatService) EndDemoSession(ctx context.Context, userID, accountKind string) (int, error) {
	tr := otel.Tracer("services/ChatService")
	_, span := tr.Start(ctx, "EndDemoSession")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, validation("userId is required")
	}
	acct, err := s.account(userID, accountKind)
	if err != nil {
		return 0, err
	}
	if !acct.IsDemo() {
		return 0, ErrNotDemoAccount
	}
	return s.Stores.Demo().Cleanup(userID), nil
}

// primary returns the primary store after refreshing reachability.
func (s *ChatService) primary(ctx context.Context, userID string) (*store.GormStore, error) {
	acct := domain.Account{UserID: userID, Kind: domain.AccountRegistered}
	if s.Selector.Select(ctx, acct) != domain.TierPrimary {
		return nil, ErrPrimaryUnavailable
	}
	p, err := s.Stores.Primary()
	if err != nil {
		return nil, ErrPrimaryUnavailable
	}
	return p, nil
}

// ListConversations returns a page of userID's conversations from the primary
// store, most recently active first, and the total count.
func (s *ChatService) ListConversations(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "ListConversations",
		trace.WithAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, 0, validation("userId is required")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	p, err := s.primary(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return p.List(ctx, userID, utils.Offset(page, pageSize), pageSize)
}

// ConversationsStats returns the count and latest activity of userID's
// conversations on the primary store.
func (s *ChatService) ConversationsStats(ctx context.Context, userID string) (int64, *time.Time, error) {
	p, err := s.primary(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	return p.Stats(ctx, userID)
}
