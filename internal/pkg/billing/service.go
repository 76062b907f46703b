package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/le10del10/paybridge/app/models"
	"github.com/le10del10/paybridge/internal/pkg/docstore"
)

// Archiver keeps a copy of raw webhook deliveries outside the journal.
type Archiver interface {
	ArchiveWebhook(ctx context.Context, provider, eventID string, payload []byte) error
}

// OutcomeCounter counts webhook outcomes per provider.
type OutcomeCounter interface {
	IncrWebhookOutcome(ctx context.Context, provider, outcome string) error
}

// Service reconciles confirmed provider payments into the document store.
// The journal, archive and counters are optional side channels; when they
// are nil, or fail, reconciliation is unaffected.
type Service struct {
	store    docstore.Store
	journal  Repository
	archive  Archiver
	counters OutcomeCounter
}

type Option func(*Service)

func WithJournal(repo Repository) Option {
	return func(s *Service) { s.journal = repo }
}

func WithArchive(a Archiver) Option {
	return func(s *Service) { s.archive = a }
}

func WithCounters(c OutcomeCounter) Option {
	return func(s *Service) { s.counters = c }
}

// NewService creates the reconciler. store may be nil when the document
// store is disabled for this run.
func NewService(store docstore.Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) StoreAvailable() bool {
	return s.store != nil
}

// ConfirmPayment writes the payment record and the premium flag for rec.UID
// in one commit. The users/{uid} document must already exist; if it does
// not, neither document is written. Replaying the same confirmation
// converges to the same documents.
func (s *Service) ConfirmPayment(ctx context.Context, rec models.PaymentRecord) error {
	if s.store == nil {
		return docstore.ErrUnavailable
	}
	uid := strings.TrimSpace(rec.UID)
	if uid == "" {
		return ErrMissingUID
	}
	rec.UID = uid

	err := s.store.Commit(ctx,
		docstore.MergeWrite(docstore.CollectionPayments, uid, rec.Fields()),
		docstore.UpdateWrite(docstore.CollectionUsers, uid, models.PremiumFlag{UID: uid}.Fields()),
	)
	if err != nil {
		return fmt.Errorf("write payment record and premium flag: %w", err)
	}

	log.Infof("[Billing] Payment confirmed uid=%s provider=%s external_id=%s", uid, rec.Provider, rec.ExternalID)
	return nil
}

// RecordWebhookEvent archives the raw delivery and adds it to the journal.
// The returned event is nil when no journal is configured.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (*models.BillingWebhookEvent, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		eventID = payloadHashID(in.PayloadJSON)
	}

	if s.archive != nil {
		if err := s.archive.ArchiveWebhook(ctx, provider, eventID, []byte(in.PayloadJSON)); err != nil {
			log.Warnf("[Billing] Archiving %s webhook %s failed: %v", provider, eventID, err)
		}
	}

	if s.journal == nil {
		return nil, nil
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
		Deliveries:      1,
	}
	created, stored, err := s.journal.CreateWebhookEventIfNotExists(event)
	if err != nil {
		return nil, err
	}
	if !created {
		// Redelivery: processed again, only the counter moves.
		if err := s.journal.IncrementDeliveries(stored.ID); err != nil {
			return stored, err
		}
	}
	return stored, nil
}

// MarkWebhookProcessed closes a journal entry and counts the outcome.
// Failures are logged, never returned: side channels must not change the
// response a provider sees.
func (s *Service) MarkWebhookProcessed(ctx context.Context, provider string, event *models.BillingWebhookEvent, uid, outcome string, processingErr error) {
	if s.counters != nil {
		if err := s.counters.IncrWebhookOutcome(ctx, provider, outcome); err != nil {
			log.Warnf("[Billing] Counting %s outcome %s failed: %v", provider, outcome, err)
		}
	}
	if s.journal == nil || event == nil {
		return
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	if err := s.journal.MarkWebhookProcessed(event.ID, uid, errMsg); err != nil {
		log.Warnf("[Billing] Marking %s webhook %d processed failed: %v", provider, event.ID, err)
	}
}

func payloadHashID(payload string) string {
	sum := sha256.Sum256([]byte(payload))
	return "hash:" + hex.EncodeToString(sum[:])
}
