package docstore

import (
	"context"
	"fmt"
	"os"
	"sort"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/gofiber/fiber/v2/log"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/le10del10/paybridge/internal/pkg/config"
)

// FirestoreStore implements Store on top of Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects to Firestore. It returns ErrUnavailable when no
// credential bundle is configured so callers can run with the store disabled.
func NewFirestoreStore(ctx context.Context, cfg config.FirestoreConfig) (*FirestoreStore, error) {
	if !cfg.Enabled() {
		return nil, ErrUnavailable
	}

	if cfg.EmulatorHost != "" {
		if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("failed to set FIRESTORE_EMULATOR_HOST: %w", err)
		}
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firestore client: %w", err)
	}

	log.Infof("[Docstore] Connected to Firestore (project=%q emulator=%t)", cfg.ProjectID, cfg.EmulatorHost != "")
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Merge(ctx context.Context, collection, id string, fields map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge %s/%s: %w", collection, id, err)
	}
	return nil
}

// Commit runs the writes in one transaction. Update preconditions are
// checked by Firestore at commit time, so a missing document rolls back
// every write.
func (s *FirestoreStore) Commit(ctx context.Context, writes ...Write) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, w := range writes {
			ref := s.client.Collection(w.Collection).Doc(w.ID)
			switch w.Op {
			case OpMerge:
				if err := tx.Set(ref, w.Fields, firestore.MergeAll); err != nil {
					return fmt.Errorf("merge %s/%s: %w", w.Collection, w.ID, err)
				}
			case OpUpdate:
				if err := tx.Update(ref, fieldUpdates(w.Fields)); err != nil {
					return fmt.Errorf("update %s/%s: %w", w.Collection, w.ID, err)
				}
			default:
				return fmt.Errorf("unknown write op %d for %s/%s", w.Op, w.Collection, w.ID)
			}
		}
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("commit: %w", ErrNotFound)
		}
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func fieldUpdates(fields map[string]any) []firestore.Update {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}
	return updates
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
