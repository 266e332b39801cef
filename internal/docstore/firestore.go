package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collections and documents one to one onto Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a Firestore client for projectID using
// application default credentials.
func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, bool, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("firestore Get: %w", err)
	}
	return Document(snap.Data()), true, nil
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, doc Document) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]interface{}(doc))
	if err != nil {
		return fmt.Errorf("firestore Set: %w", err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("firestore Delete: %w", err)
	}
	return nil
}

func (s *FirestoreStore) List(ctx context.Context, collection string) ([]Snapshot, error) {
	return collect(s.client.Collection(collection).Documents(ctx))
}

func (s *FirestoreStore) WhereEqual(ctx context.Context, collection, field, value string) ([]Snapshot, error) {
	if !ValidField(field) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
	q := s.client.Collection(collection).Where(field, "==", value).OrderBy(firestore.DocumentID, firestore.Asc)
	return collect(q.Documents(ctx))
}

func (s *FirestoreStore) NewKey(ctx context.Context, collection string) string {
	return s.client.Collection(collection).NewDoc().ID
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func collect(iter *firestore.DocumentIterator) ([]Snapshot, error) {
	defer iter.Stop()

	var out []Snapshot
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore iterate: %w", err)
		}
		out = append(out, Snapshot{ID: snap.Ref.ID, Data: Document(snap.Data())})
	}
	return out, nil
}
