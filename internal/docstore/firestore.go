package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore maps collection paths directly onto Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (f *FirestoreStore) ref(collection, key string) *firestore.DocumentRef {
	return f.client.Collection(collection).Doc(key)
}

func (f *FirestoreStore) Get(ctx context.Context, collection, key string) (Record, error) {
	snap, err := f.ref(collection, key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("firestore get %s/%s: %w", collection, key, err)
	}
	return Record(snap.Data()), nil
}

func (f *FirestoreStore) Set(ctx context.Context, collection, key string, fields Record, merge bool) error {
	data := map[string]interface{}(fields)
	if data == nil {
		data = map[string]interface{}{}
	}
	var err error
	if merge {
		_, err = f.ref(collection, key).Set(ctx, data, firestore.MergeAll)
	} else {
		_, err = f.ref(collection, key).Set(ctx, data)
	}
	return err
}

func (f *FirestoreStore) Delete(ctx context.Context, collection, key string) error {
	_, err := f.ref(collection, key).Delete(ctx, firestore.Exists)
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (f *FirestoreStore) Stream(ctx context.Context, collection string) Iterator {
	return &firestoreIterator{collection: collection, it: f.client.Collection(collection).Documents(ctx)}
}

// StreamGroup walks the collections one after another; Firestore has no
// multi-collection query short of a collection group.
func (f *FirestoreStore) StreamGroup(ctx context.Context, collections []string) Iterator {
	return newChainIterator(ctx, append([]string(nil), collections...), f.Stream)
}

func (f *FirestoreStore) Collections(ctx context.Context, docPath string) ([]string, error) {
	it := f.client.Doc(docPath).Collections(ctx)
	var paths []string
	for {
		col, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore collections %s: %w", docPath, err)
		}
		paths = append(paths, docPath+"/"+col.ID)
	}
	return childCollections(docPath, func(yield func(string)) {
		for _, p := range paths {
			yield(p)
		}
	}), nil
}

func (f *FirestoreStore) Increment(ctx context.Context, collection, key, field string, delta int64) error {
	_, err := f.ref(collection, key).Set(ctx, map[string]interface{}{
		field: firestore.Increment(delta),
	}, firestore.MergeAll)
	return err
}

func (f *FirestoreStore) Update(ctx context.Context, collection, key string, fn UpdateFunc) error {
	ref := f.ref(collection, key)
	return f.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		var (
			cur    Record
			exists bool
		)
		snap, err := tx.Get(ref)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return err
		default:
			cur, exists = Record(snap.Data()), true
		}
		next, err := fn(cur, exists)
		if err != nil {
			return err
		}
		if next == nil {
			next = Record{}
		}
		return tx.Set(ref, map[string]interface{}(next))
	})
}

type firestoreIterator struct {
	collection string
	it         *firestore.DocumentIterator
}

func (f *firestoreIterator) Next() (Doc, error) {
	snap, err := f.it.Next()
	if err == iterator.Done {
		return Doc{}, Done
	}
	if err != nil {
		return Doc{}, err
	}
	return Doc{Collection: f.collection, Key: snap.Ref.ID, Data: Record(snap.Data())}, nil
}

func (f *firestoreIterator) Stop() { f.it.Stop() }
