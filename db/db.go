package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when no Firebase credentials are available.
var ErrNotConfigured = errors.New("firestore credentials not configured")

// FirestoreClient is a singleton Firestore client instance.
var (
	client     *firestore.Client
	clientErr  error
	clientOnce sync.Once
)

// InitFirestore initializes and returns a Firestore client from base64 encoded
// service account JSON. Later calls return the first result.
func InitFirestore(ctx context.Context, encodedCreds string) (*firestore.Client, error) {
	clientOnce.Do(func() {
		if encodedCreds == "" {
			clientErr = ErrNotConfigured
			return
		}

		// Decode credentials
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			clientErr = fmt.Errorf("failed to decode Firestore credentials: %w", err)
			return
		}

		// Initialize Firebase App
		opt := option.WithCredentialsJSON(creds)
		app, err := firebase.NewApp(ctx, nil, opt)
		if err != nil {
			clientErr = fmt.Errorf("error initializing Firebase app: %w", err)
			return
		}

		// Get Firestore Client
		client, err = app.Firestore(ctx)
		if err != nil {
			clientErr = fmt.Errorf("error getting Firestore client: %w", err)
		}
	})

	return client, clientErr
}

// CloseFirestore closes the Firestore client.
func CloseFirestore() {
	if client != nil {
		client.Close()
	}
}
