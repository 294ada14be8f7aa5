// Package firebase builds the Firebase Auth client used to exchange Firebase
// ID tokens for local sessions.
package firebase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when no credentials file is given.
var ErrNotConfigured = errors.New("firebase credentials path not provided")

// NewAuthClient initializes a Firebase app from the service account file at
// credentialsPath and returns its auth client. Extra options are appended
// after the credentials.
func NewAuthClient(ctx context.Context, credentialsPath string, opts ...option.ClientOption) (*auth.Client, error) {
	if credentialsPath == "" {
		return nil, ErrNotConfigured
	}

	// Check if the credentials file exists
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file not usable at %s: %w", credentialsPath, err)
	}

	clientOpts := append([]option.ClientOption{option.WithCredentialsFile(credentialsPath)}, opts...)
	app, err := firebase.NewApp(ctx, nil, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	log.Println("Firebase auth client initialized successfully!")
	return authClient, nil
}
