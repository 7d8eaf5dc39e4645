package firebase

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and the clients the server uses
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Messaging   *messaging.Client
}

// InitFirebase initializes Firebase from base64 encoded credentials when
// given, otherwise from a service account file.
func InitFirebase(ctx context.Context, credentialsPath, encodedCredentials string) (*App, error) {
	var opt option.ClientOption
	switch {
	case encodedCredentials != "":
		decoded, err := base64.StdEncoding.DecodeString(encodedCredentials)
		if err != nil {
			return nil, fmt.Errorf("decode firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
	case credentialsPath != "":
		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
		}
		opt = option.WithCredentialsFile(credentialsPath)
	default:
		return nil, fmt.Errorf("firebase credentials not provided")
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase messaging client: %w", err)
	}

	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, Messaging: messagingClient}, nil
}
