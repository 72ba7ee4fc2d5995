package domain

import "context"

// Payload is the decoded JSON body returned by a remote operation.
type Payload map[string]any

// Executor performs the four remote operations behind the provisioning
// pipeline. Implementations either simulate them or call the real APIs.
// Failures wrap one of the sentinel errors in this package, normally as a
// *StageError.
type Executor interface {
	// Mode reports which strategy this executor implements.
	Mode() Mode

	// CreateProject creates the cloud project.
	CreateProject(ctx context.Context, projectID, displayName string) (Payload, error)

	// AddFirebase enables Firebase on the project.
	AddFirebase(ctx context.Context, projectID string) (Payload, error)

	// ConfigureAuth enables the email and anonymous sign-in providers.
	ConfigureAuth(ctx context.Context, projectID string) (Payload, error)

	// CreateDatabase provisions the default Firestore database in location.
	CreateDatabase(ctx context.Context, projectID, location string) (Payload, error)
}
