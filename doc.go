// Package notekeeper is the Composition Root for the notekeeper client.
//
// It connects the client-side store (Domain Layer) with the HTTP API client and
// the persisted session (Infrastructure Layer) using the Hexagonal Architecture pattern.
//
// Philosophy:
//
// The store is the single source of truth for what the user sees: the current
// page of notes, the selection and the session token. It changes only through
// mutations; actions talk to the backend and commit their results through
// those same mutations. The API client owns the transport and attaches the
// bearer token to every request. A 401 from any endpoint drops the session and
// sends the user back to the authentication route.
//
// Features:
//
//   - **Single Credential**: Store and client read the same persisted token.
//   - **Interceptors**: Request and response hooks around every call.
//   - **Background Refresh**: Writes and login reload the first page without blocking.
//   - **Subscriptions**: Every mutation is published to subscribers.
//   - **Dev Safety**: `go run` and `go test` never touch the real session file.
//
// Usage:
//
//	app, err := notekeeper.New(
//		notekeeper.WithBaseURL("http://localhost:5032"),
//		notekeeper.WithLogger(logger),
//	)
//	defer app.Close(ctx)
//
//	err = app.Store.Login(ctx, core.Credentials{Username: "ana", Password: "secret"})
//	notes, err := app.Store.FetchNotes(ctx, core.FetchParams{Page: 1})
package notekeeper
