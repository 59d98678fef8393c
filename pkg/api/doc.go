// Package api is the HTTP client for the notes backend.
//
// Every request goes through two ordered interceptor chains. Request
// interceptors decorate the outgoing *http.Request (BearerToken, RequestID)
// and can abort it. Response interceptors observe the outcome and can replace
// the error; OnUnauthorized uses this to react to 401 responses in one place,
// whatever operation triggered them.
//
//	cred := core.NewCredential(storage)
//	client, err := api.NewClient(api.Config{
//		BaseURL: "http://localhost:5032",
//		RequestInterceptors: []api.RequestInterceptor{
//			api.BearerToken(cred),
//		},
//		ResponseInterceptors: []api.ResponseInterceptor{
//			api.OnUnauthorized(func(ctx context.Context) { /* logout */ }),
//		},
//	})
//
// Endpoints:
//
//   - GET    /notes?lastNoteCreatedAt=&page=&pageSize=
//   - POST   /auth/login
//   - POST   /notes
//   - PUT    /notes/{id}
//   - DELETE /notes/{id}
package api
