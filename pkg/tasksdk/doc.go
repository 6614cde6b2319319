/*
Package tasksdk provides a client SDK for the taskboard API.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: public endpoints (registration, login, password reset, health)
  - Session: authenticated endpoints, with the access token refreshed on demand

Create an SDKClient and log in to get a Session:

	client := tasksdk.NewSDKClient("http://localhost:8080")

	user, err := client.Register(ctx, tasksdk.RegisterRequest{
		FullName: "Alice Example",
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Abcd1234",
	})

	session, err := client.Login(ctx, "alice@example.com", "Abcd1234")

Sessions manage the token pair. When the access token is about to expire the
next call rotates both tokens first:

	task, err := session.CreateTask(ctx, tasksdk.CreateTaskRequest{Title: "Write report"})
	page, err := session.ListTasks(ctx, tasksdk.TaskQuery{Status: tasksdk.StatusPending})

A refresh token is single use. Two sessions built from the same refresh token
cannot both survive: the first rotation invalidates the token the other holds.

# Errors

Failed requests return *APIError carrying the HTTP status, the server message
and any field errors:

	var apiErr *tasksdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		// email or username taken
	}
*/
package tasksdk
