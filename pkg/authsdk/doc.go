/*
Package authsdk provides a client SDK for the gatehouse authentication service
and the wire types its HTTP handlers share with it.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: unauthenticated operations (register, login, health, JWKS)
  - Session: requests made on behalf of a signed-in user

	client, err := authsdk.NewSDKClient("https://auth.example.com")

	id, err := client.Register(ctx, authsdk.RegisterRequest{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "correct horse",
	})

	session, err := client.Login(ctx, "ada@example.com", "correct horse")
	me, err := session.Me(ctx)

# Credentials

The access token is held only in memory by the Session and is never written
to disk or a cookie. The refresh token (bearer deployments) or the session
cookie (cookie deployments) lives in the SDKClient's cookie jar, exactly as a
browser would keep it.

# Renewal

Session.Do sends a request with the current access token. When the server
answers 401 with a Bearer challenge whose error_description is "expired" it
makes exactly one renewal call against /v1/auth/refresh and,
if that succeeds, retries the original request exactly once. A failed
renewal, or a second 401 after a successful one, returns ErrSessionExpired
and the caller must sign in again. Concurrent requests that hit a 401 at the
same time share a single renewal call. Any other 401 ("missing", "invalid"
or no challenge at all) is ErrSessionExpired without a renewal attempt.

Cookie deployments have no renewal path: a 401 is immediately
ErrSessionExpired.

# Error Handling

Non-success responses are returned as *APIError and can be matched with
errors.Is against the predefined values:

	_, err := client.Register(ctx, req)
	if errors.Is(err, authsdk.ErrEmailTaken) {
		// ask the user to sign in instead
	}
*/
package authsdk
