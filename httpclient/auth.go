package httpclient

import "net/http"

// Auth attaches credentials to every outgoing request.
type Auth func(req *http.Request)

// HeaderKey sends key in the named header, as ElevenLabs expects with
// xi-api-key.
func HeaderKey(header, key string) Auth {
	return func(req *http.Request) {
		req.Header.Set(header, key)
	}
}

// Bearer sends token in the Authorization header. An empty token yields
// nil so callers can pass an unset config value straight through.
func Bearer(token string) Auth {
	if token == "" {
		return nil
	}
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
