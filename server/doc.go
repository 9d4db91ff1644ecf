// Package server is the HTTP server: a Gin engine mounted on a ServeMux,
// served over HTTP/1.1 and h2c, with a net/http middleware stack in front
// and the operational endpoints from server/endpoint.
//
//	srv := server.New(cfg, log)
//	srv.ApplyMiddleware()
//	srv.RegisterDefaultEndpoints("scribe", registry.HealthAll, nil)
//	srv.GinEngine().POST("/transcribe/", h.Transcribe)
//	registry.Register(server.NewComponent(srv))
package server
