// Package debugserver exposes a pipeline's configuration tree and latest
// frame result over HTTP.
//
// Routes:
//
//	GET   /health                 service and pipeline health
//	GET   /config                 every node, in declaration order
//	GET   /config/<path>          one node
//	PATCH /config/<path>          apply a JSON object of fields
//	PUT   /config/<path>/enabled  body {"enabled": bool}
//	GET   /stats                  the latest FrameResult
//	GET   /events?types=<glob>    server-sent frame and config events
//
// Frame events are throttled to one per Config.FrameEvents milliseconds;
// config events are sent for every accepted change. With Config.TLS set the
// server speaks HTTPS and can require client certificates.
//
// Edits take effect at the next frame. With a JWT secret configured every
// route except /health needs an HS256 bearer token, and edits need the
// "config:write" scope.
package debugserver
