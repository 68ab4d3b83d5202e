// Package sse streams typed events to HTTP clients as Server-Sent Events.
//
// A Hub routes each published Event to the clients whose pattern matches
// the event type (glob syntax: "frame", "config", "*"). Publishing never
// blocks: a full hub queue or a slow client drops the event and counts it.
//
//	hub := sse.NewHub(log)
//	go hub.Run(ctx)
//	router.GET("/events", func(c *gin.Context) {
//	    sse.Serve(hub, c.Writer, c.Request, id, c.DefaultQuery("types", "*"))
//	})
//	hub.Publish(sse.Event{Type: "frame", Data: payload})
package sse
