// Package qstash provides a Go client for QStash, the Upstash HTTP-based
// message queue and task scheduler.
//
// The client publishes messages to a destination URL or to a named topic,
// and exposes the rest of the QStash REST surface: message lookup and
// cancellation, delivery event logs, the dead letter queue, cron schedules,
// and topic management.
//
// # Quick Start
//
// Publish a JSON message to a URL:
//
//	client, err := qstash.NewClient(os.Getenv("QSTASH_TOKEN"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	responses, err := client.PublishJSON(ctx,
//	    qstash.URL("https://example.com/webhook"),
//	    map[string]string{"hello": "world"},
//	    qstash.WithDelay(30*time.Second),
//	)
//
// Publishing to a topic fans out to every endpoint subscribed to it, and the
// returned slice contains one entry per endpoint. Each entry carries its own
// error field; a rejected endpoint does not fail the whole call:
//
//	responses, err := client.PublishJSON(ctx, qstash.Topic("user-signups"), payload)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range responses {
//	    if err := r.Err(); err != nil {
//	        log.Printf("delivery not accepted: %v", err)
//	    }
//	}
//
// Delivery itself (retries, ordering, dead-lettering) is handled by the
// QStash service; this package only wraps its REST API. The receiving side
// (signature verification for incoming QStash requests) is not part of this
// package.
package qstash
