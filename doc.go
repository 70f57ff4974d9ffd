// Package subpoll is a long-poll subscription client.
//
// A Poller repeatedly asks an origin for the messages published after the last
// position it saw, decodes each response without building a JSON tree, and
// hands every message to a handler before asking again.
//
// # Quick Start
//
//	cfg := subpoll.DefaultConfig()
//	cfg.Origin = "https://ps.example.com"
//	cfg.SubscribeKey = "sub-c-..."
//	cfg.Channels = []string{"orders"}
//
//	tr, err := transport.NewHTTP(cfg.HTTPConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	handler := subpoll.MessageHandlerFunc(func(ctx context.Context, msg subpoll.Message) error {
//	    fmt.Printf("%s: %s\n", msg.Channel, msg.Payload)
//	    return nil
//	})
//
//	p, err := subpoll.NewPoller(&cfg, tr, handler)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop(context.Background())
//
// # Message Lifetime
//
// Handlers run synchronously inside the drain of one response. The byte slices
// of a Message alias the receive buffer and become invalid once the handler
// returns and the next poll starts. Call Message.Clone to keep one.
//
// # States
//
//	Idle → Polling → Draining → Polling → ...
//	            ↘ Backoff ↗
//
// Transport and envelope errors move the poller to Backoff; the position is
// left untouched so the same poll is retried. Errors in single messages are
// reported through Hooks.OnError and do not stop the drain.
//
// # Resuming
//
// With a Checkpointer (see the checkpoint package) the position is restored on
// Start and saved after every drained response.
package subpoll
