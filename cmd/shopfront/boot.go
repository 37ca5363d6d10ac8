package main

import (
	"context"
	"time"

	"shopfront/app/api"
	"shopfront/app/stores"
	"shopfront/config"
	"shopfront/pkg/event"
	"shopfront/pkg/kvstore"
)

// boot wires the stores the way an embedding UI would: one kvstore driver,
// one API client, session first, cart keyed off the session's identity.
// Identity changes, including the background reconcile flipping the user
// out from under us, re-scope the cart through the session.changed event.
func boot(ctx context.Context) (*stores.SessionStore, *stores.CartStore, error) {
	if err := config.Load(); err != nil {
		return nil, nil, err
	}
	kvstore.Connect()

	kv := kvstore.Default()
	client := api.NewClient("")

	session := stores.NewSessionStore(kv, client)
	cart := stores.NewCartStore(kv, client, session)

	event.Listen(event.SessionChanged, func(interface{}) {
		cart.OnIdentityChanged(session.IdentityID())
	})

	session.Initialize(ctx)
	waitSettled(session)
	cart.Initialize(session.IdentityID())

	return session, cart, nil
}

// waitSettled blocks until the background session reconcile finishes, so a
// one-shot CLI invocation acts on the confirmed identity rather than the
// optimistic one. Bounded: an unreachable backend must not hang the CLI.
func waitSettled(session *stores.SessionStore) {
	deadline := time.Now().Add(5 * time.Second)
	for session.Loading() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
}
