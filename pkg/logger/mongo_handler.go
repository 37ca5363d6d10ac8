// MongoHandler is an slog.Handler that asynchronously stores log records in
// a MongoDB collection. It must never slow down store mutations, so:
//
//   - Records are enqueued into a buffered channel (non-blocking).
//   - A background goroutine drains the channel and performs InsertMany in
//     batches.
//   - A full channel drops the record silently.
//   - Close() flushes and disconnects.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoQueueSize = 2048
	mongoBatchSize = 50
	mongoDrainTick = 2 * time.Second
)

// logDocument is the shape written to MongoDB.
type logDocument struct {
	Time  time.Time `bson:"time"`
	Level string    `bson:"level"`
	Msg   string    `bson:"msg"`
	Attrs bson.M    `bson:"attrs,omitempty"`
}

// MongoHandler ships slog records to MongoDB without blocking the caller.
type MongoHandler struct {
	col    *mongo.Collection
	client *mongo.Client
	queue  chan logDocument
	done   chan struct{}
	attrs  []slog.Attr
}

// NewMongoHandler connects to uri and writes records into db/collection.
// The caller must eventually call Close().
func NewMongoHandler(uri, db, collection string) (*MongoHandler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).
		SetConnectTimeout(5 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("logger: mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("logger: mongo ping: %w", err)
	}

	col := client.Database(db).Collection(collection)

	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "time", Value: -1}},
	})

	h := &MongoHandler{
		col:    col,
		client: client,
		queue:  make(chan logDocument, mongoQueueSize),
		done:   make(chan struct{}),
	}

	go h.drainLoop()
	return h, nil
}

func (h *MongoHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *MongoHandler) Handle(_ context.Context, r slog.Record) error {
	doc := logDocument{
		Time:  r.Time,
		Level: r.Level.String(),
		Msg:   r.Message,
		Attrs: bson.M{},
	}

	for _, a := range h.attrs {
		doc.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		doc.Attrs[a.Key] = a.Value.Any()
		return true
	})

	// Non-blocking enqueue: drop if the channel is full.
	select {
	case h.queue <- doc:
	default:
	}
	return nil
}

func (h *MongoHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &MongoHandler{
		col:    h.col,
		client: h.client,
		queue:  h.queue,
		done:   h.done,
		attrs:  merged,
	}
}

func (h *MongoHandler) WithGroup(string) slog.Handler { return h }

func (h *MongoHandler) drainLoop() {
	ticker := time.NewTicker(mongoDrainTick)
	defer ticker.Stop()

	batch := make([]interface{}, 0, mongoBatchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, _ = h.col.InsertMany(ctx, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case doc := <-h.queue:
			batch = append(batch, doc)
			if len(batch) >= mongoBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-h.done:
			for len(h.queue) > 0 {
				batch = append(batch, <-h.queue)
			}
			flush()
			return
		}
	}
}

// Close flushes pending records and disconnects. Safe to call twice.
func (h *MongoHandler) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = h.client.Disconnect(ctx)
}

// MultiHandler fans a record out to several slog.Handlers.
type MultiHandler struct {
	handlers []slog.Handler
}

// NewMultiHandler returns a handler that sends each record to all hs.
func NewMultiHandler(hs ...slog.Handler) *MultiHandler {
	return &MultiHandler{handlers: hs}
}

func (m *MultiHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (m *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: out}
}

func (m *MultiHandler) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		out[i] = h.WithGroup(name)
	}
	return &MultiHandler{handlers: out}
}
