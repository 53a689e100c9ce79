package consumer

import (
	"context"
	"log/slog"

	"taxfile/internal/platform/kafka/consumer"
)

// Router picks a handler by topic. Messages on topics nobody registered go to
// the fallback, or are committed and logged when there is none.
type Router struct {
	routes   map[string]consumer.Handler
	fallback consumer.Handler
	logger   *slog.Logger
}

func NewRouter(logger *slog.Logger, fallback consumer.Handler) *Router {
	return &Router{
		routes:   make(map[string]consumer.Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register replaces any handler already set for topic.
func (r *Router) Register(topic string, h consumer.Handler) {
	r.routes[topic] = h
}

func (r *Router) Handle(ctx context.Context, msg *consumer.Message) error {
	if h, ok := r.routes[msg.Topic]; ok {
		return h.Handle(ctx, msg)
	}
	if r.fallback != nil {
		return r.fallback.Handle(ctx, msg)
	}
	r.logger.WarnContext(ctx, "unrouted message committed", "topic", msg.Topic, "key", string(msg.Key))
	return nil
}
