package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/example/courier-orders/internal/config"
	"github.com/example/courier-orders/internal/logging"
	"github.com/example/courier-orders/internal/models"
	"github.com/example/courier-orders/internal/notify"
)

var (
	eventsConsumed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_events_consumed_total",
		Help: "Total order change events consumed",
	})
	eventsInvalid = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_events_invalid_total",
		Help: "Total malformed events received",
	})
	redisUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_redis_updates_total",
		Help: "Total successful status mirror writes",
	})
	redisErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_redis_errors_total",
		Help: "Total status mirror write failures",
	})
	pushErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_push_errors_total",
		Help: "Total push notification failures",
	})
)

func init() {
	prometheus.MustRegister(eventsConsumed, eventsInvalid, redisUpdates, redisErrors, pushErrors)
}

func main() {
	flag.Parse()

	cfg, err := config.LoadRelayConfig()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.LogLevel)

	rc := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	mirror := &redisMirror{c: rc}

	var pusher *notify.HTTPPush
	if cfg.PushEndpoint != "" {
		pusher = notify.NewHTTPPush(cfg.PushEndpoint, cfg.PushKey)
	}

	// metrics and health server
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := rc.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis not ready", 503)
				return
			}
			w.WriteHeader(200)
			w.Write([]byte("ready"))
		})
		log.Info("metrics/health listening", "addr", cfg.MetricsAddr)
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			log.Warn("metrics server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.KafkaGroup,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer func() {
		_ = r.Close()
		_ = rc.Close()
	}()

	log.Info("relay listening", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers, "group", cfg.KafkaGroup)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("shutting down relay")
				return
			}
			log.Warn("kafka read error", "error", err, "backoff", backoff)
			time.Sleep(backoff)
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second

		eventsConsumed.Inc()

		var ev models.ChangeEvent
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.OrderID == "" {
			eventsInvalid.Inc()
			log.Warn("invalid event", "error", err)
			continue
		}

		if err := mirrorWithRetry(ctx, mirror, ev, 3, 200*time.Millisecond); err != nil {
			redisErrors.Inc()
			log.Warn("status mirror failed", "order", ev.OrderID, "error", err)
			continue
		}
		redisUpdates.Inc()

		if pusher != nil && ev.UserID != "" {
			if err := pusher.Notify(ev.UserID, ev); err != nil {
				pushErrors.Inc()
				log.Warn("push failed", "user", ev.UserID, "error", err)
			}
		}
	}
}

// StatusMirror is the subset of redis operations the relay needs, kept as an
// interface for tests.
type StatusMirror interface {
	HSet(ctx context.Context, key string, values map[string]interface{}) error
}

type redisMirror struct{ c *redis.Client }

func (r *redisMirror) HSet(ctx context.Context, key string, values map[string]interface{}) error {
	_, err := r.c.HSet(ctx, key, values).Result()
	return err
}

// mirrorWithRetry writes the order's latest status to the mirror hash with
// retry and exponential backoff.
func mirrorWithRetry(ctx context.Context, mc StatusMirror, ev models.ChangeEvent, attempts int, delay time.Duration) error {
	fields := map[string]interface{}{
		"status":  string(ev.Status),
		"user_id": ev.UserID,
		"op":      ev.Op,
	}
	for i := 0; i < attempts; i++ {
		err := mc.HSet(ctx, "order:status:"+ev.OrderID, fields)
		if err == nil {
			return nil
		}
		if i == attempts-1 {
			return err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return nil
}
