package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/smiles-unlimited/ufund/internal/pkg/bootstrap"
	"github.com/smiles-unlimited/ufund/internal/pkg/config"
	"github.com/smiles-unlimited/ufund/internal/pkg/httpclient"
	"github.com/smiles-unlimited/ufund/internal/pkg/logger"
	"github.com/smiles-unlimited/ufund/internal/pkg/mq"
	"github.com/smiles-unlimited/ufund/internal/service/basket/domain"
)

const serviceName = "ufund-mailer"

var mailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ufund_mailer_receipts_total",
	Help: "Receipt events consumed, by delivery result.",
}, []string{"result"})

// mailRequest is the payload the external mail relay expects.
type mailRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) func() {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())

			m := newMailer(appCtx.Cfg)
			ctx, cancel := context.WithCancel(context.Background())
			go m.run(ctx)

			return func() {
				cancel()
				if err := m.reader.Close(); err != nil {
					logger.Ctx(context.Background()).Error().Err(err).Msg("error closing kafka reader")
				}
			}
		},
	})
}

type mailer struct {
	reader   *kafka.Reader
	client   *httpclient.Client
	tracer   trace.Tracer
	relayURL string
	from     string
}

func newMailer(cfg *config.Config) *mailer {
	return &mailer{
		reader:   mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.ReceiptTopic, cfg.Infra.Kafka.MailerGroup),
		client:   httpclient.NewClient(otel.Tracer(serviceName)),
		tracer:   otel.Tracer(serviceName),
		relayURL: cfg.Infra.MailRelay.URL,
		from:     cfg.Infra.MailRelay.From,
	}
}

// run consumes receipt events until the context is cancelled. Delivery is at
// least once: a relay failure is logged and counted but the loop moves on, so
// a poisonous event cannot stall every receipt behind it.
func (m *mailer) run(ctx context.Context) {
	logger.Ctx(ctx).Info().Str("topic", m.reader.Config().Topic).Msg("mailer consuming receipt events")
	for {
		msg, err := m.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Ctx(ctx).Error().Err(err).Msg("failed to read receipt event")
			continue
		}
		m.handle(mq.ExtractTraceContext(ctx, msg.Headers), msg.Value)
	}
}

func (m *mailer) handle(ctx context.Context, value []byte) {
	ctx, span := m.tracer.Start(ctx, "mailer.handle", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()

	var event domain.ReceiptEvent
	if err := json.Unmarshal(value, &event); err != nil {
		span.RecordError(err)
		mailsSent.WithLabelValues("invalid").Inc()
		logger.Ctx(ctx).Error().Err(err).Msg("discarding malformed receipt event")
		return
	}
	span.SetAttributes(
		attribute.String("receipt.event_id", event.EventID),
		attribute.Int("user.id", event.UserID),
	)

	req := mailRequest{
		From:    m.from,
		To:      event.ToEmail,
		Subject: "Your Smiles Unlimited receipt",
		Body:    event.Body,
	}
	if err := m.client.PostJSON(ctx, m.relayURL, req); err != nil {
		span.RecordError(err)
		mailsSent.WithLabelValues("failed").Inc()
		logger.Ctx(ctx).Error().Err(err).Str("event_id", event.EventID).Msg("mail relay delivery failed")
		return
	}
	mailsSent.WithLabelValues("sent").Inc()
	logger.Ctx(ctx).Info().Str("event_id", event.EventID).Int("user_id", event.UserID).Msg("receipt delivered")
}
