package relay

import (
	"context"

	"github.com/MohammedGhazal09/portfolio/internal/contact"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Traced wraps a relay so each dispatch is recorded as a span.
type Traced struct {
	next     contact.Relay
	tracer   trace.Tracer
	provider string
}

func NewTraced(next contact.Relay, tracer trace.Tracer, provider string) *Traced {
	return &Traced{next: next, tracer: tracer, provider: provider}
}

func (t *Traced) Send(ctx context.Context, d contact.Dispatch) error {
	ctx, span := t.tracer.Start(ctx, "relay.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("relay.provider", t.provider),
			attribute.String("relay.service_id", d.ServiceID),
			attribute.String("relay.template_id", d.TemplateID),
		),
	)
	defer span.End()

	err := t.next.Send(ctx, d)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}
