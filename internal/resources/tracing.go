package resources

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"quill/internal/shared/id"
)

const (
	traceScope = "quill.resources"

	spanSynchronize = "quill.resources.synchronize"
	spanPurge       = "quill.resources.purge"
	spanUpload      = "quill.resources.upload"
	spanDelete      = "quill.resources.delete"

	attrSlug   = "quill.slug"
	attrSyncID = "quill.sync_id"
	attrSlot   = "quill.slot"
	attrKey    = "quill.key"
	attrStatus = "quill.status"
)

func startSpan(ctx context.Context, name, slug string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	spanAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	spanAttrs = append(spanAttrs, attribute.String(attrSlug, slug))
	if syncID := id.SyncIDFromContext(ctx); syncID != "" {
		spanAttrs = append(spanAttrs, attribute.String(attrSyncID, syncID))
	}
	spanAttrs = append(spanAttrs, attrs...)
	return otel.Tracer(traceScope).Start(ctx, name, trace.WithAttributes(spanAttrs...))
}

func markSpanResult(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(attrStatus, "error"))
		return
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String(attrStatus, "success"))
}
