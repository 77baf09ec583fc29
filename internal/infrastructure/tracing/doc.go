/*
Package tracing provides lightweight request tracing over zap.

# Overview

Spans capture one operation each: name, duration, tags, and outcome.
Completed spans flow through a buffered channel to a collector goroutine
that emits them as structured log lines. Trace and span ids propagate
through context and the X-Trace-ID / X-Span-ID headers, so a workspace
import can be followed from the HTTP edge through the remote server calls
it triggers.

# Usage

	tracer := tracing.New("backend", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "workspace.import")
	span.SetTag("notebook", name)
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
