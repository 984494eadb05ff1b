package channel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/flemzord/newsclaw/pkg/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds each transport call when Options.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Messaging types accepted by the transport.
const (
	MessagingTypeResponse   = "RESPONSE"
	MessagingTypeUpdate     = "UPDATE"
	MessagingTypeMessageTag = "MESSAGE_TAG"
)

var tracer = otel.Tracer("github.com/flemzord/newsclaw/internal/channel")

// Options tunes one Dispatch call.
type Options struct {
	// Timeout bounds each step, attachment resolution included.
	// Zero means DefaultTimeout.
	Timeout time.Duration

	// MessagingType defaults to MessagingTypeResponse.
	MessagingType string

	// Tag is required by the transport when MessagingType is
	// MessagingTypeMessageTag.
	Tag string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MessagingType == "" {
		o.MessagingType = MessagingTypeResponse
	}
	return o
}

// Result describes one delivered step.
type Result struct {
	Index    int
	Kind     StepKind
	Receipt  Receipt
	Duration time.Duration
}

// Dispatcher executes delivery steps strictly in order. A step's transport
// call returns before the next one starts, since the recipient renders
// messages in receipt order.
type Dispatcher struct {
	transport   Transport
	attachments AttachmentResolver
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher. attachments may be nil when no step
// carries media.
func NewDispatcher(t Transport, attachments AttachmentResolver, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{transport: t, attachments: attachments, logger: logger}
}

// Dispatch sends steps to recipient. The first failing step aborts the
// rest and is returned as a *StepError together with the results of the
// steps already delivered. Delivered steps are never retried or recalled.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient string, steps []Step, opts Options) ([]Result, error) {
	opts = opts.withDefaults()
	env := Envelope{Recipient: recipient, MessagingType: opts.MessagingType, Tag: opts.Tag}

	ctx, span := tracer.Start(ctx, "channel.Dispatch", trace.WithAttributes(
		attribute.Int("dispatch.steps", len(steps)),
		attribute.String("dispatch.messaging_type", opts.MessagingType),
	))
	defer span.End()

	results := make([]Result, 0, len(steps))
	for i, step := range steps {
		start := time.Now()
		receipt, err := d.runStep(ctx, env, i, step, opts.Timeout)
		elapsed := time.Since(start)
		observeStep(step.Kind, elapsed, err)

		if err != nil {
			stepErr := &StepError{Index: i, Kind: step.Kind, Err: err}
			span.RecordError(stepErr)
			span.SetStatus(codes.Error, "step failed")
			d.logger.Error("dispatch aborted",
				"recipient", recipient,
				"step", i,
				"kind", step.Kind,
				"delivered", len(results),
				"error", err,
			)
			return results, stepErr
		}
		results = append(results, Result{Index: i, Kind: step.Kind, Receipt: receipt, Duration: elapsed})
	}

	d.logger.Debug("dispatch complete", "recipient", recipient, "steps", len(results))
	return results, nil
}

func (d *Dispatcher) runStep(ctx context.Context, env Envelope, index int, step Step, timeout time.Duration) (Receipt, error) {
	// A cancelled event aborts before the next transmission starts.
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	ctx, span := tracer.Start(ctx, "channel.Step", trace.WithAttributes(
		attribute.Int("step.index", index),
		attribute.String("step.kind", string(step.Kind)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	receipt, err := d.send(ctx, env, step)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return receipt, err
}

func (d *Dispatcher) send(ctx context.Context, env Envelope, step Step) (Receipt, error) {
	switch step.Kind {
	case StepText:
		return d.transport.SendText(ctx, env, step.Text, step.QuickReplies)

	case StepButtons:
		return d.transport.SendButtons(ctx, env, step.Text, step.Buttons, step.QuickReplies)

	case StepCarousel:
		if len(step.Elements) > message.MaxCarouselElements {
			return Receipt{}, fmt.Errorf("%w: %d > %d", ErrCarouselTooLarge, len(step.Elements), message.MaxCarouselElements)
		}
		return d.transport.SendCarousel(ctx, env, step.Elements, step.QuickReplies)

	case StepAttachment:
		typ := step.Attachment.Type
		if typ == message.AttachmentUnknown {
			typ = message.InferAttachmentType(step.Attachment.URL)
		}
		if typ == message.AttachmentUnknown {
			return Receipt{}, fmt.Errorf("%w: %s", ErrUnknownAttachmentType, step.Attachment.URL)
		}
		if d.attachments == nil {
			return Receipt{}, fmt.Errorf("channel: no attachment resolver for %s", step.Attachment.URL)
		}
		id, err := d.attachments.Resolve(ctx, step.Attachment.URL, typ)
		if err != nil {
			return Receipt{}, fmt.Errorf("channel: resolve attachment: %w", err)
		}
		return d.transport.SendAttachment(ctx, env, typ, id)
	}
	return Receipt{}, fmt.Errorf("%w: %q", ErrUnknownStep, step.Kind)
}
