package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/newsclaw/internal/content"
	"github.com/flemzord/newsclaw/internal/tracking"
	"github.com/flemzord/newsclaw/pkg/message"
)

// ReportStart sends a report's fragments. When the report has audio, the
// last fragment offers it as a quick reply.
type ReportStart struct {
	repo   content.Repository
	logger *slog.Logger
}

// NewReportStart creates the report_start handler.
func NewReportStart(repo content.Repository, logger *slog.Logger) *ReportStart {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportStart{repo: repo, logger: logger}
}

// Handle implements Handler.
func (h *ReportStart) Handle(ctx context.Context, req Request) (Reply, error) {
	var p ReportStartPayload
	if err := req.Payload.Decode(&p); err != nil {
		return Reply{}, err
	}
	if p.Report == 0 {
		return Reply{}, fmt.Errorf("%w: report_start without report id", ErrInvalidPayload)
	}

	report, err := h.repo.Report(ctx, p.Report)
	if err != nil {
		return Reply{}, fmt.Errorf("handler: report %d: %w", p.Report, err)
	}

	reply := Reply{Content: report.Content()}
	if report.Audio != "" {
		reply.Trailing.QuickReplies = []message.QuickReply{
			message.NewQuickReply(labelListen, ReportAudioPayload{
				Action:   ActionReportAudio,
				AudioURL: report.Audio,
				Category: p.Category,
				Event:    p.Event,
				Label:    "audio",
			}, ""),
		}
	}

	trackPayload(ctx, h.logger, req, p.Category, p.Event, p.Label)
	return reply, nil
}

// ReportAudio sends a report's audio file.
type ReportAudio struct {
	logger *slog.Logger
}

// NewReportAudio creates the report_audio handler.
func NewReportAudio(logger *slog.Logger) *ReportAudio {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportAudio{logger: logger}
}

// Handle implements Handler.
func (h *ReportAudio) Handle(ctx context.Context, req Request) (Reply, error) {
	var p ReportAudioPayload
	if err := req.Payload.Decode(&p); err != nil {
		return Reply{}, err
	}
	if p.AudioURL == "" {
		return Reply{}, fmt.Errorf("%w: report_audio without audioUrl", ErrInvalidPayload)
	}

	trackPayload(ctx, h.logger, req, p.Category, p.Event, p.Label)
	return Reply{Attachments: []message.Attachment{{URL: p.AudioURL, Type: message.AttachmentAudio}}}, nil
}

// trackPayload reports the tracking fields postback payloads carry.
func trackPayload(ctx context.Context, logger *slog.Logger, req Request, category, action, label string) {
	if category == "" || !req.State.TrackingEnabled() {
		return
	}
	if err := req.State.Track(ctx, tracking.Event{Category: category, Action: action, Label: label}); err != nil {
		logger.Warn("tracking failed", "category", category, "action", action, "error", err)
	}
}
