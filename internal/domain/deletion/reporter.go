// Package deletion reconstructs deleted messages into reports
package deletion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/infrastructure/metrics"
)

// Reporter delivers deletion reports to account destinations
type Reporter struct {
	sender    domain.Sender
	archive   domain.MediaArchive
	publisher domain.EventPublisher
	tempDir   string
	loc       *time.Location
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewReporter creates a new deletion reporter.
// archive and publisher may be nil.
func NewReporter(
	sender domain.Sender,
	archive domain.MediaArchive,
	publisher domain.EventPublisher,
	tempDir string,
	loc *time.Location,
	logger zerolog.Logger,
	m *metrics.Metrics,
) *Reporter {
	return &Reporter{
		sender:    sender,
		archive:   archive,
		publisher: publisher,
		tempDir:   tempDir,
		loc:       loc,
		logger:    logger.With().Str("component", "deletion_reporter").Logger(),
		metrics:   m,
	}
}

// Report sends the text report and, when the message had media, the recovered attachment.
// A media failure degrades to a textual notice and is returned as a media error.
func (r *Reporter) Report(ctx context.Context, rep domain.DeletionReport) error {
	msg := rep.Message
	log := r.logger.With().
		Str("account", rep.Account).
		Int64("conversation_id", msg.ConversationID).
		Int("message_id", msg.Key.ID).
		Logger()

	if err := r.sender.SendText(ctx, rep.Destination, FormatReport(msg, rep.ObservedAt.In(r.loc))); err != nil {
		r.recordError(domain.KindTransport)
		return domain.E(domain.KindTransport, "send_deletion_report", rep.Account, err)
	}
	r.metrics.RecordDeletionReport()

	event := domain.DeletionEvent{
		Account:          rep.Account,
		ConversationID:   msg.ConversationID,
		ConversationName: msg.ConversationName,
		MessageID:        msg.Key.ID,
		ObservedAt:       rep.ObservedAt,
	}

	var result error
	if msg.Media != nil {
		kind := domain.ClassifyMedia(msg.Media)
		event.HasMedia = true
		event.MediaKind = kind.String()

		url, err := r.deliverMedia(ctx, rep, kind)
		event.ArchiveURL = url
		if err != nil {
			result = domain.E(domain.KindMedia, "deliver_media", rep.Account, err)
			r.recordError(domain.KindMedia)

			log.Warn().Err(err).Str("kind", kind.String()).Msg("media delivery failed, sending notice")
			if sendErr := r.sender.SendText(ctx, rep.Destination, FormatMediaFailure(msg, kind, err)); sendErr != nil {
				log.Error().Err(sendErr).Msg("failed to send media failure notice")
			}
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishDeletion(ctx, event); err != nil {
			log.Warn().Err(err).Msg("failed to publish deletion event")
		}
	}

	log.Info().Bool("has_media", event.HasMedia).Msg("deletion report delivered")
	return result
}

// deliverMedia downloads the attachment into a scoped temporary directory and re-sends it.
// Returns the archive location when the attachment was archived.
func (r *Reporter) deliverMedia(ctx context.Context, rep domain.DeletionReport, kind domain.MediaKind) (string, error) {
	media := rep.Message.Media
	if rep.Downloader == nil || media.Handle == nil {
		return "", domain.ErrUnsupportedMedia
	}

	start := time.Now()

	dir, err := os.MkdirTemp(r.tempDir, "deleted-media-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			r.logger.Warn().Err(err).Str("dir", dir).Msg("failed to remove temp dir")
		}
	}()

	path := filepath.Join(dir, "media"+domain.MediaExtension(media, kind))
	if err := rep.Downloader.Download(ctx, media, path); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}

	url := r.archiveMedia(ctx, rep, path)

	upload := domain.MediaUpload{
		Kind:     kind,
		Path:     path,
		FileName: domain.FileNameFor(media, kind),
		MimeType: media.MimeType,
		Caption:  FormatCaption(rep.Message),
	}
	if err := r.sender.SendMedia(ctx, rep.Destination, upload); err != nil {
		return url, fmt.Errorf("send %s: %w", kind, err)
	}

	r.metrics.RecordMediaDelivery(kind.String(), time.Since(start).Seconds())
	return url, nil
}

func (r *Reporter) archiveMedia(ctx context.Context, rep domain.DeletionReport, path string) string {
	if r.archive == nil {
		return ""
	}
	url, err := r.archive.Archive(ctx, rep.Account, rep.Message.Key, path, rep.Message.Media.MimeType)
	if err != nil {
		r.logger.Warn().Err(err).
			Str("account", rep.Account).
			Int("message_id", rep.Message.Key.ID).
			Msg("failed to archive media")
		return ""
	}
	return url
}

func (r *Reporter) recordError(kind domain.Kind) {
	r.metrics.RecordDeletionReportError(kind.String())
}
