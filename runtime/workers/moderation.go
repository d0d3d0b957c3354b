package workers

import (
	"call-lab/contract"
	"call-lab/domain"
	"call-lab/domain/event"
	"call-lab/moderation"
	"call-lab/observability"
	"context"
	"log/slog"

	"github.com/abadojack/whatlanggo"
)

var _ contract.Worker = (*ModerationWorker)(nil)

// ModerationWorker is the chat pipeline stage between the coordinator and
// the room broadcast: it censors the text and only then fans the message
// out to the group. Clean messages pass through byte-identical.
type ModerationWorker struct {
	moderator moderation.Moderator
	messenger contract.IMessenger
	monitor   *observability.Monitor
	posts     chan domain.ChatPost
	log       *slog.Logger
}

func NewModerationWorker(moderator moderation.Moderator, messenger contract.IMessenger,
	monitor *observability.Monitor, posts chan domain.ChatPost, log *slog.Logger) *ModerationWorker {
	return &ModerationWorker{
		moderator: moderator,
		messenger: messenger,
		monitor:   monitor,
		posts:     posts,
		log:       log,
	}
}

func (w *ModerationWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case post, ok := <-w.posts:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			w.publish(ctx, post)
		}
	}
}

func (w *ModerationWorker) publish(ctx context.Context, post domain.ChatPost) {
	sanitized, foundWords := w.moderator.Censor(post.Text)
	w.monitor.IncrChatModerated()

	if len(foundWords) > 0 {
		info := whatlanggo.Detect(post.Text)
		w.monitor.AddCensorHits(len(foundWords))
		w.log.Warn("Chat message censored",
			"room", post.Room,
			"author", post.FromName,
			"hits", len(foundWords),
			"lang", info.Lang.Iso6391())
	}

	w.messenger.Broadcast(ctx, post.Room, event.Chat{FromName: post.FromName, Text: sanitized})
}
