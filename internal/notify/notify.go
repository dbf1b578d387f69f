// Package notify provides the engine's default notification
// implementations. The real delivery transport (chat platform) lives
// outside this repository; these implementations log what would be sent
// so a cycle run always leaves a readable trace.
package notify

import (
	"context"

	"github.com/dvtarkov/vampires-engine/internal/game"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the structured log. It never
// fails; delivery problems belong to the external transport.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier returns a notifier that logs every message.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{log: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, userID int64, title, body string) {
	n.log.Info("player notification",
		zap.Int64("user_id", userID),
		zap.String("title", title),
		zap.String("body", body),
	)
}

// Func adapts a function to the game.Notifier interface; handy for
// wiring a real transport or a test capture.
type Func func(ctx context.Context, userID int64, title, body string)

func (f Func) Notify(ctx context.Context, userID int64, title, body string) {
	f(ctx, userID, title, body)
}

var (
	_ game.Notifier = (*LogNotifier)(nil)
	_ game.Notifier = Func(nil)
)
