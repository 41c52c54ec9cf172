package access

import (
	"context"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vbonduro/stockgate/internal/domain"
)

// Denial is one refused entry attempt.
type Denial struct {
	Category domain.Category
	Username string
	Reason   string
}

// DenialLog appends refused attempts as JSON lines to a size-rotated file.
// It is never read back.
type DenialLog struct {
	file   *lumberjack.Logger
	logger *slog.Logger
}

func NewDenialLog(path string) *DenialLog {
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 5,
	}
	return &DenialLog{
		file:   file,
		logger: slog.New(slog.NewJSONHandler(file, nil)),
	}
}

func (l *DenialLog) Record(ctx context.Context, d Denial) {
	l.logger.InfoContext(ctx, "access denied",
		"category", string(d.Category),
		"username", d.Username,
		"reason", d.Reason,
	)
}

func (l *DenialLog) Close() error {
	return l.file.Close()
}
