package tagstream

import (
	"log/slog"
	"os"

	"github.com/riverfjs/tagstream-go/internal/logutil"
)

// Logger 全局日志记录器
var Logger = logutil.NewLogger(os.Stderr, slog.LevelInfo).With("component", "tagstream")

// SetLogger 设置自定义日志记录器
func SetLogger(logger *slog.Logger) {
	if logger != nil {
		Logger = logger
	}
}
