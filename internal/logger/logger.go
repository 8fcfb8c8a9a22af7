// Package logger はJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// levelより低いレベルのログは出力しない。
func Setup(w io.Writer, level slog.Leveler) *slog.Logger {
	if level == nil {
		level = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler).With(slog.String("service", "skylaunch"))
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// writerがnilの場合はos.Stdoutに出力する。
// 設定読み込み前はLevelVarの既定値（Info）で動作し、読み込み後にSetLevelで変更できる。
func SetupDefault(w io.Writer, level *slog.LevelVar) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	var leveler slog.Leveler = slog.LevelInfo
	if level != nil {
		leveler = level
	}
	logger := Setup(w, leveler)
	slog.SetDefault(logger)
	return logger
}
