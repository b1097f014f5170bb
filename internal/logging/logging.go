// Package logging builds the process loggers.
//
// In server mode stdout carries the MCP protocol and stderr belongs to
// the host process, so server logs go to a rotating file under the
// vault state dir. CLI commands log to stderr directly.
package logging

import (
	"io"
	"log"
	"os"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/config"
)

// NewServer returns a logger writing to the rotating server log file
// (.cortex/logs/cortex.log under the vault by default). Rotation
// bounds come from the config. The returned closer releases the
// current log file; lumberjack creates the directory on first write.
func NewServer(cfg *config.Config, prefix string) (*log.Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFile(),
		MaxSize:    cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays,
	}
	return log.New(rotator, prefix, log.LstdFlags), rotator
}

// NewCLI returns a stderr logger for interactive commands.
func NewCLI(prefix string) *log.Logger {
	return log.New(os.Stderr, prefix, log.LstdFlags)
}
