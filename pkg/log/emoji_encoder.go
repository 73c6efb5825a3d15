package log

import (
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// emojiMap 日志 type 字段到表情符号的映射，只在 console 格式下生效
var emojiMap = map[string]string{
	"auth":      "🔓",
	"account":   "👤",
	"scheduler": "🎯",
	"notify":    "📣",
	"startup":   "🚀",
	"success":   "✅",
	"security":  "🔒",
	"marker":    "🧯",
	"task":      "🎁",
	"monitor":   "👀",
	"database":  "💾",
	"redis":     "📦",
	"audit":     "📋",
	"request":   "🔗",
}

// EmojiConsoleEncoder 包装 ConsoleEncoder，根据 type 字段给消息加前缀
type EmojiConsoleEncoder struct {
	zapcore.Encoder
	config zapcore.EncoderConfig
}

// NewEmojiConsoleEncoder 创建带表情符号的控制台编码器
func NewEmojiConsoleEncoder(cfg zapcore.EncoderConfig) zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: zapcore.NewConsoleEncoder(cfg),
		config:  cfg,
	}
}

// EncodeEntry prefixes the message with the emoji of its type field, or of its level.
func (enc *EmojiConsoleEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	emoji := ""
	for _, field := range fields {
		if field.Key == "type" && field.Type == zapcore.StringType {
			emoji = emojiMap[field.String]
			break
		}
	}
	if emoji == "" {
		emoji = levelEmoji(entry.Level)
	}
	if emoji != "" {
		entry.Message = emoji + " " + entry.Message
	}
	return enc.Encoder.EncodeEntry(entry, fields)
}

// Clone 克隆编码器（Zap 内部使用）
func (enc *EmojiConsoleEncoder) Clone() zapcore.Encoder {
	return &EmojiConsoleEncoder{
		Encoder: enc.Encoder.Clone(),
		config:  enc.config,
	}
}

func levelEmoji(level zapcore.Level) string {
	switch {
	case level >= zapcore.ErrorLevel:
		return "❌"
	case level == zapcore.WarnLevel:
		return "⚠️"
	case level == zapcore.InfoLevel:
		return "ℹ️"
	case level == zapcore.DebugLevel:
		return "🐛"
	}
	return ""
}
