package config

import (
	biometricService "VoxMail/internal/api/biometric/service"
	mailService "VoxMail/internal/api/mail/service"
	voiceService "VoxMail/internal/api/voice/service"
	"VoxMail/pkg/speech"
	"os"
	"strconv"
	"time"
)

// LoadVoiceConfig reads the VOICE_* tunables. Unset or malformed values
// fall back to the defaults below.
func LoadVoiceConfig() *voiceService.VoiceConfig {
	return &voiceService.VoiceConfig{
		RestartDelay:     envMillis("VOICE_RESTART_DELAY_MS", speech.DefaultRestartDelay),
		SpeechRate:       envFloat("VOICE_SPEECH_RATE", speech.DefaultRate),
		SpeechLang:       envOrDefault("VOICE_SPEECH_LANG", speech.DefaultLang),
		CommandTablePath: os.Getenv("VOICE_COMMAND_TABLE"),
		RecordTimeout:    envMillis("VOICE_RECORD_TIMEOUT_MS", 5*time.Second),
		HistoryPageLimit: envInt("VOICE_HISTORY_LIMIT", 100),
	}
}

func LoadBiometricConfig() *biometricService.BiometricConfig {
	return &biometricService.BiometricConfig{
		MatchThreshold: envFloat("FACE_MATCH_THRESHOLD", biometricService.DefaultMatchThreshold),
		SessionTTL:     envDuration("SESSION_TTL", biometricService.DefaultSessionTTL),
	}
}

func LoadMailConfig() *mailService.MailConfig {
	return &mailService.MailConfig{
		ListSize:      int64(envInt("GMAIL_LIST_SIZE", 20)),
		InboxCacheTTL: envDuration("GMAIL_INBOX_CACHE_TTL", 30*time.Minute),
		StateTTL:      envDuration("GMAIL_OAUTH_STATE_TTL", 10*time.Minute),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envMillis(key string, def time.Duration) time.Duration {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return def
	}
	return time.Duration(v) * time.Millisecond
}

func envDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
