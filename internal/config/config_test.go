package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("CHAT_ID", "-100123")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(-100123), cfg.ChatID)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, 8, cfg.SendHour)
	assert.Equal(t, 0, cfg.SendMinute)
	assert.Equal(t, -3, cfg.TZOffsetHours)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Empty(t, cfg.StoreDSN)

	_, off := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).In(cfg.Location()).Zone()
	assert.Equal(t, -3*3600, off)
}

func TestLoad_MissingTelegramToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("CHAT_ID", "1")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_MissingGenerationCredential(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("CHAT_ID", "1")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	require.ErrorContains(t, err, "OPENAI_API_KEY")
}

func TestLoad_YandexNeedsFolder(t *testing.T) {
	setRequired(t)
	t.Setenv("LLM_PROVIDER", "yandex")
	t.Setenv("YANDEX_OAUTH_TOKEN", "y0_token")

	_, err := Load()
	require.ErrorContains(t, err, "YANDEX_FOLDER_ID")
}

func TestLoad_ScheduleBounds(t *testing.T) {
	cases := []struct {
		name, hour, minute string
		wantErr            bool
	}{
		{"edge ok", "23", "59", false},
		{"midnight", "0", "0", false},
		{"hour too big", "24", "0", true},
		{"negative minute", "8", "-1", true},
		{"minute too big", "8", "60", true},
		{"malformed hour", "eight", "0", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("SEND_HOUR", tc.hour)
			t.Setenv("SEND_MINUTE", tc.minute)

			_, err := Load()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
