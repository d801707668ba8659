package report

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triage-assistant/internal/triage"
)

func systemFont(t *testing.T) string {
	t.Helper()
	for _, path := range defaultFontPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("no DejaVuSans font installed")
	return ""
}

func TestRenderProducesPDF(t *testing.T) {
	gen := NewGenerator(systemFont(t))
	res := &triage.Result{
		Patient:   "alice",
		Issue:     "headache for two days",
		Level:     triage.LevelYellow,
		Advice:    "Drink water\nRest",
		UpdatedAt: time.Now(),
	}

	doc, err := gen.Render(res)

	require.NoError(t, err)
	require.NotEmpty(t, doc)
	assert.Equal(t, "%PDF", string(doc[:4]))
}

func TestRenderWithoutAdvice(t *testing.T) {
	gen := NewGenerator(systemFont(t))
	res := &triage.Result{Patient: "bob", Issue: "sore throat", Level: triage.LevelUnknown, UpdatedAt: time.Now()}

	doc, err := gen.Render(res)

	require.NoError(t, err)
	assert.NotEmpty(t, doc)
}

func TestRenderMissingFont(t *testing.T) {
	gen := NewGenerator("/nonexistent/font.ttf")

	_, err := gen.Render(&triage.Result{Patient: "alice"})

	assert.Error(t, err)
}
