package subtitles

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const englishSRT = "\ufeff1\n00:00:01,000 --> 00:00:03,000\n<i>Where were you last night?</i>\n\n" +
	"2\n00:00:03,500 --> 00:00:06,000\nI was at home, watching the game with my brother.\n\n" +
	"3\n00:00:06,500 --> 00:00:09,000\n{\\an8}You should have called me, everyone was worried about you.\n\n" +
	"4\n00:00:09,500 --> 00:00:12,000\nI know, and I am sorry. It will not happen again, I promise.\n\n" +
	"5\n00:00:12,500 --> 00:00:15,000\nThe police came by this morning asking questions about the car.\n"

const croatianSRT = "1\n00:00:01,000 --> 00:00:03,000\nGdje si bio sinoć? Svi smo te tražili cijelu noć.\n\n" +
	"2\n00:00:03,500 --> 00:00:06,000\nBio sam kod kuće i gledao utakmicu s bratom.\n\n" +
	"3\n00:00:06,500 --> 00:00:09,000\nTrebao si me nazvati, svi su bili zabrinuti zbog tebe.\n"

func TestDetectEnglish(t *testing.T) {
	got, err := Detect(strings.NewReader(englishSRT))
	require.NoError(t, err)
	assert.Equal(t, "en", got.Code)
	assert.Equal(t, "English", got.Name)
	assert.True(t, got.Matches("English"))
	assert.False(t, got.Matches("Croatian"))
}

func TestDetectLanguageFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "show.s01e01.srt")
	require.NoError(t, os.WriteFile(path, []byte(croatianSRT), 0o644))

	got, err := DetectLanguage(path)
	require.NoError(t, err)
	assert.NotEqual(t, "en", got.Code)
	assert.False(t, got.Matches("English"))
}

func TestDetectTooLittleDialogue(t *testing.T) {
	got, err := Detect(strings.NewReader("1\n00:00:01,000 --> 00:00:02,000\n<i>Hi</i>\n"))
	require.NoError(t, err)
	assert.Equal(t, "", got.Code)
	assert.Equal(t, "Unknown", got.Name)
	assert.False(t, got.Matches("English"))
}

func TestDialogueStripsCueMetadata(t *testing.T) {
	text, err := dialogue(strings.NewReader(englishSRT))
	require.NoError(t, err)
	assert.NotContains(t, text, "-->")
	assert.NotContains(t, text, "<i>")
	assert.NotContains(t, text, `{\an8}`)
	assert.True(t, strings.HasPrefix(text, "Where were you last night?"), "BOM and tags should be stripped")
}

func TestDetectLanguageMissingFile(t *testing.T) {
	_, err := DetectLanguage(filepath.Join(t.TempDir(), "missing.srt"))
	require.Error(t, err)
}
