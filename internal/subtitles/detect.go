package subtitles

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/abadojack/whatlanggo"

	"tvshows/internal/language"
)

// sampleLimit caps how much of a subtitle file is read for detection.
const sampleLimit = 256 << 10

var (
	cueIndexPattern  = regexp.MustCompile(`^\d+$`)
	markupPattern    = regexp.MustCompile(`<[^>]*>|\{[^}]*\}`)
	utf8BOM          = []byte{0xEF, 0xBB, 0xBF}
	minDialogueRunes = 20
)

// Detection is the outcome of language identification.
type Detection struct {
	Code       string
	Name       string
	Confidence float64
	Reliable   bool
}

// Matches reports whether the detection agrees with want, given as a code or
// English language name. Unreliable detections never match.
func (d Detection) Matches(want string) bool {
	return d.Reliable && language.Same(d.Code, want)
}

// DetectLanguage identifies the dialogue language of the subtitle at path.
func DetectLanguage(path string) (Detection, error) {
	f, err := os.Open(path)
	if err != nil {
		return Detection{}, fmt.Errorf("open subtitle: %w", err)
	}
	defer f.Close()
	return Detect(io.LimitReader(f, sampleLimit))
}

// Detect identifies the dialogue language of SRT content read from r.
func Detect(r io.Reader) (Detection, error) {
	text, err := dialogue(r)
	if err != nil {
		return Detection{}, err
	}
	if len([]rune(text)) < minDialogueRunes {
		return Detection{Name: language.DisplayName("")}, nil
	}

	info := whatlanggo.Detect(text)
	code := info.Lang.Iso6391()
	return Detection{
		Code:       code,
		Name:       language.DisplayName(code),
		Confidence: info.Confidence,
		Reliable:   info.IsReliable(),
	}, nil
}

func dialogue(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)

	var b strings.Builder
	first := true
	for scanner.Scan() {
		line := scanner.Bytes()
		if first {
			line = bytes.TrimPrefix(line, utf8BOM)
			first = false
		}
		text := strings.TrimSpace(string(line))
		if text == "" || cueIndexPattern.MatchString(text) || strings.Contains(text, "-->") {
			continue
		}
		text = strings.TrimSpace(markupPattern.ReplaceAllString(text, ""))
		if text == "" {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read subtitle: %w", err)
	}
	return b.String(), nil
}
