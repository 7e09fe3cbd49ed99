package tvmaze

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// airdateLayout is the format TVmaze uses for the airdate field.
const airdateLayout = "2006-01-02"

// Show is a TV show as described by TVmaze.
type Show struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Premiered string `json:"premiered"`
	URL       string `json:"url"`
	Summary   string `json:"summary"`
	Network   *struct {
		Name    string `json:"name"`
		Country *struct {
			Code string `json:"code"`
		} `json:"country"`
	} `json:"network"`
	WebChannel *struct {
		Name string `json:"name"`
	} `json:"webChannel"`
}

// Channel returns the broadcasting network or streaming service name.
func (s Show) Channel() string {
	if s.Network != nil && s.Network.Name != "" {
		return s.Network.Name
	}
	if s.WebChannel != nil {
		return s.WebChannel.Name
	}
	return ""
}

// Country returns the network's ISO country code, if known.
func (s Show) Country() string {
	if s.Network != nil && s.Network.Country != nil {
		return s.Network.Country.Code
	}
	return ""
}

// Episode is one episode of a show.
type Episode struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Season    int    `json:"season"`
	Number    int    `json:"number"`
	Airdate   string `json:"airdate"`
	Airstamp  string `json:"airstamp"`
	Runtime   int    `json:"runtime"`
	Summary   string `json:"summary"`
	URL       string `json:"url"`
	ShowID    int    `json:"-"`
	ShowTitle string `json:"-"`
}

// Code renders the conventional S01E02 marker.
func (e Episode) Code() string {
	return fmt.Sprintf("S%02dE%02d", e.Season, e.Number)
}

// AirDate parses Airdate in the local time zone. It returns false when the
// episode has no announced air date.
func (e Episode) AirDate() (time.Time, bool) {
	if e.Airdate == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(airdateLayout, e.Airdate, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SummaryText strips the HTML markup TVmaze uses in summaries.
func (e Episode) SummaryText() string {
	return htmlToText(e.Summary)
}

// SummaryText strips the HTML markup TVmaze uses in summaries.
func (s Show) SummaryText() string {
	return htmlToText(s.Summary)
}

// ReleaseName builds the scene-style name used to look up releases, e.g.
// "Game of Thrones S06E09".
func (e Episode) ReleaseName() string {
	return strings.TrimSpace(e.ShowTitle + " " + e.Code())
}

func htmlToText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
