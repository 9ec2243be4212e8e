package fetch

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/match-auditor/internal/parsing"
	"github.com/jonathan/match-auditor/internal/types"
)

// playerIDPattern extracts the player id from profile hrefs shaped
// /player/<slug>/<ID>/.
var playerIDPattern = regexp.MustCompile(`/player/[^/]+/([A-Za-z0-9]+)/?`)

// ExtractPlayerID pulls the player id out of a profile link href.
// Returns "" when the href does not match; some lower-tier players have no
// profile link at all.
func ExtractPlayerID(href string) string {
	m := playerIDPattern.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParsePage extracts the page model from rendered match-page HTML.
// The participant blocks are mandatory: a page without both home and away
// names is a retryable parse miss (half-rendered pages look exactly like this).
// Everything else is optional and left empty when absent.
func ParsePage(url, html string) (*PageModel, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &Error{URL: url, Message: "failed to parse HTML", Retryable: false, Cause: err}
	}

	model := &PageModel{}

	model.HomeName, model.HomeID = parseParticipant(doc, "div.duelParticipant__home")
	if model.HomeName == "" {
		return nil, &Error{URL: url, Message: "home participant block missing", Retryable: true}
	}
	model.AwayName, model.AwayID = parseParticipant(doc, "div.duelParticipant__away")
	if model.AwayName == "" {
		return nil, &Error{URL: url, Message: "away participant block missing", Retryable: true}
	}

	parseScoreBox(doc, model)
	parseDurations(doc, model)

	model.DateTime = strings.TrimSpace(doc.Find("div.duelParticipant__startTime div").First().Text())
	model.Surface = parseSurface(doc)

	return model, nil
}

// parseParticipant reads one duelParticipant block: the display name and, when
// a profile link exists, the player id from its href.
func parseParticipant(doc *goquery.Document, selector string) (name, id string) {
	block := doc.Find(selector).First()
	if block.Length() == 0 {
		return "", ""
	}
	name = strings.TrimSpace(block.Find("a.participant__participantName, div.participant__participantName").First().Text())
	if href, ok := block.Find("a.participant__participantLink").First().Attr("href"); ok {
		id = ExtractPlayerID(href)
	}
	return name, id
}

// parseScoreBox reads per-set scores and tiebreak scores for sets 1-3. The
// tiebreak value is the <sup> element inside the set cell; the set score is
// the cell text with that suffix stripped.
func parseScoreBox(doc *goquery.Document, model *PageModel) {
	for set := 1; set <= types.NumSets; set++ {
		for _, side := range []string{"home", "away"} {
			cell := doc.Find(fmt.Sprintf("div.smh__part.smh__%s.smh__part--%d", side, set)).First()
			if cell.Length() == 0 {
				continue
			}

			tb := strings.TrimSpace(cell.Find("sup").First().Text())
			score := strings.TrimSpace(cell.Text())
			if tb != "" {
				score = strings.TrimSpace(strings.TrimSuffix(score, tb))
			}

			if side == "home" {
				model.Tiebreaks[set-1].Home = tb
				model.SetScores[set-1].Home = score
			} else {
				model.Tiebreaks[set-1].Away = tb
				model.SetScores[set-1].Away = score
			}
		}
	}
}

// parseDurations reads the overall match time and per-set times. Per-set
// cells are zero-indexed on the page: --0 is set 1. Anything that is not an
// H:MM clock is dropped so page noise never reaches the output rows.
func parseDurations(doc *goquery.Document, model *PageModel) {
	model.DurationOverall = clockText(doc.Find("div.smh__time.smh__time--overall").First().Text())
	for i := 0; i < types.NumSets; i++ {
		model.SetDurations[i] = clockText(doc.Find(fmt.Sprintf("div.smh__time.smh__time--%d", i)).First().Text())
	}
}

func clockText(text string) string {
	text = strings.TrimSpace(text)
	if !parsing.ValidClock(text) {
		return ""
	}
	return text
}

// parseSurface reads the court surface from the overline header, which is
// shaped "Tournament, SURFACE - Round". Tournament names may themselves
// contain commas ("Raleigh, NC, HARD - QF"), so the surface is the last
// comma segment before the first " - ". An info box containing "played
// indoor" marks indoor courts; those render as "Hard (indoor)".
func parseSurface(doc *goquery.Document) string {
	var surface string
	doc.Find(`span[data-testid="wcl-scores-overline-03"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if !strings.Contains(text, ",") || !strings.Contains(text, " - ") {
			return true
		}
		beforeDash := strings.TrimSpace(strings.SplitN(text, " - ", 2)[0])
		parts := strings.Split(beforeDash, ",")
		surface = strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))
		return false
	})
	if surface == "" {
		return ""
	}

	indoor := false
	doc.Find("div.infoBox__info").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(s.Text()), "played indoor") {
			indoor = true
			return false
		}
		return true
	})
	if indoor {
		return titleCase(surface) + " (indoor)"
	}
	return surface
}

// titleCase uppercases the first letter and lowercases the rest.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
