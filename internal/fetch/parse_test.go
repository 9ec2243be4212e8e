package fetch

import (
	"testing"

	"github.com/jonathan/match-auditor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchPageHTML = `
<html><body>
<span data-testid="wcl-scores-overline-03">ITF W25 Raleigh, NC, HARD - Quarter-finals</span>
<div class="duelParticipant__startTime"><div>12.05.2023 14:30</div></div>
<div class="duelParticipant__home">
  <a class="participant__participantLink" href="/player/garcia-lopez/A1b2C3/"></a>
  <a class="participant__participantName">Garcia Lopez</a>
</div>
<div class="duelParticipant__away">
  <div class="participant__participantName">Mueller K.</div>
</div>
<div class="smh__part smh__home smh__part--1">7<sup>7</sup></div>
<div class="smh__part smh__away smh__part--1">6<sup>4</sup></div>
<div class="smh__part smh__home smh__part--2">6</div>
<div class="smh__part smh__away smh__part--2">3</div>
<div class="smh__time smh__time--overall">1:34</div>
<div class="smh__time smh__time--0">0:52</div>
<div class="smh__time smh__time--1">0:42</div>
<div class="infoBox__info">The match is played indoor.</div>
</body></html>`

func TestParsePage(t *testing.T) {
	model, err := ParsePage("https://example.com/match/M1", matchPageHTML)
	require.NoError(t, err)

	assert.Equal(t, "Garcia Lopez", model.HomeName)
	assert.Equal(t, "A1b2C3", model.HomeID)
	assert.Equal(t, "Mueller K.", model.AwayName)
	assert.Equal(t, "", model.AwayID, "players without profile links have no id")

	assert.Equal(t, types.SetScore{Home: "7", Away: "6"}, model.SetScores[0])
	assert.Equal(t, types.SetScore{Home: "7", Away: "4"}, model.Tiebreaks[0])
	assert.Equal(t, types.SetScore{Home: "6", Away: "3"}, model.SetScores[1])
	assert.True(t, model.Tiebreaks[1].IsZero(), "set 2 had no tiebreak")
	assert.True(t, model.SetScores[2].IsZero(), "set 3 was not played")

	assert.Equal(t, "1:34", model.DurationOverall)
	assert.Equal(t, "0:52", model.SetDurations[0])
	assert.Equal(t, "0:42", model.SetDurations[1])
	assert.Equal(t, "", model.SetDurations[2])

	assert.Equal(t, "12.05.2023 14:30", model.DateTime)
	assert.Equal(t, "Hard (indoor)", model.Surface)
}

func TestParsePageGarbledDurationsDropped(t *testing.T) {
	html := `
<html><body>
<div class="duelParticipant__home"><div class="participant__participantName">Rossi</div></div>
<div class="duelParticipant__away"><div class="participant__participantName">Silva</div></div>
<div class="smh__time smh__time--overall">Ad 40</div>
<div class="smh__time smh__time--0">1:03</div>
<div class="smh__time smh__time--1">-</div>
</body></html>`

	model, err := ParsePage("https://example.com/match/M4", html)
	require.NoError(t, err)
	assert.Equal(t, "", model.DurationOverall, "non-clock text must not be captured as a duration")
	assert.Equal(t, "1:03", model.SetDurations[0])
	assert.Equal(t, "", model.SetDurations[1])
}

func TestParsePageOutdoorSurface(t *testing.T) {
	html := `
<html><body>
<span data-testid="wcl-scores-overline-03">ITF M15 Antalya, CLAY - Final</span>
<div class="duelParticipant__home"><div class="participant__participantName">Rossi</div></div>
<div class="duelParticipant__away"><div class="participant__participantName">Silva</div></div>
</body></html>`

	model, err := ParsePage("https://example.com/match/M2", html)
	require.NoError(t, err)
	assert.Equal(t, "CLAY", model.Surface)
}

func TestParsePageMissingParticipantsIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"Empty page", "<html><body></body></html>"},
		{"Home only", `<html><body><div class="duelParticipant__home"><div class="participant__participantName">Rossi</div></div></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePage("https://example.com/match/M3", tt.html)
			require.Error(t, err)
			assert.True(t, IsRetryable(err), "a half-rendered page must be retryable")
		})
	}
}

func TestExtractPlayerID(t *testing.T) {
	tests := []struct {
		name     string
		href     string
		expected string
	}{
		{"Standard href", "/player/garcia-lopez/A1b2C3/", "A1b2C3"},
		{"No trailing slash", "/player/mueller-k/D4e5F6", "D4e5F6"},
		{"Absolute URL", "https://example.com/player/rossi/Xy9Z01/", "Xy9Z01"},
		{"Not a player link", "/team/some-club/abc/", ""},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractPlayerID(tt.href))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&Error{Message: "timeout", Retryable: true}))
	assert.False(t, IsRetryable(&Error{Message: "skipped", Retryable: false}))
	assert.False(t, IsRetryable(assert.AnError))
	assert.False(t, IsRetryable(nil))
}
