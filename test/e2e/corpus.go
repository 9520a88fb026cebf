// Package e2e provides end-to-end tests with a generated shot corpus and multiple queries.
package e2e

import "fmt"

// E2EShot is one shot entry in the corpus: the phrase its embedding is derived
// from and the time range it covers inside its video.
type E2EShot struct {
	Phrase    string
	StartTime float64
	EndTime   float64
}

// QueryTestCase defines a query and the (video, shot) that must be ranked first.
type QueryTestCase struct {
	Query         string
	ExpectedVideo string
	ExpectedShot  int
	Description   string
}

// Corpus holds per-video shot lists and query test cases for E2E tests.
type Corpus struct {
	Videos      map[string][]E2EShot
	TestCases   []QueryTestCase
	TotalShots  int
	TotalVideos int
}

// shotSeconds is the length of every generated shot.
const shotSeconds = 3.0

var scenePhrases = []string{
	"red car crossing a steel bridge",
	"snowy mountain peak at sunrise",
	"crowd cheering at an open air concert",
	"a dog running along the beach",
	"chef plating food in a busy kitchen",
	"cyclists racing through a narrow street",
	"fireworks over a harbor at night",
	"children playing football in the rain",
	"diver swimming past a coral reef",
	"train leaving an underground station",
	"hot air balloons above a valley",
	"street market with fruit stalls",
	"surfer riding a large wave",
	"airplane landing in strong wind",
	"dancers rehearsing in a studio",
	"fisherman pulling a net onto a boat",
	"skyline timelapse from day to night",
	"horses grazing in an open field",
	"climber reaching a rocky summit",
	"rowing team crossing the finish line",
}

// BuildCorpus returns a corpus of 40 videos, each cut into 5 shots. Every shot
// carries a globally unique signature phrase, so an exact-phrase query has a
// single correct best hit to assert on.
func BuildCorpus() *Corpus {
	videos := make(map[string][]E2EShot, 40)
	var cases []QueryTestCase
	totalShots := 0
	for v := 0; v < 40; v++ {
		videoID := fmt.Sprintf("%05d", 100+v)
		shots := make([]E2EShot, 0, 5)
		for s := 0; s < 5; s++ {
			phrase := fmt.Sprintf("%s, take %d of %s", scenePhrases[(v*5+s)%len(scenePhrases)], s, videoID)
			start := float64(s) * shotSeconds
			shots = append(shots, E2EShot{
				Phrase:    phrase,
				StartTime: start,
				EndTime:   start + shotSeconds,
			})
			totalShots++
			if (v*5+s)%7 == 0 {
				cases = append(cases, QueryTestCase{
					Query:         phrase,
					ExpectedVideo: videoID,
					ExpectedShot:  s,
					Description:   fmt.Sprintf("exact phrase of %s shot %d", videoID, s),
				})
			}
		}
		videos[videoID] = shots
	}
	return &Corpus{
		Videos:      videos,
		TestCases:   cases,
		TotalShots:  totalShots,
		TotalVideos: len(videos),
	}
}
