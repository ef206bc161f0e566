package botdetect

import (
	"math"
	"sort"
	"time"
)

// burstSaturation is the window count at which the burst score reaches 1.
const burstSaturation = 10

// engagementScale divides like counts before tanh.
const engagementScale = 3.0

type burstKey struct {
	video string
	text  string
}

// burstScores groups comments by (video, text) and scores each by how many
// group members were posted in the window ending at its own timestamp.
func burstScores(videos, texts []string, times []time.Time, window time.Duration) []float64 {
	groups := make(map[burstKey][]int)
	for i := range texts {
		k := burstKey{video: videos[i], text: texts[i]}
		groups[k] = append(groups[k], i)
	}

	out := make([]float64, len(texts))
	for _, members := range groups {
		if len(members) <= 1 {
			continue
		}
		sorted := make([]time.Time, len(members))
		for j, i := range members {
			sorted[j] = times[i]
		}
		sort.Slice(sorted, func(a, b int) bool { return sorted[a].Before(sorted[b]) })

		for _, i := range members {
			t := times[i]
			lo := sort.Search(len(sorted), func(j int) bool { return !sorted[j].Before(t.Add(-window)) })
			hi := sort.Search(len(sorted), func(j int) bool { return sorted[j].After(t) })
			out[i] = clamp01(float64(hi-lo-1) / (burstSaturation - 1))
		}
	}
	return out
}

// authorRepetition scores each comment's author by 1 - unique texts / total
// comments.
func authorRepetition(authors, texts []string) []float64 {
	type stats struct {
		unique map[string]struct{}
		total  int
	}
	byAuthor := make(map[string]*stats)
	for i, a := range authors {
		s, ok := byAuthor[a]
		if !ok {
			s = &stats{unique: make(map[string]struct{})}
			byAuthor[a] = s
		}
		s.unique[texts[i]] = struct{}{}
		s.total++
	}

	out := make([]float64, len(authors))
	for i, a := range authors {
		s := byAuthor[a]
		out[i] = 1 - float64(len(s.unique))/float64(s.total)
	}
	return out
}

// engagement maps like counts to 1 - tanh(likes / 3): unliked comments score 1.
func engagement(likes int64) float64 {
	return 1 - math.Tanh(float64(likes)/engagementScale)
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
