package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RoundsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "domino_rounds_submitted_total", Help: "Total rounds accepted by the scoring engine"},
	)
	GamesFinished = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "domino_games_finished_total", Help: "Total games that reached the winning score"},
	)
	SpecialVictories = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "domino_special_victories_total", Help: "Total special victories by kind"},
		[]string{"kind"},
	)
	CompetitionsFinished = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "domino_competitions_finished_total", Help: "Total competitions closed with champions"},
	)
)

func Register() {
	prometheus.MustRegister(RoundsSubmitted, GamesFinished, SpecialVictories, CompetitionsFinished)
}
