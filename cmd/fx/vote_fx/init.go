package vote_fx

import (
	"go.uber.org/fx"

	"peervote/internal/repositories"
	"peervote/internal/services"
	"peervote/pkg/config"
	"peervote/pkg/metrics"
)

var Module = fx.Provide(provideVoteService, services.NewResultsService)

func provideVoteService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	optionRepo repositories.FeedbackOptionRepository,
	voteRepo repositories.VoteRepository,
	cfg *config.Config,
	ms *metrics.MetricService,
) services.VoteServiceInterface {
	return services.NewVoteService(surveyRepo, candidateRepo, optionRepo, voteRepo, cfg.Vote.TxTimeout, ms)
}
