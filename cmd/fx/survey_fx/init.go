package survey_fx

import (
	"go.uber.org/fx"

	"peervote/internal/repositories"
	"peervote/internal/services"
	"peervote/pkg/metrics"
)

var Module = fx.Provide(NewSurveyService)

func NewSurveyService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	optionRepo repositories.FeedbackOptionRepository,
	ms *metrics.MetricService,
) services.SurveyServiceInterface {
	return services.NewSurveyService(surveyRepo, candidateRepo, optionRepo, ms)
}
