package token_fx

import (
	"go.uber.org/fx"

	"peervote/internal/repositories"
	"peervote/internal/services"
	"peervote/pkg/config"
	mem "peervote/pkg/memcache"
	"peervote/pkg/metrics"
)

var Module = fx.Provide(provideTokenService, provideTokenAdminService)

func provideTokenService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	voterTokenRepo repositories.VoterTokenRepository,
	settings services.TokenSettings,
	ms *metrics.MetricService,
) services.TokenServiceInterface {
	return services.NewTokenService(surveyRepo, candidateRepo, voterTokenRepo, settings, ms)
}

func provideTokenAdminService(
	surveyRepo repositories.SurveyRepository,
	candidateRepo repositories.CandidateRepository,
	voterTokenRepo repositories.VoterTokenRepository,
	issued mem.IssuedTokenStore,
	settings services.TokenSettings,
	cfg *config.Config,
	ms *metrics.MetricService,
) services.TokenAdminServiceInterface {
	return services.NewTokenAdminService(surveyRepo, candidateRepo, voterTokenRepo, issued, settings, cfg.Vote.IssuedTokenTTL, ms)
}
