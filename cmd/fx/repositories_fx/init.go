package repositories_fx

import (
	"go.uber.org/fx"

	"peervote/internal/repositories"
)

var Module = fx.Provide(
	repositories.NewSurveyRepository,
	repositories.NewCandidateRepository,
	repositories.NewFeedbackOptionRepository,
	repositories.NewVoterTokenRepository,
	repositories.NewVoteRepository,
	repositories.NewAdminUserRepository,
)
