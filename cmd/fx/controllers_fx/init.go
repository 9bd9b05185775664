package controllers_fx

import (
	"go.uber.org/fx"

	"peervote/internal/api/controllers"
)

var Module = fx.Options(
	fx.Provide(controllers.NewVoteController),
	fx.Provide(controllers.NewResultsController),
	fx.Provide(controllers.NewTokenAdminController),
	fx.Provide(controllers.NewSurveyController),
	fx.Provide(controllers.NewAuthController))
