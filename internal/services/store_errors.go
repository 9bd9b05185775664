package services

import (
	"github.com/rs/zerolog/log"

	"peervote/internal/repositories"
	"peervote/pkg/utils"
)

// storeFailure logs a repository error and maps it to the sentinel the HTTP
// layer understands.
func storeFailure(err error, op string) error {
	if repositories.IsStoreTimeout(err) {
		log.Warn().Err(err).Str("op", op).Msg("store timeout")
		return utils.ErrStoreTimeout
	}
	log.Error().Stack().Err(err).Str("op", op).Msg("store failure")
	return utils.ErrDatabaseError
}
