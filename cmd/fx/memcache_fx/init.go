package memcache_fx

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	mem "peervote/pkg/memcache"
)

const purgeInterval = time.Minute

var Module = fx.Provide(provideIssuedTokenStore)

func provideIssuedTokenStore(lc fx.Lifecycle) mem.IssuedTokenStore {
	store := mem.NewIssuedTokens()
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ticker := time.NewTicker(purgeInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						if n := store.PurgeExpired(); n > 0 {
							log.Debug().Int("batches", n).Msg("purged expired token batches")
						}
					case <-done:
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})
	return store
}
