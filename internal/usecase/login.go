package usecase

import (
	"context"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

// MaxLoginAttempts bounds the number of Login calls per search.
const MaxLoginAttempts = 4

// ensureLoggedIn drives auth until the page reports a logged-in state.
// After every Login, reload navigates back to the search page so the next
// check sees the post-login state. It reports false once the attempts are
// spent; credential errors from Login abort the loop immediately.
func ensureLoggedIn(
	ctx context.Context,
	auth domain.Authenticator,
	creds domain.Credentials,
	reload func(ctx context.Context) error,
	log *logger.Logger,
) (bool, error) {
	for attempt := 1; ; attempt++ {
		loggedIn, err := auth.IsLoggedIn(ctx)
		if err != nil {
			return false, err
		}
		if loggedIn {
			return true, nil
		}
		if attempt > MaxLoginAttempts {
			log.Warn().Int("attempts", MaxLoginAttempts).Msg("giving up on login")
			return false, nil
		}

		log.Info().Int("attempt", attempt).Msg("logging in")
		if err := auth.Login(ctx, creds); err != nil {
			return false, err
		}
		if err := reload(ctx); err != nil {
			return false, err
		}
	}
}
