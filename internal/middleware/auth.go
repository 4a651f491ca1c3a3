package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pmarks/fightpool/internal/httputil"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/pmarks/fightpool/internal/store"
)

type ContextKey string

const ParticipantKey ContextKey = "participant"

// SessionKey scopes the session to one pool: signing into pool X grants
// nothing in pool Y. A browser can hold sessions for many pools at once,
// and a participant can be signed in from several devices.
func SessionKey(poolID string) string {
	return "participant_" + poolID
}

// RequireParticipant resolves the pool-scoped session into a Participant and
// puts it on the request context. Requests without a valid session for this
// pool get a 401.
func RequireParticipant(sessionManager *scs.SessionManager, participants *store.ParticipantStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			poolID := chi.URLParam(r, "poolID")

			participantIDStr := sessionManager.GetString(r.Context(), SessionKey(poolID))
			if participantIDStr == "" {
				httputil.Unauthorized(w, pool.ErrNotAuthenticated.Error())
				return
			}

			participantID, err := uuid.Parse(participantIDStr)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionKey(poolID))
				httputil.Unauthorized(w, pool.ErrNotAuthenticated.Error())
				return
			}

			participant, err := participants.GetParticipant(r.Context(), participantID)
			if err != nil || participant.PoolID != poolID {
				sessionManager.Remove(r.Context(), SessionKey(poolID))
				httputil.Unauthorized(w, pool.ErrNotAuthenticated.Error())
				return
			}

			ctx := context.WithValue(r.Context(), ParticipantKey, participant)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ParticipantFromContext(ctx context.Context) *pool.Participant {
	val := ctx.Value(ParticipantKey)
	if val == nil {
		return nil
	}
	participant, ok := val.(*pool.Participant)
	if !ok {
		return nil
	}
	return participant
}
