package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/pmarks/fightpool/internal/enrich"
	"github.com/pmarks/fightpool/internal/httputil"
	"github.com/pmarks/fightpool/internal/middleware"
	"github.com/pmarks/fightpool/internal/pool"
	"github.com/pmarks/fightpool/internal/service"
	"github.com/pmarks/fightpool/internal/store"
	"github.com/pmarks/fightpool/internal/utils"
)

type poolView struct {
	Pool        *pool.Pool                     `json:"pool"`
	Matches     []pool.Match                   `json:"matches"`
	Leaderboard []service.LeaderboardEntry     `json:"leaderboard"`
	Summary     map[string]service.PickCounts  `json:"summary"`
	MyPicks     map[string]pool.Pick           `json:"my_picks,omitempty"`
	AllPicks    map[string]map[string]pool.Pick `json:"all_picks,omitempty"`
	Winners     []service.LeaderboardEntry     `json:"winners,omitempty"`
}

func newRouter(database *sqlx.DB, sessionManager *scs.SessionManager, signinLimit int, signinWindow time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)

	poolStore := store.NewPoolStore(database)
	matchStore := store.NewMatchStore(database)
	participantStore := store.NewParticipantStore(database)
	predictionStore := store.NewPredictionStore(database)

	// No enrichment backends configured: lookups are no-ops and matches
	// are created with whatever data the caller provides.
	poolService := service.NewPoolService(database, poolStore)
	matchService := service.NewMatchService(database, poolStore, matchStore, enrich.Noop{}, enrich.Noop{})
	predictionService := service.NewPredictionService(database, poolStore, matchStore, predictionStore)
	scoringService := service.NewScoringService(database, matchStore, participantStore, predictionStore)
	authService := service.NewAuthService(database, participantStore, middleware.NewMemoryRateLimiter(), signinLimit, signinWindow)

	r.Post("/pools", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			httputil.BadRequest(w, "Invalid form data", err)
			return
		}
		name := strings.TrimSpace(r.Form.Get("name"))
		if name == "" {
			httputil.BadRequest(w, "Please enter a pool name", nil)
			return
		}

		p, err := poolService.CreatePool(r.Context(), name, r.Form.Get("description"))
		if err != nil {
			httputil.InternalServerError(w, "Failed to create pool", err)
			return
		}
		httputil.JSON(w, http.StatusCreated, p)
	})

	r.Route("/pools/{poolID}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			poolID := chi.URLParam(r, "poolID")

			p, err := poolService.GetPool(r.Context(), poolID)
			if err != nil {
				serviceError(w, "Failed to get pool", err)
				return
			}
			matches, err := matchService.GetMatches(r.Context(), poolID)
			if err != nil {
				httputil.InternalServerError(w, "Failed to get matches", err)
				return
			}
			leaderboard, err := scoringService.Leaderboard(r.Context(), poolID)
			if err != nil {
				httputil.InternalServerError(w, "Failed to compute leaderboard", err)
				return
			}
			summary, err := predictionService.Summary(r.Context(), poolID)
			if err != nil {
				httputil.InternalServerError(w, "Failed to summarize predictions", err)
				return
			}

			view := poolView{
				Pool:        p,
				Matches:     matches,
				Leaderboard: leaderboard,
				Summary:     summary,
			}

			// Own picks for whoever is signed into this pool.
			if idStr := sessionManager.GetString(r.Context(), middleware.SessionKey(poolID)); idStr != "" {
				if me, err := participantStore.GetParticipant(r.Context(), idStr); err == nil && me.PoolID == poolID {
					predictions, err := predictionService.ListForParticipant(r.Context(), me.ID)
					if err == nil {
						view.MyPicks = make(map[string]pool.Pick, len(predictions))
						for _, pred := range predictions {
							view.MyPicks[pred.MatchID.String()] = pred.Pick
						}
					}
				}
			}

			// Everyone's picks stay hidden until predictions are frozen.
			if p.Status != pool.StatusOpen {
				all, err := predictionService.AllPicks(r.Context(), poolID)
				if err == nil {
					view.AllPicks = all
				}
			}
			if p.Status == pool.StatusFinished {
				view.Winners = service.Winners(leaderboard)
			}

			httputil.JSON(w, http.StatusOK, view)
		})

		r.Get("/leaderboard", func(w http.ResponseWriter, r *http.Request) {
			poolID := chi.URLParam(r, "poolID")

			p, err := poolService.GetPool(r.Context(), poolID)
			if err != nil {
				serviceError(w, "Failed to get pool", err)
				return
			}
			leaderboard, err := scoringService.Leaderboard(r.Context(), poolID)
			if err != nil {
				httputil.InternalServerError(w, "Failed to compute leaderboard", err)
				return
			}

			resp := struct {
				Status      pool.Status                `json:"status"`
				Leaderboard []service.LeaderboardEntry `json:"leaderboard"`
				Winners     []service.LeaderboardEntry `json:"winners,omitempty"`
			}{Status: p.Status, Leaderboard: leaderboard}
			if p.Status == pool.StatusFinished {
				resp.Winners = service.Winners(leaderboard)
			}
			httputil.JSON(w, http.StatusOK, resp)
		})

		r.Post("/join", func(w http.ResponseWriter, r *http.Request) {
			poolID := chi.URLParam(r, "poolID")
			if _, err := poolService.GetPool(r.Context(), poolID); err != nil {
				serviceError(w, "Failed to get pool", err)
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}

			name := strings.TrimSpace(r.Form.Get("name"))
			pin := strings.TrimSpace(r.Form.Get("pin"))
			if name == "" {
				httputil.BadRequest(w, "Please enter your name", nil)
				return
			}
			if !service.ValidPIN(pin) {
				httputil.BadRequest(w, "PIN must be exactly 4 digits", nil)
				return
			}

			participant, err := authService.Join(r.Context(), poolID, name, pin)
			if err != nil {
				serviceError(w, "Failed to join pool", err)
				return
			}

			sessionManager.Put(r.Context(), middleware.SessionKey(poolID), participant.ID.String())
			httputil.JSON(w, http.StatusCreated, participant)
		})

		r.Post("/signin", func(w http.ResponseWriter, r *http.Request) {
			poolID := chi.URLParam(r, "poolID")
			if _, err := poolService.GetPool(r.Context(), poolID); err != nil {
				serviceError(w, "Failed to get pool", err)
				return
			}
			if err := r.ParseForm(); err != nil {
				httputil.BadRequest(w, "Invalid form data", err)
				return
			}

			participant, err := authService.SignIn(r.Context(), poolID,
				r.Form.Get("name"), r.Form.Get("pin"), middleware.ClientIP(r))
			if err != nil {
				serviceError(w, "Failed to sign in", err)
				return
			}

			// Issuing a new session leaves earlier ones valid; the same
			// participant can stay signed in on several devices.
			sessionManager.Put(r.Context(), middleware.SessionKey(poolID), participant.ID.String())
			httputil.JSON(w, http.StatusOK, participant)
		})

		r.Post("/signout", func(w http.ResponseWriter, r *http.Request) {
			sessionManager.Remove(r.Context(), middleware.SessionKey(chi.URLParam(r, "poolID")))
			w.WriteHeader(http.StatusNoContent)
		})

		// Everything mutating below requires a session for this pool. There
		// is no separate admin role: any member administers the pool.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireParticipant(sessionManager, participantStore))

			r.Post("/edit", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}
				p, err := poolService.EditPool(r.Context(), chi.URLParam(r, "poolID"),
					r.Form.Get("name"), r.Form.Get("description"))
				if err != nil {
					serviceError(w, "Failed to update pool", err)
					return
				}
				httputil.JSON(w, http.StatusOK, p)
			})

			r.Post("/delete", func(w http.ResponseWriter, r *http.Request) {
				if err := poolService.DeletePool(r.Context(), chi.URLParam(r, "poolID")); err != nil {
					serviceError(w, "Failed to delete pool", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/lock", transitionHandler(poolService.Lock))
			r.Post("/reopen", transitionHandler(poolService.Reopen))
			r.Post("/finish", transitionHandler(poolService.Finish))

			r.Post("/matches", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}
				sideA := strings.TrimSpace(r.Form.Get("side_a"))
				sideB := strings.TrimSpace(r.Form.Get("side_b"))
				if sideA == "" || sideB == "" {
					httputil.BadRequest(w, "Both side names are required", nil)
					return
				}
				multiplier, _ := strconv.Atoi(r.Form.Get("multiplier"))

				m, err := matchService.AddMatch(r.Context(), chi.URLParam(r, "poolID"), sideA, sideB, multiplier)
				if err != nil {
					serviceError(w, "Failed to add match", err)
					return
				}
				httputil.JSON(w, http.StatusCreated, m)
			})

			r.Post("/matches/import", func(w http.ResponseWriter, r *http.Request) {
				var rows []service.MatchRow
				if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
					httputil.BadRequest(w, "Invalid import payload", err)
					return
				}

				matches, err := matchService.ImportMatches(r.Context(), chi.URLParam(r, "poolID"), rows)
				if err != nil {
					serviceError(w, "Failed to import matches", err)
					return
				}
				httputil.JSON(w, http.StatusCreated, struct {
					Imported int          `json:"imported"`
					Matches  []pool.Match `json:"matches"`
				}{len(matches), matches})
			})

			r.Post("/matches/{matchID}/edit", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}
				input := service.EditMatchInput{
					SideA: utils.StringOrNil(r.Form.Get("side_a")),
					SideB: utils.StringOrNil(r.Form.Get("side_b")),
				}
				if r.Form.Has("multiplier") {
					multiplier, err := strconv.Atoi(r.Form.Get("multiplier"))
					if err != nil {
						httputil.BadRequest(w, "Invalid multiplier", err)
						return
					}
					input.Multiplier = &multiplier
				}

				m, err := matchService.EditMatch(r.Context(), chi.URLParam(r, "poolID"), chi.URLParam(r, "matchID"), input)
				if err != nil {
					serviceError(w, "Failed to update match", err)
					return
				}
				httputil.JSON(w, http.StatusOK, m)
			})

			r.Post("/matches/{matchID}/delete", func(w http.ResponseWriter, r *http.Request) {
				err := matchService.DeleteMatch(r.Context(), chi.URLParam(r, "poolID"), chi.URLParam(r, "matchID"))
				if err != nil {
					serviceError(w, "Failed to delete match", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/matches/{matchID}/result", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}
				result := pool.Result(r.Form.Get("result"))
				if !result.Valid() {
					httputil.BadRequest(w, "Invalid result", nil)
					return
				}

				m, err := matchService.SetResult(r.Context(), chi.URLParam(r, "poolID"), chi.URLParam(r, "matchID"), result)
				if err != nil {
					serviceError(w, "Failed to set result", err)
					return
				}
				httputil.JSON(w, http.StatusOK, m)
			})

			r.Post("/matches/{matchID}/result/clear", func(w http.ResponseWriter, r *http.Request) {
				err := matchService.ClearResult(r.Context(), chi.URLParam(r, "poolID"), chi.URLParam(r, "matchID"))
				if err != nil {
					serviceError(w, "Failed to clear result", err)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			})

			r.Post("/matches/{matchID}/odds", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}
				oddsA, err := parseOdds(r.Form.Get("odds_a"))
				if err != nil {
					httputil.BadRequest(w, "Invalid odds_a", err)
					return
				}
				oddsB, err := parseOdds(r.Form.Get("odds_b"))
				if err != nil {
					httputil.BadRequest(w, "Invalid odds_b", err)
					return
				}

				m, err := matchService.UpdateOdds(r.Context(), chi.URLParam(r, "poolID"), chi.URLParam(r, "matchID"), oddsA, oddsB)
				if err != nil {
					serviceError(w, "Failed to update odds", err)
					return
				}
				httputil.JSON(w, http.StatusOK, m)
			})

			r.Post("/predictions", func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					httputil.BadRequest(w, "Invalid form data", err)
					return
				}

				picks := make(map[string]pool.Pick)
				for key := range r.Form {
					if strings.HasPrefix(key, "match_") {
						picks[strings.TrimPrefix(key, "match_")] = pool.Pick(r.Form.Get(key))
					}
				}

				me := middleware.ParticipantFromContext(r.Context())
				err := predictionService.SubmitPredictions(r.Context(), chi.URLParam(r, "poolID"), me.ID, picks)
				if err != nil {
					serviceError(w, "Failed to save predictions", err)
					return
				}
				httputil.JSON(w, http.StatusOK, struct {
					Saved int `json:"saved"`
				}{len(picks)})
			})

			r.Get("/predictions", func(w http.ResponseWriter, r *http.Request) {
				me := middleware.ParticipantFromContext(r.Context())
				predictions, err := predictionService.ListForParticipant(r.Context(), me.ID)
				if err != nil {
					httputil.InternalServerError(w, "Failed to get predictions", err)
					return
				}
				httputil.JSON(w, http.StatusOK, predictions)
			})
		})
	})

	return r
}

func transitionHandler(step func(context.Context, string) (*pool.Pool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := step(r.Context(), chi.URLParam(r, "poolID"))
		if err != nil {
			serviceError(w, "Failed to change pool status", err)
			return
		}
		httputil.JSON(w, http.StatusOK, p)
	}
}

// serviceError maps the domain error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept server-side.
func serviceError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pool.ErrNotFound):
		httputil.NotFound(w, "Not found", err)
	case errors.Is(err, pool.ErrPoolLocked),
		errors.Is(err, pool.ErrPoolFinished),
		errors.Is(err, pool.ErrPoolNotLocked),
		errors.Is(err, pool.ErrNameTaken):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, pool.ErrRateLimited):
		httputil.TooManyRequests(w, err.Error())
	case errors.Is(err, pool.ErrInvalidCredentials),
		errors.Is(err, pool.ErrNotAuthenticated):
		httputil.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrInvalidOdds):
		httputil.BadRequest(w, err.Error(), err)
	default:
		httputil.InternalServerError(w, msg, err)
	}
}

func parseOdds(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
