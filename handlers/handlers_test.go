package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-standings/live"
	"github.com/Dosada05/tournament-standings/middleware"
	"github.com/Dosada05/tournament-standings/models"
	"github.com/Dosada05/tournament-standings/repositories"
	"github.com/Dosada05/tournament-standings/services"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestMapServiceErrorToHTTP(t *testing.T) {
	h := responder{logger: testLogger()}
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not found", err: services.ErrTournamentNotFound, wantStatus: http.StatusNotFound},
		{name: "snapshot missing", err: services.ErrSnapshotNotFound, wantStatus: http.StatusNotFound},
		{name: "conflict", err: services.ErrFormulaNameConflict, wantStatus: http.StatusConflict},
		{name: "locked", err: services.ErrTournamentLocked, wantStatus: http.StatusConflict},
		{name: "wrapped transition", err: fmt.Errorf("%w: soon to completed", services.ErrTournamentInvalidStatusTransition), wantStatus: http.StatusConflict},
		{name: "validation", err: fmt.Errorf("%w: first name is required", services.ErrValidationFailed), wantStatus: http.StatusUnprocessableEntity},
		{name: "field errors", err: &services.FieldErrors{Err: services.ErrGameInvalid, Fields: map[string]string{"sides": "required"}}, wantStatus: http.StatusUnprocessableEntity},
		{name: "bad input", err: services.ErrTournamentInvalidDateRange, wantStatus: http.StatusBadRequest},
		{name: "credentials", err: services.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "forbidden", err: services.ErrForbiddenOperation, wantStatus: http.StatusForbidden},
		{name: "protected", err: services.ErrFormulaProtected, wantStatus: http.StatusForbidden},
		{name: "unexpected", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestServerErrorDoesNotLeak(t *testing.T) {
	h := responder{logger: testLogger()}
	rec := httptest.NewRecorder()
	h.mapServiceErrorToHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestFieldErrorsEnvelope(t *testing.T) {
	fs := &FakeFormulaService{
		CreateFunc: func(ctx context.Context, actor services.Actor, input services.FormulaInput) (*models.ScoringFormula, error) {
			return nil, &services.FieldErrors{Err: services.ErrValidationFailed, Fields: map[string]string{"name": "is required"}}
		},
	}
	h := NewFormulaHandler(fs, testLogger())
	req := asUser(httptest.NewRequest(http.MethodPost, "/formulas", strings.NewReader(`{"name":""}`)), 2, models.RoleOrganizer)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"validation failed","fields":{"name":"is required"}}}`, rec.Body.String())
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "valid", body: `{"name":"Cup"}`},
		{name: "empty", body: ``, wantErr: "body must not be empty"},
		{name: "unknown key", body: `{"name":"Cup","sport":"chess"}`, wantErr: `body contains unknown key "sport"`},
		{name: "wrong type", body: `{"name":1}`, wantErr: `body contains incorrect JSON type for field "name"`},
		{name: "two values", body: `{"name":"a"}{"name":"b"}`, wantErr: "body must only contain a single JSON value"},
		{name: "truncated", body: `{"name":`, wantErr: "body contains badly-formed JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dst struct {
				Name string `json:"name"`
			}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			err := readJSON(httptest.NewRecorder(), req, &dst)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Cup", dst.Name)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	auth := &FakeAuthService{
		LoginFunc: func(ctx context.Context, input services.LoginInput) (*models.User, error) {
			if input.Password != "correct-horse" {
				return nil, services.ErrInvalidCredentials
			}
			return &models.User{ID: 42, Email: input.Email, Role: models.RoleOrganizer}, nil
		},
	}
	h := NewAuthHandler(auth, "secret", testLogger())
	h.now = func() time.Time { return issued }

	t.Run("issues token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"org@example.com","password":"correct-horse"}`)))
		require.Equal(t, http.StatusOK, rec.Code)

		body := decodeBody(t, rec)
		claims := jwt.MapClaims{}
		parser := jwt.Parser{SkipClaimsValidation: true}
		_, err := parser.ParseWithClaims(body["token"].(string), claims, func(*jwt.Token) (interface{}, error) {
			return []byte("secret"), nil
		})
		require.NoError(t, err)

		id, err := middleware.GetUserIDFromClaims(claims)
		require.NoError(t, err)
		assert.Equal(t, 42, id)
		assert.Equal(t, "organizer", claims[middleware.ClaimRole])
		assert.Equal(t, float64(issued.Add(tokenTTL).Unix()), claims["exp"])
		assert.Equal(t, float64(issued.Unix()), claims["iat"])
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
			strings.NewReader(`{"email":"org@example.com","password":"nope"}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Login(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"org@example.com"}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Register(t *testing.T) {
	h := NewAuthHandler(&FakeAuthService{}, "secret", testLogger())

	rec := httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"first_name":"Ann","email":"ann@example.com","password":"long-enough"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "ann@example.com", decodeBody(t, rec)["user"].(map[string]interface{})["email"])

	rec = httptest.NewRecorder()
	h.Register(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"email":"ann@example.com"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func tournamentRouter(ts services.TournamentService) http.Handler {
	h := NewTournamentHandler(ts, testLogger())
	r := chi.NewRouter()
	r.Get("/tournaments", h.ListHandler)
	r.Put("/tournaments/{tournamentID}/formula", h.AssignFormulaHandler)
	r.Patch("/tournaments/{tournamentID}/status", h.UpdateStatusHandler)
	return r
}

func TestTournamentHandler_AssignFormula(t *testing.T) {
	var got struct {
		actor     services.Actor
		id        int
		formulaID *int
	}
	ts := &FakeTournamentService{
		AssignFormulaFunc: func(ctx context.Context, actor services.Actor, id int, formulaID *int) (*models.Tournament, error) {
			got.actor, got.id, got.formulaID = actor, id, formulaID
			if id == 9 {
				return nil, services.ErrTournamentLocked
			}
			return &models.Tournament{ID: id, FormulaID: formulaID}, nil
		},
	}
	router := tournamentRouter(ts)

	tests := []struct {
		name       string
		path       string
		body       string
		anonymous  bool
		wantStatus int
		wantID     *int
	}{
		{name: "assign", path: "/tournaments/3/formula", body: `{"formula_id":7}`, wantStatus: http.StatusOK, wantID: intPtr(7)},
		{name: "restore default", path: "/tournaments/3/formula", body: `{"formula_id":null}`, wantStatus: http.StatusOK},
		{name: "negative id", path: "/tournaments/3/formula", body: `{"formula_id":-1}`, wantStatus: http.StatusBadRequest},
		{name: "bad tournament id", path: "/tournaments/abc/formula", body: `{"formula_id":7}`, wantStatus: http.StatusBadRequest},
		{name: "locked", path: "/tournaments/9/formula", body: `{"formula_id":7}`, wantStatus: http.StatusConflict},
		{name: "anonymous", path: "/tournaments/3/formula", body: `{"formula_id":7}`, anonymous: true, wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got.formulaID = nil
			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			if !tt.anonymous {
				req = asUser(req, 5, models.RoleOrganizer)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, services.Actor{UserID: 5, Role: models.RoleOrganizer}, got.actor)
				assert.Equal(t, 3, got.id)
				assert.Equal(t, tt.wantID, got.formulaID)
			}
		})
	}
}

func TestTournamentHandler_List(t *testing.T) {
	var filter repositories.ListTournamentsFilter
	ts := &FakeTournamentService{
		ListFunc: func(ctx context.Context, f repositories.ListTournamentsFilter) ([]models.Tournament, error) {
			filter = f
			return []models.Tournament{{ID: 1, Name: "Spring Open"}}, nil
		},
	}
	router := tournamentRouter(ts)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments?status=active&formula_id=4&limit=500&offset=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, filter.Status)
	assert.Equal(t, models.StatusActive, *filter.Status)
	assert.Equal(t, intPtr(4), filter.FormulaID)
	assert.Equal(t, maxListLimit, filter.Limit)
	assert.Equal(t, 10, filter.Offset)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments?organizer_id=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTournamentHandler_UpdateStatus(t *testing.T) {
	ts := &FakeTournamentService{
		UpdateStatusFunc: func(ctx context.Context, actor services.Actor, id int, status models.TournamentStatus) (*models.Tournament, error) {
			if status == models.StatusCompleted {
				return nil, fmt.Errorf("%w: soon to completed", services.ErrTournamentInvalidStatusTransition)
			}
			return &models.Tournament{ID: id, Status: status}, nil
		},
	}
	router := tournamentRouter(ts)

	call := func(body string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodPatch, "/tournaments/3/status", strings.NewReader(body)), 5, models.RoleOrganizer)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call(`{"status":"registration"}`).Code)
	assert.Equal(t, http.StatusConflict, call(`{"status":"completed"}`).Code)
	assert.Equal(t, http.StatusBadRequest, call(`{}`).Code)
}

func TestStandingsHandler(t *testing.T) {
	ss := &FakeStandingsService{
		StandingsFunc: func(ctx context.Context, tournamentID int) (*services.StandingsView, error) {
			return &services.StandingsView{TournamentID: tournamentID}, nil
		},
		ExportFunc: func(ctx context.Context, tournamentID int, w io.Writer) error {
			if tournamentID == 404 {
				return services.ErrTournamentNotFound
			}
			_, err := io.WriteString(w, "PK-workbook")
			return err
		},
	}
	h := NewStandingsHandler(ss, testLogger())
	router := chi.NewRouter()
	router.Get("/tournaments/{tournamentID}/standings", h.Standings)
	router.Get("/tournaments/{tournamentID}/standings/export", h.Export)
	router.Get("/tournaments/{tournamentID}/standings/snapshot", h.Snapshot)

	t.Run("live", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/3/standings", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		standings := decodeBody(t, rec)["standings"].(map[string]interface{})
		assert.Equal(t, float64(3), standings["tournament_id"])
	})

	t.Run("export", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/3/standings/export", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="tournament-3-standings.xlsx"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "PK-workbook", rec.Body.String())
	})

	t.Run("export of unknown tournament", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/404/standings/export", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	})

	t.Run("snapshot before completion", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tournaments/3/standings/snapshot", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGameHandler_Record(t *testing.T) {
	gs := &FakeGameService{
		RecordFunc: func(ctx context.Context, actor services.Actor, tournamentID int, input services.RecordGameInput) (*models.Game, error) {
			if len(input.Sides) == 0 {
				return nil, &services.FieldErrors{Err: services.ErrGameInvalid, Fields: map[string]string{"sides": "one or two sides are required"}}
			}
			return &models.Game{ID: 11, TournamentID: tournamentID, CreatedBy: actor.UserID}, nil
		},
	}
	h := NewGameHandler(gs, testLogger())
	router := chi.NewRouter()
	router.Post("/tournaments/{tournamentID}/games", h.Record)

	call := func(body string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodPost, "/tournaments/3/games", strings.NewReader(body)), 5, models.RoleOrganizer)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := call(`{"sides":[{"participant_id":1,"score":21},{"participant_id":2,"score":10}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	game := decodeBody(t, rec)["game"].(map[string]interface{})
	assert.Equal(t, float64(11), game["id"])
	assert.Equal(t, float64(5), game["created_by"])

	assert.Equal(t, http.StatusUnprocessableEntity, call(`{"sides":[]}`).Code)
}

func TestParticipantHandler_Register(t *testing.T) {
	var got services.RegisterParticipantInput
	ps := &FakeParticipantService{
		RegisterFunc: func(ctx context.Context, actor services.Actor, tournamentID int, input services.RegisterParticipantInput) (*models.Participant, error) {
			got = input
			return &models.Participant{ID: 8, TournamentID: tournamentID}, nil
		},
	}
	h := NewParticipantHandler(ps, testLogger())
	router := chi.NewRouter()
	router.Post("/tournaments/{tournamentID}/participants", h.Register)

	req := asUser(httptest.NewRequest(http.MethodPost, "/tournaments/3/participants", nil), 5, models.RolePlayer)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Nil(t, got.TeamID)

	req = asUser(httptest.NewRequest(http.MethodPost, "/tournaments/3/participants", strings.NewReader(`{"team_id":4}`)), 5, models.RolePlayer)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, intPtr(4), got.TeamID)
}

func TestWebSocketHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := live.NewHub(testLogger())
	go hub.Run(ctx)

	ts := &FakeTournamentService{
		GetFunc: func(ctx context.Context, id int) (*models.Tournament, error) {
			if id != 3 {
				return nil, services.ErrTournamentNotFound
			}
			return &models.Tournament{ID: 3}, nil
		},
	}
	h := NewWebSocketHandler(hub, ts, []string{"*"}, testLogger())
	router := chi.NewRouter()
	router.Get("/ws/tournaments/{tournamentID}", h.ServeWs)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/tournaments/"

	t.Run("unknown tournament", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"99", nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("receives room broadcasts", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"3", nil)
		require.NoError(t, err)
		defer conn.Close()

		room := live.RoomForTournament(3)
		require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 10*time.Millisecond)

		hub.BroadcastToRoom(room, live.Message{Type: live.MessageStandingsUpdated, Payload: map[string]int{"tournament_id": 3}})

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg live.Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, live.MessageStandingsUpdated, msg.Type)
	})
}

func intPtr(v int) *int { return &v }
