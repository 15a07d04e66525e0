package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/cardtracker/cardtracker/caching"
	"github.com/cardtracker/cardtracker/config"
	"github.com/cardtracker/cardtracker/database"
	"github.com/cardtracker/cardtracker/database/model"
	"github.com/cardtracker/cardtracker/logger"
	"github.com/cardtracker/cardtracker/web/cache"
	"github.com/cardtracker/cardtracker/web/entity"
	"github.com/cardtracker/cardtracker/web/service"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamCard = `{"data":{"id":"base1-58","name":"Pikachu","rarity":"Common","subtypes":["Basic"],
"images":{"small":"https://images.example/base1/58.png","large":"https://images.example/base1/58_hires.png"}}}`

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	t.Setenv("CARDTRACKER_BCRYPT_COST", "4")
	t.Setenv("CARDTRACKER_JWT_SECRET", "test-secret")

	require.NoError(t, database.InitDB(&config.DatabaseConfig{
		Type:   config.DatabaseTypeSQLite,
		SQLite: config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}))
	require.NoError(t, cache.InitRedis(""))

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cards/base1-58":
			_, _ = w.Write([]byte(upstreamCard))
		case "/cards":
			_, _ = w.Write([]byte(`{"data":[],"page":1,"q":"` + r.URL.Query().Get("q") + `"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404}}`))
		}
	}))

	s := NewServer()
	s.tcg = service.NewTCGClient(upstream.URL, "", time.Second, caching.NewCache(time.Hour))
	engine, err := s.initRouter()
	require.NoError(t, err)

	t.Cleanup(func() {
		s.cancel()
		s.tcg.Close()
		upstream.Close()
		_ = cache.Close()
		_ = database.CloseDB()
	})
	return &apiClient{t: t, engine: engine}
}

func (a *apiClient) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.send(req)
}

func (a *apiClient) send(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func (a *apiClient) decode(w *httptest.ResponseRecorder, v any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// login registers username and returns a token for it.
func (a *apiClient) login(username string, admin bool) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/register", gin.H{"username": username, "password": "secret1"}, "")
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	if admin {
		require.NoError(a.t, (&service.UserService{}).GrantRole(username, model.RoleAdmin))
	}
	w = a.do(http.MethodPost, "/api/auth/login", gin.H{"username": username, "password": "secret1"}, "")
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var tok entity.TokenResponse
	a.decode(w, &tok)
	return tok.Token
}

func fieldsOf(t *testing.T, w *httptest.ResponseRecorder) []string {
	t.Helper()
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	var ve entity.ValidationErrors
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ve))
	fields := make([]string, 0, len(ve.Errors))
	for _, e := range ve.Errors {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestAuthFlow(t *testing.T) {
	api := newAPIClient(t)

	// validation
	w := api.do(http.MethodPost, "/api/auth/register", gin.H{"username": "", "email": "nope", "password": "123"}, "")
	assert.ElementsMatch(t, []string{"username", "email", "password"}, fieldsOf(t, w))

	w = api.do(http.MethodPost, "/api/auth/register", `{"username": 5}`, "")
	assert.Equal(t, []string{"username"}, fieldsOf(t, w))

	w = api.do(http.MethodPost, "/api/auth/register", gin.H{"username": "ash", "email": "ash@example.com", "password": "pikachu"}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	var reg entity.RegisterResponse
	api.decode(w, &reg)
	assert.Equal(t, "ash", reg.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = api.do(http.MethodPost, "/api/auth/register", gin.H{"username": "ash", "password": "pikachu"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/api/auth/login", gin.H{"username": "ash", "password": "wrong!"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Wrong credentials"}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/auth/login", gin.H{"email": "ash@example.com", "password": "pikachu"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var tok entity.TokenResponse
	api.decode(w, &tok)

	w = api.do(http.MethodGet, "/api/auth/me", nil, tok.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var me entity.MeResponse
	api.decode(w, &me)
	assert.Equal(t, reg.Id, me.Id)
	assert.Equal(t, []string{model.RoleUser}, me.Roles)

	w = api.do(http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"No token"}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/cards", nil, tok.Token+"x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid token"}`, w.Body.String())
}

func TestReferenceDataNeedsAdminToWrite(t *testing.T) {
	api := newAPIClient(t)
	user := api.login("ash", false)
	admin := api.login("oak", true)

	w := api.do(http.MethodPost, "/api/series", gin.H{"name": "Base"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = api.do(http.MethodPost, "/api/series", gin.H{"name": "Base"}, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"message":"Not authorized"}`, w.Body.String())

	w = api.do(http.MethodPost, "/api/series", gin.H{"name": "Base"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var series model.Series
	api.decode(w, &series)

	w = api.do(http.MethodPost, "/api/sets", gin.H{"name_of_expansion": "Base Set", "series_id": 999}, admin)
	assert.Equal(t, []string{"series_id"}, fieldsOf(t, w))

	w = api.do(http.MethodPost, "/api/sets", gin.H{"name_of_expansion": "Base Set", "series_id": series.Id, "set_abb": "base1"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/card-types", gin.H{"name": "Basic", "category": "Pokémon"}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// reads are public
	w = api.do(http.MethodGet, "/api/sets", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var sets []model.Set
	api.decode(w, &sets)
	require.Len(t, sets, 1)
	assert.Equal(t, "base1", *sets[0].SetAbb)

	w = api.do(http.MethodGet, "/api/card-types/abc", nil, "")
	assert.Equal(t, []string{"id"}, fieldsOf(t, w))
	w = api.do(http.MethodGet, "/api/series/42", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, "/api/series/42", nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCardsFlow(t *testing.T) {
	api := newAPIClient(t)
	admin := api.login("oak", true)
	ash := api.login("ash", false)
	misty := api.login("misty", false)

	var series model.Series
	api.decode(api.do(http.MethodPost, "/api/series", gin.H{"name": "Base"}, admin), &series)
	var set model.Set
	api.decode(api.do(http.MethodPost, "/api/sets", gin.H{"name_of_expansion": "Base Set", "series_id": series.Id, "set_abb": "base1"}, admin), &set)
	var basic model.CardType
	api.decode(api.do(http.MethodPost, "/api/card-types", gin.H{"name": "Basic"}, admin), &basic)

	// validation
	w := api.do(http.MethodPost, "/api/cards", gin.H{"set_id": 0, "no_in_set": 0, "image_small": "not a url", "price_low": -1}, ash)
	assert.ElementsMatch(t, []string{"name", "set_id", "no_in_set", "image_small", "price_low"}, fieldsOf(t, w))

	// enriched from the TCG API, type from the "Basic" subtype
	w = api.do(http.MethodPost, "/api/cards", gin.H{"name": "Pikachu", "set_id": set.Id, "no_in_set": 58}, ash)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var card model.Card
	api.decode(w, &card)
	assert.Equal(t, basic.Id, card.TypeId)
	require.NotNil(t, card.Rarity)
	assert.Equal(t, "Common", *card.Rarity)

	w = api.do(http.MethodGet, "/api/cards/"+itoa(card.Id), nil, ash)
	require.Equal(t, http.StatusOK, w.Code)
	var view model.CardView
	api.decode(w, &view)
	assert.Equal(t, "Base Set", view.SetName)
	assert.Equal(t, "Base", view.SeriesName)
	assert.Equal(t, "Basic", view.TypeName)
	assert.Equal(t, "ash", view.UserName)
	assert.NotContains(t, w.Body.String(), "document_with_weights")

	// other users cannot see or change it
	w = api.do(http.MethodGet, "/api/cards/"+itoa(card.Id), nil, misty)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = api.do(http.MethodPut, "/api/cards/"+itoa(card.Id), gin.H{"name": "Mine"}, misty)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPut, "/api/cards/"+itoa(card.Id), gin.H{"price_market": 2.5}, ash)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	api.decode(w, &card)
	assert.Equal(t, "Pikachu", card.Name)
	assert.Equal(t, 2.5, *card.PriceMarket)

	// search
	w = api.do(http.MethodGet, "/api/cards/search?q=pika&type=x", nil, ash)
	assert.Equal(t, []string{"type"}, fieldsOf(t, w))
	w = api.do(http.MethodGet, "/api/cards/search?q=pika&series="+itoa(series.Id), nil, ash)
	require.Equal(t, http.StatusOK, w.Code)
	var found []model.CardView
	api.decode(w, &found)
	require.Len(t, found, 1)
	assert.Equal(t, card.Id, found[0].Id)

	// delete is idempotent
	w = api.do(http.MethodDelete, "/api/cards/"+itoa(card.Id), nil, ash)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodDelete, "/api/cards/"+itoa(card.Id), nil, ash)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, "/api/cards", nil, ash)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestUsersSelfOrAdmin(t *testing.T) {
	api := newAPIClient(t)
	admin := api.login("oak", true)
	ash := api.login("ash", false)
	misty := api.login("misty", false)

	var users []model.User
	api.decode(api.do(http.MethodGet, "/api/users", nil, ash), &users)
	require.Len(t, users, 3)
	assert.Equal(t, "ash", users[0].Username)
	mistyId := users[1].Id

	w := api.do(http.MethodPut, "/api/users/"+itoa(mistyId), gin.H{"username": "hacked"}, ash)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodDelete, "/api/users/"+itoa(mistyId), nil, ash)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(http.MethodPut, "/api/users/"+itoa(mistyId), gin.H{"email": "misty@example.com"}, misty)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = api.do(http.MethodPut, "/api/users/"+itoa(mistyId), gin.H{"username": "ash"}, admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = api.do(http.MethodPost, "/api/users", gin.H{"username": "brock", "password": "onix123"}, ash)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodPost, "/api/users", gin.H{"username": "brock", "password": "onix123", "admin": true}, admin)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = api.do(http.MethodDelete, "/api/users/"+itoa(mistyId), nil, admin)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = api.do(http.MethodGet, "/api/users/"+itoa(mistyId), nil, ash)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTCGProxy(t *testing.T) {
	api := newAPIClient(t)
	ash := api.login("ash", false)

	w := api.do(http.MethodGet, "/api/tcg/cards/base1-58", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/api/tcg/cards/base1-58", nil, ash)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.JSONEq(t, upstreamCard, w.Body.String())

	w = api.do(http.MethodGet, "/api/tcg/cards/base1-58", nil, ash)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))

	w = api.do(http.MethodGet, "/api/tcg/cards/nope-1", nil, ash)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":{"code":404}}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/tcg/cards?q=name:pikachu&unknown=1", nil, ash)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[],"page":1,"q":"name:pikachu"}`, w.Body.String())
}

func TestAuthRateLimit(t *testing.T) {
	t.Setenv("CARDTRACKER_RATE_LIMIT", "2")
	api := newAPIClient(t)

	body := gin.H{"username": "ash", "password": "nope"}
	for i := 0; i < 2; i++ {
		w := api.do(http.MethodPost, "/api/auth/login", body, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}
	w := api.do(http.MethodPost, "/api/auth/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// other routes are not limited
	w = api.do(http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func loginFrom(remoteAddr, forwardedFor string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		bytes.NewBufferString(`{"username":"ash","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	return req
}

func TestAuthRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	t.Setenv("CARDTRACKER_RATE_LIMIT", "2")
	api := newAPIClient(t)

	var codes []int
	for i := 0; i < 4; i++ {
		w := api.send(loginFrom("203.0.113.7:4000", "198.51.100."+strconv.Itoa(i)))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{401, 401, 429, 429}, codes)
}

func TestAuthRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	t.Setenv("CARDTRACKER_RATE_LIMIT", "2")
	t.Setenv("CARDTRACKER_TRUSTED_PROXIES", "10.0.0.1")
	api := newAPIClient(t)

	var codes []int
	for i := 0; i < 4; i++ {
		w := api.send(loginFrom("10.0.0.1:4000", "198.51.100."+strconv.Itoa(i)))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{401, 401, 401, 401}, codes)
}

func TestLogsAreAdminOnly(t *testing.T) {
	api := newAPIClient(t)
	admin := api.login("oak", true)
	user := api.login("ash", false)

	logger.Warning("price refresh skipped base1-999")

	w := api.do(http.MethodGet, "/api/logs?level=warning&count=5", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var logs []string
	api.decode(w, &logs)
	require.NotEmpty(t, logs)
	assert.LessOrEqual(t, len(logs), 5)
	assert.Contains(t, logs[0], "price refresh skipped base1-999")

	w = api.do(http.MethodGet, "/api/logs?level=loud", nil, admin)
	assert.Equal(t, []string{"level"}, fieldsOf(t, w))

	w = api.do(http.MethodGet, "/api/logs", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodGet, "/api/logs", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServesSinglePageApp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log(1)"), 0o644))
	t.Setenv("CARDTRACKER_WEB_DIR", dir)

	api := newAPIClient(t)

	w := api.do(http.MethodGet, "/assets/app.js", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = api.do(http.MethodGet, "/cards/42/edit", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	w = api.do(http.MethodGet, "/../../etc/passwd", nil, "")
	assert.NotContains(t, w.Body.String(), "root:")

	w = api.do(http.MethodGet, "/api/unknown", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Not found"}`, w.Body.String())

	w = api.do(http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
