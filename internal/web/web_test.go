package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/slascicarna/internal/auth"
	"github.com/erazemk/slascicarna/internal/db"
	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/store"
)

const testSecret = "test-secret"

type testEnv struct {
	t       *testing.T
	handler http.Handler
}

func newTestEnv(t *testing.T) (*testEnv, *Server) {
	t.Helper()
	database := db.NewTestDB(t)
	handler, err := NewRouter(database, testSecret)
	require.NoError(t, err)
	return &testEnv{t: t, handler: handler}, &Server{DB: database}
}

// do sends a request through the router and returns the recorded response.
func (e *testEnv) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func sessionFor(t *testing.T, user *model.User) *http.Cookie {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, user.ID, user.Username, user.Role)
	require.NoError(t, err)
	return &http.Cookie{Name: authCookie, Value: token}
}

func cookieFrom(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func createUser(t *testing.T, s *Server, username, role string) *model.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)
	u, err := store.CreateUser(context.Background(), s.DB, username, hash, role)
	require.NoError(t, err)
	return u
}

func createItem(t *testing.T, s *Server, name string, quantity int) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), s.DB, name, "", decimal.RequireFromString("2.50"), quantity)
	require.NoError(t, err)
	return item
}

func TestHomeEmptyCatalog(t *testing.T) {
	env, _ := newTestEnv(t)

	rec := env.do("GET", "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No sweets available.")
}

func TestHomeListsItemsPublicly(t *testing.T) {
	env, s := newTestEnv(t)
	createItem(t, s, "Barfi", 5)

	rec := env.do("GET", "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Barfi")
	assert.Contains(t, body, "2.50")
	assert.NotContains(t, body, `name="quantity"`, "order form is for logged-in users only")
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	env, s := newTestEnv(t)
	item := createItem(t, s, "Barfi", 5)

	for _, tc := range []struct {
		method, path string
	}{
		{"POST", "/order/1/"},
		{"GET", "/orders/"},
		{"GET", "/manage/"},
		{"GET", "/settings/"},
	} {
		rec := env.do(tc.method, tc.path, url.Values{"quantity": {"1"}})
		assert.Equal(t, http.StatusFound, rec.Code, tc.path)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login/"), tc.path)
	}

	got, err := store.GetItem(context.Background(), s.DB, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.QuantityAvailable)

	n, err := store.CountOrders(context.Background(), s.DB)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPlaceOrderFlow(t *testing.T) {
	env, s := newTestEnv(t)
	user := createUser(t, s, "ana", model.RoleCustomer)
	item := createItem(t, s, "Barfi", 3)
	session := sessionFor(t, user)

	rec := env.do("POST", "/order/1/", url.Values{"quantity": {"2"}}, session)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	flashCookie := cookieFrom(rec, "flash")
	require.NotNil(t, flashCookie)
	page := env.do("GET", "/", nil, session, flashCookie)
	assert.Contains(t, page.Body.String(), "Order placed for 2 Barfi(s)!")

	rec = env.do("POST", "/order/1/", url.Values{"quantity": {"2"}}, session)
	page = env.do("GET", "/", nil, session, cookieFrom(rec, "flash"))
	assert.Contains(t, page.Body.String(), "Only 1 Barfi(s) available!")

	got, err := store.GetItem(context.Background(), s.DB, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.QuantityAvailable)

	n, err := store.CountOrders(context.Background(), s.DB)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPlaceOrderInvalidQuantity(t *testing.T) {
	env, s := newTestEnv(t)
	user := createUser(t, s, "ana", model.RoleCustomer)
	createItem(t, s, "Ladoo", 3)
	session := sessionFor(t, user)

	for _, q := range []string{"0", "-1", "abc", ""} {
		rec := env.do("POST", "/order/1/", url.Values{"quantity": {q}}, session)
		require.Equal(t, http.StatusFound, rec.Code)
		page := env.do("GET", "/", nil, session, cookieFrom(rec, "flash"))
		assert.Contains(t, page.Body.String(), "Please enter a valid quantity greater than 0.", "quantity %q", q)
	}

	n, err := store.CountOrders(context.Background(), s.DB)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPlaceOrderWithoutQuantityOrdersOne(t *testing.T) {
	env, s := newTestEnv(t)
	user := createUser(t, s, "ana", model.RoleCustomer)
	item := createItem(t, s, "Gulab Jamun", 3)
	session := sessionFor(t, user)

	rec := env.do("POST", "/order/1/", url.Values{}, session)
	require.Equal(t, http.StatusFound, rec.Code)
	page := env.do("GET", "/", nil, session, cookieFrom(rec, "flash"))
	assert.Contains(t, page.Body.String(), "Order placed for 1 Gulab Jamun(s)!")

	got, err := store.GetItem(context.Background(), s.DB, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.QuantityAvailable)
}

func TestFlashShownOnce(t *testing.T) {
	env, s := newTestEnv(t)
	user := createUser(t, s, "ana", model.RoleCustomer)
	createItem(t, s, "Barfi", 3)
	session := sessionFor(t, user)

	rec := env.do("POST", "/order/1/", url.Values{"quantity": {"1"}}, session)
	page := env.do("GET", "/", nil, session, cookieFrom(rec, "flash"))
	cleared := cookieFrom(page, "flash")
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestOrdersPageShowsGlobalLog(t *testing.T) {
	env, s := newTestEnv(t)
	ana := createUser(t, s, "ana", model.RoleCustomer)
	bor := createUser(t, s, "bor", model.RoleCustomer)
	createItem(t, s, "Rasgulla", 10)

	env.do("POST", "/order/1/", url.Values{"quantity": {"2"}}, sessionFor(t, ana))
	env.do("POST", "/order/1/", url.Values{"quantity": {"3"}}, sessionFor(t, bor))

	rec := env.do("GET", "/orders/", nil, sessionFor(t, ana))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Rasgulla")
	assert.Contains(t, body, "ana")
	assert.Contains(t, body, "bor")
	first, second := strings.Index(body, "<td>ana</td>"), strings.Index(body, "<td>bor</td>")
	require.NotEqual(t, -1, first)
	assert.Less(t, first, second, "orders are listed in placement order")
}

func TestRegisterLogsIn(t *testing.T) {
	env, s := newTestEnv(t)

	rec := env.do("POST", "/register/", url.Values{
		"username":  {"mojca"},
		"password1": {"sladkarije"},
		"password2": {"sladkarije"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	require.NotNil(t, cookieFrom(rec, authCookie))

	u, err := store.GetUserByUsername(context.Background(), s.DB, "mojca")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.RoleCustomer, u.Role)
}

func TestRegisterRejectsInvalid(t *testing.T) {
	env, s := newTestEnv(t)
	createUser(t, s, "taken", model.RoleCustomer)

	for name, form := range map[string]url.Values{
		"mismatch":  {"username": {"mojca"}, "password1": {"sladkarije"}, "password2": {"drugacno1"}},
		"short":     {"username": {"mojca"}, "password1": {"kratko"}, "password2": {"kratko"}},
		"bad name":  {"username": {"mo jca"}, "password1": {"sladkarije"}, "password2": {"sladkarije"}},
		"duplicate": {"username": {"taken"}, "password1": {"sladkarije"}, "password2": {"sladkarije"}},
	} {
		rec := env.do("POST", "/register/", form)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.Nil(t, cookieFrom(rec, authCookie), name)
	}
}

func TestLoginAndLogout(t *testing.T) {
	env, s := newTestEnv(t)
	createUser(t, s, "ana", model.RoleCustomer)

	rec := env.do("POST", "/login/", url.Values{"username": {"ana"}, "password": {"wrong-password"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, cookieFrom(rec, authCookie))

	rec = env.do("POST", "/login/", url.Values{
		"username": {"ana"}, "password": {"password123"}, "next": {"/orders/"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/orders/", rec.Header().Get("Location"))
	session := cookieFrom(rec, authCookie)
	require.NotNil(t, session)

	assert.Equal(t, http.StatusOK, env.do("GET", "/orders/", nil, session).Code)

	rec = env.do("POST", "/logout/", nil, session)
	assert.Equal(t, http.StatusFound, rec.Code)

	// The old token is revoked server-side.
	assert.Equal(t, http.StatusFound, env.do("GET", "/orders/", nil, session).Code)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/orders/", safeNext("/orders/"))
	assert.Equal(t, "/", safeNext(""))
	assert.Equal(t, "/", safeNext("https://evil.example"))
	assert.Equal(t, "/", safeNext("//evil.example"))
}

func TestManageRequiresManager(t *testing.T) {
	env, s := newTestEnv(t)
	customer := createUser(t, s, "ana", model.RoleCustomer)
	manager := createUser(t, s, "boss", model.RoleManager)

	assert.Equal(t, http.StatusForbidden, env.do("GET", "/manage/", nil, sessionFor(t, customer)).Code)
	assert.Equal(t, http.StatusOK, env.do("GET", "/manage/", nil, sessionFor(t, manager)).Code)
}

func TestManageCreateAndRestock(t *testing.T) {
	env, s := newTestEnv(t)
	manager := sessionFor(t, createUser(t, s, "boss", model.RoleManager))

	rec := env.do("POST", "/manage/items/", url.Values{
		"name": {"Kaju Katli"}, "description": {"Cashew fudge"}, "price": {"3.5"}, "quantity": {"4"},
	}, manager)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	items, err := store.ListItems(context.Background(), s.DB)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "3.50", items[0].Price.StringFixed(model.PriceScale))
	assert.Equal(t, 4, items[0].QuantityAvailable)

	env.do("POST", "/manage/items/1/stock/", url.Values{"delta": {"6"}}, manager)
	rec = env.do("POST", "/manage/items/1/stock/", url.Values{"delta": {"-20"}}, manager)
	page := env.do("GET", "/manage/", nil, manager, cookieFrom(rec, "flash"))
	assert.Contains(t, page.Body.String(), "Please check the values you entered.")

	got, err := store.GetItem(context.Background(), s.DB, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.QuantityAvailable)
}

func TestUsersAdminOnly(t *testing.T) {
	env, s := newTestEnv(t)
	manager := sessionFor(t, createUser(t, s, "boss", model.RoleManager))
	admin := sessionFor(t, createUser(t, s, "root", model.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, env.do("GET", "/users/", nil, manager).Code)
	assert.Equal(t, http.StatusOK, env.do("GET", "/users/", nil, admin).Code)

	rec := env.do("POST", "/users/", url.Values{
		"username": {"novi"}, "password": {"password123"}, "role": {model.RoleManager},
	}, admin)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	u, err := store.GetUserByUsername(context.Background(), s.DB, "novi")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, model.RoleManager, u.Role)
}

func TestSettingsChangePassword(t *testing.T) {
	env, s := newTestEnv(t)
	user := createUser(t, s, "ana", model.RoleCustomer)
	session := sessionFor(t, user)

	rec := env.do("POST", "/settings/", url.Values{
		"current_password": {"wrong-password"}, "new_password": {"novogeslo1"},
	}, session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do("POST", "/settings/", url.Values{
		"current_password": {"password123"}, "new_password": {"novogeslo1"},
	}, session)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password changed.")

	updated, err := store.GetUser(context.Background(), s.DB, user.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(updated.PasswordHash, "novogeslo1"))
}
