package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/slascicarna/internal/auth"
	"github.com/erazemk/slascicarna/internal/db"
	"github.com/erazemk/slascicarna/internal/model"
	"github.com/erazemk/slascicarna/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := auth.HashPassword("password123")
	store.CreateUser(ctx, database, "admin", hash, model.RoleAdmin)

	// Get token.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "password123"})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp loginResponse
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}

	return server, database, loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func do(t *testing.T, method, url, token string, body, out any) int {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s %s: %v", method, url, err)
		}
	}
	return resp.StatusCode
}

func createTestItem(t *testing.T, database *sql.DB, name string, quantity int) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), database, name, "", decimal.NewFromInt(3), quantity)
	if err != nil {
		t.Fatalf("creating item: %v", err)
	}
	return item
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	// Test invalid credentials.
	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRegisterEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	var reg loginResponse
	status := do(t, "POST", server.URL+"/api/auth/register", "", map[string]string{
		"username": "mojca", "password1": "sladkarije", "password2": "sladkarije",
	}, &reg)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if reg.Token == "" || reg.User == nil || reg.User.Role != model.RoleCustomer {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	status = do(t, "POST", server.URL+"/api/auth/register", "", map[string]string{
		"username": "mojca", "password1": "sladkarije", "password2": "sladkarije",
	}, nil)
	if status != http.StatusConflict {
		t.Errorf("expected 409 for duplicate username, got %d", status)
	}

	status = do(t, "POST", server.URL+"/api/auth/register", "", map[string]string{
		"username": "other", "password1": "sladkarije", "password2": "drugacno1",
	}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for mismatched passwords, got %d", status)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	if status := do(t, "POST", server.URL+"/api/auth/logout", token, nil, nil); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if status := do(t, "GET", server.URL+"/api/orders", token, nil, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", status)
	}
}

func TestItemsAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	// Create item.
	var created model.Item
	status := do(t, "POST", server.URL+"/api/items", token, map[string]any{
		"name":        "Gulab Jamun",
		"description": "Milk dumplings in syrup",
		"price":       "4.20",
		"quantity":    12,
	}, &created)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if created.QuantityAvailable != 12 || created.Price.StringFixed(2) != "4.20" {
		t.Errorf("unexpected item: %+v", created)
	}

	// List items without a token.
	var items []model.Item
	if status := do(t, "GET", server.URL+"/api/items", "", nil, &items); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(items) != 1 {
		t.Errorf("expected 1 item, got %d", len(items))
	}

	// Negative price is invalid input.
	status = do(t, "POST", server.URL+"/api/items", token, map[string]any{"name": "Bad", "price": "-1"}, nil)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for negative price, got %d", status)
	}
}

func TestRestockEndpoint(t *testing.T) {
	server, database, token := setupTestServer(t)
	item := createTestItem(t, database, "Ladoo", 2)
	url := server.URL + "/api/items/" + itoa(item.ID) + "/stock"

	var stock stockResponse
	if status := do(t, "POST", url, token, map[string]int{"delta": 5}, &stock); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if stock.QuantityAvailable != 7 {
		t.Errorf("expected 7 available, got %d", stock.QuantityAvailable)
	}

	if status := do(t, "POST", url, token, map[string]int{"delta": -8}, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for negative result, got %d", status)
	}
	if status := do(t, "POST", server.URL+"/api/items/999/stock", token, map[string]int{"delta": 1}, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", status)
	}
}

func TestPlaceOrderEndpoint(t *testing.T) {
	server, database, token := setupTestServer(t)
	item := createTestItem(t, database, "Barfi", 3)
	url := server.URL + "/api/items/" + itoa(item.ID) + "/orders"

	var placed placeOrderResponse
	if status := do(t, "POST", url, token, map[string]any{"quantity": 2}, &placed); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if placed.Message != "Order placed for 2 Barfi(s)!" || placed.Remaining != 1 {
		t.Errorf("unexpected placement: %+v", placed)
	}

	var conflict stockError
	if status := do(t, "POST", url, token, map[string]any{"quantity": "2"}, &conflict); status != http.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if conflict.Available != 1 || conflict.Error != "Only 1 Barfi(s) available!" {
		t.Errorf("unexpected conflict body: %+v", conflict)
	}

	for _, q := range []any{0, -1, "abc", 1.5, nil} {
		if status := do(t, "POST", url, token, map[string]any{"quantity": q}, nil); status != http.StatusBadRequest {
			t.Errorf("quantity %v: expected 400, got %d", q, status)
		}
	}

	if status := do(t, "POST", server.URL+"/api/items/999/orders", token, map[string]any{"quantity": 1}, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for missing item, got %d", status)
	}

	if status := do(t, "POST", url, "", map[string]any{"quantity": 1}, nil); status != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", status)
	}

	got, _ := store.GetItem(context.Background(), database, item.ID)
	if got.QuantityAvailable != 1 {
		t.Errorf("expected 1 left, got %d", got.QuantityAvailable)
	}
}

func TestOrderListings(t *testing.T) {
	server, database, adminToken := setupTestServer(t)
	item := createTestItem(t, database, "Rasgulla", 10)
	url := server.URL + "/api/items/" + itoa(item.ID) + "/orders"

	hash, _ := auth.HashPassword("password123")
	customer, _ := store.CreateUser(context.Background(), database, "ana", hash, model.RoleCustomer)
	customerToken, _ := auth.GenerateToken(testJWTSecret, customer.ID, customer.Username, customer.Role)

	do(t, "POST", url, adminToken, map[string]any{"quantity": 1}, nil)
	do(t, "POST", url, customerToken, map[string]any{"quantity": 2}, nil)

	var all []model.Order
	if status := do(t, "GET", server.URL+"/api/orders", customerToken, nil, &all); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 orders in the global log, got %d", len(all))
	}

	var mine []model.Order
	do(t, "GET", server.URL+"/api/orders/mine", customerToken, nil, &mine)
	if len(mine) != 1 || mine[0].Quantity != 2 || mine[0].Username != "ana" {
		t.Errorf("unexpected own orders: %+v", mine)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	resp, _ := http.Get(server.URL + "/api/orders")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create a customer.
	ctx := context.Background()
	hash, _ := auth.HashPassword("password123")
	user, _ := store.CreateUser(ctx, database, "user1", hash, model.RoleCustomer)

	userToken, _ := auth.GenerateToken(testJWTSecret, user.ID, "user1", model.RoleCustomer)

	// Customers cannot create items (manager+ required).
	req, _ := authRequest("POST", server.URL+"/api/items", userToken, map[string]string{
		"name": "Test",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for customer creating item, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Customers cannot access /api/users.
	req, _ = authRequest("GET", server.URL+"/api/users", userToken, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for customer accessing users, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
