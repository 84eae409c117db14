package web

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/slascicarna/internal/shop"
	webembed "github.com/erazemk/slascicarna/web"
)

// NewRouter creates the storefront router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Shop:      &shop.Service{DB: db},
		Templates: templates,
		JWTSecret: jwtSecret,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db)
	optionalAuth := OptionalAuthMiddleware(jwtSecret, db)
	protect := func(h http.HandlerFunc) http.Handler { return cookieAuth(h) }
	public := func(h http.HandlerFunc) http.Handler { return optionalAuth(h) }

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /items/{id}/image", s.ItemImageGet)

	// Storefront.
	mux.Handle("GET /{$}", public(s.Home))
	mux.Handle("POST /order/{id}/{$}", protect(s.PlaceOrderSubmit))
	mux.Handle("GET /orders/{$}", protect(s.OrdersPage))

	// Accounts.
	mux.Handle("GET /register/{$}", public(s.RegisterPage))
	mux.HandleFunc("POST /register/{$}", s.RegisterSubmit)
	mux.Handle("GET /login/{$}", public(s.LoginPage))
	mux.HandleFunc("POST /login/{$}", s.LoginSubmit)
	mux.HandleFunc("POST /logout/{$}", s.Logout)
	mux.Handle("GET /settings/{$}", protect(s.SettingsPage))
	mux.Handle("POST /settings/{$}", protect(s.SettingsSubmit))

	// Catalog management (manager+).
	mux.Handle("GET /manage/{$}", protect(s.ManagePage))
	mux.Handle("POST /manage/items/{$}", protect(s.ItemCreateSubmit))
	mux.Handle("POST /manage/items/{id}/{$}", protect(s.ItemUpdateSubmit))
	mux.Handle("POST /manage/items/{id}/stock/{$}", protect(s.ItemStockSubmit))
	mux.Handle("POST /manage/items/{id}/image/{$}", protect(s.ItemImageSubmit))
	mux.Handle("POST /manage/items/{id}/delete/{$}", protect(s.ItemDeleteSubmit))

	// User administration (admin).
	mux.Handle("GET /users/{$}", protect(s.UsersPage))
	mux.Handle("POST /users/{$}", protect(s.UserCreateSubmit))
	mux.Handle("POST /users/{id}/role/{$}", protect(s.UserUpdateRoleSubmit))
	mux.Handle("POST /users/{id}/password/{$}", protect(s.UserResetPasswordSubmit))

	return mux, nil
}
