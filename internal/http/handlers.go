package http

import (
	"html/template"
	"log/slog"
	"net/http"

	"authgate/internal/auth"
)

var loginTemplate = template.Must(template.New("login").Parse(`<!doctype html>
<html>
<head>
  <title>Login | authgate</title>
  <link rel="stylesheet" href="/static/css/style.css">
</head>
<body>
  <a class="login" href="/auth/login">Log in</a>
</body>
</html>
`))

var homeTemplate = template.Must(template.New("home").Parse(`<!doctype html>
<html>
<head>
  <title>Welcome | authgate</title>
  <link rel="stylesheet" href="/static/css/style.css">
</head>
<body>
  <h1>Guarded route</h1>
  <p>You logged in successfully.</p>
  <p>Email: {{.Email}}</p>
  <p><a href="/logout">Log out</a></p>
</body>
</html>
`))

// PageHandler renders the minimal server-side pages around the login flow.
type PageHandler struct {
	logger *slog.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(logger *slog.Logger) *PageHandler {
	return &PageHandler{logger: logger}
}

// Login renders the login link page.
func (h *PageHandler) Login(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginTemplate.Execute(w, nil); err != nil {
		h.logger.Error("render login page", "error", err)
	}
}

// Home renders the guarded landing page. The router only reaches this
// handler through requireUser, so the context user is always present.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		user = &auth.User{}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, user); err != nil {
		h.logger.Error("render home page", "error", err)
	}
}

// LoggedIn bounces the post-login redirect onto the home page.
func (h *PageHandler) LoggedIn(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
