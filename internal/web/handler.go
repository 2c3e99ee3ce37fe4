package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskboard/internal/domain"
	"github.com/phrazzld/taskboard/internal/platform/logger"
	"github.com/phrazzld/taskboard/internal/principal"
	"github.com/phrazzld/taskboard/internal/redact"
	"github.com/phrazzld/taskboard/internal/service"
	"github.com/phrazzld/taskboard/internal/service/auth"
	"github.com/phrazzld/taskboard/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Identifier resolves the caller of a request from its session token.
type Identifier interface {
	Identify(r *http.Request) (principal.Principal, error)
}

// Limiter throttles sign-in attempts.
type Limiter interface {
	Allow(r *http.Request) (bool, time.Duration)
}

// Options configures session cookies.
type Options struct {
	// CookieName holds the access token; refresh and flash cookies derive
	// their names from it.
	CookieName    string
	SecureCookies bool
}

// Handler serves the dashboard pages.
type Handler struct {
	tasks    service.TaskService
	authn    auth.Authenticator
	identity Identifier
	limiter  Limiter
	opts     Options
	pages    map[string]*template.Template
	logger   *slog.Logger
}

// New parses the embedded templates and creates a Handler. limiter may be nil.
func New(
	tasks service.TaskService,
	authn auth.Authenticator,
	identity Identifier,
	limiter Limiter,
	opts Options,
	logger *slog.Logger,
) (*Handler, error) {
	if opts.CookieName == "" {
		return nil, errors.New("web: cookie name is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Handler{
		tasks:    tasks,
		authn:    authn,
		identity: identity,
		limiter:  limiter,
		opts:     opts,
		pages:    pages,
		logger:   logger.With(slog.String("component", "web")),
	}, nil
}

var funcs = template.FuncMap{
	"priorityClass":  domain.PriorityBadgeClass,
	"statusClass":    domain.StatusBadgeClass,
	"formatDeadline": domain.FormatDeadline,
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"login", "dashboard", "task"} {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// Routes returns the dashboard's router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", h.Dashboard)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/tasks", h.CreateTask)
	r.Get("/tasks/{id}", h.ShowTask)
	return r
}

type flash struct {
	Title       string
	Description string
}

type loginPage struct {
	Email string
	Error string
}

type dashboardPage struct {
	Email      string
	Query      string
	Tasks      []*domain.Task
	Flash      *flash
	Error      string
	Form       taskForm
	FormOpen   bool
	Priorities []domain.Priority
	Statuses   []domain.Status
}

type taskPage struct {
	Task *domain.Task
}

// taskForm holds the create form's raw values so they survive a failed submit.
type taskForm struct {
	DateRequested    string
	TaskCreator      string
	Client           string
	Description      string
	PageLink         string
	LoginDetails     string
	Priority         string
	Deadline         string
	Status           string
	Notes            string
	ClientDiscussion string
}

func newTaskForm() taskForm {
	return taskForm{
		DateRequested: time.Now().UTC().Format(domain.DateLayout),
		Priority:      string(domain.PriorityMedium),
		Status:        string(domain.StatusToDo),
	}
}

func taskFormFromRequest(r *http.Request) taskForm {
	return taskForm{
		DateRequested:    r.PostFormValue("date_requested"),
		TaskCreator:      r.PostFormValue("task_creator"),
		Client:           r.PostFormValue("client"),
		Description:      r.PostFormValue("description"),
		PageLink:         r.PostFormValue("page_link"),
		LoginDetails:     r.PostFormValue("login_details"),
		Priority:         r.PostFormValue("priority"),
		Deadline:         r.PostFormValue("deadline"),
		Status:           r.PostFormValue("status"),
		Notes:            r.PostFormValue("notes"),
		ClientDiscussion: r.PostFormValue("client_discussion"),
	}
}

func (f taskForm) toInput() (domain.TaskInput, error) {
	in := domain.TaskInput{
		TaskCreator:      f.TaskCreator,
		Client:           f.Client,
		Description:      f.Description,
		PageLink:         f.PageLink,
		LoginDetails:     f.LoginDetails,
		Notes:            f.Notes,
		ClientDiscussion: f.ClientDiscussion,
	}

	var err error
	if in.DateRequested, err = domain.ParseDate("date_requested", f.DateRequested); err != nil {
		return in, err
	}
	if in.Deadline, err = domain.ParseDate("deadline", f.Deadline); err != nil {
		return in, err
	}
	if f.Priority != "" {
		if in.Priority, err = domain.ParsePriority(f.Priority); err != nil {
			return in, err
		}
	}
	if f.Status != "" {
		if in.Status, err = domain.ParseStatus(f.Status); err != nil {
			return in, err
		}
	}
	return in, nil
}

// Dashboard handles GET /: the task list for signed-in users, the sign-in
// form for everyone else.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentPrincipal(w, r)
	if !ok {
		h.render(w, r, "login", http.StatusOK, loginPage{})
		return
	}

	page := h.newDashboardPage(p, r.URL.Query().Get("q"))
	page.Flash = h.takeFlash(w, r)

	status := http.StatusOK
	tasks, err := h.tasks.ListTasks(principal.WithPrincipal(r.Context(), p), p.UserID, page.Query)
	if err != nil {
		h.logError(r, "failed to list tasks", err)
		page.Error = "Tasks could not be loaded. Please try again."
		status = statusFor(err)
	}
	page.Tasks = tasks

	h.render(w, r, "dashboard", status, page)
}

func (h *Handler) newDashboardPage(p principal.Principal, query string) dashboardPage {
	return dashboardPage{
		Email:      p.Email,
		Query:      query,
		Form:       newTaskForm(),
		Priorities: domain.Priorities,
		Statuses:   domain.Statuses,
	}
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	if h.limiter != nil {
		if ok, _ := h.limiter.Allow(r); !ok {
			h.render(w, r, "login", http.StatusTooManyRequests, loginPage{
				Email: email,
				Error: "Too many sign-in attempts. Please wait a moment and try again.",
			})
			return
		}
	}

	session, err := h.authn.SignIn(r.Context(), email, password)
	if err != nil {
		page := loginPage{Email: email, Error: "Invalid email or password."}
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrAuthUnavailable) {
			h.logError(r, "sign-in unavailable", err)
			page.Error = "Sign-in is unavailable right now. Please try again later."
			status = http.StatusServiceUnavailable
		}
		h.render(w, r, "login", status, page)
		return
	}

	h.setSession(w, session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if p, err := h.identity.Identify(r); err == nil {
		if err := h.authn.SignOut(r.Context(), p.AccessToken); err != nil {
			h.logError(r, "sign-out failed", err)
		}
	}
	h.clearSession(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CreateTask handles POST /tasks from the create form.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentPrincipal(w, r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	ctx := principal.WithPrincipal(r.Context(), p)

	form := taskFormFromRequest(r)
	in, err := form.toInput()
	if err == nil {
		_, err = h.tasks.CreateTask(ctx, p.UserID, in)
	}
	if err != nil {
		page := h.newDashboardPage(p, "")
		page.Form = form
		page.FormOpen = true
		page.Error = formErrorMessage(err)
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logError(r, "failed to create task", err)
		}
		// The list is best effort here; the form error is what matters.
		if tasks, listErr := h.tasks.ListTasks(ctx, p.UserID, ""); listErr == nil {
			page.Tasks = tasks
		}
		h.render(w, r, "dashboard", status, page)
		return
	}

	h.setFlash(w, flashCreated)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ShowTask handles GET /tasks/{id}.
func (h *Handler) ShowTask(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentPrincipal(w, r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	task, err := h.tasks.GetTask(principal.WithPrincipal(r.Context(), p), p.UserID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logError(r, "failed to load task", err)
		http.Error(w, "Task could not be loaded", statusFor(err))
		return
	}

	h.render(w, r, "task", http.StatusOK, taskPage{Task: task})
}

func formErrorMessage(err error) string {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return "Please check the form: " + strings.ReplaceAll(vErr.Field, "_", " ") + " " + vErr.Message + "."
	case errors.Is(err, store.ErrInvalidEntity):
		return "The task was rejected by the server. Please check the form."
	case errors.Is(err, store.ErrUnauthorized):
		return "You are not allowed to create tasks. Please sign in again."
	default:
		return "The task could not be created. Please try again."
	}
}

func statusFor(err error) int {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr), errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page string, status int, data any) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logError(r, "failed to render page", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	logger.FromContextOrDefault(r.Context(), h.logger).Error(msg,
		slog.String("path", r.URL.Path),
		slog.String("error", redact.Error(err)))
}
