package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"fsptrainer"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	cookieName    = "fsp-session"
	sessionIDKey  = "sid"
	historyLimit  = 5
	missedLimit   = 5
	msgStateError = "Diese Aktion ist gerade nicht möglich."

	msgSessionExpired = "Die Sitzung ist abgelaufen. Bitte starten Sie ein neues Training."
)

// Server is the web front end. It keeps one controller per browser session
// and renders whatever state that controller is in.
type Server struct {
	cfg       *fsptrainer.Config
	bank      *fsptrainer.TermBank
	loadErr   error
	describer *fsptrainer.ContextGenerator
	history   *fsptrainer.DB
	cookies   sessions.Store
	sessions  *fsptrainer.SessionStore
	templates map[string]*template.Template
}

// pageData is the view model handed to every template
type pageData struct {
	Banner        string
	Flashes       []string
	BankSize      int
	Lengths       []int
	DefaultLength int

	Question *fsptrainer.Question
	Num      int
	Total    int
	Progress int
	Feedback *fsptrainer.Feedback
	Result   fsptrainer.Result

	Attempts []fsptrainer.DBAttempt
	Missed   []fsptrainer.MissedTerm
}

// NewServer parses the embedded templates and wires the collaborators.
// history may be nil, in which case attempts are not recorded.
func NewServer(cfg *fsptrainer.Config, bank *fsptrainer.TermBank, loadErr error, describer *fsptrainer.ContextGenerator, history *fsptrainer.DB, cookies sessions.Store) (*Server, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"percent": func(p float64) string {
			return fmt.Sprintf("%.1f%%", p)
		},
		"when": func(t time.Time) string {
			return t.Format("02.01.2006 15:04")
		},
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{"idle", "question", "feedback", "results"} {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Server{
		cfg:       cfg,
		bank:      bank,
		loadErr:   loadErr,
		describer: describer,
		history:   history,
		cookies:   cookies,
		sessions:  fsptrainer.NewSessionStore(),
		templates: templates,
	}, nil
}

// Routes returns the HTTP handler
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/start", s.handleStart)
	mux.HandleFunc("/answer", s.handleAnswer)
	mux.HandleFunc("/next", s.handleNext)
	mux.HandleFunc("/restart", s.handleRestart)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Close drops all sessions and closes their transcript logs
func (s *Server) Close() {
	s.sessions.Prune(-time.Hour)
}

func (s *Server) pruneLoop(ctx context.Context, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Prune(ttl)
		}
	}
}

// session returns the cookie session and the ID of a live controller,
// creating a new controller when the cookie is missing or stale.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*sessions.Session, string) {
	sess, err := s.cookies.Get(r, cookieName)
	if err != nil {
		fsptrainer.VerboseLog("Discarding unreadable session cookie: %v", err)
	}

	id, _ := sess.Values[sessionIDKey].(string)
	if id != "" {
		if _, ok := s.sessions.Get(id); ok {
			return sess, id
		}
	}

	id = uuid.NewString()
	c, onClose := s.newController(id)
	s.sessions.Add(id, c, onClose)
	sess.Values[sessionIDKey] = id
	if err := sess.Save(r, w); err != nil {
		fsptrainer.Logger().WithError(err).Error("Session save error")
	}
	return sess, id
}

func (s *Server) newController(id string) (*fsptrainer.Controller, func()) {
	describer := s.describer
	var onClose func()
	if dir := s.cfg.LLM.LogDir; dir != "" {
		ll, err := fsptrainer.NewLLMLogger(dir, id)
		if err != nil {
			fsptrainer.Logger().WithError(err).Warn("Continuing without LLM transcript")
		} else {
			describer = describer.WithLogger(ll)
			onClose = func() { ll.Close() }
		}
	}

	c := fsptrainer.NewController(fsptrainer.NewGenerator(s.bank, nil), describer)
	if s.history != nil {
		c.SetRecorder(s.history)
	}
	return c, onClose
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess, id := s.session(w, r)
	data := pageData{
		BankSize:      s.bank.Len(),
		Lengths:       s.cfg.Quiz.Lengths,
		DefaultLength: s.cfg.Quiz.DefaultLength,
	}
	if s.loadErr != nil {
		data.Banner = "❌ Die Terminologie-Datei konnte nicht geladen werden."
	}
	for _, f := range sess.Flashes() {
		if msg, ok := f.(string); ok {
			data.Flashes = append(data.Flashes, msg)
		}
	}
	if len(data.Flashes) > 0 {
		if err := sess.Save(r, w); err != nil {
			fsptrainer.Logger().WithError(err).Error("Session save error")
		}
	}

	page := s.fillPage(id, &data)
	if page == "idle" || page == "results" {
		s.loadHistory(r.Context(), &data)
	}
	s.render(w, page, data)
}

// fillPage fills data from the controller's state and returns the template
// to render. A session pruned in the meantime renders as idle.
func (s *Server) fillPage(id string, data *pageData) string {
	page := "idle"
	s.sessions.Do(id, func(c *fsptrainer.Controller) {
		switch c.State() {
		case fsptrainer.StateAwaitingAnswer, fsptrainer.StateShowingFeedback:
			q, _ := c.Current()
			index, total := c.Progress()
			data.Question = &q
			data.Num = index + 1
			data.Total = total
			data.Progress = index * 100 / total
			data.Feedback = c.Session().Feedback
			page = "question"
			if data.Feedback != nil {
				page = "feedback"
			}
		case fsptrainer.StateComplete:
			data.Result = c.Result()
			page = "results"
		}
	})
	return page
}

func (s *Server) loadHistory(ctx context.Context, data *pageData) {
	if s.history == nil {
		return
	}
	attempts, err := s.history.GetAttempts(ctx, historyLimit)
	if err != nil {
		fsptrainer.Logger().WithError(err).Error("Failed to get attempts")
	}
	missed, err := s.history.MissedTerms(ctx, missedLimit)
	if err != nil {
		fsptrainer.Logger().WithError(err).Error("Failed to get missed terms")
	}
	data.Attempts = attempts
	data.Missed = missed
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, func(ctx context.Context, c *fsptrainer.Controller) (string, error) {
		count, err := strconv.Atoi(r.FormValue("count"))
		if err != nil {
			count = s.cfg.Quiz.DefaultLength
		}
		err = c.Start(ctx, s.cfg.Quiz.ClampLength(count))
		if errors.Is(err, fsptrainer.ErrInsufficientDistractorPool) {
			fsptrainer.Logger().WithError(err).Error("Quiz generation failed")
			return "❌ Zu wenige Begriffe für Antwortoptionen. Bitte die Terminologie-Datei prüfen.", nil
		}
		if err == nil && c.State() == fsptrainer.StateComplete {
			return "Keine Fragen verfügbar.", nil
		}
		return "", err
	})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, func(ctx context.Context, c *fsptrainer.Controller) (string, error) {
		selection := r.FormValue("option")
		if selection == "" {
			return "Bitte wählen Sie eine Antwort.", nil
		}
		// The example sentence call is not cancelled when the browser goes
		// away; the context generator's own timeout bounds it.
		_, err := c.Submit(context.WithoutCancel(ctx), selection)
		return "", err
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, func(ctx context.Context, c *fsptrainer.Controller) (string, error) {
		return "", c.Advance(context.WithoutCancel(ctx))
	})
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.handleAction(w, r, func(_ context.Context, c *fsptrainer.Controller) (string, error) {
		return "", c.Restart()
	})
}

// handleAction runs one state transition and redirects back to the home page.
// A returned message is shown once as a flash.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, c *fsptrainer.Controller) (string, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	sess, id := s.session(w, r)

	var (
		flash string
		err   error
	)
	found := s.sessions.Do(id, func(c *fsptrainer.Controller) {
		flash, err = action(r.Context(), c)
	})
	if !found {
		flash = msgSessionExpired
	}

	if errors.Is(err, fsptrainer.ErrStateViolation) {
		fsptrainer.Logger().WithError(err).Warn("Rejected action")
		http.Error(w, msgStateError, http.StatusConflict)
		return
	}
	if err != nil {
		fsptrainer.Logger().WithError(err).Error("Action failed")
		flash = "❌ Ein Fehler ist aufgetreten."
	}

	if flash != "" {
		sess.AddFlash(flash)
		if err := sess.Save(r, w); err != nil {
			fsptrainer.Logger().WithError(err).Error("Session save error")
		}
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "ok terms=%d sessions=%d\n", s.bank.Len(), s.sessions.Size())
}

func (s *Server) render(w http.ResponseWriter, page string, data pageData) {
	tmpl, ok := s.templates[page]
	if !ok {
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		fsptrainer.Logger().WithError(err).Errorf("Template error in %s", page)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
