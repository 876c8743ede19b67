package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"cime-gpt/internal/admin"
	"cime-gpt/internal/chat"
	"cime-gpt/internal/config"
	"cime-gpt/internal/markup"
	"cime-gpt/internal/models"
	"cime-gpt/internal/services"
	"cime-gpt/internal/session"
)

var errAdminRequired = errors.New("admin access required, log in as the administrator first")

// app binds one invocation of cimectl to the chat controller and admin manager
type app struct {
	ctrl   *chat.Controller
	mgr    *admin.Manager
	logger *zap.Logger
	out    io.Writer
	styles styles
	now    func() time.Time
}

func newApp(cfg config.Config, backend services.Backend, store *session.Store, logger *zap.Logger, out io.Writer) *app {
	return &app{
		ctrl: chat.NewController(backend, store, logger.Named("chat"), cfg.AdminEmail),
		mgr: admin.NewManager(backend, store, logger.Named("admin"), admin.Options{
			AdminEmail:      cfg.AdminEmail,
			DocFetchRetries: cfg.DocFetchRetries,
			DocFetchDelay:   cfg.DocFetchDelay,
		}),
		logger: logger,
		out:    out,
		styles: newStyles(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type command struct {
	admin bool
	fn    func(ctx context.Context, args []string) error
}

func (a *app) commands() map[string]command {
	return map[string]command{
		"login":         {fn: a.login},
		"logout":        {fn: a.logout},
		"signup":        {fn: a.signup},
		"ask":           {fn: a.ask},
		"questions":     {fn: a.questions},
		"history":       {fn: a.history},
		"history-clear": {fn: a.historyClear},
		"feedback":      {fn: a.feedback},

		"docs":            {admin: true, fn: a.docs},
		"upload":          {admin: true, fn: a.upload},
		"delete":          {admin: true, fn: a.deleteDocument},
		"rebuild":         {admin: true, fn: a.rebuild},
		"add-question":    {admin: true, fn: a.addQuestion},
		"delete-question": {admin: true, fn: a.deleteQuestion},
		"users":           {admin: true, fn: a.users},
		"activities":      {admin: true, fn: a.activities},
		"stats":           {admin: true, fn: a.stats},
	}
}

func (a *app) run(ctx context.Context, name string, args []string) error {
	cmd, ok := a.commands()[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	if err := a.ctrl.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if cmd.admin && !a.ctrl.IsAdmin() {
		return errAdminRequired
	}
	return cmd.fn(ctx, args)
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) println(s string) {
	fmt.Fprintln(a.out, s)
}

// ============================================================================
// Chat commands
// ============================================================================

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.ctrl.Login(ctx, *email, *password); err != nil {
		return errors.New(a.ctrl.Snapshot().LastError)
	}
	snap := a.ctrl.Snapshot()
	a.println(a.styles.notice.Render(snap.Notice))
	a.printf("%d saved conversation(s)\n", len(snap.History))
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.ctrl.Logout(ctx); err != nil {
		return err
	}
	a.println(a.styles.notice.Render(a.ctrl.Snapshot().Notice))
	return nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	fs := a.flags("signup")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password, at least 8 characters")
	confirm := fs.String("confirm", "", "password confirmation, defaults to -password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *confirm == "" {
		*confirm = *password
	}

	if err := a.ctrl.Register(ctx, *name, *email, *password, *confirm); err != nil {
		return errors.New(a.ctrl.Snapshot().LastError)
	}
	a.println(a.styles.notice.Render(a.ctrl.Snapshot().Notice))
	return nil
}

func (a *app) ask(ctx context.Context, args []string) error {
	fs := a.flags("ask")
	html := fs.Bool("html", false, "print the answer rendered as HTML")
	if err := fs.Parse(args); err != nil {
		return err
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return errors.New("nothing to ask")
	}

	if err := a.ctrl.Submit(ctx, question); err != nil {
		if errors.Is(err, chat.ErrLoginRequired) {
			return errors.New("please log in to chat")
		}
		a.logger.Debug("ask failed", zap.Error(err))
	}

	snap := a.ctrl.Snapshot()
	if len(snap.Messages) == 0 {
		return nil
	}
	answer := snap.Messages[len(snap.Messages)-1]
	if *html {
		a.println(markup.Render(answer.Text))
	} else {
		a.println(a.styles.bot.Render(answer.Text))
	}
	for i, c := range answer.Citations {
		a.println(a.styles.muted.Render(fmt.Sprintf("  [%d] %s", i+1, c)))
	}
	if snap.LastError != "" {
		return errors.New(snap.LastError)
	}
	return nil
}

func (a *app) questions(ctx context.Context, _ []string) error {
	for i, q := range a.ctrl.LoadSampleQuestions(ctx) {
		a.printf("%d. %s\n", i+1, q)
	}
	return nil
}

func (a *app) history(ctx context.Context, args []string) error {
	fs := a.flags("history")
	deleteID := fs.String("delete", "", "delete the conversation with this id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !a.ctrl.Snapshot().Session.LoggedIn {
		return errors.New("please log in to see your history")
	}

	if *deleteID != "" {
		a.ctrl.RequestDeleteHistory(*deleteID)
		if err := a.ctrl.ConfirmDeleteHistory(ctx, *deleteID); err != nil {
			return fmt.Errorf("delete %s: %w", *deleteID, err)
		}
		a.println(a.styles.notice.Render(a.ctrl.Snapshot().Notice))
		return nil
	}

	now := a.now()
	groups := chat.GroupHistoryByDay(a.ctrl.Snapshot().History, now)
	if len(groups) == 0 {
		a.println(a.styles.muted.Render("No chat history yet"))
		return nil
	}
	for _, g := range groups {
		a.println(a.styles.title.Render(g.Label))
		for _, e := range g.Entries {
			a.printf("  %s  %s\n", a.styles.muted.Render(e.ID), a.styles.user.Render(e.Query))
			a.printf("    %s\n", a.styles.muted.Render(chat.FormatTime(e.Timestamp, now)))
		}
	}
	return nil
}

func (a *app) historyClear(ctx context.Context, _ []string) error {
	if !a.ctrl.Snapshot().Session.LoggedIn {
		return errors.New("please log in to manage your history")
	}
	a.ctrl.RequestDeleteAllHistory()
	if err := a.ctrl.ConfirmDeleteAllHistory(ctx); err != nil {
		return err
	}
	a.println(a.styles.notice.Render(a.ctrl.Snapshot().Notice))
	return nil
}

func (a *app) feedback(ctx context.Context, args []string) error {
	fs := a.flags("feedback")
	rating := fs.Int("rating", 0, "rating from 1 to 5")
	comment := fs.String("comment", "", "optional comment")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.ctrl.SubmitFeedback(ctx, *rating, *comment); err != nil {
		return errors.New(a.ctrl.Snapshot().LastError)
	}
	a.println(a.styles.notice.Render(a.ctrl.Snapshot().Notice))
	return nil
}

// ============================================================================
// Admin commands
// ============================================================================

func (a *app) docs(ctx context.Context, _ []string) error {
	if err := a.mgr.RefreshDocuments(ctx); err != nil {
		if msg := a.mgr.Snapshot().FetchError; msg != "" {
			return errors.New(msg)
		}
		return err
	}
	snap := a.mgr.Snapshot()
	if len(snap.Documents) == 0 {
		a.println(a.styles.muted.Render("No documents uploaded"))
		return nil
	}
	for _, d := range snap.Documents {
		a.println(d.Name)
	}
	return nil
}

func (a *app) upload(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("upload needs at least one PDF")
	}

	files := make([]admin.UploadFile, 0, len(args))
	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return err
		}
		files = append(files, admin.UploadFile{Name: filepath.Base(path), Size: info.Size(), Content: f})
	}

	failed := 0
	for _, r := range a.mgr.Upload(ctx, files) {
		if r.Err != nil {
			failed++
			a.println(a.styles.err.Render(fmt.Sprintf("%s: %v", r.Name, r.Err)))
			continue
		}
		a.println(a.styles.notice.Render(fmt.Sprintf("%s uploaded as %s", r.Name, r.DocumentID)))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d upload(s) failed", failed, len(files))
	}
	return nil
}

func (a *app) deleteDocument(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("delete needs exactly one document id")
	}
	if err := a.mgr.RefreshDocuments(ctx); err != nil {
		a.logger.Warn("document list unavailable before delete", zap.Error(err))
	}
	a.mgr.RequestDelete(args[0])
	if err := a.mgr.ConfirmDelete(ctx); err != nil {
		return errors.New(a.mgr.Snapshot().LastError)
	}
	a.println(a.styles.notice.Render(a.mgr.Snapshot().Notice))
	return nil
}

func (a *app) rebuild(ctx context.Context, _ []string) error {
	if err := a.mgr.RebuildIndex(ctx); err != nil {
		return errors.New(a.mgr.Snapshot().LastError)
	}
	a.println(a.styles.notice.Render(a.mgr.Snapshot().Notice))
	return nil
}

func (a *app) addQuestion(ctx context.Context, args []string) error {
	if err := a.mgr.LoadSampleQuestions(ctx); err != nil {
		return errors.New(a.mgr.Snapshot().LastError)
	}
	if err := a.mgr.AddSampleQuestion(ctx, strings.Join(args, " ")); err != nil {
		return errors.New(a.mgr.Snapshot().LastError)
	}
	a.println(a.styles.notice.Render(a.mgr.Snapshot().Notice))
	return nil
}

func (a *app) deleteQuestion(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("delete-question needs exactly one question id")
	}
	if err := a.mgr.LoadSampleQuestions(ctx); err != nil {
		return errors.New(a.mgr.Snapshot().LastError)
	}
	a.mgr.RequestDeleteSampleQuestion(args[0])
	if err := a.mgr.ConfirmDeleteSampleQuestion(ctx); err != nil {
		return errors.New(a.mgr.Snapshot().LastError)
	}
	a.println(a.styles.notice.Render(a.mgr.Snapshot().Notice))
	return nil
}

func (a *app) users(ctx context.Context, args []string) error {
	fs := a.flags("users")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.mgr.LoadUsers(ctx); err != nil {
		return errors.New(a.mgr.Snapshot().LastError)
	}

	snap := a.mgr.Snapshot()
	visits := make(map[string]models.UserVisit, len(snap.Visits))
	for _, v := range snap.Visits {
		visits[v.Email] = v
	}

	rows, info := admin.Paginate(snap.Users, *page)
	a.println(a.styles.title.Render("Registered users"))
	for _, u := range rows {
		stars := admin.Stars(admin.AverageRating(snap.Feedback, u.ID))
		if stars == "" {
			stars = a.styles.muted.Render("no ratings")
		} else {
			stars = a.styles.stars.Render(stars)
		}
		a.printf("  %-28s %-20s visits %-3d %s\n", u.Email, u.Name, visits[u.Email].VisitCount, stars)
	}
	a.println(a.styles.muted.Render(fmt.Sprintf("page %d of %d", info.Page, info.TotalPages)))
	return nil
}

func (a *app) activities(ctx context.Context, args []string) error {
	fs := a.flags("activities")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	all, err := a.mgr.Activities(ctx)
	if err != nil {
		return err
	}
	rows, info := admin.Paginate(all, *page)
	a.println(a.styles.title.Render("Recent activity"))
	for _, r := range rows {
		a.printf("  %-16s %-28s %s\n", r.Timestamp, r.Email, r.Action)
	}
	a.println(a.styles.muted.Render(fmt.Sprintf("page %d of %d", info.Page, info.TotalPages)))
	return nil
}

func (a *app) stats(ctx context.Context, _ []string) error {
	if err := a.mgr.LoadUsers(ctx); err != nil {
		a.logger.Warn("users unavailable for stats", zap.Error(err))
	}
	if err := a.mgr.RefreshDocuments(ctx); err != nil {
		a.logger.Warn("documents unavailable for stats", zap.Error(err))
	}

	s, err := a.mgr.Stats(ctx)
	if err != nil {
		return err
	}
	a.printf("Total visitors:  %d\n", s.TotalVisitors)
	a.printf("Total documents: %d\n", s.TotalDocuments)
	a.printf("Total queries:   %d\n", s.TotalQueries)
	return nil
}
