package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"golang.org/x/sync/errgroup"

	"github.com/olivoil/codeflow/tui/internal/backend"
	"github.com/olivoil/codeflow/tui/internal/channel"
	"github.com/olivoil/codeflow/tui/internal/metrics"
	"github.com/olivoil/codeflow/tui/internal/routes"
	"github.com/olivoil/codeflow/tui/internal/session"
	"github.com/olivoil/codeflow/tui/internal/status"
	"github.com/olivoil/codeflow/tui/internal/telemetry"
	"github.com/olivoil/codeflow/tui/internal/views/admin"
	"github.com/olivoil/codeflow/tui/internal/views/command"
	"github.com/olivoil/codeflow/tui/internal/views/create"
	"github.com/olivoil/codeflow/tui/internal/views/dashboard"
	"github.com/olivoil/codeflow/tui/internal/views/loading"
	"github.com/olivoil/codeflow/tui/internal/views/login"
	"github.com/olivoil/codeflow/tui/internal/views/project"
	"github.com/olivoil/codeflow/tui/internal/views/projects"
)

const requestTimeout = 30 * time.Second

// Source is the query collaborator (satisfied by *backend.Client).
type Source interface {
	UserProjects(ctx context.Context, search backend.ProjectSearch) (*backend.UserProjects, error)
	AllProjects(ctx context.Context) (*backend.ProjectList, error)
	CreateProject(ctx context.Context, in backend.CreateProjectInput) (*backend.Project, error)
}

// Credentials persists the access token (satisfied by *backend.TokenStore).
type Credentials interface {
	Save(token string) error
	Clear() error
}

// Conn is the realtime channel handle (satisfied by *channel.Channel).
type Conn interface {
	Open(ctx context.Context, sender channel.Sender) error
	Close() error
	IsOpen() bool
}

// Options wires the model's collaborators.
type Options struct {
	Source       Source
	Credentials  Credentials
	Conn         Conn
	Status       *status.Store
	Metrics      *metrics.Metrics
	Reporter     *telemetry.Reporter
	Logger       *slog.Logger
	SupportEmail string
	StartPath    string
}

// RunOptions adds what only a running program needs.
type RunOptions struct {
	Options
	// Tokens is watched so a login from another terminal refetches the session.
	Tokens      *backend.TokenStore
	MetricsAddr string
}

// senderRef lets the model reach the program created after it.
type senderRef struct {
	p *tea.Program
}

func (s *senderRef) Send(msg tea.Msg) {
	if s.p != nil {
		s.p.Send(msg)
	}
}

// Run starts the TUI and its background workers and blocks until the program
// exits or ctx is cancelled.
func Run(ctx context.Context, opts RunOptions) error {
	var metricsLn net.Listener
	if opts.MetricsAddr != "" && opts.Metrics != nil {
		ln, err := metrics.Listen(opts.MetricsAddr)
		if err != nil {
			return err
		}
		metricsLn = ln
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ref := &senderRef{}
	m := newModel(ctx, opts.Options)
	m.sender = ref
	p := tea.NewProgram(m, tea.WithContext(ctx))
	ref.p = p

	logger := m.logger
	g, gctx := errgroup.WithContext(ctx)

	if opts.Tokens != nil {
		w, err := backend.NewWatcher(opts.Tokens, ref, logger)
		if err != nil {
			logger.Warn("token watcher disabled", "error", err)
		} else {
			defer w.Close()
		}
	}

	if metricsLn != nil {
		g.Go(func() error {
			// A metrics failure must not end the session.
			if err := opts.Metrics.Serve(gctx, metricsLn, logger); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	err := g.Wait()
	if opts.Conn != nil {
		if cerr := opts.Conn.Close(); cerr != nil {
			logger.Warn("closing realtime channel", "error", cerr)
		}
	}
	opts.Reporter.Flush(2 * time.Second)
	return err
}

// model is the root application model.
type model struct {
	width    int
	height   int
	ready    bool
	showHelp bool
	keys     KeyMap

	ctx          context.Context
	source       Source
	creds        Credentials
	conn         Conn
	sender       channel.Sender
	status       *status.Store
	metrics      *metrics.Metrics
	reporter     *telemetry.Reporter
	logger       *slog.Logger
	supportEmail string

	adapter   *channel.Adapter
	machine   *session.Machine
	seq       *session.Sequencer
	query     session.QueryResult
	redirect  bool
	loggedOut bool
	loginSeq  uint64

	history     *routes.History
	route       routes.Route
	loginLoc    routes.Location
	mounted     bool
	mountedKind routes.Kind

	dashboardView dashboard.Model
	projectsView  projects.Model
	projectView   project.Model
	createView    create.Model
	adminView     admin.Model
	loginView     login.Model
	loadingView   loading.Model
	commandView   command.Model
}

func newModel(ctx context.Context, opts Options) model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	st := opts.Status
	if st == nil {
		st = status.NewStore(status.DefaultSnackbarDuration)
	}
	start := opts.StartPath
	if start == "" {
		start = routes.RootPath
	}
	email := opts.SupportEmail
	if email == "" {
		email = "devops@checkr.com"
	}

	return model{
		keys:          DefaultKeyMap(),
		ctx:           ctx,
		source:        opts.Source,
		creds:         opts.Credentials,
		conn:          opts.Conn,
		status:        st,
		metrics:       opts.Metrics,
		reporter:      opts.Reporter,
		logger:        logger,
		supportEmail:  email,
		adapter:       channel.NewAdapter(logger),
		machine:       session.NewMachine(),
		seq:           &session.Sequencer{},
		query:         session.Pending(),
		history:       routes.NewHistory(start),
		route:         routes.Match(start),
		dashboardView: dashboard.New(),
		projectsView:  projects.New(),
		projectView:   project.New(),
		createView:    create.New(),
		adminView:     admin.New(),
		loginView:     login.New(),
		loadingView:   loading.New("Loading your projects…"),
		commandView:   command.New(),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.refetch("initial"),
		m.openChannel(),
		m.loadingView.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layoutViews()
		return m, nil

	case spinner.TickMsg:
		if m.machine.State().Kind != session.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.loadingView, cmd = m.loadingView.Update(msg)
		return m, cmd

	case SessionLoadedMsg:
		if !m.seq.Accept(msg.Seq) {
			m.logger.Debug("dropping stale session response", "seq", msg.Seq)
			return m, nil
		}
		m.query = msg.Result
		cmd := m.reconcile()
		if m.machine.State().Kind == session.LoginRedirect && m.loginView.Pending() && msg.Seq >= m.loginSeq {
			m.loginView.SetError(loginError(m.query))
		}
		return m, cmd

	case channel.EventMsg:
		return m.handleEvent(msg.Event)

	case channel.ClosedMsg:
		m.logger.Warn("realtime channel closed", "error", msg.Err)
		return m, nil

	case channelOpenedMsg:
		if msg.Err != nil && !errors.Is(msg.Err, channel.ErrAlreadyOpen) {
			m.logger.Error("opening realtime channel", "error", msg.Err)
		}
		return m, nil

	case channelClosedMsg:
		m.logger.Info("realtime channel closed on logout")
		return m, nil

	case backend.TokenChangedMsg:
		m.logger.Info("token file changed", "path", msg.Path, "removed", msg.Removed)
		return m, m.refetch("token")

	case SnackbarExpiredMsg:
		m.status.ExpireSnackbar(msg.ID)
		return m, nil

	case routes.NavigateMsg:
		return m, m.navigate(msg.Path)

	case ProjectsLoadedMsg:
		m.projectsView.SetProjects(msg.Projects, m.machine.State().Projects, msg.Err)
		if msg.Err != nil {
			m.logger.Warn("loading all projects", "error", msg.Err)
		}
		m.syncCompletion()
		if m.route.Kind == routes.ProjectDetail {
			m.mount(m.route)
		}
		return m, nil

	case create.SubmitMsg:
		return m, m.createProject(msg.Input)

	case ProjectCreatedMsg:
		if msg.Err != nil {
			m.createView.SetResult(msg.Err)
			return m, m.notify("Could not create project: "+msg.Err.Error(), status.Fail)
		}
		m.createView.SetResult(nil)
		return m, tea.Batch(
			m.notify(fmt.Sprintf("Project %s created", msg.Project.Name), status.Success),
			m.refetch("create"),
			m.navigate(routes.ProjectPath(msg.Project.Slug, "")),
		)

	case login.SubmitMsg:
		return m, m.saveToken(msg.Token)

	case TokenSavedMsg:
		if msg.Err != nil {
			m.loginView.SetError("Could not save token: " + msg.Err.Error())
			return m, nil
		}
		m.redirect = false
		cmd := m.refetch("login")
		m.loginSeq = m.seq.Issued()
		return m, cmd

	case LoggedOutMsg:
		if msg.Err != nil {
			return m, m.notify("Could not remove token: "+msg.Err.Error(), status.Fail)
		}
		return m, nil

	case command.ExecuteMsg:
		return m.execute(msg.Args)

	case tea.KeyPressMsg:
		if m.commandView.Focused() {
			var cmd tea.Cmd
			m.commandView, cmd = m.commandView.Update(msg)
			return m, cmd
		}
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, tea.Quit
	}

	switch m.machine.State().Kind {
	case session.Loading:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	case session.LoginRedirect:
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	}

	if m.showHelp {
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.showHelp = false
		}
		return m, nil
	}

	if m.capturingText() {
		if m.route.Kind == routes.Create && msg.String() == "esc" {
			return m, m.back()
		}
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Refetch):
		return m, m.refetch("manual")
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.Command):
		return m, m.commandView.Focus()
	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.Dismiss):
		m.status.HideSnackbar()
		return m, nil
	case key.Matches(msg, m.keys.Back):
		return m, m.back()
	case key.Matches(msg, m.keys.Dashboard):
		return m, m.navigate(routes.RootPath)
	case key.Matches(msg, m.keys.Projects):
		return m, m.navigate(routes.ProjectsPath)
	case key.Matches(msg, m.keys.Create):
		return m, m.navigate(routes.CreatePath)
	case key.Matches(msg, m.keys.Admin):
		return m, m.navigate(routes.AdminPath)
	}

	return m.updateActiveView(msg)
}

// capturingText reports whether the mounted view takes free text, so single
// letter shortcuts must not fire.
func (m *model) capturingText() bool {
	switch m.route.Kind {
	case routes.Create:
		return true
	case routes.ProjectList:
		return m.projectsView.Filtering()
	}
	return false
}

func (m model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.machine.State().Kind {
	case session.LoginRedirect:
		m.loginView, cmd = m.loginView.Update(msg)
		return m, cmd
	case session.Authenticated:
	default:
		return m, nil
	}

	switch m.route.Kind {
	case routes.Dashboard:
		m.dashboardView, cmd = m.dashboardView.Update(msg)
	case routes.ProjectList:
		m.projectsView, cmd = m.projectsView.Update(msg)
	case routes.ProjectDetail:
		m.projectView, cmd = m.projectView.Update(msg)
	case routes.Create:
		m.createView, cmd = m.createView.Update(msg)
	case routes.Admin:
		m.adminView, cmd = m.adminView.Update(msg)
	}
	return m, cmd
}

func (m model) execute(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, nil
	}
	switch args[0] {
	case "goto":
		if len(args) < 2 {
			return m, m.navigate(routes.RootPath)
		}
		return m, m.navigate(args[1])
	case "project":
		if len(args) < 2 {
			return m, m.navigate(routes.ProjectsPath)
		}
		env := ""
		if len(args) > 2 {
			env = args[2]
		}
		return m, m.navigate(routes.ProjectPath(args[1], env))
	case "refetch":
		return m, m.refetch("manual")
	case "logout":
		return m, m.logout()
	case "help":
		m.showHelp = true
		return m, nil
	case "quit":
		return m, tea.Quit
	}
	return m, nil
}

// reconcile applies the current inputs to the session machine and performs
// the side effects of entering the resulting state.
func (m *model) reconcile() tea.Cmd {
	st, changed := m.machine.Apply(session.Input{
		Query:           m.query,
		Conn:            m.adapter.Status(),
		RedirectToLogin: m.redirect,
	})
	if changed {
		m.metrics.State(st.Kind.String())
		m.logger.Info("session state", "state", st.Kind.String())
	}

	switch st.Kind {
	case session.ServerError:
		m.reportServerError(changed)

	case session.LoginRedirect:
		if m.route.Kind != routes.Login {
			m.mounted = false
			m.loginLoc = routes.LoginRedirect(m.history.Current())
			m.history.Replace(routes.LoginPath)
			m.route = routes.Match(routes.LoginPath)
			m.layoutViews()
			return m.loginView.Show(m.loginLoc)
		}
		// Already on /login, e.g. started there or navigated there before the
		// first response: the form was never mounted.
		if !m.loginView.Focused() {
			if m.loginLoc.Path == "" {
				m.loginLoc = routes.LoginRedirect(routes.RootPath)
			}
			m.layoutViews()
			return m.loginView.Show(m.loginLoc)
		}

	case session.Authenticated:
		m.dashboardView.SetProjects(st.Projects.All())
		m.syncCompletion()

		var cmds []tea.Cmd
		if m.loggedOut {
			m.loggedOut = false
			cmds = append(cmds, m.openChannel())
		}
		if m.route.Kind == routes.Login {
			m.loginView.Done()
			path := m.loginLoc.ReturnPath()
			m.history.Replace(path)
			cmds = append(cmds, m.mount(routes.Match(path)))
		} else {
			cmds = append(cmds, m.mount(m.route))
		}
		return tea.Batch(cmds...)
	}
	return nil
}

// reportServerError sends the error to telemetry; the reporter drops repeats.
func (m *model) reportServerError(entered bool) {
	var err error
	tags := map[string]string{"network_status": fmt.Sprintf("%d", m.query.NetworkStatus)}
	if m.query.Err != nil {
		err = m.query.Err
		if m.query.Err.Code != "" {
			tags["code"] = m.query.Err.Code
		}
	} else {
		err = fmt.Errorf("session query failed with network status %d", m.query.NetworkStatus)
	}
	if m.reporter.Report(err, tags) || entered {
		m.logger.Error("server error", "error", err)
	}
}

func loginError(q session.QueryResult) string {
	if q.Err != nil && session.Classify(*q.Err) == session.AuthProblem {
		return "That access token was not accepted."
	}
	if q.Err != nil {
		return "Sign in failed: " + q.Err.Message
	}
	return "Sign in failed."
}

// navigate moves to path and mounts its view. While the session is not
// authenticated only the post-login destination is updated.
func (m *model) navigate(path string) tea.Cmd {
	r := routes.Match(path)
	st := m.machine.State()
	if st.Kind != session.Authenticated {
		if st.Kind == session.LoginRedirect && r.Kind != routes.Login {
			m.loginLoc = routes.LoginRedirect(r.Path)
			return nil
		}
		m.history.Push(r.Path)
		m.route = r
		return nil
	}
	if r.Kind == routes.Login {
		r = routes.Match(routes.RootPath)
	}
	m.history.Push(r.Path)
	return m.mount(r)
}

func (m *model) back() tea.Cmd {
	prev, ok := m.history.Back()
	if !ok {
		return nil
	}
	return m.mount(routes.Match(prev))
}

// mount makes r the one routed view.
func (m *model) mount(r routes.Route) tea.Cmd {
	entering := !m.mounted || r.Kind != m.mountedKind
	m.route = r
	m.mounted = true
	m.mountedKind = r.Kind
	st := m.machine.State()

	switch r.Kind {
	case routes.ProjectList:
		if entering {
			m.projectsView.SetLoading()
			return m.loadAllProjects()
		}
	case routes.Create:
		if entering {
			return m.createView.Focus()
		}
	case routes.Admin:
		m.adminView.Show(r.Path, st.User, st.Projects)
	case routes.ProjectDetail:
		m.projectView.Show(r.Slug, r.Environment, m.findProject(r.Slug))
	}
	return nil
}

func (m *model) findProject(slug string) *backend.Project {
	if p, ok := m.machine.State().Projects.Find(slug); ok {
		return &p
	}
	return m.projectsView.Find(slug)
}

func (m *model) syncCompletion() {
	envs := map[string][]string{}
	add := func(list []backend.Project) {
		for _, p := range list {
			names := make([]string, len(p.Environments))
			for i, e := range p.Environments {
				names[i] = e.Name
			}
			envs[p.Slug] = names
		}
	}
	add(m.machine.State().Projects.All())
	for _, slug := range m.projectsView.Slugs() {
		if _, ok := envs[slug]; !ok {
			if p := m.projectsView.Find(slug); p != nil {
				add([]backend.Project{*p})
			}
		}
	}
	m.commandView.SetProjects(envs)
}

// --- Commands ---

// refetch issues a tagged session query. It never blocks the caller and never
// flips the result back to loading; responses are reconciled as they land.
func (m *model) refetch(reason string) tea.Cmd {
	seq := m.seq.Next()
	m.metrics.Refetch(reason)
	m.logger.Debug("refetch", "reason", reason, "seq", seq)

	src, ctx, met := m.source, m.ctx, m.metrics
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		start := time.Now()
		data, err := src.UserProjects(ctx, backend.BookmarkedSearch())
		met.Query(time.Since(start), err)
		return SessionLoadedMsg{Seq: seq, Result: session.ResultFrom(data, err)}
	}
}

func (m *model) loadAllProjects() tea.Cmd {
	src, ctx := m.source, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		list, err := src.AllProjects(ctx)
		return ProjectsLoadedMsg{Projects: list, Err: err}
	}
}

func (m *model) createProject(in backend.CreateProjectInput) tea.Cmd {
	src, ctx := m.source, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		p, err := src.CreateProject(ctx, in)
		return ProjectCreatedMsg{Project: p, Err: err}
	}
}

func (m *model) saveToken(token string) tea.Cmd {
	creds := m.creds
	return func() tea.Msg {
		if creds == nil {
			return TokenSavedMsg{Err: errors.New("no credential store configured")}
		}
		return TokenSavedMsg{Err: creds.Save(token)}
	}
}

// logout forgets the token, closes the channel and sends the session to the
// login screen.
func (m *model) logout() tea.Cmd {
	m.redirect = true
	m.loggedOut = true
	m.logger.Info("logging out")

	cmds := []tea.Cmd{m.reconcile()}
	if creds := m.creds; creds != nil {
		cmds = append(cmds, func() tea.Msg { return LoggedOutMsg{Err: creds.Clear()} })
	}
	if conn := m.conn; conn != nil {
		cmds = append(cmds, func() tea.Msg {
			if err := conn.Close(); err != nil {
				return channelOpenedMsg{Err: err}
			}
			return channelClosedMsg{}
		})
	}
	return tea.Batch(cmds...)
}

func (m *model) openChannel() tea.Cmd {
	conn, sender, ctx := m.conn, m.sender, m.ctx
	if conn == nil || sender == nil {
		return nil
	}
	return func() tea.Msg {
		return channelOpenedMsg{Err: conn.Open(ctx, sender)}
	}
}

func (m *model) notify(text string, sev status.Severity) tea.Cmd {
	id := m.status.ShowSnackbar(text, sev)
	return tea.Tick(m.status.SnackbarDuration(), func(time.Time) tea.Msg {
		return SnackbarExpiredMsg{ID: id}
	})
}
