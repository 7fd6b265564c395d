package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/billing"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/registration"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/teacher"
	"github.com/trezcool/darasa/core/user"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		UserSvc         user.ServiceInterface
		RegistrationSvc *registration.Service
		StudentSvc      *student.Service
		TeacherSvc      *teacher.Service
		ProgramSvc      *program.Service
		AnnouncementSvc *announcement.Service
		BillingSvc      *billing.Service
		Validate        *validator.Validate
		Translator      ut.Translator
		DisableReqLogs  bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *jwtAuth
		errCh    chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newJWTAuth(deps.Conf),
		errCh:    make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := s.auth.middleware()

	registerUserAPI(v1, jwt, s.auth, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerRegistrationAPI(v1, jwt, s.deps.RegistrationSvc, s.deps.Validate)
	registerNavigationAPI(v1, jwt)
	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.UserSvc)
	registerTeacherAPI(v1, jwt, s.deps.TeacherSvc)
	registerProgramAPI(v1, jwt, s.deps.ProgramSvc, s.deps.Validate)
	registerAnnouncementAPI(v1, jwt, s.deps.AnnouncementSvc, s.deps.UserSvc, s.deps.Validate)
	registerBillingAPI(v1, jwt, s.deps.BillingSvc, s.deps.Validate)
}

func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

// Errors reports a failed listener; the server is no longer serving when it fires.
func (s *Server) Errors() <-chan error { return s.errCh }

// ShutdownSignal fires on SIGINT/SIGTERM or when an integrity error asks for
// a graceful stop.
func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }

func (s *Server) Close() error { return s.app.Close() }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Darasa API!")
}
