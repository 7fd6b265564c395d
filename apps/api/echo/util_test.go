package echoapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/announcement"
	"github.com/trezcool/darasa/core/billing"
	"github.com/trezcool/darasa/core/program"
	"github.com/trezcool/darasa/core/registration"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/teacher"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type testEnv struct {
	server *Server

	usrRepo user.Repository
	appRepo registration.Repository
	stdRepo student.Repository
	tchRepo teacher.Repository
	prgRepo program.Repository
	annRepo announcement.Repository
	invRepo billing.Repository
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := &core.Config{
		TestMode:        true,
		AppName:         "Darasa",
		SecretKey:       []byte("poq5-wer)#@dvd"),
		FrontendBaseURL: "http://localhost:3000",
		DefaultFromName: "Darasa",
		DefaultFromAddr: "noreply@darasa.cd",
		InvoiceDueDelta: 30 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
	core.ParseEmailTemplates(conf, nopLogger{})
	emailsvc.ClearSentMessages()

	db := inmemdb.NewDB()
	env := &testEnv{
		usrRepo: inmemdb.NewUserRepository(db),
		appRepo: inmemdb.NewApplicationRepository(db),
		stdRepo: inmemdb.NewStudentRepository(db),
		tchRepo: inmemdb.NewTeacherRepository(db),
		prgRepo: inmemdb.NewProgramRepository(db),
		annRepo: inmemdb.NewAnnouncementRepository(db),
		invRepo: inmemdb.NewInvoiceRepository(db),
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	registration.InitValidators(validate, translator)
	announcement.InitValidators(validate, translator)

	env.server = NewServer(ServerDeps{
		Conf:            conf,
		Logger:          nopLogger{},
		UserSvc:         user.NewService(env.usrRepo, mailSvc, conf),
		RegistrationSvc: registration.NewService(env.appRepo, env.usrRepo, env.stdRepo, env.tchRepo, env.prgRepo, mailSvc, conf),
		StudentSvc:      student.NewService(env.stdRepo),
		TeacherSvc:      teacher.NewService(env.tchRepo),
		ProgramSvc:      program.NewService(env.prgRepo),
		AnnouncementSvc: announcement.NewService(env.annRepo),
		BillingSvc:      billing.NewService(env.invRepo, conf),
		Validate:        validate,
		Translator:      translator,
		DisableReqLogs:  true,
	})
	return env
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()

	claims := env.server.auth.getUserClaims(usr)
	token, err := env.server.auth.generateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
