package http_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/tests"
	userHttp "github.com/dhruvjyotiray/natours/user/delivery/http"
	"github.com/dhruvjyotiray/natours/user/mock"
	"github.com/dhruvjyotiray/natours/web"
	"github.com/dhruvjyotiray/natours/web/auth"
)

func TestUserHTTP(t *testing.T) {
	tUser := tests.NewUser()

	claims := auth.NewClaims(tUser.ID.Hex(), tUser.Email, tUser.Roles, time.Now(), time.Minute)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	authenticator, err := auth.NewAuthenticator(key, "test-key", "RS256")
	require.NoError(t, err)

	controller := gomock.NewController(t)
	defer controller.Finish()
	uc := mock.NewMockUserUsecase(controller)

	tracer := sdktrace.NewTracerProvider().Tracer("")
	v, err := web.NewAppValidator()
	require.NoError(t, err)

	handler := userHttp.NewUserHandler(uc, authenticator, v, zap.NewNop(), tracer)

	e := echo.New()
	req := new(http.Request)
	e.Validator = v
	c := e.NewContext(req, nil)

	checkUser := func(t *testing.T, rec *httptest.ResponseRecorder) {
		body := new(domain.User)
		err = json.NewDecoder(rec.Body).Decode(body)
		require.NoError(t, err)
		assert.Equal(t, tUser.ID, body.ID)
		assert.Equal(t, tUser.FullName, body.FullName)
		assert.Equal(t, tUser.Email, body.Email)
		assert.Equal(t, tUser.Roles, body.Roles)
		assert.True(t, body.Active)
		// the password hash never leaves the server
		assert.Empty(t, body.HashedPassword)
	}

	// Test UserHandler.Create
	tCreateUser := tests.NewCreateUser()
	createUserB, err := json.Marshal(tCreateUser)
	require.NoError(t, err)

	t.Run("Create success", func(t *testing.T) {
		uc.EXPECT().Create(gomock.Any(), tCreateUser).Return(tUser, nil)
		req = httptest.NewRequest(echo.POST, "/v1/users/signup", bytes.NewBuffer(createUserB))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.Create(c)
		require.NoError(t, err)

		checkUser(t, rec)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("Create validation error", func(t *testing.T) {
		req = httptest.NewRequest(echo.POST, "/v1/users/signup", bytes.NewBuffer([]byte(`{"full_name": "John Doe", "email": "not-an-email", "password": "short"}`)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.Create(c)
		require.NoError(t, err)

		body := new(domain.ResponseError)
		err = json.NewDecoder(rec.Body).Decode(body)
		require.NoError(t, err)
		assert.Equal(t, "validation error", body.Error)
		assert.Len(t, body.Fields, 2)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Create email taken", func(t *testing.T) {
		uc.EXPECT().Create(gomock.Any(), tCreateUser).Return(nil, domain.ErrBadParamInput)
		req = httptest.NewRequest(echo.POST, "/v1/users/signup", bytes.NewBuffer(createUserB))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.Create(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	// Test UserHandler.Token
	t.Run("Token success", func(t *testing.T) {
		uc.EXPECT().Authenticate(gomock.Any(), gomock.Any(), tUser.Email, "password").
			Return(claims, nil)
		req = httptest.NewRequest(echo.GET, "/v1/users/token", nil)
		req.SetBasicAuth(tUser.Email, "password")

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.Token(c)
		require.NoError(t, err)

		var body struct {
			Token string `json:"token"`
		}
		err = json.NewDecoder(rec.Body).Decode(&body)
		require.NoError(t, err)
		assert.NotEmpty(t, body.Token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Token no basic auth", func(t *testing.T) {
		req = httptest.NewRequest(echo.GET, "/v1/users/token", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.Token(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Token wrong credentials", func(t *testing.T) {
		uc.EXPECT().Authenticate(gomock.Any(), gomock.Any(), tUser.Email, "wrong").
			Return(nil, domain.ErrAuthenticationFailure)
		req = httptest.NewRequest(echo.GET, "/v1/users/token", nil)
		req.SetBasicAuth(tUser.Email, "wrong")

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.Token(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	// Test UserHandler.Me
	t.Run("Me resolves the token subject", func(t *testing.T) {
		uc.EXPECT().GetByID(gomock.Any(), tUser.ID.Hex()).Return(tUser, nil)
		req = httptest.NewRequest(echo.GET, "/v1/users/me", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)
		c.Set("user", token)

		err = handler.Me(c)
		require.NoError(t, err)

		checkUser(t, rec)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Me jwt not set", func(t *testing.T) {
		req = httptest.NewRequest(echo.GET, "/v1/users/me", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.Me(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	// Test UserHandler.Update
	tUpdateUser := tests.NewUpdateUser()
	updateUserB, err := json.Marshal(tUpdateUser)
	require.NoError(t, err)

	t.Run("Update success", func(t *testing.T) {
		uc.EXPECT().Update(gomock.Any(), tUpdateUser, claims).Return(nil)
		req = httptest.NewRequest(echo.PUT, "/v1/users", bytes.NewBuffer(updateUserB))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)
		c.Set("user", token)

		err = handler.Update(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
