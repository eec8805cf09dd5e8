package http_test

import (
	"bytes"
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
	reviewHttp "github.com/dhruvjyotiray/natours/review/delivery/http"
	"github.com/dhruvjyotiray/natours/review/mock"
	"github.com/dhruvjyotiray/natours/tests"
	"github.com/dhruvjyotiray/natours/web"
	"github.com/dhruvjyotiray/natours/web/auth"
)

func TestReviewHTTP(t *testing.T) {
	claims := auth.NewClaims(tests.UserID, "test@example.com", []string{auth.RoleUser}, time.Now(), time.Minute)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	controller := gomock.NewController(t)
	defer controller.Finish()
	uc := mock.NewMockReviewUsecase(controller)

	tracer := sdktrace.NewTracerProvider().Tracer("")
	v, err := web.NewAppValidator()
	require.NoError(t, err)

	handler := reviewHttp.NewReviewHandler(uc, nil, v, zap.NewNop(), tracer)

	e := echo.New()
	req := new(http.Request)
	e.Validator = v
	c := e.NewContext(req, nil)

	tReview := tests.NewReview()

	// Test ReviewHandler.GetAll through the nested tour route
	t.Run("GetAll scoped to a tour", func(t *testing.T) {
		uc.EXPECT().GetAll(gomock.Any(), tests.TourID, gomock.Any()).
			Return([]*domain.Review{tReview}, nil)
		req = httptest.NewRequest(echo.GET, "/v1/tours/"+tests.TourID+"/reviews", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)
		c.SetPath("/v1/tours/:tourId/reviews")
		c.SetParamNames("tourId")
		c.SetParamValues(tests.TourID)

		err = handler.GetAll(c)
		require.NoError(t, err)

		var body []*domain.Review
		err = json.NewDecoder(rec.Body).Decode(&body)
		require.NoError(t, err)
		require.Len(t, body, 1)
		assert.EqualValues(t, tReview, body[0])
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	// Test ReviewHandler.Create
	tCreateReview := tests.NewCreateReview()
	createReviewB, err := json.Marshal(tCreateReview)
	require.NoError(t, err)

	// nested create carries only the review text and rating, the tour comes
	// from the route and the author from the token
	nestedBody := []byte(`{"review": "Amazing guides and stunning views", "rating": 5}`)

	casesCreate := []struct {
		description   string
		mockCalls     func(muc *mock.MockReviewUsecase)
		reqBody       *bytes.Buffer
		tourParam     string
		auth          bool
		checkResponse func(rec *httptest.ResponseRecorder)
	}{
		{
			description: "Create success",
			mockCalls: func(muc *mock.MockReviewUsecase) {
				uc.EXPECT().Create(gomock.Any(), tCreateReview).Return(tReview, nil)
			},
			reqBody: bytes.NewBuffer(createReviewB),
			auth:    true,
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.Review)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.EqualValues(t, tReview, body)
				assert.Equal(t, http.StatusCreated, rec.Code)
			},
		},
		{
			description: "Create nested fills tour and author",
			mockCalls: func(muc *mock.MockReviewUsecase) {
				uc.EXPECT().Create(gomock.Any(), tCreateReview).Return(tReview, nil)
			},
			reqBody:   bytes.NewBuffer(nestedBody),
			tourParam: tests.TourID,
			auth:      true,
			checkResponse: func(rec *httptest.ResponseRecorder) {
				assert.Equal(t, http.StatusCreated, rec.Code)
			},
		},
		{
			description: "Create jwt not set",
			mockCalls:   func(muc *mock.MockReviewUsecase) {},
			reqBody:     bytes.NewBuffer(nestedBody),
			tourParam:   tests.TourID,
			auth:        false,
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.ResponseError)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.Equal(t, domain.ErrForbidden.Error(), body.Error)
				assert.Equal(t, http.StatusForbidden, rec.Code)
			},
		},
		{
			description: "Create validation error",
			mockCalls:   func(muc *mock.MockReviewUsecase) {},
			reqBody:     bytes.NewBuffer([]byte(`{"review": "No rating given"}`)),
			tourParam:   tests.TourID,
			auth:        true,
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.ResponseError)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.Equal(t, "validation error", body.Error)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			},
		},
	}

	for _, tc := range casesCreate {
		t.Run(tc.description, func(t *testing.T) {
			tc.mockCalls(uc)
			req = httptest.NewRequest(echo.POST, "/v1/reviews", tc.reqBody)
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

			rec := httptest.NewRecorder()
			c.Reset(req, rec)
			if tc.tourParam != "" {
				c.SetPath("/v1/tours/:tourId/reviews")
				c.SetParamNames("tourId")
				c.SetParamValues(tc.tourParam)
			}
			if tc.auth {
				c.Set("user", token)
			}

			err = handler.Create(c)
			require.NoError(t, err)

			tc.checkResponse(rec)
		})
	}

	// Test ReviewHandler.Delete
	t.Run("Delete success", func(t *testing.T) {
		uc.EXPECT().Delete(gomock.Any(), tests.ReviewID).Return(nil)
		req = httptest.NewRequest(echo.DELETE, "/v1/reviews/"+tests.ReviewID, nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)
		c.SetPath("/v1/reviews/:id")
		c.SetParamNames("id")
		c.SetParamValues(tests.ReviewID)

		err = handler.Delete(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
