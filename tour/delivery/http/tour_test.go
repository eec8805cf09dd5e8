package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/dhruvjyotiray/natours/domain"
	"github.com/dhruvjyotiray/natours/tests"
	tourHttp "github.com/dhruvjyotiray/natours/tour/delivery/http"
	"github.com/dhruvjyotiray/natours/tour/mock"
	"github.com/dhruvjyotiray/natours/web"
)

func TestTourHTTP(t *testing.T) {
	controller := gomock.NewController(t)
	defer controller.Finish()
	uc := mock.NewMockTourUsecase(controller)

	tracer := sdktrace.NewTracerProvider().Tracer("")
	v, err := web.NewAppValidator()
	require.NoError(t, err)

	handler := tourHttp.NewTourHandler(uc, nil, v, zap.NewNop(), tracer)

	e := echo.New()
	req := new(http.Request)
	e.Validator = v
	c := e.NewContext(req, nil)

	// Test TourHandler.GetByID and GetBySlug
	tTour := tests.NewTour()

	casesGet := []struct {
		description   string
		mockCalls     func(muc *mock.MockTourUsecase)
		param         string
		paramName     string
		handler       func(t *testing.T, c echo.Context)
		checkResponse func(rec *httptest.ResponseRecorder)
	}{
		{
			description: "GetByID success",
			mockCalls: func(muc *mock.MockTourUsecase) {
				uc.EXPECT().GetByID(gomock.Any(), tests.TourID).Return(tTour, nil)
			},
			param:     tests.TourID,
			paramName: "id",
			handler: func(t *testing.T, c echo.Context) {
				err = handler.GetByID(c)
				require.NoError(t, err)
			},
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.Tour)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.EqualValues(t, tTour, body)
				assert.Equal(t, http.StatusOK, rec.Code)
			},
		},
		{
			description: "GetByID not found",
			mockCalls: func(muc *mock.MockTourUsecase) {
				uc.EXPECT().GetByID(gomock.Any(), tests.TourID).Return(nil, domain.ErrNotFound)
			},
			param:     tests.TourID,
			paramName: "id",
			handler: func(t *testing.T, c echo.Context) {
				err = handler.GetByID(c)
				require.NoError(t, err)
			},
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.ResponseError)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.Equal(t, domain.ErrNotFound.Error(), body.Error)
				assert.Equal(t, http.StatusNotFound, rec.Code)
			},
		},
		{
			description: "GetBySlug success",
			mockCalls: func(muc *mock.MockTourUsecase) {
				uc.EXPECT().GetBySlug(gomock.Any(), tTour.Slug).Return(tTour, nil)
			},
			param:     tTour.Slug,
			paramName: "slug",
			handler: func(t *testing.T, c echo.Context) {
				err = handler.GetBySlug(c)
				require.NoError(t, err)
			},
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.Tour)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.EqualValues(t, tTour, body)
				assert.Equal(t, http.StatusOK, rec.Code)
			},
		},
	}

	for _, tc := range casesGet {
		t.Run(tc.description, func(t *testing.T) {
			tc.mockCalls(uc)
			req = httptest.NewRequest(echo.GET, "/"+tc.param, nil)

			rec := httptest.NewRecorder()
			c.Reset(req, rec)
			c.SetPath("/:" + tc.paramName)
			c.SetParamNames(tc.paramName)
			c.SetParamValues(tc.param)

			tc.handler(t, c)

			tc.checkResponse(rec)
		})
	}

	// Test TourHandler.GetAll and TopCheap
	t.Run("GetAll parses query parameters", func(t *testing.T) {
		uc.EXPECT().GetAll(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, q *domain.Query) ([]*domain.Tour, error) {
				assert.Equal(t, float64(5), q.Filter["duration"])
				assert.Equal(t, int64(10), q.Limit)
				return []*domain.Tour{tTour}, nil
			})
		req = httptest.NewRequest(echo.GET, "/v1/tours?duration=5.0&limit=10", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.GetAll(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("TopCheap presets the query", func(t *testing.T) {
		uc.EXPECT().GetAll(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ interface{}, q *domain.Query) ([]*domain.Tour, error) {
				assert.Equal(t, int64(5), q.Limit)
				require.NotEmpty(t, q.Sort)
				assert.Equal(t, "ratings_average", q.Sort[0].Key)
				assert.Equal(t, -1, q.Sort[0].Value)
				assert.Len(t, q.Projection, 5)
				return []*domain.Tour{tTour}, nil
			})
		req = httptest.NewRequest(echo.GET, "/v1/tours/top-5-cheap", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)

		err = handler.TopCheap(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	// Test TourHandler.Create
	tCreateTour := tests.NewCreateTour()
	createTourB, err := json.Marshal(tCreateTour)
	require.NoError(t, err)

	tCreateTourShortName := tests.NewCreateTour()
	tCreateTourShortName.Name = "Short"
	createTourShortNameB, err := json.Marshal(tCreateTourShortName)
	require.NoError(t, err)

	casesCreate := []struct {
		description   string
		mockCalls     func(muc *mock.MockTourUsecase)
		reqBody       *bytes.Buffer
		checkResponse func(rec *httptest.ResponseRecorder)
	}{
		{
			description: "Create success",
			mockCalls: func(muc *mock.MockTourUsecase) {
				uc.EXPECT().Create(gomock.Any(), tCreateTour).Return(tTour, nil)
			},
			reqBody: bytes.NewBuffer(createTourB),
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.Tour)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.EqualValues(t, tTour, body)
				assert.Equal(t, http.StatusCreated, rec.Code)
			},
		},
		{
			description: "Create validation error",
			mockCalls:   func(muc *mock.MockTourUsecase) {},
			reqBody:     bytes.NewBuffer(createTourShortNameB),
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.ResponseError)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.Equal(t, "validation error", body.Error)
				assert.NotEmpty(t, body.Fields)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
			},
		},
		{
			description: "Create conflict",
			mockCalls: func(muc *mock.MockTourUsecase) {
				uc.EXPECT().Create(gomock.Any(), tCreateTour).Return(nil, domain.ErrConflict)
			},
			reqBody: bytes.NewBuffer(createTourB),
			checkResponse: func(rec *httptest.ResponseRecorder) {
				body := new(domain.ResponseError)
				err = json.NewDecoder(rec.Body).Decode(body)
				require.NoError(t, err)
				assert.Equal(t, domain.ErrConflict.Error(), body.Error)
				assert.Equal(t, http.StatusConflict, rec.Code)
			},
		},
	}

	for _, tc := range casesCreate {
		t.Run(tc.description, func(t *testing.T) {
			tc.mockCalls(uc)
			req = httptest.NewRequest(echo.POST, "/v1/tours", tc.reqBody)
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)

			rec := httptest.NewRecorder()
			c.Reset(req, rec)

			err = handler.Create(c)
			require.NoError(t, err)

			tc.checkResponse(rec)
		})
	}

	// Test TourHandler.Within and Distances
	t.Run("Within success", func(t *testing.T) {
		uc.EXPECT().Within(gomock.Any(), 250.0, "51.178456,-115.570154", "mi").
			Return([]*domain.Tour{tTour}, nil)
		req = httptest.NewRequest(echo.GET, "/v1/tours/tours-within/250/center/51.178456,-115.570154/unit/mi", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)
		c.SetPath("/v1/tours/tours-within/:distance/center/:latlng/unit/:unit")
		c.SetParamNames("distance", "latlng", "unit")
		c.SetParamValues("250", "51.178456,-115.570154", "mi")

		err = handler.Within(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Within distance not a number", func(t *testing.T) {
		req = httptest.NewRequest(echo.GET, "/v1/tours/tours-within/far/center/51.178456,-115.570154/unit/mi", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)
		c.SetPath("/v1/tours/tours-within/:distance/center/:latlng/unit/:unit")
		c.SetParamNames("distance", "latlng", "unit")
		c.SetParamValues("far", "51.178456,-115.570154", "mi")

		err = handler.Within(c)
		require.NoError(t, err)

		body := new(domain.ResponseError)
		err = json.NewDecoder(rec.Body).Decode(body)
		require.NoError(t, err)
		assert.Equal(t, "distance is not a number", body.Error)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Distances malformed center", func(t *testing.T) {
		uc.EXPECT().Distances(gomock.Any(), "51.178456", "km").
			Return(nil, domain.ErrBadParamInput)
		req = httptest.NewRequest(echo.GET, "/v1/tours/distances/51.178456/unit/km", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)
		c.SetPath("/v1/tours/distances/:latlng/unit/:unit")
		c.SetParamNames("latlng", "unit")
		c.SetParamValues("51.178456", "km")

		err = handler.Distances(c)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	// Test TourHandler.MonthlyPlan
	t.Run("MonthlyPlan success", func(t *testing.T) {
		plan := []domain.MonthPlan{{Month: 7, NumTourStarts: 2, Tours: []string{tTour.Name}}}
		uc.EXPECT().MonthlyPlan(gomock.Any(), 2026).Return(plan, nil)
		req = httptest.NewRequest(echo.GET, "/v1/tours/monthly-plan/2026", nil)

		rec := httptest.NewRecorder()
		c.Reset(req, rec)
		c.SetPath("/v1/tours/monthly-plan/:year")
		c.SetParamNames("year")
		c.SetParamValues("2026")

		err = handler.MonthlyPlan(c)
		require.NoError(t, err)

		var body []domain.MonthPlan
		err = json.NewDecoder(rec.Body).Decode(&body)
		require.NoError(t, err)
		assert.Equal(t, plan, body)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
