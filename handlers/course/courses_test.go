package course

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/skill-academy/database/dbtest"
	"github.com/sahilchouksey/skill-academy/model"
	"github.com/sahilchouksey/skill-academy/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) UploadImage(ctx context.Context, prefix, filename string, data io.ReadSeeker) (string, error) {
	args := m.Called(ctx, prefix, filename, data)
	return args.String(0), args.Error(1)
}

func (m *mockUploader) DeleteImage(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func newTestApp(t *testing.T, uploader services.ImageUploader) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := dbtest.New(t)
	catalog := services.NewCatalogService(db, services.NewEnrollmentService(db), nil)
	handler := NewCourseHandler(catalog, uploader, nil)

	app := fiber.New()
	app.Get("/home", handler.Home)
	app.Get("/courses", handler.ListCourses)
	app.Get("/courses/filter", handler.FilterCourses)
	app.Get("/courses/search", handler.SearchCourses)
	app.Get("/courses/:slug", handler.GetCourse)
	app.Post("/courses", handler.CreateCourse)
	app.Put("/courses/:id", handler.UpdateCourse)
	app.Post("/courses/:id/image", handler.UploadImage)
	return app, db
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeCourses(t *testing.T, env envelope) []model.Course {
	t.Helper()
	var courses []model.Course
	require.NoError(t, json.Unmarshal(env.Data, &courses))
	return courses
}

func TestFilterCourses(t *testing.T) {
	app, db := newTestApp(t, nil)
	free := dbtest.SeedCourse(t, db, "Free Go", 0, nil)
	dbtest.SeedCourse(t, db, "Paid Go", 300, nil)

	tests := []struct {
		name   string
		query  string
		status int
		titles []string
	}{
		{"all", "", fiber.StatusOK, []string{"Paid Go", "Free Go"}},
		{"free only", "?price=free", fiber.StatusOK, []string{"Free Go"}},
		{"paid only", "?price=paid", fiber.StatusOK, []string{"Paid Go"}},
		{"by category", "?category=" + strconv.Itoa(int(free.CategoryID)), fiber.StatusOK, []string{"Free Go"}},
		{"unknown price", "?price=cheap", fiber.StatusBadRequest, nil},
		{"bad category", "?category=abc", fiber.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := send(t, app, httptest.NewRequest(http.MethodGet, "/courses/filter"+tt.query, nil))
			require.Equal(t, tt.status, status)
			if tt.titles == nil {
				return
			}
			var titles []string
			for _, c := range decodeCourses(t, env) {
				titles = append(titles, c.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}

func TestSearchAndDetail(t *testing.T) {
	app, db := newTestApp(t, nil)
	course := dbtest.SeedCourse(t, db, "Concurrency in Go", 0, nil)
	dbtest.SeedCourse(t, db, "Rust Basics", 0, nil)

	status, env := send(t, app, httptest.NewRequest(http.MethodGet, "/courses/search?q=CONCURRENCY", nil))
	require.Equal(t, fiber.StatusOK, status)
	courses := decodeCourses(t, env)
	require.Len(t, courses, 1)
	assert.Equal(t, course.ID, courses[0].ID)

	status, env = send(t, app, httptest.NewRequest(http.MethodGet, "/courses/"+course.Slug, nil))
	require.Equal(t, fiber.StatusOK, status)
	var detail services.CourseDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, course.Title, detail.Course.Title)
	assert.False(t, detail.Enrolled)

	status, _ = send(t, app, httptest.NewRequest(http.MethodGet, "/courses/no-such-course", nil))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCreateAndUpdateCourse(t *testing.T) {
	app, db := newTestApp(t, nil)
	category := &model.Category{Name: "Backend"}
	require.NoError(t, db.Create(category).Error)

	body := `{"title":"Go Web Services","price":999,"discount":15,"category_id":` + strconv.Itoa(int(category.ID)) + `,"status":"PUBLISH"}`
	req := httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	status, env := send(t, app, req)
	require.Equal(t, fiber.StatusCreated, status)

	var created model.Course
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "go-web-services", created.Slug)
	assert.Equal(t, 15, created.DiscountPercent())

	req = httptest.NewRequest(http.MethodPut, "/courses/"+strconv.Itoa(int(created.ID)),
		strings.NewReader(`{"title":"Go Web Services","price":0,"category_id":`+strconv.Itoa(int(category.ID))+`,"status":"DRAFT"}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	status, env = send(t, app, req)
	require.Equal(t, fiber.StatusOK, status)

	var updated model.Course
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, created.Slug, updated.Slug)
	assert.True(t, updated.IsFree())
	assert.Equal(t, model.CourseStatusDraft, updated.Status)

	req = httptest.NewRequest(http.MethodPost, "/courses", strings.NewReader(`{"title":"Go","discount":120}`))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	status, env = send(t, app, req)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error.Fields, "title")
	assert.Contains(t, env.Error.Fields, "discount")
	assert.Contains(t, env.Error.Fields, "category_id")
}

func imageRequest(t *testing.T, path, filename string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake image"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	uploader := &mockUploader{}
	app, db := newTestApp(t, uploader)
	course := dbtest.SeedCourse(t, db, "Go Images", 0, nil)
	prefix := "courses/" + strconv.Itoa(int(course.ID))

	uploader.On("UploadImage", mock.Anything, prefix, "cover.png", mock.Anything).
		Return("https://cdn.example.com/"+prefix+"/cover.png", nil).Once()

	status, _ := send(t, app, imageRequest(t, "/courses/"+strconv.Itoa(int(course.ID))+"/image", "cover.png"))
	require.Equal(t, fiber.StatusOK, status)

	var reloaded model.Course
	require.NoError(t, db.First(&reloaded, course.ID).Error)
	assert.Equal(t, "https://cdn.example.com/"+prefix+"/cover.png", reloaded.FeaturedImage)
	uploader.AssertExpectations(t)
}

func TestUploadImageUnknownCourseRemovesUpload(t *testing.T) {
	uploader := &mockUploader{}
	app, _ := newTestApp(t, uploader)
	url := "https://cdn.example.com/courses/999/cover.png"

	uploader.On("UploadImage", mock.Anything, "courses/999", "cover.png", mock.Anything).Return(url, nil).Once()
	uploader.On("DeleteImage", mock.Anything, url).Return(nil).Once()

	status, _ := send(t, app, imageRequest(t, "/courses/999/image", "cover.png"))
	assert.Equal(t, fiber.StatusNotFound, status)
	uploader.AssertExpectations(t)
}

func TestUploadImageWithoutStorage(t *testing.T) {
	app, db := newTestApp(t, nil)
	course := dbtest.SeedCourse(t, db, "Go Images", 0, nil)

	status, env := send(t, app, imageRequest(t, "/courses/"+strconv.Itoa(int(course.ID))+"/image", "cover.png"))
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "STORAGE_UNAVAILABLE", env.Error.Code)
}
