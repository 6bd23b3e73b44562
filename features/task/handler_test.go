package task_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/iYEiD/ds-midterm/features/task"
)

// MockRepo implements task.Repository
type MockRepo struct {
	mock.Mock
}

func (m *MockRepo) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}
func (m *MockRepo) Get(ctx context.Context, id string) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}
func (m *MockRepo) GetByURL(ctx context.Context, url string) (*task.Task, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}
func (m *MockRepo) UpdateStatus(ctx context.Context, id, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}
func (m *MockRepo) RecordFailure(ctx context.Context, id, lastError string) (int, error) {
	args := m.Called(ctx, id, lastError)
	return args.Int(0), args.Error(1)
}
func (m *MockRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

// MockPub implements task.EventPublisher
type MockPub struct {
	mock.Mock
}

func (m *MockPub) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}

func TestHandler_Submit(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepo)
		mockPub := new(MockPub)
		handler := task.NewHandler(task.NewService(mockRepo, mockPub))

		mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		mockPub.On("Publish", mock.Anything, mock.Anything).Return(nil)

		req := httptest.NewRequest("POST", "/tasks", strings.NewReader(`{"url": "https://example.com/stats"}`))
		w := httptest.NewRecorder()

		handler.Submit(w, req)

		assert.Equal(t, http.StatusCreated, w.Result().StatusCode)

		var resp map[string]any
		json.NewDecoder(w.Body).Decode(&resp)
		assert.NotEmpty(t, resp["task_id"])
		assert.Equal(t, "accepted", resp["status"])
	})

	t.Run("Duplicate", func(t *testing.T) {
		mockRepo := new(MockRepo)
		handler := task.NewHandler(task.NewService(mockRepo, new(MockPub)))

		mockRepo.On("Create", mock.Anything, mock.Anything).Return(task.ErrDuplicate)

		req := httptest.NewRequest("POST", "/tasks", strings.NewReader(`{"url": "https://example.com/stats"}`))
		w := httptest.NewRecorder()

		handler.Submit(w, req)

		assert.Equal(t, http.StatusConflict, w.Result().StatusCode)

		var resp map[string]map[string]string
		json.NewDecoder(w.Body).Decode(&resp)
		assert.Equal(t, "DUPLICATE", resp["error"]["code"])
	})

	t.Run("InvalidURL", func(t *testing.T) {
		handler := task.NewHandler(task.NewService(new(MockRepo), new(MockPub)))

		req := httptest.NewRequest("POST", "/tasks", strings.NewReader(`{"url": "not-a-url"}`))
		w := httptest.NewRecorder()

		handler.Submit(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("MissingURL", func(t *testing.T) {
		handler := task.NewHandler(task.NewService(new(MockRepo), new(MockPub)))

		req := httptest.NewRequest("POST", "/tasks", strings.NewReader(`{}`))
		w := httptest.NewRecorder()

		handler.Submit(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("BadJSON", func(t *testing.T) {
		handler := task.NewHandler(task.NewService(new(MockRepo), new(MockPub)))

		req := httptest.NewRequest("POST", "/tasks", strings.NewReader(`{not json`))
		w := httptest.NewRecorder()

		handler.Submit(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})
}

func TestHandler_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockRepo)
		handler := task.NewHandler(task.NewService(mockRepo, new(MockPub)))

		mockRepo.On("Get", mock.Anything, "task-1").
			Return(&task.Task{ID: "task-1", URL: "https://example.com", Status: task.StatusDone}, nil)

		mux := http.NewServeMux()
		mux.HandleFunc("GET /tasks/{id}", handler.Get)

		req := httptest.NewRequest("GET", "/tasks/task-1", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Result().StatusCode)

		var resp task.Task
		json.NewDecoder(w.Body).Decode(&resp)
		assert.Equal(t, task.StatusDone, resp.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockRepo := new(MockRepo)
		handler := task.NewHandler(task.NewService(mockRepo, new(MockPub)))

		mockRepo.On("Get", mock.Anything, "missing").Return(nil, task.ErrNotFound)

		mux := http.NewServeMux()
		mux.HandleFunc("GET /tasks/{id}", handler.Get)

		req := httptest.NewRequest("GET", "/tasks/missing", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
	})
}
