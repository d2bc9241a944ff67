package http

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-api/internal/api/dto"
	"github.com/spec-kit/employee-api/internal/api/http/handlers"
	"github.com/spec-kit/employee-api/internal/auth"
	"github.com/spec-kit/employee-api/internal/config"
	"github.com/spec-kit/employee-api/internal/domain"
	"github.com/spec-kit/employee-api/internal/observability"
	"github.com/spec-kit/employee-api/internal/service"
)

const (
	testAPIKey   = "integration-test-key"
	testIssuer   = "https://issuer.example.com/"
	testAudience = "https://employee-api.example.com"
)

// stubRepository implements repository.EmployeeRepository in memory and
// counts calls so tests can assert short-circuited requests never reach
// the persistence layer.
type stubRepository struct {
	nextID    int64
	employees map[int64]*domain.Employee
	calls     int
}

func newStubRepository() *stubRepository {
	return &stubRepository{nextID: 1, employees: map[int64]*domain.Employee{}}
}

func (r *stubRepository) Create(_ context.Context, employee *domain.Employee) error {
	r.calls++
	now := time.Now()
	employee.ID = r.nextID
	employee.CreatedAt = now
	employee.UpdatedAt = now
	r.nextID++
	stored := *employee
	r.employees[employee.ID] = &stored
	return nil
}

func (r *stubRepository) Update(_ context.Context, employee *domain.Employee) error {
	r.calls++
	if _, ok := r.employees[employee.ID]; !ok {
		return pgx.ErrNoRows
	}
	employee.UpdatedAt = time.Now()
	stored := *employee
	r.employees[employee.ID] = &stored
	return nil
}

func (r *stubRepository) Delete(_ context.Context, id int64) error {
	r.calls++
	if _, ok := r.employees[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.employees, id)
	return nil
}

func (r *stubRepository) GetByID(_ context.Context, id int64) (*domain.Employee, error) {
	r.calls++
	employee, ok := r.employees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *employee
	return &copied, nil
}

func (r *stubRepository) List(_ context.Context) ([]domain.Employee, error) {
	r.calls++
	result := []domain.Employee{}
	for id := int64(1); id < r.nextID; id++ {
		if employee, ok := r.employees[id]; ok {
			result = append(result, *employee)
		}
	}
	return result, nil
}

func (r *stubRepository) ListByDepartment(_ context.Context, department string) ([]domain.Employee, error) {
	r.calls++
	result := []domain.Employee{}
	for id := int64(1); id < r.nextID; id++ {
		if employee, ok := r.employees[id]; ok && employee.Department == department {
			result = append(result, *employee)
		}
	}
	return result, nil
}

func (r *stubRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.calls++
	for _, employee := range r.employees {
		if employee.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepository) ExistsByEmailExcluding(_ context.Context, email string, excludeID int64) (bool, error) {
	r.calls++
	for _, employee := range r.employees {
		if employee.Email == email && employee.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubRepository) CountAll(_ context.Context) (int64, error) {
	r.calls++
	return int64(len(r.employees)), nil
}

func (r *stubRepository) AverageSalary(_ context.Context) (float64, error) {
	r.calls++
	if len(r.employees) == 0 {
		return 0, nil
	}
	var sum float64
	for _, employee := range r.employees {
		sum += employee.Salary
	}
	return sum / float64(len(r.employees)), nil
}

func (r *stubRepository) MaxSalary(_ context.Context) (float64, error) {
	r.calls++
	var max float64
	for _, employee := range r.employees {
		if employee.Salary > max {
			max = employee.Salary
		}
	}
	return max, nil
}

func (r *stubRepository) DepartmentCount(_ context.Context) (int64, error) {
	r.calls++
	departments := map[string]struct{}{}
	for _, employee := range r.employees {
		departments[employee.Department] = struct{}{}
	}
	return int64(len(departments)), nil
}

type testServer struct {
	app  *fiber.App
	repo *stubRepository
	key  *rsa.PrivateKey
}

// newTestServer assembles the full pipeline exactly as main wires it,
// with an in-memory repository and a locally generated signing key.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := &config.Config{
		App: config.AppConfig{
			Name:                  "employee-api",
			Env:                   "test",
			Version:               "test",
			RequestTimeoutSeconds: 5,
		},
		Auth: config.AuthConfig{
			IssuerURL: testIssuer,
			Audience:  testAudience,
			APIKey:    testAPIKey,
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	keys := func(*jwt.Token) (any, error) { return &key.PublicKey, nil }
	verifier := auth.NewTokenVerifier(keys, testIssuer, testAudience)

	repo := newStubRepository()
	employeeService := service.NewEmployeeService(repo)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, cfg)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, cfg.App.Env, nil),
		Employees: handlers.NewEmployeesHandler(employeeService),
		Admin:     handlers.NewAdminHandler(metrics),
		APIKey:    auth.APIKeyGate(cfg.Auth.APIKey),
		JWT:       auth.JWTVerification(verifier),
		Policy:    auth.Authorize(auth.DefaultPolicy),
	})

	return &testServer{app: app, repo: repo, key: key}
}

func (s *testServer) signToken(t *testing.T, scope string) string {
	t.Helper()
	claims := &auth.Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.key)
	require.NoError(t, err)
	return signed
}

func (s *testServer) request(t *testing.T, method, path string, body any, decorate func(*http.Request)) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if decorate != nil {
		decorate(req)
	}
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func withAPIKey(req *http.Request) {
	req.Header.Set(auth.APIKeyHeader, testAPIKey)
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

type errorEnvelope struct {
	Timestamp string         `json:"timestamp"`
	Status    int            `json:"status"`
	Error     string         `json:"error"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details"`
}

func employeePayload(email string) map[string]any {
	return map[string]any{
		"name":       "Ann Lee",
		"position":   "Engineer",
		"department": "R&D",
		"salary":     95000.00,
		"email":      email,
		"phone":      "+15551234567",
		"hireDate":   "2023-01-10",
	}
}

func TestUnauthenticatedRequestNeverReachesService(t *testing.T) {
	server := newTestServer(t)

	resp := server.request(t, http.MethodGet, "/api/employees", nil, nil)
	envelope := decodeBody[errorEnvelope](t, resp)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, envelope.Status)
	assert.Equal(t, "Unauthorized", envelope.Error)
	assert.NotEmpty(t, envelope.Timestamp)
	assert.Zero(t, server.repo.calls, "repository must not be touched")
}

func TestWrongAPIKeyRejected(t *testing.T) {
	server := newTestServer(t)

	resp := server.request(t, http.MethodGet, "/api/employees", nil, func(req *http.Request) {
		req.Header.Set(auth.APIKeyHeader, "nope")
	})
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Zero(t, server.repo.calls)
}

func TestRequestIDHeaderOnEveryResponse(t *testing.T) {
	server := newTestServer(t)

	authorized := server.request(t, http.MethodGet, "/healthz", nil, nil)
	defer authorized.Body.Close() //nolint:errcheck
	assert.NotEmpty(t, authorized.Header.Get(observability.RequestIDHeader))

	rejected := server.request(t, http.MethodGet, "/api/employees", nil, nil)
	defer rejected.Body.Close() //nolint:errcheck
	assert.NotEmpty(t, rejected.Header.Get(observability.RequestIDHeader))
}

func TestPublicPathsNeedNoCredentials(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/healthz", "/actuator/info", "/api/public/info"} {
		resp := server.request(t, http.MethodGet, path, nil, nil)
		defer resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

func TestEmployeeCRUDWithAPIKey(t *testing.T) {
	server := newTestServer(t)

	// create
	resp := server.request(t, http.MethodPost, "/api/employees", employeePayload("ann@x.com"), withAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decodeBody[dto.EmployeeResponse](t, resp)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Ann Lee", created.Name)
	assert.Equal(t, "2023-01-10", created.HireDate)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// read
	resp = server.request(t, http.MethodGet, fmt.Sprintf("/api/employees/%d", created.ID), nil, withAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody[dto.EmployeeResponse](t, resp)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "ann@x.com", fetched.Email)

	// list
	resp = server.request(t, http.MethodGet, "/api/employees", nil, withAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]dto.EmployeeResponse](t, resp)
	require.Len(t, list, 1)

	// update
	payload := employeePayload("ann@x.com")
	payload["position"] = "Staff Engineer"
	resp = server.request(t, http.MethodPut, fmt.Sprintf("/api/employees/%d", created.ID), payload, withAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody[dto.EmployeeResponse](t, resp)
	assert.Equal(t, "Staff Engineer", updated.Position)

	// delete
	resp = server.request(t, http.MethodDelete, fmt.Sprintf("/api/employees/%d", created.ID), nil, withAPIKey)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// gone
	resp = server.request(t, http.MethodGet, fmt.Sprintf("/api/employees/%d", created.ID), nil, withAPIKey)
	envelope := decodeBody[errorEnvelope](t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, envelope.Message, "not found")
}

func TestCreateDuplicateEmail(t *testing.T) {
	server := newTestServer(t)

	resp := server.request(t, http.MethodPost, "/api/employees", employeePayload("ann@x.com"), withAPIKey)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = server.request(t, http.MethodPost, "/api/employees", employeePayload("ann@x.com"), withAPIKey)
	envelope := decodeBody[errorEnvelope](t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, envelope.Message, "already exists")
}

func TestCreateValidationFailure(t *testing.T) {
	server := newTestServer(t)

	payload := employeePayload("not-an-email")
	payload["name"] = "A"
	payload["phone"] = "123"

	resp := server.request(t, http.MethodPost, "/api/employees", payload, withAPIKey)
	envelope := decodeBody[errorEnvelope](t, resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Bad Request", envelope.Error)
	assert.Contains(t, envelope.Details, "name")
	assert.Contains(t, envelope.Details, "email")
	assert.Contains(t, envelope.Details, "phone")
	assert.Zero(t, server.repo.calls, "invalid payloads must not reach persistence")
}

func TestListByDepartment(t *testing.T) {
	server := newTestServer(t)

	resp := server.request(t, http.MethodPost, "/api/employees", employeePayload("ann@x.com"), withAPIKey)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	other := employeePayload("bob@x.com")
	other["department"] = "Sales"
	resp = server.request(t, http.MethodPost, "/api/employees", other, withAPIKey)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = server.request(t, http.MethodGet, "/api/employees/department/Sales", nil, withAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]dto.EmployeeResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "bob@x.com", list[0].Email)
}

func TestStatsSummaryEndpoint(t *testing.T) {
	server := newTestServer(t)

	low := employeePayload("low@x.com")
	low["salary"] = 50000.0
	resp := server.request(t, http.MethodPost, "/api/employees", low, withAPIKey)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	high := employeePayload("high@x.com")
	high["salary"] = 70000.0
	high["department"] = "Sales"
	resp = server.request(t, http.MethodPost, "/api/employees", high, withAPIKey)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = server.request(t, http.MethodGet, "/api/employees/stats/summary", nil, withAPIKey)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decodeBody[dto.StatsSummaryResponse](t, resp)
	assert.Equal(t, int64(2), stats.TotalEmployees)
	assert.Equal(t, 60000.0, stats.AverageSalary)
	assert.Equal(t, 70000.0, stats.HighestSalary)
	assert.Equal(t, int64(2), stats.DepartmentCount)
}

func TestEmployeeAccessWithBearerToken(t *testing.T) {
	server := newTestServer(t)

	resp := server.request(t, http.MethodGet, "/api/employees", nil, func(req *http.Request) {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+server.signToken(t, "read"))
	})
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminRequiresAdminScope(t *testing.T) {
	server := newTestServer(t)

	t.Run("token without admin scope is forbidden", func(t *testing.T) {
		resp := server.request(t, http.MethodGet, "/api/admin/metrics", nil, func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+server.signToken(t, "read"))
		})
		envelope := decodeBody[errorEnvelope](t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "Forbidden", envelope.Error)
	})

	t.Run("api key alone is forbidden", func(t *testing.T) {
		resp := server.request(t, http.MethodGet, "/api/admin/metrics", nil, withAPIKey)
		defer resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("token with admin scope is allowed", func(t *testing.T) {
		resp := server.request(t, http.MethodGet, "/api/admin/metrics", nil, func(req *http.Request) {
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+server.signToken(t, "read admin"))
		})
		defer resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestInternalDetailsNeverLeak(t *testing.T) {
	server := newTestServer(t)

	resp := server.request(t, http.MethodGet, "/api/employees/not-a-number", nil, withAPIKey)
	envelope := decodeBody[errorEnvelope](t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid employee id", envelope.Message)
}
