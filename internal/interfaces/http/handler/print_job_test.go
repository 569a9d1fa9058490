package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labelbridge/backend/internal/application/printing"
	"github.com/labelbridge/backend/internal/domain/shared"
	"github.com/labelbridge/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPrintService is a mock implementation of PrintService
type MockPrintService struct {
	mock.Mock
}

func (m *MockPrintService) StartJob(ctx context.Context, labelIDs []uuid.UUID, printer string) (*printing.JobResponse, error) {
	args := m.Called(ctx, labelIDs, printer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.JobResponse), args.Error(1)
}

func (m *MockPrintService) Status(ctx context.Context, jobID uuid.UUID) (*printing.JobResponse, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.JobResponse), args.Error(1)
}

func (m *MockPrintService) List(ctx context.Context, limit int) ([]printing.JobResponse, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]printing.JobResponse), args.Error(1)
}

func (m *MockPrintService) Retry(ctx context.Context, jobID uuid.UUID, printer string) (*printing.JobResponse, error) {
	args := m.Called(ctx, jobID, printer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*printing.JobResponse), args.Error(1)
}

func (m *MockPrintService) Delete(ctx context.Context, jobID uuid.UUID) error {
	return m.Called(ctx, jobID).Error(0)
}

func (m *MockPrintService) ListPrinters(ctx context.Context) ([]printing.PrinterResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]printing.PrinterResponse), args.Error(1)
}

func sampleJob(status string, labels ...uuid.UUID) *printing.JobResponse {
	items := make([]printing.ItemResponse, len(labels))
	for i, id := range labels {
		items[i] = printing.ItemResponse{ID: uuid.New(), LabelID: id, Position: i, Status: "pending"}
	}
	return &printing.JobResponse{
		ID:          uuid.New(),
		PrinterName: "Zebra_ZD420",
		Status:      status,
		TotalCount:  len(labels),
		Errors:      []string{},
		Items:       items,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

type jobEnvelope struct {
	Success bool                 `json:"success"`
	Data    printing.JobResponse `json:"data"`
}

// =============================================================================
// Create
// =============================================================================

func TestPrintJobHandler_CreateJob(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	labelA, labelB := uuid.New(), uuid.New()
	job := sampleJob("printing", labelA, labelB)
	svc.On("StartJob", mock.Anything, []uuid.UUID{labelA, labelB}, "Zebra_ZD420").Return(job, nil)

	w := doRequest(engine, http.MethodPost, "/api/v1/print-jobs",
		`{"label_ids": ["`+labelA.String()+`", "`+labelB.String()+`"], "printer": "Zebra_ZD420"}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	var resp jobEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, job.ID, resp.Data.ID)
	assert.Equal(t, "printing", resp.Data.Status)
	assert.Len(t, resp.Data.Items, 2)
	svc.AssertExpectations(t)
}

func TestPrintJobHandler_CreateJob_DefaultPrinter(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	labelID := uuid.New()
	svc.On("StartJob", mock.Anything, []uuid.UUID{labelID}, "").Return(sampleJob("printing", labelID), nil)

	w := doRequest(engine, http.MethodPost, "/api/v1/print-jobs", `{"label_ids": ["`+labelID.String()+`"]}`)

	assert.Equal(t, http.StatusAccepted, w.Code)
	svc.AssertExpectations(t)
}

func TestPrintJobHandler_CreateJob_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"quota denied", shared.NewDomainError(shared.CodeQuotaDenied, "monthly limit of 100 labels reached"), http.StatusTooManyRequests, shared.CodeQuotaDenied},
		{"printer unavailable", shared.NewDomainError(shared.CodePrinterUnavailable, `printer "Office" is not available`), http.StatusServiceUnavailable, shared.CodePrinterUnavailable},
		{"label missing", shared.NewDomainError(shared.CodeNotFound, "label not found"), http.StatusNotFound, shared.CodeNotFound},
		{"file missing", shared.NewDomainError(shared.CodeLabelFileMissing, "file of label is missing"), http.StatusGone, shared.CodeLabelFileMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockPrintService)
			engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))
			svc.On("StartJob", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			w := doRequest(engine, http.MethodPost, "/api/v1/print-jobs", `{"label_ids": ["`+uuid.NewString()+`"]}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestPrintJobHandler_CreateJob_Validation(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	w := doRequest(engine, http.MethodPost, "/api/v1/print-jobs", `{"label_ids": []}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "label_ids", resp.Error.Details[0].Field)
	svc.AssertNotCalled(t, "StartJob", mock.Anything, mock.Anything, mock.Anything)
}

// =============================================================================
// Get / List
// =============================================================================

func TestPrintJobHandler_GetJob(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	job := sampleJob("completed", uuid.New())
	job.PrintedCount = 1
	svc.On("Status", mock.Anything, job.ID).Return(job, nil)

	w := doRequest(engine, http.MethodGet, "/api/v1/print-jobs/"+job.ID.String(), "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp jobEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.PrintedCount)
	assert.Equal(t, "completed", resp.Data.Status)
}

func TestPrintJobHandler_GetJob_Unknown(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	id := uuid.New()
	svc.On("Status", mock.Anything, id).Return(nil, nil)

	w := doRequest(engine, http.MethodGet, "/api/v1/print-jobs/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Print job not found", decodeResponse(t, w).Error.Message)
}

func TestPrintJobHandler_ListJobs(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	svc.On("List", mock.Anything, 10).Return([]printing.JobResponse{*sampleJob("completed"), *sampleJob("failed")}, nil)
	svc.On("List", mock.Anything, 0).Return([]printing.JobResponse{}, nil)

	w := doRequest(engine, http.MethodGet, "/api/v1/print-jobs?limit=10", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []printing.JobResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)

	w = doRequest(engine, http.MethodGet, "/api/v1/print-jobs", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, "/api/v1/print-jobs?limit=0", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(engine, http.MethodGet, "/api/v1/print-jobs?limit=9999", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// =============================================================================
// Retry / Delete
// =============================================================================

func TestPrintJobHandler_RetryJob(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	job := sampleJob("printing", uuid.New())
	svc.On("Retry", mock.Anything, job.ID, "").Return(job, nil).Once()
	svc.On("Retry", mock.Anything, job.ID, "Office").Return(job, nil).Once()

	w := doRequest(engine, http.MethodPost, "/api/v1/print-jobs/"+job.ID.String()+"/retry", "")
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(engine, http.MethodPost, "/api/v1/print-jobs/"+job.ID.String()+"/retry", `{"printer": "Office"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	svc.AssertExpectations(t)
}

func TestPrintJobHandler_RetryJob_WhilePrinting(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	id := uuid.New()
	svc.On("Retry", mock.Anything, id, "").
		Return(nil, shared.NewDomainError(shared.CodeInvalidState, "Cannot retry a job that is printing"))

	w := doRequest(engine, http.MethodPost, "/api/v1/print-jobs/"+id.String()+"/retry", "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, shared.CodeInvalidState, decodeResponse(t, w).Error.Code)
}

func TestPrintJobHandler_DeleteJob(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	w := doRequest(engine, http.MethodDelete, "/api/v1/print-jobs/"+id.String(), "")

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestPrintJobHandler_DeleteJob_NotFound(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(svc, nil)))

	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(shared.NewDomainError(shared.CodeNotFound, "Print job not found"))

	w := doRequest(engine, http.MethodDelete, "/api/v1/print-jobs/"+id.String(), "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrintJobHandler_InvalidJobID(t *testing.T) {
	engine := mountGroup(PrintJobRoutes(NewPrintJobHandler(new(MockPrintService), nil)))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/print-jobs/42"},
		{http.MethodPost, "/api/v1/print-jobs/42/retry"},
		{http.MethodDelete, "/api/v1/print-jobs/42"},
	} {
		w := doRequest(engine, tc.method, tc.path, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.method+" "+tc.path)
	}
}

// =============================================================================
// Printers
// =============================================================================

func TestPrintJobHandler_ListPrinters(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrinterRoutes(NewPrintJobHandler(svc, nil)))

	svc.On("ListPrinters", mock.Anything).Return([]printing.PrinterResponse{
		{Name: "Zebra_ZD420", IsDefault: true, Status: "idle"},
		{Name: "Office", Status: "unknown"},
	}, nil)

	w := doRequest(engine, http.MethodGet, "/api/v1/printers", "")

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data []printing.PrinterResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.True(t, resp.Data[0].IsDefault)
}

func TestPrintJobHandler_ListPrinters_Unavailable(t *testing.T) {
	svc := new(MockPrintService)
	engine := mountGroup(PrinterRoutes(NewPrintJobHandler(svc, nil)))

	svc.On("ListPrinters", mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodePrinterUnavailable, "failed to list printers"))

	w := doRequest(engine, http.MethodGet, "/api/v1/printers", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
