package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/boutique/backend/internal/application/common"
	paymentapp "github.com/boutique/backend/internal/application/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func paymentResult(args mock.Arguments) (*paymentapp.PaymentDTO, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentapp.PaymentDTO), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Create(ctx context.Context, session shared.Session, req paymentapp.CreatePaymentRequest) (*paymentapp.PaymentDTO, error) {
	return paymentResult(m.Called(ctx, session, req))
}

func (m *MockPaymentService) UploadProof(ctx context.Context, session shared.Session, paymentID uuid.UUID, file common.UploadedFile) (*paymentapp.PaymentDTO, error) {
	// the body is only readable while the request is in flight
	body, _ := io.ReadAll(file.Body)
	file.Body = bytes.NewReader(body)
	return paymentResult(m.Called(ctx, session, paymentID, file.Filename, file.ContentType, string(body)))
}

func (m *MockPaymentService) Confirm(ctx context.Context, session shared.Session, paymentID uuid.UUID) (*paymentapp.PaymentDTO, error) {
	return paymentResult(m.Called(ctx, session, paymentID))
}

func (m *MockPaymentService) ListMine(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[paymentapp.PaymentDTO], error) {
	args := m.Called(ctx, session, filter)
	return args.Get(0).(shared.Paginated[paymentapp.PaymentDTO]), args.Error(1)
}

type MockPaymentAdminService struct {
	mock.Mock
}

func (m *MockPaymentAdminService) List(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[paymentapp.PaymentDTO], error) {
	args := m.Called(ctx, session, filter)
	return args.Get(0).(shared.Paginated[paymentapp.PaymentDTO]), args.Error(1)
}

func (m *MockPaymentAdminService) Get(ctx context.Context, session shared.Session, id uuid.UUID) (*paymentapp.PaymentDTO, error) {
	return paymentResult(m.Called(ctx, session, id))
}

func (m *MockPaymentAdminService) Create(ctx context.Context, session shared.Session, req paymentapp.AdminCreatePaymentRequest) (*paymentapp.PaymentDTO, error) {
	return paymentResult(m.Called(ctx, session, req))
}

func (m *MockPaymentAdminService) Approve(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.ReviewRequest) (*paymentapp.PaymentDTO, error) {
	return paymentResult(m.Called(ctx, session, id, req))
}

func (m *MockPaymentAdminService) Reject(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.ReviewRequest) (*paymentapp.PaymentDTO, error) {
	return paymentResult(m.Called(ctx, session, id, req))
}

func (m *MockPaymentAdminService) Fail(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.FailRequest) (*paymentapp.PaymentDTO, error) {
	return paymentResult(m.Called(ctx, session, id, req))
}

func (m *MockPaymentAdminService) UpdateNotes(ctx context.Context, session shared.Session, id uuid.UUID, req paymentapp.NotesRequest) (*paymentapp.PaymentDTO, error) {
	return paymentResult(m.Called(ctx, session, id, req))
}

func paymentRouter(payments *MockPaymentService, admin *MockPaymentAdminService, s shared.Session) http.Handler {
	h := NewPaymentHandler(payments)
	a := NewPaymentAdminHandler(admin)
	r := testRouter(s)
	r.POST("/payments", h.Create)
	r.GET("/payments", h.ListMine)
	r.POST("/payments/:id/proof", h.UploadProof)
	r.POST("/payments/:id/confirm", h.Confirm)
	r.POST("/admin/payments", a.Create)
	r.POST("/admin/payments/:id/approve", a.Approve)
	r.POST("/admin/payments/:id/reject", a.Reject)
	r.POST("/admin/payments/:id/fail", a.Fail)
	r.PATCH("/admin/payments/:id/notes", a.UpdateNotes)
	return r
}

func TestPaymentHandler_Create(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"gateway intent", nil, http.StatusCreated},
		{"duplicate", shared.NewDomainError(shared.CodeDuplicatePayment, "Order already has an active payment"), http.StatusConflict},
		{"gateway down", shared.NewDomainError(shared.CodeUpstreamUnavailable, "Payment gateway unavailable"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payments := new(MockPaymentService)
			orderID := uuid.New()
			var out *paymentapp.PaymentDTO
			if tt.err == nil {
				out = &paymentapp.PaymentDTO{ID: uuid.New(), OrderID: orderID, Method: "GATEWAY", Status: "PENDING", ClientSecret: "pi_1_secret_2"}
			}
			payments.On("Create", mock.Anything, mock.Anything, paymentapp.CreatePaymentRequest{OrderID: orderID, Method: "GATEWAY"}).Return(out, tt.err)

			w := doJSON(paymentRouter(payments, new(MockPaymentAdminService), customerSession()), http.MethodPost, "/payments",
				map[string]any{"order_id": orderID, "method": "GATEWAY"})

			assert.Equal(t, tt.status, w.Code)
			payments.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_Create_UnknownMethod(t *testing.T) {
	payments := new(MockPaymentService)

	w := doJSON(paymentRouter(payments, new(MockPaymentAdminService), customerSession()), http.MethodPost, "/payments",
		map[string]any{"order_id": uuid.New(), "method": "BITCOIN"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func multipartProof(t *testing.T, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="comprobante.png"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestPaymentHandler_UploadProof(t *testing.T) {
	payments := new(MockPaymentService)
	paymentID := uuid.New()
	payments.On("UploadProof", mock.Anything, mock.Anything, paymentID, "comprobante.png", "image/png", "fake-png").
		Return(&paymentapp.PaymentDTO{ID: paymentID, Method: "MANUAL_PROOF", Status: "PENDING", ProofURL: "/uploads/proofs/x.png"}, nil)

	body, ct := multipartProof(t, "image/png", []byte("fake-png"))
	req := httptest.NewRequest(http.MethodPost, "/payments/"+paymentID.String()+"/proof", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	paymentRouter(payments, new(MockPaymentAdminService), customerSession()).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeData[paymentapp.PaymentDTO](t, w)
	assert.Equal(t, "/uploads/proofs/x.png", got.ProofURL)
	payments.AssertExpectations(t)
}

func TestPaymentHandler_UploadProof_MissingFile(t *testing.T) {
	payments := new(MockPaymentService)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "hola"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/payments/"+uuid.NewString()+"/proof", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	paymentRouter(payments, new(MockPaymentAdminService), customerSession()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_UploadProof_RejectedType(t *testing.T) {
	payments := new(MockPaymentService)
	payments.On("UploadProof", mock.Anything, mock.Anything, mock.Anything, mock.Anything, "text/plain", mock.Anything).
		Return(nil, shared.NewDomainError("UNSUPPORTED_FILE_TYPE", "File type not allowed: text/plain"))

	body, ct := multipartProof(t, "text/plain", []byte("hola"))
	req := httptest.NewRequest(http.MethodPost, "/payments/"+uuid.NewString()+"/proof", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	paymentRouter(payments, new(MockPaymentAdminService), customerSession()).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestPaymentAdminHandler_Review(t *testing.T) {
	admin := new(MockPaymentAdminService)
	id := uuid.New()
	admin.On("Approve", mock.Anything, mock.Anything, id, paymentapp.ReviewRequest{Notes: "ok"}).
		Return(&paymentapp.PaymentDTO{ID: id, Status: "COMPLETED"}, nil)
	admin.On("Reject", mock.Anything, mock.Anything, id, paymentapp.ReviewRequest{}).
		Return(nil, shared.NewDomainError(shared.CodeInvalidStateTransition, "Payment is not pending"))
	r := paymentRouter(new(MockPaymentService), admin, operatorSession())

	w := doJSON(r, http.MethodPost, "/admin/payments/"+id.String()+"/approve", map[string]any{"notes": "ok"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "COMPLETED", decodeData[paymentapp.PaymentDTO](t, w).Status)

	w = doJSON(r, http.MethodPost, "/admin/payments/"+id.String()+"/reject", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	admin.AssertExpectations(t)
}

func TestPaymentAdminHandler_Create(t *testing.T) {
	admin := new(MockPaymentAdminService)
	orderID := uuid.New()
	amount := decimal.RequireFromString("59.80")
	admin.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(req paymentapp.AdminCreatePaymentRequest) bool {
		return req.OrderID == orderID && req.Amount != nil && req.Amount.Equal(amount) && req.Notes == "efectivo"
	})).Return(&paymentapp.PaymentDTO{ID: uuid.New(), OrderID: orderID, Status: "COMPLETED", Origin: "OPERATOR"}, nil)

	w := doJSON(paymentRouter(new(MockPaymentService), admin, operatorSession()), http.MethodPost, "/admin/payments",
		`{"order_id":"`+orderID.String()+`","amount":"59.80","notes":"efectivo"}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	admin.AssertExpectations(t)
}
