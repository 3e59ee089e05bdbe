package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ridersroast/motocafe-backend/internal/orders"
	"github.com/ridersroast/motocafe-backend/pkg/enums"
	pkgerrors "github.com/ridersroast/motocafe-backend/pkg/errors"
)

type stubOrdersService struct {
	listResult  *orders.ListResult
	listInput   *orders.ListInput
	order       *orders.OrderDTO
	createInput *orders.CreateOrderInput
	deletedID   int64
	err         error
}

func (s *stubOrdersService) List(ctx context.Context, input orders.ListInput) (*orders.ListResult, error) {
	s.listInput = &input
	return s.listResult, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, id int64) (*orders.OrderDTO, error) {
	return s.order, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, id int64, status enums.OrderStatus) (*orders.OrderDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := *s.order
	out.Status = status
	return &out, nil
}

func (s *stubOrdersService) Delete(ctx context.Context, id int64) error {
	s.deletedID = id
	return s.err
}

func (s *stubOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*orders.OrderDTO, error) {
	s.createInput = &input
	return s.order, s.err
}

func withOrderID(r *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

func sampleOrder(id int64) *orders.OrderDTO {
	return &orders.OrderDTO{
		ID:                id,
		Status:            enums.OrderStatusPaid,
		Paid:              true,
		Provider:          enums.PaymentProviderStripe,
		ExternalPaymentID: "pi_123",
		TotalCents:        5600,
		PayerName:         "Riley Tran",
		PayerEmail:        "riley@example.com",
	}
}

func TestAdminListOrdersPassesFilters(t *testing.T) {
	svc := &stubOrdersService{listResult: &orders.ListResult{
		Orders:     []orders.OrderDTO{*sampleOrder(7)},
		NextCursor: "cursor-7",
	}}
	handler := AdminListOrders(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?limit=25&cursor=cursor-9&status=shipped", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.listInput == nil {
		t.Fatalf("expected list input")
	}
	if svc.listInput.Limit != 25 || svc.listInput.Cursor != "cursor-9" {
		t.Fatalf("unexpected page input %+v", svc.listInput)
	}
	if svc.listInput.Status == nil || *svc.listInput.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped status filter got %v", svc.listInput.Status)
	}

	var envelope struct {
		Data orders.ListResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.NextCursor != "cursor-7" {
		t.Fatalf("expected next cursor in response got %q", envelope.Data.NextCursor)
	}
}

func TestAdminListOrdersRejectsUnknownStatus(t *testing.T) {
	svc := &stubOrdersService{}
	handler := AdminListOrders(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?status=refunded", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.listInput != nil {
		t.Fatalf("service must not be called for an unknown status")
	}
}

func TestAdminGetOrderRejectsBadID(t *testing.T) {
	handler := AdminGetOrder(&stubOrdersService{order: sampleOrder(7)}, nil)

	req := withOrderID(httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/abc", nil), "abc")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminGetOrderNotFound(t *testing.T) {
	handler := AdminGetOrder(&stubOrdersService{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}, nil)

	req := withOrderID(httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders/99", nil), "99")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatusSuccess(t *testing.T) {
	svc := &stubOrdersService{order: sampleOrder(7)}
	handler := AdminUpdateOrderStatus(svc, nil)

	req := withOrderID(httptest.NewRequest(http.MethodPut, "/api/v1/admin/orders/7", bytes.NewReader([]byte(`{"status":"shipped"}`))), "7")
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data orders.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped status got %s", envelope.Data.Status)
	}
}

func TestAdminUpdateOrderStatusMapsServiceConflict(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "canceled orders cannot ship")}
	handler := AdminUpdateOrderStatus(svc, nil)

	req := withOrderID(httptest.NewRequest(http.MethodPut, "/api/v1/admin/orders/7", bytes.NewReader([]byte(`{"status":"shipped"}`))), "7")
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestAdminDeleteOrderSuccess(t *testing.T) {
	svc := &stubOrdersService{}
	handler := AdminDeleteOrder(svc, nil)

	req := withOrderID(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/orders/7", nil), "7")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.deletedID != 7 {
		t.Fatalf("expected delete for order 7 got %d", svc.deletedID)
	}
}

func TestAdminCreateOrderSuccess(t *testing.T) {
	productID := uuid.New()
	svc := &stubOrdersService{order: sampleOrder(10)}
	handler := AdminCreateOrder(svc, nil)

	body := []byte(fmt.Sprintf(`{
		"lines":[{"product_id":%q,"qty":1}],
		"provider":"square",
		"external_payment_id":"term_555",
		"payer_name":"Walk In",
		"payer_email":"walkin@example.com"
	}`, productID))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if svc.createInput == nil {
		t.Fatalf("expected create input")
	}
	if svc.createInput.Provider != enums.PaymentProviderSquare || svc.createInput.ExternalPaymentID != "term_555" {
		t.Fatalf("unexpected create input %+v", svc.createInput)
	}
	if len(svc.createInput.Lines) != 1 || svc.createInput.Lines[0].ProductID != productID {
		t.Fatalf("unexpected lines %+v", svc.createInput.Lines)
	}
}

func TestAdminCreateOrderRejectsMissingPayment(t *testing.T) {
	svc := &stubOrdersService{}
	handler := AdminCreateOrder(svc, nil)

	body := []byte(fmt.Sprintf(`{
		"lines":[{"product_id":%q,"qty":1}],
		"provider":"square",
		"payer_name":"Walk In",
		"payer_email":"walkin@example.com"
	}`, uuid.New()))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.createInput != nil {
		t.Fatalf("service must not be called when external payment id is missing")
	}
}
