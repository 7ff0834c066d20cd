package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"elitetransport-backend/internal/apperr"
	"elitetransport-backend/internal/models"
)

type stubFinalizer struct {
	resp *models.BookingConfirmation
	err  error
}

func (s *stubFinalizer) Finalize(ctx context.Context, req *models.BookingRequest) (*models.BookingConfirmation, error) {
	return s.resp, s.err
}

func TestBookingHandler_Confirm_InvalidJSON(t *testing.T) {
	handler := NewBookingHandler(&stubFinalizer{})

	req := httptest.NewRequest(http.MethodPost, "/api/booking/confirm", bytes.NewBufferString(`not-json`))
	rr := httptest.NewRecorder()

	handler.Confirm(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestBookingHandler_Confirm_PropagatesServiceError(t *testing.T) {
	handler := NewBookingHandler(&stubFinalizer{err: apperr.New(apperr.SeatAlreadyBooked, "seat 4 was already booked")})

	body := `{"busId":1,"seats":["4"],"email":"a@b.com","phone":"0550000000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/booking/confirm", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	handler.Confirm(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestBookingHandler_Confirm_Success(t *testing.T) {
	handler := NewBookingHandler(&stubFinalizer{resp: &models.BookingConfirmation{
		BookingID: "ELITE-1", Status: "confirmed", Seats: []string{"4"},
	}})

	body := `{"busId":1,"seats":["4"],"email":"a@b.com","phone":"0550000000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/booking/confirm", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()

	handler.Confirm(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var resp models.BookingConfirmation
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.BookingID != "ELITE-1" {
		t.Fatalf("expected booking id ELITE-1, got %s", resp.BookingID)
	}
}
