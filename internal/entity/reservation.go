// Structure of Reservation Model in Saffron.

package entity

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// Saved in the store under the "reservations" collection, keyed by ID.
type Reservation struct {
	ID           string            `json:"id" valid:"-"`
	Name         string            `json:"name" valid:"required,stringlength(2|60),notblank~name:Name cannot contain only spaces"`
	Phone        string            `json:"phone" valid:"required,phone~phone:Invalid phone number"`
	Email        string            `json:"email,omitempty" valid:"optional,email~email:Invalid email address"`
	Guests       int               `json:"guests" valid:"required,range(1|20)~guests:Guests must be between 1 and 20"`
	Date         string            `json:"date" valid:"required,isodate~date:Date must be YYYY-MM-DD"`
	Time         string            `json:"time" valid:"required,clock~time:Time must be HH:MM"`
	Status       ReservationStatus `json:"status" valid:"-"`
	Notes        string            `json:"notes,omitempty" valid:"optional,stringlength(0|300)~notes:Notes cannot exceed 300 characters"`
	CancelReason string            `json:"cancel_reason,omitempty" valid:"-"`
	CreatedAt    time.Time         `json:"created_at" valid:"-"`
	UpdatedAt    time.Time         `json:"updated_at" valid:"-"`
	CancelledAt  *time.Time        `json:"cancelled_at,omitempty" valid:"-"`
}

// Cancellable reports whether the reservation may still transition to cancelled.
func (r Reservation) Cancellable() bool {
	return r.Status == ReservationPending || r.Status == ReservationConfirmed
}

// ReservationSummary is the subset of a reservation pushed to admin clients.
type ReservationSummary struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Guests    int               `json:"guests"`
	Date      string            `json:"date"`
	Time      string            `json:"time"`
	Status    ReservationStatus `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
}

func SummarizeReservation(r Reservation) ReservationSummary {
	return ReservationSummary{
		ID:        r.ID,
		Name:      r.Name,
		Guests:    r.Guests,
		Date:      r.Date,
		Time:      r.Time,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

func SummarizeReservationCancellation(r Reservation) CancellationSummary {
	return CancellationSummary{ID: r.ID, Status: string(r.Status), Reason: r.CancelReason, CancelledAt: r.CancelledAt}
}
