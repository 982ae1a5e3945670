package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/bookflow/internal/app"
	"github.com/neomorfeo/bookflow/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05Z"

// ReconcileEnqueuer schedules a reconciliation sweep for the tenant and
// user in ctx.
type ReconcileEnqueuer interface {
	Enqueue(ctx context.Context) (int64, error)
}

// Services bundles the use cases exposed over HTTP. Calendar, Publisher and
// Queue are optional.
type Services struct {
	Bookings  *app.BookingService
	Resources *app.ResourceService
	Users     *app.UserService
	Calendar  *app.CalendarSync
	Publisher domain.EventPublisher
	Queue     ReconcileEnqueuer
}

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	ID              string `json:"id" doc:"Unique identifier"`
	ResourceID      string `json:"resource_id" doc:"Booked resource"`
	Start           string `json:"start" doc:"Slot start (ISO 8601, UTC)"`
	End             string `json:"end" doc:"Slot end (ISO 8601, UTC)"`
	Status          string `json:"status" doc:"Lifecycle state"`
	ExternalEventID string `json:"external_event_id,omitempty" doc:"Linked external calendar event"`
	CreatedAt       string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:              string(b.ID()),
		ResourceID:      string(b.ResourceID()),
		Start:           b.TimeSlot().Start().UTC().Format(timeLayout),
		End:             b.TimeSlot().End().UTC().Format(timeLayout),
		Status:          string(b.Status()),
		ExternalEventID: b.ExternalEventID(),
		CreatedAt:       b.CreatedAt().UTC().Format(timeLayout),
	}
}

func toBookingResponses(bookings []*domain.Booking) []BookingResponse {
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return resp
}

// ResourceResponse is the API representation of a resource.
type ResourceResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	Name        string `json:"name" doc:"Display name"`
	Description string `json:"description,omitempty" doc:"Free-form description"`
	CreatedAt   string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toResourceResponse(r domain.Resource) ResourceResponse {
	return ResourceResponse{
		ID:          string(r.ID),
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC().Format(timeLayout),
	}
}

// UserResponse is the API representation of a user. Calendar tokens are
// never returned.
type UserResponse struct {
	ID             string `json:"id" doc:"Unique identifier"`
	Email          string `json:"email" doc:"Email address"`
	Name           string `json:"name" doc:"Display name"`
	CalendarLinked bool   `json:"calendar_linked" doc:"Whether an external calendar is linked"`
	CreatedAt      string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:             string(u.ID),
		Email:          u.Email,
		Name:           u.Name,
		CalendarLinked: u.CalendarLinked(),
		CreatedAt:      u.CreatedAt.UTC().Format(timeLayout),
	}
}

// --- Resources ---

type CreateResourceInput struct {
	Body struct {
		Name        string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Description string `json:"description,omitempty" maxLength:"1000" doc:"Free-form description"`
	}
}

type CreateResourceOutput struct {
	Body ResourceResponse
}

type ListResourcesOutput struct {
	Body []ResourceResponse
}

// --- Users ---

type RegisterUserInput struct {
	Body struct {
		Email string `json:"email" format:"email" maxLength:"255" doc:"Email address, unique per tenant"`
		Name  string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	}
}

type UserOutput struct {
	Body UserResponse
}

type LinkCalendarInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body struct {
		AccessToken  string    `json:"access_token" minLength:"1" doc:"OAuth access token"`
		RefreshToken string    `json:"refresh_token,omitempty" doc:"OAuth refresh token"`
		Expiry       time.Time `json:"expiry,omitempty" required:"false" doc:"Access token expiry (ISO 8601)"`
	}
}

type UnlinkCalendarInput struct {
	ID string `path:"id" doc:"User ID"`
}

// --- Bookings ---

type CreateBookingInput struct {
	Body struct {
		ResourceID string    `json:"resource_id" minLength:"1" doc:"Resource to book"`
		Start      time.Time `json:"start" doc:"Slot start (ISO 8601)"`
		End        time.Time `json:"end" doc:"Slot end (ISO 8601)"`
	}
}

type BookingOutput struct {
	Body BookingResponse
}

type CancelBookingInput struct {
	ID string `path:"id" doc:"Booking ID"`
}

type ListBookingsOutput struct {
	Body []BookingResponse
}

// --- Sync ---

type SyncInput struct {
	Async bool `query:"async" required:"false" doc:"Queue the sweep instead of running it inline"`
}

type SyncResponse struct {
	Report   *app.ReconcileReport `json:"report,omitempty" doc:"Outcome of an inline sweep"`
	Bookings []BookingResponse    `json:"bookings,omitempty" doc:"Bookings after the sweep"`
	JobID    int64                `json:"job_id,omitempty" doc:"Queued job id when async"`
}

type SyncOutput struct {
	Status int
	Body   SyncResponse
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerResources(api, svc)
	registerUsers(api, svc)
	registerBookings(api, svc)
}

func registerResources(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "create-resource",
		Method:      http.MethodPost,
		Path:        "/api/v1/resources",
		Summary:     "Create a bookable resource",
		Tags:        []string{"Resources"},
	}, func(ctx context.Context, input *CreateResourceInput) (*CreateResourceOutput, error) {
		r, err := svc.Resources.Create(ctx, input.Body.Name, input.Body.Description)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CreateResourceOutput{Body: toResourceResponse(r)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-resources",
		Method:      http.MethodGet,
		Path:        "/api/v1/resources",
		Summary:     "List resources",
		Tags:        []string{"Resources"},
	}, func(ctx context.Context, _ *struct{}) (*ListResourcesOutput, error) {
		resources, err := svc.Resources.List(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]ResourceResponse, len(resources))
		for i, r := range resources {
			resp[i] = toResourceResponse(r)
		}
		return &ListResourcesOutput{Body: resp}, nil
	})
}

func registerUsers(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "register-user",
		Method:      http.MethodPost,
		Path:        "/api/v1/users",
		Summary:     "Register a user",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *RegisterUserInput) (*UserOutput, error) {
		u, err := svc.Users.Register(ctx, input.Body.Email, input.Body.Name)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UserOutput{Body: toUserResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "link-calendar",
		Method:      http.MethodPut,
		Path:        "/api/v1/users/{id}/calendar",
		Summary:     "Link an external calendar",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *LinkCalendarInput) (*UserOutput, error) {
		creds := domain.CalendarCredentials{
			AccessToken:  input.Body.AccessToken,
			RefreshToken: input.Body.RefreshToken,
			Expiry:       input.Body.Expiry,
		}
		u, err := svc.Users.LinkCalendar(ctx, domain.UserID(input.ID), creds)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UserOutput{Body: toUserResponse(u)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "unlink-calendar",
		Method:      http.MethodDelete,
		Path:        "/api/v1/users/{id}/calendar",
		Summary:     "Unlink the external calendar",
		Tags:        []string{"Users"},
	}, func(ctx context.Context, input *UnlinkCalendarInput) (*UserOutput, error) {
		u, err := svc.Users.UnlinkCalendar(ctx, domain.UserID(input.ID))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &UserOutput{Body: toUserResponse(u)}, nil
	})
}

func registerBookings(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "list-bookings",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings",
		Summary:     "List bookings",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, _ *struct{}) (*ListBookingsOutput, error) {
		bookings, err := svc.Bookings.List(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListBookingsOutput{Body: toBookingResponses(bookings)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-booking",
		Method:        http.MethodPost,
		Path:          "/api/v1/bookings",
		Summary:       "Book a resource",
		Tags:          []string{"Bookings"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateBookingInput) (*BookingOutput, error) {
		b, err := svc.Bookings.Create(ctx, domain.ResourceID(input.Body.ResourceID), input.Body.Start, input.Body.End)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-booking",
		Method:      http.MethodDelete,
		Path:        "/api/v1/bookings/{id}",
		Summary:     "Cancel a booking",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *CancelBookingInput) (*BookingOutput, error) {
		b, err := svc.Bookings.Cancel(ctx, domain.BookingID(input.ID))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BookingOutput{Body: toBookingResponse(b)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sync-bookings",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings/sync",
		Summary:     "Reconcile bookings with the external calendar",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *SyncInput) (*SyncOutput, error) {
		if svc.Calendar == nil {
			return nil, huma.Error503ServiceUnavailable("calendar sync is not enabled")
		}
		if err := requireLinkedCalendar(ctx, svc.Users); err != nil {
			return nil, toHumaError(err)
		}

		if input.Async {
			if svc.Queue == nil {
				return nil, huma.Error503ServiceUnavailable("background jobs are not enabled")
			}
			id, err := svc.Queue.Enqueue(ctx)
			if err != nil {
				return nil, toHumaError(err)
			}
			return &SyncOutput{Status: http.StatusAccepted, Body: SyncResponse{JobID: id}}, nil
		}

		report, err := svc.Calendar.ReconcileAll(ctx, svc.Publisher)
		if err != nil {
			return nil, toHumaError(err)
		}
		bookings, err := svc.Bookings.List(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SyncOutput{
			Status: http.StatusOK,
			Body:   SyncResponse{Report: &report, Bookings: toBookingResponses(bookings)},
		}, nil
	})
}

// requireLinkedCalendar fails unless the acting user has linked a calendar.
func requireLinkedCalendar(ctx context.Context, users *app.UserService) error {
	userID, err := domain.UserFromContext(ctx)
	if err != nil {
		return err
	}
	u, err := users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !u.CalendarLinked() {
		return domain.ErrCalendarNotLinked
	}
	return nil
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrBookingNotFound):
		return huma.Error404NotFound("booking not found")
	case errors.Is(err, domain.ErrResourceNotFound):
		return huma.Error404NotFound("resource not found")
	case errors.Is(err, domain.ErrUserNotFound):
		return huma.Error404NotFound("user not found")
	case errors.Is(err, domain.ErrNoTenant):
		return huma.Error401Unauthorized("missing " + TenantHeader + " header")
	case errors.Is(err, domain.ErrUnauthenticated):
		return huma.Error401Unauthorized("missing " + UserHeader + " header")
	case errors.Is(err, domain.ErrCalendarNotLinked):
		return huma.Error422UnprocessableEntity(err.Error())
	}

	var conflictErr *domain.ConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var rangeErr *domain.InvalidRangeError
	if errors.As(err, &rangeErr) {
		return huma.Error422UnprocessableEntity(rangeErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var policyErr *domain.CancellationNotAllowedError
	if errors.As(err, &policyErr) {
		return huma.Error422UnprocessableEntity(policyErr.Error())
	}

	if errors.Is(err, domain.ErrExternalUnavailable) {
		return huma.Error503ServiceUnavailable("external service unavailable")
	}

	return huma.Error500InternalServerError("internal server error")
}
