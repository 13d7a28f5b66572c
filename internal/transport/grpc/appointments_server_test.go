package grpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"vitta/backend/internal/calendar"
	"vitta/backend/internal/domain"
	"vitta/backend/internal/service/appointments"
	"vitta/backend/internal/store"
)

type fakeAppointmentsService struct {
	listFn   func(ctx context.Context) ([]domain.Appointment, error)
	getFn    func(ctx context.Context, id string) (domain.Appointment, error)
	acceptFn func(ctx context.Context, id string) (appointments.Result, error)
	cancelFn func(ctx context.Context, id string) (appointments.Result, error)
	resetFn  func(ctx context.Context) ([]domain.Appointment, appointments.Message, error)
}

func (f *fakeAppointmentsService) List(ctx context.Context) ([]domain.Appointment, error) {
	if f.listFn == nil {
		panic("List not configured")
	}
	return f.listFn(ctx)
}

func (f *fakeAppointmentsService) Get(ctx context.Context, id string) (domain.Appointment, error) {
	if f.getFn == nil {
		panic("Get not configured")
	}
	return f.getFn(ctx, id)
}

func (f *fakeAppointmentsService) Accept(ctx context.Context, id string) (appointments.Result, error) {
	if f.acceptFn == nil {
		panic("Accept not configured")
	}
	return f.acceptFn(ctx, id)
}

func (f *fakeAppointmentsService) Cancel(ctx context.Context, id string) (appointments.Result, error) {
	if f.cancelFn == nil {
		panic("Cancel not configured")
	}
	return f.cancelFn(ctx, id)
}

func (f *fakeAppointmentsService) Reset(ctx context.Context) ([]domain.Appointment, appointments.Message, error) {
	if f.resetFn == nil {
		panic("Reset not configured")
	}
	return f.resetFn(ctx)
}

func acceptedResult(id string) appointments.Result {
	return appointments.Result{
		Appointment: domain.Appointment{
			ID:              id,
			PatientID:       "João Silva",
			Status:          domain.AppointmentStatusAccepted,
			CalendarEventID: domain.StringPtr("evt-1"),
		},
		Message: appointments.Message{Kind: appointments.MessageSuccess, Text: "Consulta de João Silva aceita!"},
	}
}

func TestAcceptAppointment_InvalidArgument(t *testing.T) {
	srv := NewAppointmentsServer(&fakeAppointmentsService{}, slog.Default())

	for _, req := range []*wrapperspb.StringValue{nil, wrapperspb.String("  ")} {
		_, err := srv.AcceptAppointment(context.Background(), req)
		if status.Code(err) != codes.InvalidArgument {
			t.Fatalf("code = %s, want %s", status.Code(err), codes.InvalidArgument)
		}
	}
}

func TestAcceptAppointment_ReplyCarriesAppointmentAndMessage(t *testing.T) {
	srv := NewAppointmentsServer(&fakeAppointmentsService{
		acceptFn: func(ctx context.Context, id string) (appointments.Result, error) {
			if id != "appt-1" {
				t.Fatalf("id = %q, want %q", id, "appt-1")
			}
			return acceptedResult(id), nil
		},
	}, slog.Default())

	reply, err := srv.AcceptAppointment(context.Background(), wrapperspb.String(" appt-1 "))
	if err != nil {
		t.Fatalf("AcceptAppointment error: %v", err)
	}

	appt := reply.GetFields()["appointment"].GetStructValue().GetFields()
	if got := appt["calendarEventId"].GetStringValue(); got != "evt-1" {
		t.Fatalf("calendarEventId = %q, want %q", got, "evt-1")
	}
	if got := appt["status"].GetStringValue(); got != "accepted" {
		t.Fatalf("status = %q, want %q", got, "accepted")
	}
	msg := reply.GetFields()["message"].GetStructValue().GetFields()
	if msg["type"].GetStringValue() != "success" || msg["text"].GetStringValue() != "Consulta de João Silva aceita!" {
		t.Fatalf("message = %v", msg)
	}
}

func TestAppointmentsServer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{name: "permission", err: fmt.Errorf("%w: status denied", calendar.ErrPermissionDenied), code: codes.PermissionDenied, msg: "Permissão de calendário negada."},
		{name: "no calendar", err: calendar.ErrNoWritableCalendar, code: codes.FailedPrecondition, msg: "Nenhum calendário disponível para escrita."},
		{name: "not found", err: fmt.Errorf("appointment x: %w", store.ErrNotFound), code: codes.NotFound},
		{name: "transition", err: &appointments.TransitionError{ID: "x", Action: "accept", Status: domain.AppointmentStatusRejected}, code: codes.FailedPrecondition, msg: "cannot accept appointment x in status rejected"},
		{name: "busy", err: fmt.Errorf("%w: x", appointments.ErrBusy), code: codes.Aborted},
		{name: "internal", err: errors.New("disk full"), code: codes.Internal, msg: "Falha ao aceitar consulta."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewAppointmentsServer(&fakeAppointmentsService{
				acceptFn: func(ctx context.Context, id string) (appointments.Result, error) {
					return appointments.Result{}, tt.err
				},
			}, slog.Default())

			_, err := srv.AcceptAppointment(context.Background(), wrapperspb.String("x"))
			st, ok := status.FromError(err)
			if !ok {
				t.Fatalf("error %v is not a status", err)
			}
			if st.Code() != tt.code {
				t.Fatalf("code = %s, want %s", st.Code(), tt.code)
			}
			if tt.msg != "" && st.Message() != tt.msg {
				t.Fatalf("message = %q, want %q", st.Message(), tt.msg)
			}
		})
	}
}

func TestCancelAppointment_InternalMessage(t *testing.T) {
	srv := NewAppointmentsServer(&fakeAppointmentsService{
		cancelFn: func(ctx context.Context, id string) (appointments.Result, error) {
			return appointments.Result{}, errors.New("offline")
		},
	}, slog.Default())

	_, err := srv.CancelAppointment(context.Background(), wrapperspb.String("x"))
	if st, _ := status.FromError(err); st.Code() != codes.Internal || st.Message() != "Falha ao cancelar consulta." {
		t.Fatalf("status = %v", st)
	}
}

func TestListAppointments_EmptyListIsArray(t *testing.T) {
	srv := NewAppointmentsServer(&fakeAppointmentsService{
		listFn: func(ctx context.Context) ([]domain.Appointment, error) { return nil, nil },
	}, slog.Default())

	reply, err := srv.ListAppointments(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ListAppointments error: %v", err)
	}
	list := reply.GetFields()["appointments"].GetListValue()
	if list == nil || len(list.GetValues()) != 0 {
		t.Fatalf("appointments = %v, want empty list", reply.GetFields()["appointments"])
	}
}

func TestResetAppointments_ReturnsMessage(t *testing.T) {
	srv := NewAppointmentsServer(&fakeAppointmentsService{
		resetFn: func(ctx context.Context) ([]domain.Appointment, appointments.Message, error) {
			return []domain.Appointment{{ID: "appt-1"}}, appointments.Message{Kind: appointments.MessageInfo, Text: "Lista de agendamentos resetada."}, nil
		},
	}, slog.Default())

	reply, err := srv.ResetAppointments(context.Background(), &emptypb.Empty{})
	if err != nil {
		t.Fatalf("ResetAppointments error: %v", err)
	}
	if n := len(reply.GetFields()["appointments"].GetListValue().GetValues()); n != 1 {
		t.Fatalf("len(appointments) = %d, want 1", n)
	}
	if got := reply.GetFields()["message"].GetStructValue().GetFields()["type"].GetStringValue(); got != "info" {
		t.Fatalf("message type = %q, want %q", got, "info")
	}
}

func dialBufconn(t *testing.T, svc appointmentsService, opts ...grpc.ServerOption) *AppointmentsServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterAppointmentsServiceServer(s, NewAppointmentsServer(svc, slog.Default()))
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return NewAppointmentsServiceClient(conn)
}

func TestAppointmentsService_OverTheWire(t *testing.T) {
	client := dialBufconn(t, &fakeAppointmentsService{
		getFn: func(ctx context.Context, id string) (domain.Appointment, error) {
			if id == "appt-1" {
				return domain.Appointment{ID: id, Status: domain.AppointmentStatusPending}, nil
			}
			return domain.Appointment{}, store.ErrNotFound
		},
		acceptFn: func(ctx context.Context, id string) (appointments.Result, error) {
			return acceptedResult(id), nil
		},
	}, grpc.ChainUnaryInterceptor(RateLimitInterceptor(NewRateLimiter(0.001, 1))))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reply, err := client.GetAppointment(ctx, "appt-1")
	if err != nil {
		t.Fatalf("GetAppointment error: %v", err)
	}
	if got := reply.GetFields()["appointment"].GetStructValue().GetFields()["status"].GetStringValue(); got != "pending" {
		t.Fatalf("status = %q, want %q", got, "pending")
	}

	if _, err := client.GetAppointment(ctx, "missing"); status.Code(err) != codes.NotFound {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.NotFound)
	}

	if _, err := client.AcceptAppointment(ctx, "appt-1"); err != nil {
		t.Fatalf("AcceptAppointment error: %v", err)
	}
	if _, err := client.AcceptAppointment(ctx, "appt-1"); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("code = %s, want %s", status.Code(err), codes.ResourceExhausted)
	}
	if _, err := client.GetAppointment(ctx, "appt-1"); err != nil {
		t.Fatalf("reads should not be limited: %v", err)
	}
}
