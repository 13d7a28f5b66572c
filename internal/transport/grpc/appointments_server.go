package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"vitta/backend/internal/calendar"
	"vitta/backend/internal/domain"
	"vitta/backend/internal/service/appointments"
	"vitta/backend/internal/store"
)

type AppointmentsServer struct {
	svc appointmentsService
	log *slog.Logger
}

type appointmentsService interface {
	List(ctx context.Context) ([]domain.Appointment, error)
	Get(ctx context.Context, id string) (domain.Appointment, error)
	Accept(ctx context.Context, id string) (appointments.Result, error)
	Cancel(ctx context.Context, id string) (appointments.Result, error)
	Reset(ctx context.Context) ([]domain.Appointment, appointments.Message, error)
}

var _ AppointmentsServiceServer = (*AppointmentsServer)(nil)

func NewAppointmentsServer(svc appointmentsService, log *slog.Logger) *AppointmentsServer {
	if log == nil {
		log = slog.Default()
	}
	return &AppointmentsServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.appointments")),
	}
}

type messageReply struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type appointmentReply struct {
	Appointment domain.Appointment `json:"appointment"`
	Message     *messageReply      `json:"message,omitempty"`
}

type listReply struct {
	Appointments []domain.Appointment `json:"appointments"`
	Message      *messageReply        `json:"message,omitempty"`
}

func (s *AppointmentsServer) ListAppointments(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "ListAppointments"))

	appts, err := s.svc.List(ctx)
	if err != nil {
		return nil, s.statusError(log, err, "internal error")
	}
	log.Debug("appointments listed", slog.Int("count", len(appts)))
	return toStruct(listReply{Appointments: nonNil(appts)})
}

func (s *AppointmentsServer) GetAppointment(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "GetAppointment"))

	id, err := requestID(log, req)
	if err != nil {
		return nil, err
	}
	appt, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, s.statusError(log.With(slog.String("appointment_id", id)), err, "internal error")
	}
	return toStruct(appointmentReply{Appointment: appt})
}

func (s *AppointmentsServer) AcceptAppointment(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "AcceptAppointment"))

	id, err := requestID(log, req)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Accept(ctx, id)
	if err != nil {
		return nil, s.statusError(log.With(slog.String("appointment_id", id)), err, "Falha ao aceitar consulta.")
	}

	log.Info("appointment accepted",
		slog.String("appointment_id", id),
		slog.String("event_id", res.Appointment.EventID()),
	)
	return toStruct(appointmentReply{Appointment: res.Appointment, Message: toMessageReply(res.Message)})
}

func (s *AppointmentsServer) CancelAppointment(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "CancelAppointment"))

	id, err := requestID(log, req)
	if err != nil {
		return nil, err
	}
	res, err := s.svc.Cancel(ctx, id)
	if err != nil {
		return nil, s.statusError(log.With(slog.String("appointment_id", id)), err, "Falha ao cancelar consulta.")
	}

	log.Info("appointment cancelled", slog.String("appointment_id", id))
	return toStruct(appointmentReply{Appointment: res.Appointment, Message: toMessageReply(res.Message)})
}

func (s *AppointmentsServer) ResetAppointments(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	log := s.log.With(slog.String("rpc", "ResetAppointments"))

	appts, msg, err := s.svc.Reset(ctx)
	if err != nil {
		return nil, s.statusError(log, err, "Falha ao resetar mock.")
	}

	log.Info("appointments reset", slog.Int("count", len(appts)))
	return toStruct(listReply{Appointments: nonNil(appts), Message: toMessageReply(msg)})
}

func requestID(log *slog.Logger, req *wrapperspb.StringValue) (string, error) {
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return "", status.Error(codes.InvalidArgument, "request is required")
	}
	id := strings.TrimSpace(req.GetValue())
	if id == "" {
		log.Warn("invalid request", slog.String("reason", "missing_id"))
		return "", status.Error(codes.InvalidArgument, "id is required")
	}
	return id, nil
}

// statusError maps service and calendar errors to gRPC codes with messages
// fit for the end user. internalMsg is used for anything unclassified.
func (s *AppointmentsServer) statusError(log *slog.Logger, err error, internalMsg string) error {
	var vErr *appointments.ValidationError
	var tErr *appointments.TransitionError

	switch {
	case errors.Is(err, calendar.ErrPermissionDenied):
		log.Info("calendar permission denied", slog.Any("err", err))
		return status.Error(codes.PermissionDenied, "Permissão de calendário negada.")
	case errors.Is(err, calendar.ErrNoWritableCalendar):
		log.Info("no writable calendar", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, "Nenhum calendário disponível para escrita.")
	case errors.Is(err, store.ErrNotFound):
		log.Info("appointment not found", slog.Any("err", err))
		return status.Error(codes.NotFound, "Consulta não encontrada.")
	case errors.As(err, &vErr):
		log.Warn("invalid request", slog.Any("err", err))
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.As(err, &tErr):
		log.Info("transition not allowed", slog.Any("err", err))
		return status.Error(codes.FailedPrecondition, tErr.Error())
	case errors.Is(err, appointments.ErrBusy):
		log.Info("appointment busy", slog.Any("err", err))
		return status.Error(codes.Aborted, "Outra operação está em andamento para esta consulta.")
	default:
		log.Error("request failed", slog.Any("err", err))
		return status.Error(codes.Internal, internalMsg)
	}
}

func toMessageReply(m appointments.Message) *messageReply {
	if m.Text == "" {
		return nil
	}
	return &messageReply{Type: string(m.Kind), Text: m.Text}
}

func nonNil(appts []domain.Appointment) []domain.Appointment {
	if appts == nil {
		return []domain.Appointment{}
	}
	return appts
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode reply: %v", err))
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode reply: %v", err))
	}
	return out, nil
}
