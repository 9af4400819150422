package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/JustIkra/tg-restorants-bot/internal/confirm"
	"github.com/JustIkra/tg-restorants-bot/internal/enum"
	"github.com/JustIkra/tg-restorants-bot/internal/events"
	"go.uber.org/zap"
)

// ErrInvalidTarget is returned for a deletion target with a missing ID.
var ErrInvalidTarget = errors.New("invalid deletion target")

// Confirmer asks the operator to approve an action.
// Satisfied by *confirm.Bridge; narrow interface for testability.
type Confirmer interface {
	Confirm(ctx context.Context, req confirm.Request) (bool, error)
}

// AdminBackend performs destructive catalog and user operations.
// Satisfied by *backend.Client; narrow interface for testability.
type AdminBackend interface {
	DeleteCafe(ctx context.Context, token string, cafeID int64) error
	DeleteCombo(ctx context.Context, token string, cafeID, comboID int64) error
	DeleteMenuItem(ctx context.Context, token string, cafeID, itemID int64) error
	DeleteUser(ctx context.Context, token string, tgid int64) error
}

// TargetKind names what a Target deletes.
type TargetKind string

const (
	TargetCafe     TargetKind = "cafe"
	TargetCombo    TargetKind = "combo"
	TargetMenuItem TargetKind = "menu_item"
	TargetUser     TargetKind = "user"
)

// Target identifies one deletion. CafeID is the parent for combos and menu
// items.
type Target struct {
	Kind   TargetKind `json:"kind"`
	ID     int64      `json:"id"`
	CafeID int64      `json:"cafe_id,omitempty"`
	// ReturnFocus is the console element to focus once the prompt closes.
	ReturnFocus string `json:"-"`
}

// DeleteResult reports whether the operator approved the deletion.
type DeleteResult struct {
	Confirmed bool   `json:"confirmed"`
	Target    Target `json:"target"`
}

// AdminService runs confirmation-guarded destructive actions.
type AdminService struct {
	backend   AdminBackend
	publisher events.Publisher
	logger    *zap.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(b AdminBackend, publisher events.Publisher, logger *zap.Logger) *AdminService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{backend: b, publisher: publisher, logger: logger}
}

// Delete asks the operator through c and, only on approval, deletes the
// target. A declined prompt is not an error.
func (s *AdminService) Delete(ctx context.Context, c Confirmer, token string, t Target) (*DeleteResult, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	ok, err := c.Confirm(ctx, promptFor(t))
	if err != nil {
		return nil, fmt.Errorf("confirm %s deletion: %w", t.Kind, err)
	}
	if !ok {
		s.logger.Info("deletion cancelled", zap.String("kind", string(t.Kind)), zap.Int64("id", t.ID))
		return &DeleteResult{Confirmed: false, Target: t}, nil
	}

	if err := s.exec(ctx, token, t); err != nil {
		return nil, fmt.Errorf("delete %s %d: %w", t.Kind, t.ID, err)
	}

	if err := s.publisher.Publish(ctx, t.eventType(), strconv.FormatInt(t.ID, 10), t); err != nil {
		s.logger.Warn("deletion event lost", zap.String("kind", string(t.Kind)), zap.Int64("id", t.ID), zap.Error(err))
	}
	s.logger.Info("deleted", zap.String("kind", string(t.Kind)), zap.Int64("id", t.ID))
	return &DeleteResult{Confirmed: true, Target: t}, nil
}

func (s *AdminService) exec(ctx context.Context, token string, t Target) error {
	switch t.Kind {
	case TargetCafe:
		return s.backend.DeleteCafe(ctx, token, t.ID)
	case TargetCombo:
		return s.backend.DeleteCombo(ctx, token, t.CafeID, t.ID)
	case TargetMenuItem:
		return s.backend.DeleteMenuItem(ctx, token, t.CafeID, t.ID)
	case TargetUser:
		return s.backend.DeleteUser(ctx, token, t.ID)
	}
	return ErrInvalidTarget
}

func (t Target) validate() error {
	if t.ID <= 0 {
		return ErrInvalidTarget
	}
	switch t.Kind {
	case TargetCafe, TargetUser:
		return nil
	case TargetCombo, TargetMenuItem:
		if t.CafeID <= 0 {
			return ErrInvalidTarget
		}
		return nil
	}
	return ErrInvalidTarget
}

func (t Target) eventType() string {
	switch t.Kind {
	case TargetCafe:
		return enum.EventCafeDeleted
	case TargetCombo:
		return enum.EventComboDeleted
	case TargetMenuItem:
		return enum.EventMenuItemDeleted
	}
	return enum.EventUserDeleted
}

func promptFor(t Target) confirm.Request {
	req := confirm.Request{ConfirmLabel: "Удалить", ReturnFocus: t.ReturnFocus}
	switch t.Kind {
	case TargetCafe:
		req.Title = "Удалить кафе?"
		req.Message = fmt.Sprintf("Кафе #%d будет удалено вместе с меню и комбо.", t.ID)
	case TargetCombo:
		req.Title = "Удалить комбо?"
		req.Message = fmt.Sprintf("Комбо #%d будет удалено из кафе #%d.", t.ID, t.CafeID)
	case TargetMenuItem:
		req.Title = "Удалить блюдо?"
		req.Message = fmt.Sprintf("Блюдо #%d будет удалено из меню кафе #%d.", t.ID, t.CafeID)
	case TargetUser:
		req.Title = "Удалить пользователя?"
		req.Message = fmt.Sprintf("Пользователь %d потеряет доступ к заказам.", t.ID)
	}
	return req
}
