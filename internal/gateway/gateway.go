// Package gateway реализует машину состояний входа:
// аутентификация -> проверка привязки -> онбординг -> доступ.
// Session создаётся один раз на пользовательскую сессию и сбрасывается
// при логауте; никакого глобального изменяемого состояния.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// Состояния сессии.
type State string

const (
	StateInitializing    State = "initializing"
	StateUnauthenticated State = "unauthenticated"
	StateAuthFailed      State = "auth_failed"
	// Принципал аутентифицирован, но не привязан к текущему тенанту:
	// до завершения онбординга доступ к функциональности закрыт.
	StateAuthenticatedUnregistered State = "authenticated_unregistered"
	StateRegistered                State = "registered"
)

// События машины состояний.
const (
	eventLoginRequired      = "login_required"
	eventAuthFailed         = "auth_failed"
	eventOnboardingRequired = "onboarding_required"
	eventGranted            = "granted"
	eventReset              = "reset"
)

// ErrLoginDeclined возвращается провайдером, если пользователь отказался
// от входа; сессия переходит в терминальный StateAuthFailed.
var ErrLoginDeclined = errors.New("login declined by user")

// ErrNotOnboarding — CompleteOnboarding вызван вне состояния
// authenticated_unregistered.
var ErrNotOnboarding = errors.New("session is not awaiting onboarding")

// Profile — проверенный профиль от внешнего провайдера идентичности.
type Profile struct {
	LineUserID  string
	DisplayName string
	AvatarURL   string
}

// IdentityProvider — внешний провайдер (LINE). Init возвращает (nil, nil),
// если активной сессии нет: вызывающая сторона инициирует редирект на
// логин и после возврата запускает машину заново.
type IdentityProvider interface {
	Init(ctx context.Context) (*Profile, error)
}

// RegistrationStatus — ответ проверки привязки.
type RegistrationStatus struct {
	Registered bool
	RealName   string
	Phone      string
	Role       string
}

// RegisterInput — данные для привязки принципала к тенанту.
type RegisterInput struct {
	LineUserID  string
	DisplayName string
	AvatarURL   string
	TenantID    uuid.UUID
	RealName    string
	Phone       string
}

// Registrar — движок регистрации (напрямую или через API-клиент).
type Registrar interface {
	CheckRegistration(ctx context.Context, lineUserID string, tenantID uuid.UUID) (*RegistrationStatus, error)
	Register(ctx context.Context, in RegisterInput) (*RegistrationStatus, error)
}

// Session — машина состояний одной пользовательской сессии.
// Не потокобезопасна: клиентская модель исполнения однопоточная,
// сетевые вызовы приостанавливают поток до ответа.
type Session struct {
	machine   *fsm.FSM
	provider  IdentityProvider
	registrar Registrar
	tenantID  uuid.UUID

	profile *Profile
	status  *RegistrationStatus
}

// NewSession создаёт сессию в состоянии initializing.
func NewSession(provider IdentityProvider, registrar Registrar, tenantID uuid.UUID) *Session {
	all := []string{
		string(StateInitializing),
		string(StateUnauthenticated),
		string(StateAuthFailed),
		string(StateAuthenticatedUnregistered),
		string(StateRegistered),
	}
	machine := fsm.NewFSM(
		string(StateInitializing),
		fsm.Events{
			{Name: eventLoginRequired, Src: []string{string(StateInitializing)}, Dst: string(StateUnauthenticated)},
			{Name: eventAuthFailed, Src: []string{string(StateInitializing)}, Dst: string(StateAuthFailed)},
			{Name: eventOnboardingRequired, Src: []string{string(StateInitializing)}, Dst: string(StateAuthenticatedUnregistered)},
			{
				Name: eventGranted,
				Src:  []string{string(StateInitializing), string(StateAuthenticatedUnregistered)},
				Dst:  string(StateRegistered),
			},
			{Name: eventReset, Src: all, Dst: string(StateInitializing)},
		},
		fsm.Callbacks{},
	)
	return &Session{
		machine:   machine,
		provider:  provider,
		registrar: registrar,
		tenantID:  tenantID,
	}
}

// Start прогоняет сессию из initializing до первого устойчивого состояния.
// Любой отказ проверки привязки, кроме "не привязан", оставляет сессию
// вне registered: регистрация никогда не предполагается без явного
// подтверждения.
func (s *Session) Start(ctx context.Context) (State, error) {
	if s.State() != StateInitializing {
		return s.State(), fmt.Errorf("session already started in state %q", s.State())
	}

	profile, err := s.provider.Init(ctx)
	if err != nil {
		if fireErr := s.machine.Event(ctx, eventAuthFailed); fireErr != nil {
			return s.State(), fireErr
		}
		return s.State(), err
	}
	if profile == nil {
		// Сессии нет: редирект на логин, машина перезапустится после возврата.
		if err := s.machine.Event(ctx, eventLoginRequired); err != nil {
			return s.State(), err
		}
		return s.State(), nil
	}
	s.profile = profile

	status, err := s.registrar.CheckRegistration(ctx, profile.LineUserID, s.tenantID)
	if err != nil {
		if fireErr := s.machine.Event(ctx, eventAuthFailed); fireErr != nil {
			return s.State(), fireErr
		}
		return s.State(), err
	}
	s.status = status

	if status.Registered {
		if err := s.machine.Event(ctx, eventGranted); err != nil {
			return s.State(), err
		}
		return s.State(), nil
	}

	if err := s.machine.Event(ctx, eventOnboardingRequired); err != nil {
		return s.State(), err
	}
	return s.State(), nil
}

// CompleteOnboarding отправляет анкету и при успехе открывает доступ.
// При отказе сессия остаётся в authenticated_unregistered, ошибка
// возвращается вызывающей стороне.
func (s *Session) CompleteOnboarding(ctx context.Context, realName, phone string) error {
	if s.State() != StateAuthenticatedUnregistered {
		return ErrNotOnboarding
	}

	status, err := s.registrar.Register(ctx, RegisterInput{
		LineUserID:  s.profile.LineUserID,
		DisplayName: s.profile.DisplayName,
		AvatarURL:   s.profile.AvatarURL,
		TenantID:    s.tenantID,
		RealName:    realName,
		Phone:       phone,
	})
	if err != nil {
		return err
	}
	s.status = status

	return s.machine.Event(ctx, eventGranted)
}

// State возвращает текущее состояние сессии.
func (s *Session) State() State {
	return State(s.machine.Current())
}

// Allowed — ворота функциональности: true только в registered.
func (s *Session) Allowed() bool {
	return s.State() == StateRegistered
}

// Profile возвращает профиль провайдера (nil до успешной аутентификации).
func (s *Session) Profile() *Profile {
	return s.profile
}

// Registration возвращает последний известный статус привязки.
func (s *Session) Registration() *RegistrationStatus {
	return s.status
}

// Reset возвращает сессию в initializing (логаут).
func (s *Session) Reset() {
	s.profile = nil
	s.status = nil
	// eventReset допустим из любого состояния.
	_ = s.machine.Event(context.Background(), eventReset)
}
