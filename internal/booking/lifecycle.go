package booking

import (
	"github.com/looplab/fsm"

	"github.com/Leganyst/clinic-booking/internal/model"
)

// Переходы жизненного цикла брони. Имена событий — действия персонала.
const (
	TransitionConfirm  = "confirm"
	TransitionCheckIn  = "check_in"
	TransitionComplete = "complete"
	TransitionCancel   = "cancel"
)

// событие, переводящее бронь в целевой статус
var eventByTarget = map[model.ReservationStatus]string{
	model.ReservationStatusConfirmed: TransitionConfirm,
	model.ReservationStatusCheckedIn: TransitionCheckIn,
	model.ReservationStatusCompleted: TransitionComplete,
	model.ReservationStatusCancelled: TransitionCancel,
}

func lifecycleEvents() fsm.Events {
	return fsm.Events{
		{
			Name: TransitionConfirm,
			Src:  []string{string(model.ReservationStatusPending)},
			Dst:  string(model.ReservationStatusConfirmed),
		},
		{
			Name: TransitionCheckIn,
			Src:  []string{string(model.ReservationStatusConfirmed)},
			Dst:  string(model.ReservationStatusCheckedIn),
		},
		{
			Name: TransitionComplete,
			Src:  []string{string(model.ReservationStatusCheckedIn)},
			Dst:  string(model.ReservationStatusCompleted),
		},
		{
			Name: TransitionCancel,
			Src: []string{
				string(model.ReservationStatusPending),
				string(model.ReservationStatusConfirmed),
				string(model.ReservationStatusCheckedIn),
			},
			Dst: string(model.ReservationStatusCancelled),
		},
	}
}

// Machine строит конечный автомат жизненного цикла поверх текущего статуса.
func Machine(current model.ReservationStatus) *fsm.FSM {
	return fsm.NewFSM(string(current), lifecycleEvents(), fsm.Callbacks{})
}

// CanTransition проверяет допустимость перехода from -> to по графу статусов.
// Переход в тот же статус недопустим.
func CanTransition(from, to model.ReservationStatus) bool {
	ev, ok := eventByTarget[to]
	if !ok {
		return false
	}
	return Machine(from).Can(ev)
}

// Terminal сообщает, является ли статус терминальным.
func Terminal(status model.ReservationStatus) bool {
	return status == model.ReservationStatusCompleted ||
		status == model.ReservationStatusCancelled
}

// Counted сообщает, занимает ли бронь в этом статусе место в слоте.
// Отменённые и только они место не занимают: completed сохраняет
// историческую занятость слота.
func Counted(status model.ReservationStatus) bool {
	return status != model.ReservationStatusCancelled
}
