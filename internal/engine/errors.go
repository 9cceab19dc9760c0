package engine

import "errors"

var (
	// ErrUnavailable возвращается, если устройство вывода не удалось инициализировать
	ErrUnavailable = errors.New("вывод звука недоступен")
	// ErrInvalidLoop - конец петли не больше начала
	ErrInvalidLoop = errors.New("неверные границы петли")
	// ErrMarkerNotFound - маркера с таким номером нет
	ErrMarkerNotFound = errors.New("маркер не найден")
)
