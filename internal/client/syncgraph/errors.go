package syncgraph

import "errors"

var (
	// ErrNotFound возвращается, когда handle или запрос не существует
	ErrNotFound = errors.New("not found")

	// ErrSelfReference возвращается при попытке пригласить самого себя
	ErrSelfReference = errors.New("cannot sync with yourself")

	// ErrAlreadyConnected возвращается на повторное приглашение без scope
	// уже подключенного партнёра
	ErrAlreadyConnected = errors.New("already connected to this partner")

	// ErrRequestNotFound возвращается при обработке исчезнувшего запроса.
	// Второй accept/reject того же запроса попадает сюда, а не создает
	// дубликат связи
	ErrRequestNotFound = errors.New("sync request not found")

	// ErrPartialPropagation возвращается, когда своя сторона
	// двунаправленной мутации закоммичена, а партнёрская упала.
	// Кросс-владельческих транзакций у хранилища нет; локально
	// успешная сторона считается авторитетной
	ErrPartialPropagation = errors.New("partner side of the update failed")
)
