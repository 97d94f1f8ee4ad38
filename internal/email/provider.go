package email

// Provider определяет интерфейс для отправки email.
// Ядро использует его как best-effort фоллбек доставки уведомлений
// офлайн-пользователям; никакой доменный поток от него не зависит.
type Provider interface {
	// Send отправляет простое письмо одному получателю
	Send(to, subject, body string) error
}
