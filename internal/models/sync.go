package models

// RequestStatus статус входящего запроса на синхронизацию
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Connection представляет направленное ребро графа синхронизации:
// у владельца ребра есть активная связь с партнёром PartnerID.
// Связь концептуально двунаправленная — каждой записи U->P соответствует
// зеркальная P->U с согласованным scope. Связь не считается принятой,
// пока не существуют оба ребра.
type Connection struct {
	PartnerID      string `json:"uid"`              // идентификатор партнёра
	PartnerHandle  string `json:"username"`         // handle партнёра
	PartnerDisplay string `json:"display_name"`     // отображаемое имя партнёра
	ConnectedAt    int64  `json:"connected_at"`     // момент установления связи, unix ms
	SyncedSiteID   string `json:"synced_site_id"`   // scope: site id либо sentinel "all"
	SyncedSiteName string `json:"synced_site_name"` // имя площадки scope для показа
}

// Scope возвращает scope ребра как tagged-вариант.
func (c *Connection) Scope() Scope {
	return SiteScope(c.SyncedSiteID, c.SyncedSiteName)
}

// SyncRequest представляет ожидающее приглашение на синхронизацию,
// лежащее во входящих получателя.
type SyncRequest struct {
	ID           string        `json:"id"`                       // идентификатор запроса
	FromID       string        `json:"from_uid"`                 // отправитель
	FromHandle   string        `json:"from_username"`            // handle отправителя
	FromDisplay  string        `json:"from_display_name"`        // отображаемое имя отправителя
	Status       RequestStatus `json:"status"`                   // pending / accepted / rejected
	Timestamp    int64         `json:"timestamp"`                // момент создания, unix ms
	ProposedSite string        `json:"proposed_site_id,omitempty"`   // предложенный scope (site id)
	ProposedName string        `json:"proposed_site_name,omitempty"` // имя предложенной площадки
}

// ChangeKind вид изменения в ленте изменений пользователя
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
	ChangeRemoved  ChangeKind = "removed"
)

// ChangeDoc тип документа, к которому относится изменение
type ChangeDoc string

const (
	DocConnection ChangeDoc = "connection"
	DocRequest    ChangeDoc = "request"
)

// Change запись ленты изменений дерева пользователя. Sequence монотонно
// растет в пределах одного дерева; клиентский watcher опрашивает ленту
// по since и получает только новые записи.
type Change struct {
	Seq        int64        `json:"seq"`                  // порядковый номер в ленте владельца
	Doc        ChangeDoc    `json:"doc"`                  // тип документа
	Kind       ChangeKind   `json:"kind"`                 // вид изменения
	DocID      string       `json:"doc_id"`               // идентификатор документа
	Connection *Connection  `json:"connection,omitempty"` // снимок ребра для doc=connection
	Request    *SyncRequest `json:"request,omitempty"`    // снимок запроса для doc=request
}

// PartnerView производное состояние агрегатора по одному партнёру.
// Не персистится; существует только пока существует ребро Connection.
// Несёт собственный scope, чтобы периодический re-poll не ходил за ним
// в другое место.
type PartnerView struct {
	PartnerID      string            // идентификатор партнёра
	PartnerHandle  string            // handle партнёра
	PartnerDisplay string            // отображаемое имя
	LastSynced     int64             // момент последнего успешного обновления, unix ms
	Logs           []*HaltLog        // логи партнёра за текущий день, отфильтрованные по scope
	SiteNames      map[string]string // site id -> имя, для показа логов
	Scope          Scope             // scope ребра на момент обновления
}

// Clone создает копию представления (логи и карта имён копируются).
func (v *PartnerView) Clone() *PartnerView {
	c := *v
	c.Logs = make([]*HaltLog, len(v.Logs))
	for i, l := range v.Logs {
		c.Logs[i] = l.Clone()
	}
	c.SiteNames = make(map[string]string, len(v.SiteNames))
	for k, val := range v.SiteNames {
		c.SiteNames[k] = val
	}
	return &c
}
