package api

// Connection представляет ребро графа синхронизации на проводе.
// Лежит в дереве владельца под ключом партнёра.
type Connection struct {
	PartnerID      string `json:"uid"`
	PartnerHandle  string `json:"username"`
	PartnerDisplay string `json:"display_name"`
	ConnectedAt    int64  `json:"connected_at"`
	SyncedSiteID   string `json:"synced_site_id"`
	SyncedSiteName string `json:"synced_site_name"`
}

// ConnectionsResponse список рёбер владельца
type ConnectionsResponse struct {
	Connections []Connection `json:"connections"`
}

// SyncRequest представляет приглашение во входящих получателя.
// Поля отправителя сервер заполняет из токена, а не из тела.
type SyncRequest struct {
	ID           string `json:"id"`
	FromID       string `json:"from_uid"`
	FromHandle   string `json:"from_username"`
	FromDisplay  string `json:"from_display_name"`
	Status       string `json:"status"`
	Timestamp    int64  `json:"timestamp"`
	ProposedSite string `json:"proposed_site_id,omitempty"`
	ProposedName string `json:"proposed_site_name,omitempty"`
}

// CreateSyncRequest тело POST при создании приглашения
type CreateSyncRequest struct {
	ProposedSite string `json:"proposed_site_id,omitempty"`
	ProposedName string `json:"proposed_site_name,omitempty"`
}

// UpdateRequestStatusRequest тело PATCH при смене статуса приглашения
type UpdateRequestStatusRequest struct {
	Status string `json:"status"` // accepted | rejected
}

// SyncRequestsResponse входящие pending-приглашения
type SyncRequestsResponse struct {
	Requests []SyncRequest `json:"requests"`
}

// Виды изменений в change feed.
const (
	ChangeAdded    = "added"
	ChangeModified = "modified"
	ChangeRemoved  = "removed"
)

// Виды документов в change feed.
const (
	DocConnection = "connection"
	DocRequest    = "request"
)

// Change одна дельта в change feed наблюдателя.
// Seq монотонно растёт в пределах наблюдателя; клиент передаёт последний
// увиденный Seq в параметре since следующего запроса.
type Change struct {
	Seq        int64        `json:"seq"`
	Doc        string       `json:"doc"`  // connection | request
	Kind       string       `json:"kind"` // added | modified | removed
	Connection *Connection  `json:"connection,omitempty"`
	Request    *SyncRequest `json:"request,omitempty"`
	DocID      string       `json:"doc_id"` // id удалённого документа при kind=removed
}

// ChangesResponse ответ change feed
type ChangesResponse struct {
	Changes []Change `json:"changes"`
	LastSeq int64    `json:"last_seq"` // текущий максимальный seq наблюдателя
}
