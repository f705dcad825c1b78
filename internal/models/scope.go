package models

// Sentinel-значения, в которых scope ходит по проводу.
// Исторический формат: конкретный site id либо строка "all".
const (
	ScopeAllID   = "all"
	ScopeAllName = "All Sites"

	// DefaultSiteID id автоматически создаваемой площадки.
	// Логи без site-метки считаются принадлежащими именно ей.
	DefaultSiteID   = "default-site"
	DefaultSiteName = "Main Site"
)

// Scope определяет область видимости соединения с партнёром:
// либо все площадки партнёра, либо одна конкретная.
// Tagged-вариант вместо голых строк: фильтрующая логика обязана быть
// исчерпывающей и не может молча промахнуться мимо sentinel-значения.
type Scope struct {
	id   string
	name string
}

// AllSites возвращает scope, охватывающий все площадки.
func AllSites() Scope {
	return Scope{id: ScopeAllID, name: ScopeAllName}
}

// SiteScope возвращает scope, ограниченный одной площадкой.
// Пустой id трактуется как AllSites — исторические записи без scope.
func SiteScope(id, name string) Scope {
	if id == "" || id == ScopeAllID {
		return AllSites()
	}
	return Scope{id: id, name: name}
}

// IsAll сообщает, охватывает ли scope все площадки.
func (s Scope) IsAll() bool {
	return s.id == ScopeAllID || s.id == ""
}

// SiteID возвращает id площадки; для AllSites — sentinel "all".
func (s Scope) SiteID() string {
	if s.IsAll() {
		return ScopeAllID
	}
	return s.id
}

// DisplayName возвращает имя для показа пользователю.
func (s Scope) DisplayName() string {
	if s.IsAll() {
		return ScopeAllName
	}
	if s.name == "" {
		return s.id
	}
	return s.name
}

// Matches проверяет, попадает ли лог в данный scope.
// Лог без site-метки принадлежит только площадке по умолчанию.
func (s Scope) Matches(log *HaltLog) bool {
	if s.IsAll() {
		return true
	}
	if log.SiteID == "" {
		return s.id == DefaultSiteID
	}
	return log.SiteID == s.id
}

// Equal сравнивает два scope по id.
func (s Scope) Equal(other Scope) bool {
	return s.SiteID() == other.SiteID()
}
